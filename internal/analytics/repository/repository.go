package repository

import (
	"context"

	"purityscan/backend/internal/analytics/domain"
)

// Repository computes analytics aggregates.
type Repository interface {
	SummaryByOrg(ctx context.Context, orgID string) (*domain.Summary, error)
}
