package repository

import (
	"context"
	"time"

	"purityscan/backend/internal/device/domain"
)

// Repository defines persistence for devices.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
