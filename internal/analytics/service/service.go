// Package service exposes the analytics roll-up entry point. The aggregation
// itself lives in one SQL query; this layer only applies org scoping and
// error classification.
package service

import (
	"context"

	"purityscan/backend/internal/analytics/domain"
	analyticsrepo "purityscan/backend/internal/analytics/repository"
	"purityscan/backend/internal/platform/apperr"
)

type Service struct {
	repo analyticsrepo.Repository
}

func NewService(repo analyticsrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Summary returns the org's analytics roll-up.
func (s *Service) Summary(ctx context.Context, orgID string) (*domain.Summary, error) {
	sum, err := s.repo.SummaryByOrg(ctx, orgID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "analytics summary failed", err)
	}
	return sum, nil
}
