package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"purityscan/backend/internal/analytics/domain"
	"purityscan/backend/internal/platform/apperr"
)

type fakeRepo struct {
	summaries map[string]*domain.Summary
	err       error
}

func (r *fakeRepo) SummaryByOrg(_ context.Context, orgID string) (*domain.Summary, error) {
	if r.err != nil {
		return nil, r.err
	}
	if s, ok := r.summaries[orgID]; ok {
		return s, nil
	}
	return &domain.Summary{}, nil
}

func TestSummary(t *testing.T) {
	now := time.Now().UTC()
	svc := NewService(&fakeRepo{summaries: map[string]*domain.Summary{
		"org-a": {Pending: 1, Completed: 3, AveragePurity: 91.2, LastActivityAt: &now},
	}})

	got, err := svc.Summary(context.Background(), "org-a")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.Completed != 3 || got.AveragePurity != 91.2 {
		t.Errorf("summary = %+v", got)
	}

	empty, err := svc.Summary(context.Background(), "org-empty")
	if err != nil {
		t.Fatalf("Summary (empty org): %v", err)
	}
	if empty.Pending != 0 || empty.AveragePurity != 0 || empty.LastActivityAt != nil {
		t.Errorf("empty summary = %+v, want zero values", empty)
	}
}

func TestSummary_RepoError(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("db down")})
	_, err := svc.Summary(context.Background(), "org-a")
	if !apperr.Is(err, apperr.CodeInternal) {
		t.Fatalf("err = %v, want internal", err)
	}
}
