package repository

import (
	"context"
	"time"

	"purityscan/backend/internal/analysis/domain"
)

// Repository defines persistence for analysis sessions and results.
//
// TransitionStatus is the single-writer guard for the session state machine:
// it updates status only when the row currently holds the expected status and
// reports whether the conditional update won. Callers treat a lost update as
// a conflict (another writer holds or already finished the session).
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetByIDForOrg returns the session only when its device belongs to orgID;
	// cross-org sessions are reported as missing, never filtered to partial data.
	GetByIDForOrg(ctx context.Context, orgID, id string) (*domain.Session, error)
	// ListByOrg returns sessions of devices owned by orgID, newest first, capped at limit.
	ListByOrg(ctx context.Context, orgID string, limit int) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// TransitionStatus conditionally moves the session from the expected status
	// to next, optionally setting completed_at and replacing metadata.
	// Returns false (and no error) when the row was not in the expected status.
	TransitionStatus(ctx context.Context, id string, expected, next domain.Status, completedAt *time.Time, metadata *domain.Metadata) (bool, error)
	// CompleteWithResult atomically moves the session from processing to
	// completed and inserts the result, guarded by the same conditional status
	// check. Returns false (and writes nothing) when the session was no longer
	// processing; the caller discards the result.
	CompleteWithResult(ctx context.Context, id string, completedAt time.Time, metadata domain.Metadata, result *domain.Result) (bool, error)
	CreateResult(ctx context.Context, r *domain.Result) error
	// LatestResultBySession returns the newest result for the session, or nil.
	LatestResultBySession(ctx context.Context, sessionID string) (*domain.Result, error)
}
