package repository

import (
	"context"
	"database/sql"

	"purityscan/backend/internal/analytics/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an analytics repository over the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SummaryByOrg rolls up the org's sessions in one aggregate query. The purity
// average is taken over each session's latest result so stray extra result
// rows cannot skew it.
func (r *PostgresRepository) SummaryByOrg(ctx context.Context, orgID string) (*domain.Summary, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE s.status = 'pending'),
			COUNT(*) FILTER (WHERE s.status = 'processing'),
			COUNT(*) FILTER (WHERE s.status = 'completed'),
			COUNT(*) FILTER (WHERE s.status = 'failed'),
			COALESCE(AVG(latest.purity_percentage), 0),
			MAX(GREATEST(s.started_at, COALESCE(s.completed_at, s.started_at)))
		FROM analysis_sessions s
		JOIN devices d ON d.id = s.device_id
		LEFT JOIN LATERAL (
			SELECT purity_percentage
			FROM analysis_results
			WHERE session_id = s.id
			ORDER BY created_at DESC
			LIMIT 1
		) latest ON TRUE
		WHERE d.org_id = $1`
	var sum domain.Summary
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, q, orgID).Scan(
		&sum.Pending, &sum.Processing, &sum.Completed, &sum.Failed, &sum.AveragePurity, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		sum.LastActivityAt = &last.Time
	}
	return &sum, nil
}
