package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"purityscan/backend/internal/analysis/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session/result repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `s.id, s.device_id, COALESCE(s.user_id, ''), COALESCE(s.material_id, ''),
	COALESCE(s.name, ''), COALESCE(s.sample_type, ''), s.status, s.started_at, s.completed_at, s.metadata`

func scanSession(scan func(dest ...any) error) (*domain.Session, error) {
	var s domain.Session
	var completedAt sql.NullTime
	var metadata []byte
	err := scan(&s.ID, &s.DeviceID, &s.UserID, &s.MaterialID, &s.Name, &s.SampleType,
		&s.Status, &s.StartedAt, &completedAt, &metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if err := s.Metadata.UnmarshalValue(metadata); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM analysis_sessions s WHERE s.id = $1`, id)
	return scanSession(row.Scan)
}

// GetByIDForOrg returns the session only when its device belongs to orgID, or nil otherwise.
// Cross-org and missing sessions are indistinguishable to the caller.
func (r *PostgresRepository) GetByIDForOrg(ctx context.Context, orgID, id string) (*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + `
	           FROM analysis_sessions s
	           JOIN devices d ON d.id = s.device_id
	           WHERE s.id = $1 AND d.org_id = $2`
	row := r.db.QueryRowContext(ctx, q, id, orgID)
	return scanSession(row.Scan)
}

// ListByOrg returns sessions of devices owned by orgID, ordered by start time descending.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit int) ([]*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + `
	           FROM analysis_sessions s
	           JOIN devices d ON d.id = s.device_id
	           WHERE d.org_id = $1
	           ORDER BY s.started_at DESC
	           LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Session{}
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session. The session must have ID and Status set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	metadata, err := s.Metadata.MarshalValue()
	if err != nil {
		return err
	}
	completedAt := sql.NullTime{}
	if s.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *s.CompletedAt, Valid: true}
	}
	const q = `INSERT INTO analysis_sessions
	           (id, device_id, user_id, material_id, name, sample_type, status, started_at, completed_at, metadata)
	           VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, q, s.ID, s.DeviceID, s.UserID, s.MaterialID, s.Name,
		s.SampleType, s.Status, s.StartedAt, completedAt, metadata)
	return err
}

// TransitionStatus conditionally moves the session from expected to next.
// The WHERE clause on the current status makes this an optimistic single-writer
// lock: concurrent writers race on the same row and exactly one sees rows=1.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id string, expected, next domain.Status, completedAt *time.Time, metadata *domain.Metadata) (bool, error) {
	ca := sql.NullTime{}
	if completedAt != nil {
		ca = sql.NullTime{Time: *completedAt, Valid: true}
	}
	var res sql.Result
	var err error
	if metadata != nil {
		raw, merr := metadata.MarshalValue()
		if merr != nil {
			return false, merr
		}
		const q = `UPDATE analysis_sessions
		           SET status = $3, completed_at = COALESCE($4, completed_at), metadata = $5
		           WHERE id = $1 AND status = $2`
		res, err = r.db.ExecContext(ctx, q, id, expected, next, ca, raw)
	} else {
		const q = `UPDATE analysis_sessions
		           SET status = $3, completed_at = COALESCE($4, completed_at)
		           WHERE id = $1 AND status = $2`
		res, err = r.db.ExecContext(ctx, q, id, expected, next, ca)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompleteWithResult atomically completes the session and inserts its result.
// The conditional UPDATE and the INSERT share one transaction so a lost race
// (session no longer processing) writes nothing and the late result is dropped.
func (r *PostgresRepository) CompleteWithResult(ctx context.Context, id string, completedAt time.Time, metadata domain.Metadata, result *domain.Result) (bool, error) {
	raw, err := metadata.MarshalValue()
	if err != nil {
		return false, err
	}
	contaminants, err := json.Marshal(result.Contaminants)
	if err != nil {
		return false, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	const upd = `UPDATE analysis_sessions
	             SET status = $2, completed_at = $3, metadata = $4
	             WHERE id = $1 AND status = $5`
	res, err := tx.ExecContext(ctx, upd, id, domain.StatusCompleted, completedAt, raw, domain.StatusProcessing)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}
	const ins = `INSERT INTO analysis_results
	             (id, session_id, purity_percentage, confidence_score, model_version, contaminants, created_at)
	             VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, ins, result.ID, result.SessionID, result.PurityPercentage,
		result.ConfidenceScore, result.ModelVersion, contaminants, result.CreatedAt); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// CreateResult persists the result. The result must have ID set.
func (r *PostgresRepository) CreateResult(ctx context.Context, res *domain.Result) error {
	contaminants, err := json.Marshal(res.Contaminants)
	if err != nil {
		return err
	}
	const q = `INSERT INTO analysis_results
	           (id, session_id, purity_percentage, confidence_score, model_version, contaminants, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.ExecContext(ctx, q, res.ID, res.SessionID, res.PurityPercentage,
		res.ConfidenceScore, res.ModelVersion, contaminants, res.CreatedAt)
	return err
}

// LatestResultBySession returns the newest result for the session, or nil if none exists.
func (r *PostgresRepository) LatestResultBySession(ctx context.Context, sessionID string) (*domain.Result, error) {
	const q = `SELECT id, session_id, purity_percentage, confidence_score, model_version, contaminants, created_at
	           FROM analysis_results
	           WHERE session_id = $1
	           ORDER BY created_at DESC
	           LIMIT 1`
	var res domain.Result
	var contaminants []byte
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&res.ID, &res.SessionID,
		&res.PurityPercentage, &res.ConfidenceScore, &res.ModelVersion, &contaminants, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(contaminants) > 0 {
		if err := json.Unmarshal(contaminants, &res.Contaminants); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
