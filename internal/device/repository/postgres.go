package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"purityscan/backend/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const deviceColumns = `id, org_id, name, COALESCE(api_key_hash, ''), last_seen_at, created_at`

func scanDevice(scan func(dest ...any) error) (*domain.Device, error) {
	var d domain.Device
	var lastSeen sql.NullTime
	err := scan(&d.ID, &d.OrgID, &d.Name, &d.APIKeyHash, &lastSeen, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastSeen.Valid {
		d.LastSeenAt = &lastSeen.Time
	}
	return &d, nil
}

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	return scanDevice(row.Scan)
}

// ListByOrg returns all devices for the given org. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create persists the device to the database. The device must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	lastSeen := sql.NullTime{}
	if d.LastSeenAt != nil {
		lastSeen = sql.NullTime{Time: *d.LastSeenAt, Valid: true}
	}
	const q = `INSERT INTO devices (id, org_id, name, api_key_hash, last_seen_at, created_at)
	           VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
	_, err := r.db.ExecContext(ctx, q, d.ID, d.OrgID, d.Name, d.APIKeyHash, lastSeen, d.CreatedAt)
	return err
}

// UpdateLastSeen sets the device's last-seen timestamp for the given id.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE devices SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}
