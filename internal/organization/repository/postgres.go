package repository

import (
	"context"
	"database/sql"
	"errors"

	"purityscan/backend/internal/organization/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const q = `SELECT id, name, status, created_at FROM organizations WHERE id = $1`
	var o domain.Organization
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.Name, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the organization. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Organization) error {
	const q = `INSERT INTO organizations (id, name, status, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, o.ID, o.Name, o.Status, o.CreatedAt)
	return err
}
