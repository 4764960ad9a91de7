package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns the raw role labels for a user in insertion order.
func (r *Repository) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role::text FROM user_roles WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// Insert records a new role assignment. A duplicate (user, role) pair is
// rejected by the unique index and surfaced as ErrRoleAlreadyAssigned.
func (r *Repository) Insert(ctx context.Context, id, userID uuid.UUID, role Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (id, user_id, role) VALUES ($1, $2, $3::app_role)`, id, userID, string(role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrRoleAlreadyAssigned
		}
		return err
	}
	return nil
}
