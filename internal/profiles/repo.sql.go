package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRestrictions returns the restriction catalogue in display order.
func (r *PGRepository) ListRestrictions(ctx context.Context) ([]Restriction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, description, icon, severity, created_at FROM dietary_restrictions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Restriction
	for rows.Next() {
		var restriction Restriction
		if err := rows.Scan(&restriction.ID, &restriction.Code, &restriction.Name,
			&restriction.Description, &restriction.Icon, &restriction.Severity, &restriction.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, restriction)
	}
	return out, rows.Err()
}

// FindProfile loads the user's dietary profile.
func (r *PGRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var profile Profile
	var labels []string
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, restrictions, notes, created_at, updated_at FROM user_dietary_profiles WHERE user_id = $1`,
		userID).
		Scan(&profile.ID, &profile.UserID, &labels, &profile.Notes, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	profile.Restrictions = make([]uuid.UUID, 0, len(labels))
	for _, label := range labels {
		id, err := uuid.Parse(label)
		if err != nil {
			continue
		}
		profile.Restrictions = append(profile.Restrictions, id)
	}
	return &profile, nil
}

// UpsertProfile creates or replaces the user's profile.
func (r *PGRepository) UpsertProfile(ctx context.Context, profile *Profile) error {
	labels := make([]string, len(profile.Restrictions))
	for i, id := range profile.Restrictions {
		labels[i] = id.String()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_dietary_profiles (id, user_id, restrictions, notes)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET restrictions = EXCLUDED.restrictions, notes = EXCLUDED.notes, updated_at = NOW()`,
		profile.ID, profile.UserID, labels, profile.Notes)
	return err
}
