package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alimmenta/alimmenta/internal/platform/db"
	"github.com/alimmenta/alimmenta/internal/shared"
)

const tenantColumns = `id, owner_id, name, type::text, description, address, city, phone, email, logo_url, is_active, created_at, updated_at`

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateWithSubscription inserts the tenant and its free subscription in one
// transaction so an establishment never exists without a plan.
func (r *PGRepository) CreateWithSubscription(ctx context.Context, tenant *Tenant) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO tenants (id, owner_id, name, type, description, address, city, phone, email, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			tenant.ID, tenant.OwnerID, tenant.Name, string(tenant.Type), tenant.Description,
			tenant.Address, tenant.City, tenant.Phone, tenant.Email, tenant.IsActive)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrOwnerHasTenant
			}
			return err
		}

		subID, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO subscriptions (id, tenant_id, plan, status, price) VALUES ($1, $2, 'free', 'active', 0)`,
			subID, tenant.ID)
		return err
	})
}

// Update persists mutable tenant fields.
func (r *PGRepository) Update(ctx context.Context, tenant *Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, type = $3, description = $4, address = $5, city = $6,
		        phone = $7, email = $8, logo_url = $9, is_active = $10, updated_at = NOW()
		 WHERE id = $1`,
		tenant.ID, tenant.Name, string(tenant.Type), tenant.Description, tenant.Address,
		tenant.City, tenant.Phone, tenant.Email, tenant.LogoURL, tenant.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads one tenant.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// FindByOwner loads the tenant owned by the given account.
func (r *PGRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE owner_id = $1`, ownerID)
	return scanTenant(row)
}

// ListActive returns active tenants matching the query, newest first.
func (r *PGRepository) ListActive(ctx context.Context, query string, limit int) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants
		 WHERE is_active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR city ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC
		 LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Count returns the total number of tenants.
func (r *PGRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&n)
	return n, err
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	var estType string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &estType, &t.Description, &t.Address, &t.City,
		&t.Phone, &t.Email, &t.LogoURL, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	t.Type = EstablishmentType(estType)
	return &t, nil
}
