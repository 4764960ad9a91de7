package subscriptions

import (
	"context"
	"errors"
	"time"

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

// FindByTenant loads the subscription for an establishment.
func (r *PGRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	var plan, status string
	var expiresAt, lastPayment *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, plan::text, status::text, (price * 100)::bigint, started_at,
		        expires_at, last_payment_date, payment_gateway, payment_method, created_at, updated_at
		 FROM subscriptions WHERE tenant_id = $1`, tenantID).
		Scan(&sub.ID, &sub.TenantID, &plan, &status, &sub.PriceCents, &sub.StartedAt,
			&expiresAt, &lastPayment, &sub.PaymentGateway, &sub.PaymentMethod, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	sub.Plan = Plan(plan)
	sub.Status = Status(status)
	if expiresAt != nil {
		sub.ExpiresAt = *expiresAt
	}
	if lastPayment != nil {
		sub.LastPaymentDate = *lastPayment
	}
	return &sub, nil
}

// MarkExpired flips overdue active subscriptions to inactive and returns how
// many rows changed.
func (r *PGRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'inactive', updated_at = NOW()
		 WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountByStatus returns the number of subscriptions in a given status.
func (r *PGRepository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}
