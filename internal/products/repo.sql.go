package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alimmenta/alimmenta/internal/platform/db"
	"github.com/alimmenta/alimmenta/internal/shared"
)

// productQuery aggregates the safe restrictions per product so one round
// trip carries everything the views need.
const productQuery = `
SELECT p.id, p.tenant_id, COALESCE(p.category_id, '00000000-0000-0000-0000-000000000000'::uuid),
       COALESCE(c.name, ''), p.name, p.description, (p.price * 100)::bigint,
       p.sku, p.barcode, p.image_url, p.ingredients, p.allergens, p.stock_quantity, p.is_active,
       COALESCE(array_agg(pr.restriction_id) FILTER (WHERE pr.is_safe), '{}'),
       COALESCE(array_agg(dr.name) FILTER (WHERE pr.is_safe), '{}'),
       p.created_at, p.updated_at
FROM products p
LEFT JOIN product_categories c ON c.id = p.category_id
LEFT JOIN product_restrictions pr ON pr.product_id = p.id
LEFT JOIN dietary_restrictions dr ON dr.id = pr.restriction_id
`

const productGroup = ` GROUP BY p.id, c.name`

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts the product and its restriction markings atomically.
func (r *PGRepository) Create(ctx context.Context, product *Product) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var categoryID any
		if product.CategoryID != uuid.Nil {
			categoryID = product.CategoryID
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO products (id, tenant_id, category_id, name, description, price, sku, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6::bigint / 100.0, $7, $8)`,
			product.ID, product.TenantID, categoryID, product.Name, product.Description,
			product.PriceCents, product.SKU, product.Available)
		if err != nil {
			return err
		}
		return insertRestrictions(ctx, tx, product.ID, product.SafeFor)
	})
}

// Update replaces the product row and its restriction markings.
func (r *PGRepository) Update(ctx context.Context, product *Product) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var categoryID any
		if product.CategoryID != uuid.Nil {
			categoryID = product.CategoryID
		}
		tag, err := tx.Exec(ctx,
			`UPDATE products SET category_id = $2, name = $3, description = $4, price = $5::bigint / 100.0,
			        sku = $6, is_active = $7, updated_at = NOW()
			 WHERE id = $1`,
			product.ID, categoryID, product.Name, product.Description,
			product.PriceCents, product.SKU, product.Available)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM product_restrictions WHERE product_id = $1`, product.ID); err != nil {
			return err
		}
		return insertRestrictions(ctx, tx, product.ID, product.SafeFor)
	})
}

// FindByID loads one product with its restriction markings.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	rows, err := r.pool.Query(ctx, productQuery+` WHERE p.id = $1`+productGroup, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := collect(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrNotFound
	}
	return &items[0], nil
}

// ListByTenant returns the establishment's catalogue, newest first.
func (r *PGRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Product, error) {
	rows, err := r.pool.Query(ctx, productQuery+` WHERE p.tenant_id = $1`+productGroup+` ORDER BY p.created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAvailable returns products available for sale platform-wide.
func (r *PGRepository) ListAvailable(ctx context.Context, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, productQuery+` WHERE p.is_active`+productGroup+` ORDER BY p.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListCategories returns the category catalogue in display order.
func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, icon, created_at FROM product_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of products.
func (r *PGRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func insertRestrictions(ctx context.Context, tx pgx.Tx, productID uuid.UUID, restrictionIDs []uuid.UUID) error {
	for _, restrictionID := range restrictionIDs {
		id, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO product_restrictions (id, product_id, restriction_id, is_safe) VALUES ($1, $2, $3, TRUE)
			 ON CONFLICT (product_id, restriction_id) DO UPDATE SET is_safe = TRUE`,
			id, productID, restrictionID)
		if err != nil {
			return err
		}
	}
	return nil
}

func collect(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		var safeFor []uuid.UUID
		var names []string
		err := rows.Scan(&p.ID, &p.TenantID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Description,
			&p.PriceCents, &p.SKU, &p.Barcode, &p.ImageURL, &p.Ingredients, &p.Allergens,
			&p.StockQuantity, &p.Available, &safeFor, &names, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		p.SafeFor = safeFor
		p.RestrictionNames = names
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}
