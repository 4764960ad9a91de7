package products_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/shared"
	_ "github.com/alimmenta/alimmenta/testing"
)

type memRepo struct {
	items      map[uuid.UUID]*products.Product
	categories []products.Category
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[uuid.UUID]*products.Product{}}
}

func (m *memRepo) Create(ctx context.Context, product *products.Product) error {
	m.items[product.ID] = product
	return nil
}

func (m *memRepo) Update(ctx context.Context, product *products.Product) error {
	m.items[product.ID] = product
	return nil
}

func (m *memRepo) FindByID(ctx context.Context, id uuid.UUID) (*products.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (m *memRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]products.Product, error) {
	var out []products.Product
	for _, p := range m.items {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) ListAvailable(ctx context.Context, limit int) ([]products.Product, error) {
	var out []products.Product
	for _, p := range m.items {
		if p.Available {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) ListCategories(ctx context.Context) ([]products.Category, error) {
	return m.categories, nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.items)), nil
}

func TestCreateProduct(t *testing.T) {
	svc := products.NewService(newMemRepo(), nil, nil)
	tenantID := uuid.New()

	p, err := svc.Create(context.Background(), uuid.New(), products.Input{
		TenantID:   tenantID,
		Name:       "  Pão integral ",
		PriceCents: 1250,
		Available:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pão integral", p.Name)
	assert.Equal(t, int64(1250), p.PriceCents)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := products.NewService(newMemRepo(), nil, nil)

	_, err := svc.Create(context.Background(), uuid.New(), products.Input{TenantID: uuid.New(), Name: "x", PriceCents: 100})
	assert.Error(t, err, "single-letter name must be rejected")

	_, err = svc.Create(context.Background(), uuid.New(), products.Input{TenantID: uuid.New(), Name: "Bolo", PriceCents: -1})
	assert.Error(t, err, "negative price must be rejected")
}

func TestUpdateDeniedAcrossTenants(t *testing.T) {
	repo := newMemRepo()
	svc := products.NewService(repo, nil, nil)
	tenantID := uuid.New()

	p, err := svc.Create(context.Background(), uuid.New(), products.Input{TenantID: tenantID, Name: "Suco verde", PriceCents: 900})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), uuid.New(), uuid.New(), p.ID, products.Input{
		TenantID: tenantID, Name: "Suco alterado", PriceCents: 1,
	})
	assert.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestBrowseFiltersByProfile(t *testing.T) {
	repo := newMemRepo()
	svc := products.NewService(repo, nil, nil)
	tenantID := uuid.New()
	glutenFree := uuid.New()

	_, err := svc.Create(context.Background(), uuid.New(), products.Input{
		TenantID: tenantID, Name: "Pão sem glúten", PriceCents: 1500, Available: true, SafeFor: []uuid.UUID{glutenFree},
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), products.Input{
		TenantID: tenantID, Name: "Pão francês", PriceCents: 80, Available: true,
	})
	require.NoError(t, err)

	matched, err := svc.Browse(context.Background(), "pao", []uuid.UUID{glutenFree}, 0)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Pão sem glúten", matched[0].Name)
}

func TestExportCSV(t *testing.T) {
	repo := newMemRepo()
	svc := products.NewService(repo, nil, nil)
	tenantID := uuid.New()

	_, err := svc.Create(context.Background(), uuid.New(), products.Input{
		TenantID: tenantID, Name: "Tapioca", PriceCents: 650, SKU: "TAP-1", Available: true,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, tenantID))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "preco_centavos")
	assert.Contains(t, lines[1], "Tapioca")
	assert.Contains(t, lines[1], "650")
}
