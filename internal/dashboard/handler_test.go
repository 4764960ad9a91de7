package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimmenta/alimmenta/internal/dashboard"
	"github.com/alimmenta/alimmenta/internal/orders"
	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/profiles"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/subscriptions"
	"github.com/alimmenta/alimmenta/internal/tenants"
	"github.com/alimmenta/alimmenta/internal/view"
	_ "github.com/alimmenta/alimmenta/testing"
)

type roleStore struct {
	labels map[uuid.UUID][]string
}

func (s *roleStore) ListRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.labels[userID], nil
}

func (s *roleStore) Insert(ctx context.Context, id, userID uuid.UUID, role roles.Role) error {
	s.labels[userID] = append(s.labels[userID], string(role))
	return nil
}

type tenantRepo struct{ byOwner map[uuid.UUID]*tenants.Tenant }

func (m *tenantRepo) CreateWithSubscription(ctx context.Context, t *tenants.Tenant) error {
	if _, ok := m.byOwner[t.OwnerID]; ok {
		return tenants.ErrOwnerHasTenant
	}
	m.byOwner[t.OwnerID] = t
	return nil
}
func (m *tenantRepo) Update(ctx context.Context, t *tenants.Tenant) error {
	m.byOwner[t.OwnerID] = t
	return nil
}
func (m *tenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*tenants.Tenant, error) {
	for _, t := range m.byOwner {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}
func (m *tenantRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*tenants.Tenant, error) {
	t, ok := m.byOwner[ownerID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}
func (m *tenantRepo) ListActive(ctx context.Context, query string, limit int) ([]tenants.Tenant, error) {
	var out []tenants.Tenant
	for _, t := range m.byOwner {
		out = append(out, *t)
	}
	return out, nil
}
func (m *tenantRepo) Count(ctx context.Context) (int64, error) { return int64(len(m.byOwner)), nil }

type productRepo struct{ items map[uuid.UUID]*products.Product }

func (m *productRepo) Create(ctx context.Context, p *products.Product) error {
	m.items[p.ID] = p
	return nil
}
func (m *productRepo) Update(ctx context.Context, p *products.Product) error {
	m.items[p.ID] = p
	return nil
}
func (m *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*products.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}
func (m *productRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]products.Product, error) {
	var out []products.Product
	for _, p := range m.items {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (m *productRepo) ListAvailable(ctx context.Context, limit int) ([]products.Product, error) {
	var out []products.Product
	for _, p := range m.items {
		if p.Available {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (m *productRepo) ListCategories(ctx context.Context) ([]products.Category, error) {
	return nil, nil
}
func (m *productRepo) Count(ctx context.Context) (int64, error) { return int64(len(m.items)), nil }

type profileRepo struct {
	catalogue []profiles.Restriction
	byUser    map[uuid.UUID]*profiles.Profile
}

func (m *profileRepo) ListRestrictions(ctx context.Context) ([]profiles.Restriction, error) {
	return m.catalogue, nil
}
func (m *profileRepo) FindProfile(ctx context.Context, userID uuid.UUID) (*profiles.Profile, error) {
	p, ok := m.byUser[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}
func (m *profileRepo) UpsertProfile(ctx context.Context, p *profiles.Profile) error {
	m.byUser[p.UserID] = p
	return nil
}

type subscriptionRepo struct{ byTenant map[uuid.UUID]*subscriptions.Subscription }

func (m *subscriptionRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Subscription, error) {
	sub, ok := m.byTenant[tenantID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sub, nil
}
func (m *subscriptionRepo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (m *subscriptionRepo) CountByStatus(ctx context.Context, status subscriptions.Status) (int64, error) {
	return 0, nil
}

type orderRepo struct{}

func (orderRepo) RecentByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]orders.Order, error) {
	return nil, nil
}
func (orderRepo) StatusCounts(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	return map[string]int64{}, nil
}
func (orderRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

type userCounter struct{ n int64 }

func (u userCounter) CountUsers(ctx context.Context) (int64, error) { return u.n, nil }

type fixture struct {
	router   chi.Router
	sessions *shared.SessionManager
	store    *roleStore
	tenants  *tenantRepo
	products *productRepo
	profiles *profileRepo
	subs     *subscriptionRepo
	hub      *roles.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)

	store := &roleStore{labels: map[uuid.UUID][]string{}}
	resolver := roles.NewResolver(store, nil, nil)
	hub := roles.NewHub(resolver)

	tr := &tenantRepo{byOwner: map[uuid.UUID]*tenants.Tenant{}}
	pr := &productRepo{items: map[uuid.UUID]*products.Product{}}
	fr := &profileRepo{byUser: map[uuid.UUID]*profiles.Profile{}}
	sr := &subscriptionRepo{byTenant: map[uuid.UUID]*subscriptions.Subscription{}}

	handler := dashboard.NewHandler(dashboard.Deps{
		Templates:     templates,
		CSRF:          csrfManager,
		Hub:           hub,
		Resolver:      resolver,
		Tenants:       tenants.NewService(tr, nil, nil),
		Products:      products.NewService(pr, nil, nil),
		Profiles:      profiles.NewService(fr),
		Subscriptions: subscriptions.NewService(sr, nil),
		Orders:        orders.NewService(orderRepo{}),
		Users:         userCounter{n: 3},
	})

	router := chi.NewRouter()
	handler.MountRoutes(router, roles.Middleware{Resolver: resolver})

	return &fixture{
		router:   router,
		sessions: sessionManager,
		store:    store,
		tenants:  tr,
		products: pr,
		profiles: fr,
		subs:     sr,
		hub:      hub,
	}
}

func (fx *fixture) get(t *testing.T, target string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	sess, err := fx.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != uuid.Nil {
		sess.SetUser(userID.String())
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)
	return res
}

func TestHomeListsCompatibleProducts(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()
	glutenFree := profiles.Restriction{ID: uuid.New(), Code: "sem-gluten", Name: "Sem Glúten"}
	fx.profiles.catalogue = []profiles.Restriction{glutenFree}
	fx.profiles.byUser[userID] = &profiles.Profile{UserID: userID, Restrictions: []uuid.UUID{glutenFree.ID}}

	tenantID := uuid.New()
	fx.products.items[uuid.New()] = &products.Product{
		ID: uuid.New(), TenantID: tenantID, Name: "Pão sem glúten", Available: true,
		SafeFor: []uuid.UUID{glutenFree.ID}, RestrictionNames: []string{"Sem Glúten"},
	}
	fx.products.items[uuid.New()] = &products.Product{
		ID: uuid.New(), TenantID: tenantID, Name: "Pão comum", Available: true,
	}

	res := fx.get(t, "/home", userID)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Pão sem glúten")
	assert.NotContains(t, body, "Pão comum")
	assert.Contains(t, body, "Sem Glúten")
}

func TestHomeRequiresAuthentication(t *testing.T) {
	fx := newFixture(t)

	res := fx.get(t, "/home", uuid.Nil)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login", res.Header().Get("Location"))
}

func TestClienteGatedByRole(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()

	res := fx.get(t, "/cliente", userID)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/home", res.Header().Get("Location"))

	fx.store.labels[userID] = []string{"cliente"}
	res = fx.get(t, "/cliente", userID)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Cadastre o seu estabelecimento")
}

func TestAdminShowsStats(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()
	fx.store.labels[userID] = []string{"admin"}

	res := fx.get(t, "/admin", userID)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Administração")
}

func TestRoleSelectRedirectsSingleRole(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()
	fx.store.labels[userID] = []string{"cliente"}

	res := fx.get(t, "/roles/select", userID)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/cliente", res.Header().Get("Location"))
}

func TestRoleSelectShowsChoices(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()
	fx.store.labels[userID] = []string{"admin", "cliente"}

	res := fx.get(t, "/roles/select", userID)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Como deseja continuar?")
	assert.Contains(t, body, `value="admin"`)
	assert.Contains(t, body, `value="cliente"`)
}

func TestSessionEndpoint(t *testing.T) {
	fx := newFixture(t)

	res := fx.get(t, "/session", uuid.Nil)
	require.Equal(t, http.StatusOK, res.Code)
	var anon struct {
		Authenticated bool   `json:"authenticated"`
		State         string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &anon))
	assert.False(t, anon.Authenticated)
	assert.Equal(t, "unauthenticated", anon.State)

	userID := uuid.New()
	fx.store.labels[userID] = []string{"cliente"}
	res = fx.get(t, "/session", userID)
	require.Equal(t, http.StatusOK, res.Code)
	var signed struct {
		Authenticated bool     `json:"authenticated"`
		State         string   `json:"state"`
		Roles         []string `json:"roles"`
		Destination   string   `json:"destination"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &signed))
	assert.True(t, signed.Authenticated)
	assert.Equal(t, "cliente_dashboard", signed.State)
	assert.Equal(t, []string{"cliente"}, signed.Roles)
	assert.Equal(t, "/cliente", signed.Destination)
}

func TestProductExport(t *testing.T) {
	fx := newFixture(t)
	userID := uuid.New()
	fx.store.labels[userID] = []string{"cliente"}
	tenantID := uuid.New()
	fx.tenants.byOwner[userID] = &tenants.Tenant{ID: tenantID, OwnerID: userID, Name: "Padaria", Type: tenants.TypePadaria, IsActive: true}
	fx.products.items[uuid.New()] = &products.Product{ID: uuid.New(), TenantID: tenantID, Name: "Tapioca", PriceCents: 650, Available: true}

	res := fx.get(t, "/cliente/products/export", userID)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.Contains(res.Body.String(), "Tapioca"))
}
