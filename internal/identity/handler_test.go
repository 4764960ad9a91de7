package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/alimmenta/alimmenta/internal/identity"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/view"
	_ "github.com/alimmenta/alimmenta/testing"
)

type stubRepo struct {
	user    *identity.User
	created *identity.User
}

func (s *stubRepo) CreateUser(ctx context.Context, user *identity.User) error {
	if s.user != nil && s.user.Email == user.Email {
		return shared.ErrEmailTaken
	}
	s.created = user
	return nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

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

type stubProfiles struct{ has bool }

func (s *stubProfiles) HasProfile(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.has, nil
}

type stubMailer struct{ sent []string }

func (s *stubMailer) EnqueueWelcomeEmail(ctx context.Context, to, name string) error {
	s.sent = append(s.sent, to)
	return nil
}

type fixture struct {
	handler  *identity.Handler
	sessions *shared.SessionManager
	store    *roleStore
	mailer   *stubMailer
}

func newFixture(t *testing.T, repo identity.Repository, profiles identity.ProfileChecker) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	store := &roleStore{labels: map[uuid.UUID][]string{}}
	resolver := roles.NewResolver(store, nil, nil)
	hub := roles.NewHub(resolver)
	mailer := &stubMailer{}
	handler := identity.NewHandler(nil, identity.NewService(repo), resolver, hub, profiles, mailer, templates, sessionManager, csrfManager)
	return &fixture{handler: handler, sessions: sessionManager, store: store, mailer: mailer}
}

func requestWithSession(t *testing.T, fx *fixture, method, target string, form url.Values) (*http.Request, *shared.Session) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	sess, err := fx.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestAuthPage(t *testing.T) {
	fx := newFixture(t, &stubRepo{}, &stubProfiles{})

	req, _ := requestWithSession(t, fx, http.MethodGet, "/auth/login", nil)
	res := httptest.NewRecorder()
	fx.handler.ShowAuthForTest(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected auth forms in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	fx := newFixture(t, &stubRepo{user: &identity.User{ID: uuid.New(), Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}, &stubProfiles{})

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "wrongpass")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/login", form)
	res := httptest.NewRecorder()
	fx.handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email ou senha incorretos") {
		t.Fatalf("expected credential error message in response")
	}
}

func TestLoginNoRolesWithoutProfileGoesToSetup(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	userID := uuid.New()
	fx := newFixture(t, &stubRepo{user: &identity.User{ID: userID, Email: "user@test.local", PasswordHash: string(hashed), IsActive: true}}, &stubProfiles{has: false})

	form := url.Values{}
	form.Set("email", "user@test.local")
	form.Set("password", "correctpass")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/login", form)
	res := httptest.NewRecorder()
	fx.handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/profile/setup" {
		t.Fatalf("expected /profile/setup, got %s", loc)
	}
}

func TestLoginClienteGoesToDashboard(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	userID := uuid.New()
	fx := newFixture(t, &stubRepo{user: &identity.User{ID: userID, Email: "loja@test.local", PasswordHash: string(hashed), IsActive: true}}, &stubProfiles{})
	fx.store.labels[userID] = []string{"cliente"}

	form := url.Values{}
	form.Set("email", "loja@test.local")
	form.Set("password", "correctpass")

	req, sess := requestWithSession(t, fx, http.MethodPost, "/auth/login", form)
	res := httptest.NewRecorder()
	fx.handler.HandleLoginForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/cliente" {
		t.Fatalf("expected /cliente, got %s", loc)
	}
	if sess.User() != userID.String() {
		t.Fatalf("expected session bound to user")
	}
}

func TestLoginMultipleRolesGoesToSelection(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	userID := uuid.New()
	fx := newFixture(t, &stubRepo{user: &identity.User{ID: userID, Email: "both@test.local", PasswordHash: string(hashed), IsActive: true}}, &stubProfiles{})
	fx.store.labels[userID] = []string{"admin", "cliente"}

	form := url.Values{}
	form.Set("email", "both@test.local")
	form.Set("password", "correctpass")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/login", form)
	res := httptest.NewRecorder()
	fx.handler.HandleLoginForTest(res, req)

	if loc := res.Header().Get("Location"); loc != "/roles/select" {
		t.Fatalf("expected /roles/select, got %s", loc)
	}
}

func TestSignupEstablishmentAssignsClienteRole(t *testing.T) {
	fx := newFixture(t, &stubRepo{}, &stubProfiles{})

	form := url.Values{}
	form.Set("account_type", "establishment")
	form.Set("name", "Padaria Sem Glúten")
	form.Set("email", "padaria@test.local")
	form.Set("password", "secret123")
	form.Set("confirm_password", "secret123")
	form.Set("accept_terms", "on")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/signup", form)
	res := httptest.NewRecorder()
	fx.handler.HandleSignupForTest(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", res.Code, res.Body.String())
	}
	if loc := res.Header().Get("Location"); loc != "/cliente" {
		t.Fatalf("expected /cliente, got %s", loc)
	}
	assigned := false
	for _, labels := range fx.store.labels {
		for _, l := range labels {
			if l == "cliente" {
				assigned = true
			}
		}
	}
	if !assigned {
		t.Fatalf("expected cliente role assigned on establishment signup")
	}
	if len(fx.mailer.sent) != 1 || fx.mailer.sent[0] != "padaria@test.local" {
		t.Fatalf("expected welcome email enqueued, got %v", fx.mailer.sent)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	fx := newFixture(t, &stubRepo{}, &stubProfiles{})

	form := url.Values{}
	form.Set("name", "Maria")
	form.Set("email", "maria@test.local")
	form.Set("password", "secret123")
	form.Set("confirm_password", "other456")
	form.Set("accept_terms", "on")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/signup", form)
	res := httptest.NewRecorder()
	fx.handler.HandleSignupForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "As senhas não coincidem") {
		t.Fatalf("expected mismatch message in response")
	}
}

func TestSignupEmailTaken(t *testing.T) {
	fx := newFixture(t, &stubRepo{user: &identity.User{Email: "maria@test.local"}}, &stubProfiles{})

	form := url.Values{}
	form.Set("name", "Maria")
	form.Set("email", "maria@test.local")
	form.Set("password", "secret123")
	form.Set("confirm_password", "secret123")
	form.Set("accept_terms", "on")

	req, _ := requestWithSession(t, fx, http.MethodPost, "/auth/signup", form)
	res := httptest.NewRecorder()
	fx.handler.HandleSignupForTest(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "já está cadastrado") {
		t.Fatalf("expected email-taken message in response")
	}
}
