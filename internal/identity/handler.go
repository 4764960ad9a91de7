package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/view"
)

// ProfileChecker reports whether a user already configured a dietary
// profile. First-time consumers are routed to profile setup before home.
type ProfileChecker interface {
	HasProfile(ctx context.Context, userID uuid.UUID) (bool, error)
}

// WelcomeMailer enqueues the post-signup welcome e-mail.
type WelcomeMailer interface {
	EnqueueWelcomeEmail(ctx context.Context, to, name string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	resolver       *roles.Resolver
	hub            *roles.Hub
	profiles       ProfileChecker
	mailer         WelcomeMailer
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *roles.Resolver, hub *roles.Hub, profiles ProfileChecker, mailer WelcomeMailer, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		resolver:       resolver,
		hub:            hub,
		profiles:       profiles,
		mailer:         mailer,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showAuth)
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type signupForm struct {
	Name            string `validate:"required,min=2"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`
	AcceptTerms     bool   `validate:"required"`
}

type authPageData struct {
	Establishment bool
	LoginForm     loginForm
	SignupForm    signupForm
	Errors        map[string]string
}

func (h *Handler) showAuth(w http.ResponseWriter, r *http.Request) {
	data := authPageData{
		Establishment: r.URL.Query().Get("type") == "establishment",
		Errors:        map[string]string{},
	}
	h.render(w, r, data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				formErrors[fieldErr.Field()] = "Campo inválido"
			}
		}
	}

	if len(formErrors) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = shared.UserSafeMessage(shared.ErrInvalidCredentials)
		} else {
			h.establishSession(w, r, sess, user)
			return
		}
	}

	data := authPageData{
		Establishment: r.URL.Query().Get("type") == "establishment",
		LoginForm:     form,
		Errors:        formErrors,
	}
	h.render(w, r, data, http.StatusBadRequest)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	establishment := r.PostFormValue("account_type") == "establishment"

	form := signupForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		AcceptTerms:     r.PostFormValue("accept_terms") == "on",
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				formErrors[fieldErr.Field()] = "Campo inválido"
			}
		}
	}
	if form.Password != form.ConfirmPassword {
		formErrors["ConfirmPassword"] = "As senhas não coincidem"
	}
	if !form.AcceptTerms {
		formErrors["AcceptTerms"] = "Você precisa aceitar os termos de uso e política de privacidade"
	}

	if len(formErrors) == 0 {
		user, err := h.service.Register(r.Context(), form.Email, form.Name, form.Password)
		switch {
		case errors.Is(err, shared.ErrEmailTaken):
			formErrors["general"] = shared.UserSafeMessage(err)
		case err != nil:
			h.logger.Error("register account", slog.Any("error", err))
			formErrors["general"] = "Erro ao criar conta"
		default:
			if h.mailer != nil {
				if err := h.mailer.EnqueueWelcomeEmail(r.Context(), user.Email, user.Name); err != nil {
					h.logger.Warn("enqueue welcome email", slog.Any("error", err))
				}
			}
			if establishment {
				// Establishment sign-ups receive cliente immediately; a
				// conflict means the role was already there, which is fine.
				if err := h.resolver.AssignInitial(r.Context(), user.ID, roles.RoleCliente); err != nil && !errors.Is(err, roles.ErrRoleAlreadyAssigned) {
					h.logger.Error("assign initial role", slog.Any("error", err))
				}
			}
			h.startSession(r, sess, user)
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Conta criada! Redirecionando..."})
			}
			if establishment {
				http.Redirect(w, r, roles.DestClienteDashboard.Path(), http.StatusSeeOther)
			} else {
				http.Redirect(w, r, "/profile/setup", http.StatusSeeOther)
			}
			return
		}
	}

	data := authPageData{
		Establishment: establishment,
		SignupForm:    form,
		Errors:        formErrors,
	}
	h.render(w, r, data, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.hub.AuthStateChanged(r.Context(), sess.ID, uuid.Nil)
		h.hub.Drop(sess.ID)
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// establishSession signs the user in and redirects to the destination the
// role resolution derived. No-role consumers without a dietary profile are
// detoured through profile setup first.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, sess *shared.Session, user *User) {
	h.startSession(r, sess, user)

	dest := roles.DestUserHome
	if sess != nil {
		h.hub.AuthStateChanged(r.Context(), sess.ID, user.ID)
		if d, ok := h.hub.Watcher(sess.ID).Destination(); ok {
			dest = d
		}
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Login realizado! Redirecionando..."})
	}

	if dest == roles.DestUserHome && h.profiles != nil {
		has, err := h.profiles.HasProfile(r.Context(), user.ID)
		if err != nil {
			h.logger.Warn("check dietary profile", slog.Any("error", err))
		} else if !has {
			http.Redirect(w, r, "/profile/setup", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, dest.Path(), http.StatusSeeOther)
}

func (h *Handler) startSession(r *http.Request, sess *shared.Session, user *User) {
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	sess.SetUser(user.ID.String())
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data authPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Alimmenta",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/auth.html", viewData); err != nil {
		h.logger.Error("render auth", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowAuthForTest exposes the GET handler for tests.
func (h *Handler) ShowAuthForTest(w http.ResponseWriter, r *http.Request) {
	h.showAuth(w, r)
}

// HandleLoginForTest exposes the login POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleSignupForTest exposes the signup POST handler for tests.
func (h *Handler) HandleSignupForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignup(w, r)
}
