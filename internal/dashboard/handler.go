package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alimmenta/alimmenta/internal/orders"
	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/profiles"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/subscriptions"
	"github.com/alimmenta/alimmenta/internal/tenants"
	"github.com/alimmenta/alimmenta/internal/view"
)

// UserCounter supplies the registered-account total for the admin overview.
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

// Handler serves the destination views role resolution routes to: consumer
// home, cliente panel, admin overview and role selection.
type Handler struct {
	logger        *slog.Logger
	templates     *view.Engine
	csrfManager   *shared.CSRFManager
	hub           *roles.Hub
	resolver      *roles.Resolver
	tenants       *tenants.Service
	products      *products.Service
	profiles      *profiles.Service
	subscriptions *subscriptions.Service
	orders        *orders.Service
	audit         *shared.AuditLogger
	users         UserCounter
}

// Deps bundles the handler's collaborators.
type Deps struct {
	Logger        *slog.Logger
	Templates     *view.Engine
	CSRF          *shared.CSRFManager
	Hub           *roles.Hub
	Resolver      *roles.Resolver
	Tenants       *tenants.Service
	Products      *products.Service
	Profiles      *profiles.Service
	Subscriptions *subscriptions.Service
	Orders        *orders.Service
	Audit         *shared.AuditLogger
	Users         UserCounter
}

// NewHandler constructs a Handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		logger:        d.Logger,
		templates:     d.Templates,
		csrfManager:   d.CSRF,
		hub:           d.Hub,
		resolver:      d.Resolver,
		tenants:       d.Tenants,
		products:      d.Products,
		profiles:      d.Profiles,
		subscriptions: d.Subscriptions,
		orders:        d.Orders,
		audit:         d.Audit,
		users:         d.Users,
	}
}

// MountRoutes registers dashboard routes behind the role middleware.
func (h *Handler) MountRoutes(r chi.Router, mw roles.Middleware) {
	r.With(mw.RequireAuthenticated).Get("/home", h.showHome)

	r.Route("/cliente", func(r chi.Router) {
		r.Use(mw.Require(roles.RoleCliente))
		r.Get("/", h.showCliente)
		r.Post("/tenant", h.createTenant)
		r.Get("/products/new", h.showProductForm)
		r.Post("/products", h.saveProduct)
		r.Get("/products/{id}/edit", h.showProductForm)
		r.Post("/products/{id}", h.saveProduct)
		r.Get("/products/export", h.exportProducts)
	})

	r.With(mw.Require(roles.RoleAdmin)).Get("/admin", h.showAdmin)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuthenticated)
		r.Get("/roles/select", h.showRoleSelect)
		r.Post("/roles/select", h.handleRoleSelect)
	})

	r.Get("/session", h.showSession)
}

// render wraps template execution with the ambient view data every page
// needs.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	var flash *shared.FlashMessage
	var roleLabels []string
	if sess != nil {
		csrfToken, _ = h.csrfManager.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
		if userID, ok := roles.CurrentUserID(r); ok {
			roleLabels = h.resolver.Resolve(r.Context(), userID).Strings()
			if len(roleLabels) == 0 {
				// Authenticated consumers without roles still get the
				// signed-in navigation.
				roleLabels = []string{"user"}
			}
		}
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		UserRoles:   roleLabels,
		Data:        data,
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
