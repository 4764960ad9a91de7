package roles

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/shared"
)

// Middleware gates protected views. Routing already decided where a session
// should land, but the RoleSet can change between that decision and the view
// rendering (roles are revoked server-side), so every protected dashboard
// re-validates membership on each request instead of trusting the route.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// CurrentUserID extracts the authenticated user's ID from the request
// session.
func CurrentUserID(r *http.Request) (uuid.UUID, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sess.User())
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Require re-resolves the current identity's roles and only lets the request
// through when the given role is held. Anything else — anonymous sessions,
// revoked roles, unresolvable role queries — is classified as denied and
// redirected to the consumer home with a visible notice, never elevated.
func (m Middleware) Require(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := CurrentUserID(r)
			if ok {
				set := m.Resolver.Resolve(r.Context(), userID)
				if set.Has(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Info("access denied", slog.String("path", r.URL.Path), slog.String("role", string(role)))
			}
			m.deny(w, r)
		})
	}
}

// RequireAuthenticated guards views that need a signed-in identity but no
// particular role, such as profile setup and role selection.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserID(r); !ok {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Message: "Faça login para continuar"})
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(shared.ErrAccessDenied)})
	}
	http.Redirect(w, r, DestUserHome.Path(), http.StatusSeeOther)
}
