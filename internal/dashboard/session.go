package dashboard

import (
	"net/http"

	"github.com/alimmenta/alimmenta/internal/platform/httpx"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
)

type sessionView struct {
	Authenticated bool     `json:"authenticated"`
	State         string   `json:"state"`
	Roles         []string `json:"roles"`
	Destination   string   `json:"destination,omitempty"`
}

// showSession exposes the session's resolution state as JSON so client-side
// code can poll where navigation currently points.
func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, authenticated := roles.CurrentUserID(r)

	out := sessionView{State: roles.StateUnauthenticated.String(), Roles: []string{}}
	if !authenticated || sess == nil {
		httpx.JSON(w, http.StatusOK, out)
		return
	}

	watcher := h.hub.Watcher(sess.ID)
	if watcher.State() == roles.StateUnauthenticated {
		// Session restored after a restart: the watcher has no transition
		// yet, so trigger one before reporting.
		watcher.AuthStateChanged(r.Context(), userID)
	}

	out.Authenticated = true
	out.State = watcher.State().String()
	out.Roles = watcher.Roles().Strings()
	if dest, ok := watcher.Destination(); ok {
		out.Destination = dest.Path()
	}
	httpx.JSON(w, http.StatusOK, out)
}
