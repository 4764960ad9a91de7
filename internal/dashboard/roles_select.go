package dashboard

import (
	"net/http"

	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
)

type roleSelectData struct {
	Roles []string
}

// showRoleSelect lets a multi-role account choose which panel to open. An
// account that does not actually hold multiple roles is routed straight to
// its derived destination.
func (h *Handler) showRoleSelect(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	set := h.resolver.Resolve(r.Context(), userID)
	if set.Distinct() < 2 {
		http.Redirect(w, r, roles.DeriveDestination(set).Path(), http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/role_select.html", "Escolher perfil - Alimmenta", roleSelectData{Roles: set.Strings()})
}

func (h *Handler) handleRoleSelect(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	picked, ok := roles.ParseRole(r.PostFormValue("role"))
	if ok {
		// Never trust the form alone: the pick must be a role the account
		// actually holds right now.
		set := h.resolver.Resolve(r.Context(), userID)
		if set.Has(picked) {
			http.Redirect(w, r, roles.DeriveDestination(roles.RoleSet{picked}).Path(), http.StatusSeeOther)
			return
		}
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(shared.ErrAccessDenied)})
	}
	http.Redirect(w, r, roles.DestUserHome.Path(), http.StatusSeeOther)
}
