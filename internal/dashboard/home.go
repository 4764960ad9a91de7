package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/tenants"
)

type homePageData struct {
	Query               string
	ProfileRestrictions []string
	Establishments      []tenants.Tenant
	Products            []products.Product
}

// showHome is the consumer landing after sign-in: establishments plus
// products compatible with the user's dietary profile. The independent
// fetches run in parallel.
func (h *Handler) showHome(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	query := r.URL.Query().Get("q")

	data := homePageData{Query: query}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		establishments, err := h.tenants.Browse(ctx, query, 20)
		if err != nil {
			return err
		}
		data.Establishments = establishments
		return nil
	})
	g.Go(func() error {
		var required []uuid.UUID
		if profile, err := h.profiles.Get(ctx, userID); err == nil {
			required = profile.Restrictions
		}
		names, err := h.profiles.RestrictionNames(ctx, userID)
		if err != nil {
			return err
		}
		data.ProfileRestrictions = names

		matched, err := h.products.Browse(ctx, query, required, 60)
		if err != nil {
			return err
		}
		data.Products = matched
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load home", slog.Any("error", err))
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(err)})
		}
	}

	h.render(w, r, "pages/home.html", "Início - Alimmenta", data)
}
