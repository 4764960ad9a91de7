package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/tenants"
)

type adminStats struct {
	Users               int64
	Tenants             int64
	Products            int64
	ActiveSubscriptions int64
}

type adminTenantRow struct {
	Name      string
	Type      tenants.EstablishmentType
	City      string
	Plan      string
	CreatedAt time.Time
}

type adminPageData struct {
	Stats        adminStats
	Tenants      []adminTenantRow
	AuditEntries []shared.AuditLog
}

// showAdmin is the platform overview. The counters are independent queries
// and run in parallel.
func (h *Handler) showAdmin(w http.ResponseWriter, r *http.Request) {
	var data adminPageData

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		n, err := h.users.CountUsers(ctx)
		data.Stats.Users = n
		return err
	})
	g.Go(func() error {
		n, err := h.tenants.Count(ctx)
		data.Stats.Tenants = n
		return err
	})
	g.Go(func() error {
		n, err := h.products.Count(ctx)
		data.Stats.Products = n
		return err
	})
	g.Go(func() error {
		n, err := h.subscriptions.CountActive(ctx)
		data.Stats.ActiveSubscriptions = n
		return err
	})
	g.Go(func() error {
		entries, err := h.audit.Recent(ctx, 20)
		if err != nil {
			return err
		}
		data.AuditEntries = entries
		return nil
	})
	g.Go(func() error {
		all, err := h.tenants.Browse(ctx, "", 50)
		if err != nil {
			return err
		}
		rows := make([]adminTenantRow, 0, len(all))
		for i := range all {
			t := &all[i]
			row := adminTenantRow{Name: t.Name, Type: t.Type, City: t.City, CreatedAt: t.CreatedAt}
			if sub, err := h.subscriptions.ForTenant(ctx, t.ID); err == nil {
				row.Plan = string(sub.Plan)
			}
			rows = append(rows, row)
		}
		data.Tenants = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load admin overview", slog.Any("error", err))
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(err)})
		}
	}

	h.render(w, r, "pages/admin.html", "Administração - Alimmenta", data)
}
