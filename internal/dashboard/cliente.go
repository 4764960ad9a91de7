package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alimmenta/alimmenta/internal/orders"
	"github.com/alimmenta/alimmenta/internal/products"
	"github.com/alimmenta/alimmenta/internal/profiles"
	"github.com/alimmenta/alimmenta/internal/roles"
	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/subscriptions"
	"github.com/alimmenta/alimmenta/internal/tenants"
)

type clientePageData struct {
	Tenant             *tenants.Tenant
	Subscription       *subscriptions.Subscription
	Products           []products.Product
	ProductCount       int
	RecentOrders       []orders.Order
	OrderCounts        map[string]int64
	EstablishmentTypes []tenants.EstablishmentType
}

// showCliente is the establishment panel. Without a registered tenant it
// shows the onboarding form instead.
func (h *Handler) showCliente(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)

	data := clientePageData{EstablishmentTypes: tenants.Types()}

	tenant, err := h.tenants.ForOwner(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load tenant", slog.Any("error", err))
		}
		h.render(w, r, "pages/cliente.html", "Painel - Alimmenta", data)
		return
	}
	data.Tenant = tenant

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		items, err := h.products.ForTenant(ctx, tenant.ID)
		if err != nil {
			return err
		}
		data.Products = items
		data.ProductCount = len(items)
		return nil
	})
	g.Go(func() error {
		sub, err := h.subscriptions.ForTenant(ctx, tenant.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		data.Subscription = sub
		return nil
	})
	g.Go(func() error {
		recent, err := h.orders.Recent(ctx, tenant.ID, 10)
		if err != nil {
			return err
		}
		data.RecentOrders = recent
		return nil
	})
	g.Go(func() error {
		counts, err := h.orders.StatusCounts(ctx, tenant.ID)
		if err != nil {
			return err
		}
		data.OrderCounts = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load cliente panel", slog.Any("error", err))
	}

	h.render(w, r, "pages/cliente.html", "Painel - Alimmenta", data)
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	sess := shared.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err := h.tenants.Create(r.Context(), tenants.CreateInput{
		OwnerID:     userID,
		Name:        r.PostFormValue("name"),
		Type:        r.PostFormValue("establishment_type"),
		Description: r.PostFormValue("description"),
		Address:     r.PostFormValue("address"),
		City:        r.PostFormValue("city"),
		Phone:       r.PostFormValue("phone"),
		Email:       r.PostFormValue("email"),
	})
	if sess != nil {
		switch {
		case errors.Is(err, tenants.ErrOwnerHasTenant):
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Message: "Você já tem um estabelecimento cadastrado"})
		case err != nil:
			h.logger.Error("create tenant", slog.Any("error", err))
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(err)})
		default:
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Estabelecimento cadastrado!"})
		}
	}
	http.Redirect(w, r, "/cliente", http.StatusSeeOther)
}

type productFormData struct {
	IsEdit       bool
	Action       string
	Product      *products.Product
	Categories   []products.Category
	Restrictions []profiles.Restriction
	Selected     map[uuid.UUID]bool
	Errors       map[string]string
}

func (h *Handler) showProductForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	tenant, err := h.tenants.ForOwner(r.Context(), userID)
	if err != nil {
		http.Redirect(w, r, "/cliente", http.StatusSeeOther)
		return
	}

	data := productFormData{
		Action:   "/cliente/products",
		Product:  &products.Product{Available: true},
		Selected: map[uuid.UUID]bool{},
		Errors:   map[string]string{},
	}

	if raw := chi.URLParam(r, "id"); raw != "" {
		productID, err := uuid.Parse(raw)
		if err != nil {
			http.Redirect(w, r, "/cliente", http.StatusSeeOther)
			return
		}
		product, err := h.products.Find(r.Context(), productID)
		if err != nil || product.TenantID != tenant.ID {
			http.Redirect(w, r, "/cliente", http.StatusSeeOther)
			return
		}
		data.IsEdit = true
		data.Action = fmt.Sprintf("/cliente/products/%s", product.ID)
		data.Product = product
		for _, id := range product.SafeFor {
			data.Selected[id] = true
		}
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		categories, err := h.products.Categories(ctx)
		if err != nil {
			return err
		}
		data.Categories = categories
		return nil
	})
	g.Go(func() error {
		catalogue, err := h.profiles.Catalogue(ctx)
		if err != nil {
			return err
		}
		data.Restrictions = catalogue
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("load product form", slog.Any("error", err))
	}

	h.render(w, r, "pages/product_form.html", "Produto - Alimmenta", data)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	sess := shared.SessionFromContext(r.Context())
	tenant, err := h.tenants.ForOwner(r.Context(), userID)
	if err != nil {
		http.Redirect(w, r, "/cliente", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	priceCents, _ := strconv.ParseInt(r.PostFormValue("price_cents"), 10, 64)
	categoryID, _ := uuid.Parse(r.PostFormValue("category_id"))
	var safeFor []uuid.UUID
	for _, raw := range r.PostForm["restrictions"] {
		if id, err := uuid.Parse(raw); err == nil {
			safeFor = append(safeFor, id)
		}
	}
	in := products.Input{
		TenantID:    tenant.ID,
		CategoryID:  categoryID,
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		PriceCents:  priceCents,
		SKU:         r.PostFormValue("sku"),
		Available:   r.PostFormValue("available") == "on",
		SafeFor:     safeFor,
	}

	if raw := chi.URLParam(r, "id"); raw != "" {
		productID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			http.Redirect(w, r, "/cliente", http.StatusSeeOther)
			return
		}
		_, err = h.products.Update(r.Context(), userID, tenant.ID, productID, in)
	} else {
		_, err = h.products.Create(r.Context(), userID, in)
	}

	if sess != nil {
		if err != nil {
			h.logger.Error("save product", slog.Any("error", err))
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(err)})
		} else {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Produto salvo!"})
		}
	}
	http.Redirect(w, r, "/cliente", http.StatusSeeOther)
}

func (h *Handler) exportProducts(w http.ResponseWriter, r *http.Request) {
	userID, _ := roles.CurrentUserID(r)
	tenant, err := h.tenants.ForOwner(r.Context(), userID)
	if err != nil {
		http.Redirect(w, r, "/cliente", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=produtos-%s.csv", time.Now().Format("2006-01-02")))
	if err := h.products.ExportCSV(r.Context(), w, tenant.ID); err != nil {
		h.logger.Error("export products", slog.Any("error", err))
	}
}
