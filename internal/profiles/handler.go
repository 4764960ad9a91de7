package profiles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alimmenta/alimmenta/internal/shared"
	"github.com/alimmenta/alimmenta/internal/view"
)

// Handler serves the dietary profile setup flow.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrfManager: csrf}
}

// MountRoutes registers profile routes. The caller wraps them with the
// authentication middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/setup", h.showSetup)
	r.Post("/setup", h.handleSetup)
}

type setupPageData struct {
	Restrictions []Restriction
	Selected     map[uuid.UUID]bool
	Notes        string
}

func (h *Handler) showSetup(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, err := uuid.Parse(sess.User())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	catalogue, err := h.service.Catalogue(r.Context())
	if err != nil {
		h.logger.Error("load restriction catalogue", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := setupPageData{
		Restrictions: catalogue,
		Selected:     map[uuid.UUID]bool{},
	}
	if profile, err := h.service.Get(r.Context(), userID); err == nil {
		for _, id := range profile.Restrictions {
			data.Selected[id] = true
		}
		data.Notes = profile.Notes
	}
	h.render(w, r, data)
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, err := uuid.Parse(sess.User())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var restrictionIDs []uuid.UUID
	for _, raw := range r.PostForm["restrictions"] {
		if id, err := uuid.Parse(raw); err == nil {
			restrictionIDs = append(restrictionIDs, id)
		}
	}

	if _, err := h.service.Save(r.Context(), userID, restrictionIDs, r.PostFormValue("notes")); err != nil {
		h.logger.Error("save dietary profile", slog.Any("error", err))
		sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(err)})
		http.Redirect(w, r, "/profile/setup", http.StatusSeeOther)
		return
	}

	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashSuccess, Message: "Perfil alimentar salvo!"})
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data setupPageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Perfil alimentar - Alimmenta",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/profile_setup.html", viewData); err != nil {
		h.logger.Error("render profile setup", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ShowSetupForTest exposes the GET handler for tests.
func (h *Handler) ShowSetupForTest(w http.ResponseWriter, r *http.Request) {
	h.showSetup(w, r)
}

// HandleSetupForTest exposes the POST handler for tests.
func (h *Handler) HandleSetupForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSetup(w, r)
}
