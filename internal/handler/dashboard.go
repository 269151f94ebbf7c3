package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/render"
)

// DashboardPage is the data of the dashboard page.
type DashboardPage struct {
	Overview catalog.Overview
}

// DashboardHandler serves the dashboard.
type DashboardHandler struct {
	store    *catalog.Store
	renderer *render.Renderer
	timeout  time.Duration
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(store *catalog.Store, renderer *render.Renderer, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{store: store, renderer: renderer, timeout: timeout}
}

// Dashboard renders totals, the top game, recent items and the category
// breakdown. A failed load renders empty panels with an error toast.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r)
	data := render.TemplateData{Title: i18n.T(lang, "dashboard.title")}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	overview, err := h.store.Overview(ctx)
	if err != nil {
		slog.Warn("loading dashboard failed", "category", model.EventCategoryCatalog, "error", err)
		overview = catalog.Overview{}
		data.Flash = i18n.T(lang, "msg.load_failed", data.Title)
		data.FlashType = flashTypeError
	}
	data.Data = DashboardPage{Overview: overview}

	renderPage(w, r, h.renderer, "dashboard", data)
}
