// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/session"
)

// CatalogPage is the data of the games and tools pages.
type CatalogPage struct {
	Lang       string
	GridURL    string
	StreamURL  string
	Categories []string
	Category   string
	Term       string
	List       render.ListView
}

// CatalogHandler serves the games and tools catalogs.
type CatalogHandler struct {
	store    *catalog.Store
	renderer *render.Renderer
	timeout  time.Duration
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store *catalog.Store, renderer *render.Renderer, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		store:    store,
		renderer: renderer,
		timeout:  timeout,
	}
}

// filterParams reads the category and search term of a list request.
func filterParams(r *http.Request) (category, term string) {
	category = r.URL.Query().Get("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	return category, r.URL.Query().Get("q")
}

func filtered(category, term string) bool {
	return category != catalog.CategoryAll || term != ""
}

// Games renders the games page. The list is loaded once per request.
func (h *CatalogHandler) Games(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, catalog.Games, false)
}

// Tools renders the tools page. The list is kept live over the tools stream.
func (h *CatalogHandler) Tools(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, catalog.Tools, true)
}

func (h *CatalogHandler) page(w http.ResponseWriter, r *http.Request, def catalog.Definition, live bool) {
	sc := session.FromContext(r.Context())
	lang := langOf(r)
	category, term := filterParams(r)
	title := i18n.T(lang, string(def.Flavor)+".title")

	data := render.TemplateData{Title: title, Page: string(def.Flavor)}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	entries, err := h.store.Entries(ctx, def)
	if err != nil {
		slog.Warn("loading catalog failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "error", err)
		data.Flash = i18n.T(lang, "msg.load_failed", title)
		data.FlashType = flashTypeError
	}
	view := catalog.NewViewState(entries)

	page := CatalogPage{
		Lang:       lang,
		GridURL:    "/" + def.Collection + "/grid",
		Categories: def.Categories,
		Category:   category,
		Term:       term,
		List: render.ListView{
			Flavor:   def.Flavor,
			Layout:   render.LayoutGrid,
			Entries:  view.Apply(category, term),
			IsAdmin:  sc.IsAdmin(),
			Lang:     lang,
			Filtered: filtered(category, term),
		},
	}
	if live {
		q := url.Values{"category": {category}, "q": {term}}
		page.StreamURL = "/stream/" + def.Collection + "?" + q.Encode()
	}
	data.Data = page

	renderPage(w, r, h.renderer, "catalog", data)
}

// GamesGrid renders the filtered games list fragment.
func (h *CatalogHandler) GamesGrid(w http.ResponseWriter, r *http.Request) {
	h.grid(w, r, catalog.Games)
}

// ToolsGrid renders the filtered tools list fragment.
func (h *CatalogHandler) ToolsGrid(w http.ResponseWriter, r *http.Request) {
	h.grid(w, r, catalog.Tools)
}

func (h *CatalogHandler) grid(w http.ResponseWriter, r *http.Request, def catalog.Definition) {
	sc := session.FromContext(r.Context())
	lang := langOf(r)
	category, term := filterParams(r)

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	entries, err := h.store.Entries(ctx, def)
	if err != nil {
		slog.Warn("loading catalog failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "error", err)
		http.Error(w, i18n.T(lang, "msg.load_failed", i18n.T(lang, string(def.Flavor)+".title")), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = h.renderer.RenderEntries(w, render.ListView{
		Flavor:   def.Flavor,
		Layout:   render.LayoutGrid,
		Entries:  catalog.Filter(entries, category, term),
		IsAdmin:  sc.IsAdmin(),
		Lang:     lang,
		Filtered: filtered(category, term),
	})
	if err != nil {
		logAndInternalError(w, r, "failed to render list", "collection", def.Collection, "error", err)
	}
}

// PlayGame handles GET /games/{id}/play.
func (h *CatalogHandler) PlayGame(w http.ResponseWriter, r *http.Request) {
	h.launch(w, r, catalog.Games, routeGames)
}

// UseTool handles GET /tools/{id}/use.
func (h *CatalogHandler) UseTool(w http.ResponseWriter, r *http.Request) {
	h.launch(w, r, catalog.Tools, routeTools)
}

// launch counts one play or use of an entry and sends the browser to its
// link. The page opens it in a new browsing context.
func (h *CatalogHandler) launch(w http.ResponseWriter, r *http.Request, def catalog.Definition, listURL string) {
	sc := session.FromContext(r.Context())
	lang := langOf(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	entry, err := h.store.Entry(ctx, def, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			flashError(w, r, h.renderer, listURL, i18n.T(lang, "msg.not_found"))
			return
		}
		slog.Warn("loading entry failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "id", id, "error", err)
		flashError(w, r, h.renderer, listURL, errorText(lang, err))
		return
	}

	target := entry.LaunchURL()
	if target == "" {
		flashError(w, r, h.renderer, listURL, i18n.T(lang, "msg.not_found"))
		return
	}

	h.store.RecordUse(ctx, def, entry.ID, sc.UID(), r.UserAgent())
	http.Redirect(w, r, target, http.StatusSeeOther)
}
