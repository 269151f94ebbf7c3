// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/session"
	"github.com/olegiv/gamehub/internal/workflow"
)

// DeleteTickets keeps pending delete confirmations.
type DeleteTickets interface {
	workflow.TicketStore
	PeekTicket(ctx context.Context, key string) (workflow.Ticket, bool)
}

// EntryFormView is the data of one add-entry form.
type EntryFormView struct {
	Collection  string
	Categories  []string
	DefaultIcon string
	Lang        string
}

// AdminPage is the data of the admin console.
type AdminPage struct {
	GameForm EntryFormView
	ToolForm EntryFormView
	Games    render.ListView
	Tools    render.ListView
	Users    render.ListView
}

// ConfirmDeletePage is the data of the delete confirmation page.
type ConfirmDeletePage struct {
	Ticket workflow.Ticket
}

// AdminHandler serves the admin console and its mutations.
type AdminHandler struct {
	store    *catalog.Store
	runner   *workflow.Runner
	tickets  DeleteTickets
	renderer *render.Renderer
	timeout  time.Duration
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store *catalog.Store, runner *workflow.Runner, tickets DeleteTickets, renderer *render.Renderer, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		store:    store,
		runner:   runner,
		tickets:  tickets,
		renderer: renderer,
		timeout:  timeout,
	}
}

func formView(def catalog.Definition, lang string) EntryFormView {
	return EntryFormView{
		Collection:  def.Collection,
		Categories:  def.Categories,
		DefaultIcon: def.DefaultIcon,
		Lang:        lang,
	}
}

// entryKind is the singular of a collection, used in message keys.
func entryKind(def catalog.Definition) string {
	return strings.TrimSuffix(def.Collection, "s")
}

// workflowKey identifies one form of one browser session.
func workflowKey(sc *session.Context, action, collection string) string {
	return sc.ClientID + ":" + action + ":" + collection
}

// definition resolves the {collection} URL parameter, writing a 404 when
// it names no catalog.
func (h *AdminHandler) definition(w http.ResponseWriter, r *http.Request) (catalog.Definition, bool) {
	def, ok := catalog.Lookup(chi.URLParam(r, "collection"))
	if !ok {
		renderError(w, r, h.renderer, http.StatusNotFound, i18n.T(langOf(r), "error.not_found"))
	}
	return def, ok
}

// Console renders the admin console: one add form and one live table per
// catalog, and the live users table.
func (h *AdminHandler) Console(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r)
	data := render.TemplateData{Title: i18n.T(lang, "admin.title")}

	page := AdminPage{
		GameForm: formView(catalog.Games, lang),
		ToolForm: formView(catalog.Tools, lang),
		Games:    render.ListView{Flavor: catalog.FlavorGames, Layout: render.LayoutTable, IsAdmin: true, Lang: lang},
		Tools:    render.ListView{Flavor: catalog.FlavorTools, Layout: render.LayoutTable, IsAdmin: true, Lang: lang},
		Users:    render.ListView{Flavor: catalog.FlavorUsers, Layout: render.LayoutTable, IsAdmin: true, Lang: lang},
	}

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	// Each table loads on its own; one failing collection leaves the others.
	var g errgroup.Group
	g.Go(func() (err error) {
		page.Games.Entries, err = h.store.Entries(ctx, catalog.Games)
		return err
	})
	g.Go(func() (err error) {
		page.Tools.Entries, err = h.store.Entries(ctx, catalog.Tools)
		return err
	})
	g.Go(func() (err error) {
		page.Users.Users, err = h.store.Users(ctx, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("loading admin console failed", "category", model.EventCategoryCatalog, "error", err)
		data.Flash = i18n.T(lang, "msg.load_failed", data.Title)
		data.FlashType = flashTypeError
	}
	data.Data = page

	renderPage(w, r, h.renderer, "admin", data)
}

// Add handles POST /admin/{collection}.
func (h *AdminHandler) Add(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, routeAdmin) {
		return
	}

	sc := session.FromContext(r.Context())
	lang := langOf(r)
	in := catalog.EntryInput{
		Name:        r.FormValue("name"),
		Icon:        r.FormValue("icon"),
		Category:    r.FormValue("category"),
		Link:        r.FormValue("link"),
		Description: r.FormValue("description"),
	}

	var id string
	err := h.runner.Submit(r.Context(), workflowKey(sc, "add", def.Collection),
		func() error {
			_, err := def.Validate(in)
			return err
		},
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			var err error
			id, err = h.store.Add(ctx, def, in, sc.UID())
			return err
		},
	)

	var verr *workflow.ValidationError
	switch {
	case err == nil:
		slog.Info("entry added", "category", model.EventCategoryCatalog, "collection", def.Collection, "id", id, "uid", sc.UID())
		flashSuccess(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg."+entryKind(def)+"_added"))
	case errors.Is(err, workflow.ErrInFlight):
		flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.submit_in_progress"), flashTypeWarning)
	case errors.As(err, &verr) && errors.Is(err, catalog.ErrUnknownCategory):
		flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.unknown_category"))
	case errors.As(err, &verr):
		flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.fields_required"))
	default:
		slog.Error("adding entry failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "error", err)
		flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.add_failed", errorText(lang, err)))
	}
}

// RequestDelete handles POST /admin/{collection}/{id}/delete. Nothing is
// deleted yet; the browser is sent to the confirmation page.
func (h *AdminHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	sc := session.FromContext(r.Context())
	lang := langOf(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	entry, err := h.store.Entry(ctx, def, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.not_found"))
			return
		}
		slog.Warn("loading entry failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "id", id, "error", err)
		flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.delete_failed", errorText(lang, err)))
		return
	}

	_, err = h.runner.RequestDelete(r.Context(), h.tickets, workflowKey(sc, "delete", def.Collection), def.Collection, entry.ID, entry.Name)
	if err != nil {
		logAndInternalError(w, r, "failed to store delete ticket", "error", err)
		return
	}
	http.Redirect(w, r, routeAdmin+"/"+def.Collection+"/confirm", http.StatusSeeOther)
}

// ConfirmPage handles GET /admin/{collection}/confirm.
func (h *AdminHandler) ConfirmPage(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}

	sc := session.FromContext(r.Context())
	lang := langOf(r)

	ticket, ok := h.tickets.PeekTicket(r.Context(), workflowKey(sc, "delete", def.Collection))
	if !ok {
		flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.confirm_expired"), flashTypeWarning)
		return
	}

	renderPage(w, r, h.renderer, "confirm_delete", render.TemplateData{
		Title: i18n.T(lang, "btn.delete"),
		Data:  ConfirmDeletePage{Ticket: ticket},
	})
}

// Confirm handles POST /admin/{collection}/confirm. The action field
// selects confirm or cancel; cancelling leaves the entry untouched.
func (h *AdminHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	def, ok := h.definition(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, routeAdmin) {
		return
	}

	sc := session.FromContext(r.Context())
	lang := langOf(r)
	confirmed := r.FormValue("action") == "confirm"

	ticket, err := h.runner.ConfirmDelete(r.Context(), h.tickets, workflowKey(sc, "delete", def.Collection), r.FormValue("token"), confirmed,
		func(ctx context.Context, t workflow.Ticket) error {
			ctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			return h.store.Delete(ctx, def, t.ID)
		},
	)

	switch {
	case err == nil:
		slog.Info("entry deleted", "category", model.EventCategoryCatalog, "collection", def.Collection, "id", ticket.ID, "uid", sc.UID())
		flashSuccess(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg."+entryKind(def)+"_deleted"))
	case errors.Is(err, workflow.ErrCancelled):
		flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.delete_cancelled"), flashTypeInfo)
	case errors.Is(err, workflow.ErrNoPendingDelete):
		flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.confirm_expired"), flashTypeWarning)
	case errors.Is(err, workflow.ErrInFlight):
		flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.submit_in_progress"), flashTypeWarning)
	default:
		slog.Error("deleting entry failed", "category", model.EventCategoryCatalog, "collection", def.Collection, "id", ticket.ID, "error", err)
		flashError(w, r, h.renderer, routeAdmin, i18n.T(lang, "msg.delete_failed", errorText(lang, err)))
	}
}

// ComingSoon answers the edit entry and edit role actions, which are not
// available yet.
func (h *AdminHandler) ComingSoon(w http.ResponseWriter, r *http.Request) {
	flashAndRedirect(w, r, h.renderer, routeAdmin, i18n.T(langOf(r), "msg.coming_soon"), flashTypeInfo)
}
