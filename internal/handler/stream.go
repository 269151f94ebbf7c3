// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/session"
)

// DefaultKeepAlive is the interval of keepalive comments on idle streams.
const DefaultKeepAlive = 25 * time.Second

// StreamHandler serves live list fragments as Server-Sent Events.
//
// Events:
//
//	entries   the re-rendered list fragment, replacing the container content
//	toast     an error message; the last good list stays on screen
//	redirect  a path to navigate to, sent when the identity signs out
type StreamHandler struct {
	store     *catalog.Store
	auth      backend.Auth
	renderer  *render.Renderer
	keepAlive time.Duration
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(store *catalog.Store, auth backend.Auth, renderer *render.Renderer, keepAlive time.Duration) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &StreamHandler{
		store:     store,
		auth:      auth,
		renderer:  renderer,
		keepAlive: keepAlive,
	}
}

// update is one subscription delivery translated for the list view.
type update struct {
	apply func(v *render.ListView)
	err   error
}

// forward turns the snapshots of sub into updates until ctx is done.
func forward[T any](ctx context.Context, sub *catalog.Subscription[T], set func(v *render.ListView, items []T), out chan<- update) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-sub.Snapshots():
			u := update{err: snap.Err}
			if snap.Err == nil {
				items := snap.Items
				u.apply = func(v *render.ListView) { set(v, items) }
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stream handles GET /stream/{collection}. The users stream is admin only.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sc := session.FromContext(r.Context())
	lang := langOf(r)
	collection := chi.URLParam(r, "collection")
	category, term := filterParams(r)

	view := render.ListView{
		Layout:   render.LayoutGrid,
		IsAdmin:  sc.IsAdmin(),
		Lang:     lang,
		Filtered: filtered(category, term),
	}
	if r.URL.Query().Get("layout") == render.LayoutTable {
		view.Layout = render.LayoutTable
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates := make(chan update)
	var title string

	switch collection {
	case model.CollectionUsers:
		if !sc.IsAdmin() {
			http.Error(w, i18n.T(lang, "msg.access_denied"), http.StatusForbidden)
			return
		}
		sub, err := h.store.WatchUsers(ctx)
		if err != nil {
			h.subscribeFailed(w, r, collection, err)
			return
		}
		defer sub.Close()
		view.Flavor = catalog.FlavorUsers
		view.Filtered = false
		title = i18n.T(lang, "admin.users")
		go forward(ctx, sub, func(v *render.ListView, users []model.User) { v.Users = users }, updates)
	default:
		def, ok := catalog.Lookup(collection)
		if !ok {
			http.NotFound(w, r)
			return
		}
		sub, err := h.store.WatchEntries(ctx, def)
		if err != nil {
			h.subscribeFailed(w, r, collection, err)
			return
		}
		defer sub.Close()
		view.Flavor = def.Flavor
		title = i18n.T(lang, string(def.Flavor)+".title")
		state := catalog.NewViewState(nil)
		go forward(ctx, sub, func(v *render.ListView, entries []model.Entry) {
			state.SetEntries(entries)
			v.Entries = state.Apply(category, term)
		}, updates)
	}

	signedOut := make(chan struct{}, 1)
	unsubscribe, err := h.auth.OnIdentityChange(ctx, sc.ClientID, func(id *backend.Identity) {
		if id == nil || id.UID != sc.UID() {
			select {
			case signedOut <- struct{}{}:
			default:
			}
		}
	})
	if err != nil {
		h.subscribeFailed(w, r, collection, err)
		return
	}
	defer unsubscribe()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Warn("stream not flushable", "category", model.EventCategoryStream, "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	slog.Debug("stream opened", "collection", collection, "uid", sc.UID())
	defer slog.Debug("stream closed", "collection", collection, "uid", sc.UID())

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-signedOut:
			_ = writeEvent(w, "redirect", routeLanding)
			_ = rc.Flush()
			return
		case <-ticker.C:
			_, err = io.WriteString(w, ": keepalive\n\n")
		case u := <-updates:
			if u.err != nil {
				slog.Warn("stream snapshot failed", "category", model.EventCategoryStream, "collection", collection, "error", u.err)
				err = writeEvent(w, "toast", i18n.T(lang, "msg.load_failed", title))
				break
			}
			u.apply(&view)
			var buf bytes.Buffer
			if rerr := h.renderer.RenderEntries(&buf, view); rerr != nil {
				slog.Error("failed to render list", "collection", collection, "error", rerr)
				continue
			}
			err = writeEvent(w, "entries", buf.String())
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			slog.Debug("stream write failed", "collection", collection, "error", err)
			return
		}
	}
}

func (h *StreamHandler) subscribeFailed(w http.ResponseWriter, r *http.Request, collection string, err error) {
	slog.Warn("subscribing failed", "category", model.EventCategoryStream, "collection", collection, "error", err)
	http.Error(w, errorText(langOf(r), err), http.StatusBadGateway)
}

// writeEvent writes one SSE event. Multi-line data is split into one data
// field per line.
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for line := range strings.SplitSeq(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
