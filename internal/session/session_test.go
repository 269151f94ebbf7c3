// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/testutil"
	"github.com/olegiv/gamehub/internal/workflow"
)

func TestNew_DevMode(t *testing.T) {
	sm := New(testutil.TestDB(t), true, 0)

	if sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if sm.Cookie.Name == "__Host-session" {
		t.Error("expected default cookie name in dev mode")
	}
	if sm.Lifetime != DefaultLifetime {
		t.Errorf("Lifetime = %v, want %v", sm.Lifetime, DefaultLifetime)
	}
}

func TestNew_ProductionMode(t *testing.T) {
	sm := New(testutil.TestDB(t), false, time.Hour)

	if !sm.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production mode")
	}
	if sm.Cookie.Name != "__Host-session" {
		t.Errorf("expected __Host-session cookie name, got %q", sm.Cookie.Name)
	}
	if sm.Cookie.Path != "/" {
		t.Errorf("expected Cookie.Path = '/', got %q", sm.Cookie.Path)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}
	if sm.Cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite = Lax, got %v", sm.Cookie.SameSite)
	}
	if sm.Lifetime != time.Hour {
		t.Errorf("Lifetime = %v, want 1h", sm.Lifetime)
	}
}

// withSession runs fn inside a request whose context has a loaded session.
func withSession(t *testing.T, sm *scs.SessionManager, fn func(ctx context.Context)) {
	t.Helper()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestClientID_Stable(t *testing.T) {
	sm := New(testutil.TestDB(t), true, 0)

	withSession(t, sm, func(ctx context.Context) {
		first := ClientID(ctx, sm)
		if first == "" {
			t.Fatal("ClientID returned empty id")
		}
		if again := ClientID(ctx, sm); again != first {
			t.Errorf("ClientID changed within a session: %q then %q", first, again)
		}
	})
}

func TestFlash(t *testing.T) {
	sm := New(testutil.TestDB(t), true, 0)

	withSession(t, sm, func(ctx context.Context) {
		if msg, _ := PopFlash(ctx, sm); msg != "" {
			t.Errorf("PopFlash on empty session = %q", msg)
		}

		SetFlash(ctx, sm, "Game added", "success")
		msg, typ := PopFlash(ctx, sm)
		if msg != "Game added" || typ != "success" {
			t.Errorf("PopFlash = (%q, %q)", msg, typ)
		}
		if msg, _ := PopFlash(ctx, sm); msg != "" {
			t.Errorf("flash not cleared, got %q", msg)
		}

		sm.Put(ctx, KeyFlash, "untyped")
		if _, typ := PopFlash(ctx, sm); typ != "info" {
			t.Errorf("default flash type = %q, want info", typ)
		}
	})
}

func TestTickets(t *testing.T) {
	sm := New(testutil.TestDB(t), true, 0)
	tickets := NewTickets(sm)

	withSession(t, sm, func(ctx context.Context) {
		if _, ok := tickets.TakeTicket(ctx, "delete:games"); ok {
			t.Fatal("TakeTicket on empty session should fail")
		}

		want := workflow.Ticket{
			Collection: "games",
			ID:         "g1",
			Name:       "Snake",
			Token:      "abc",
			IssuedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		if err := tickets.PutTicket(ctx, "delete:games", want); err != nil {
			t.Fatalf("PutTicket: %v", err)
		}

		peeked, ok := tickets.PeekTicket(ctx, "delete:games")
		if !ok || peeked.Token != "abc" {
			t.Errorf("PeekTicket = %+v, %v", peeked, ok)
		}

		got, ok := tickets.TakeTicket(ctx, "delete:games")
		if !ok {
			t.Fatal("TakeTicket failed")
		}
		if got.ID != want.ID || got.Name != want.Name || !got.IssuedAt.Equal(want.IssuedAt) {
			t.Errorf("TakeTicket = %+v, want %+v", got, want)
		}
		if _, ok := tickets.TakeTicket(ctx, "delete:games"); ok {
			t.Error("ticket should be removed after TakeTicket")
		}
	})
}

func TestContext(t *testing.T) {
	empty := FromContext(context.Background())
	if empty.SignedIn() || empty.IsAdmin() || empty.UID() != "" {
		t.Errorf("empty context = %+v", empty)
	}

	sc := &Context{
		ClientID: "c1",
		Identity: &backend.Identity{UID: "u1", Email: "a@example.com"},
		Role:     model.RoleAdmin,
	}
	got := FromContext(WithContext(context.Background(), sc))
	if got != sc {
		t.Fatal("FromContext did not return stored context")
	}
	if !got.SignedIn() || !got.IsAdmin() || got.UID() != "u1" {
		t.Errorf("context = %+v", got)
	}

	// A stale admin role without an identity grants nothing.
	stale := &Context{Role: model.RoleAdmin}
	if stale.IsAdmin() {
		t.Error("IsAdmin without identity should be false")
	}
}
