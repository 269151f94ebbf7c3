// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wraps the scs session manager and carries the per-request
// session context (identity, role, language) from middleware to handlers.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// Session keys.
const (
	KeyClientID  = "client_id"
	KeyLang      = "lang"
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// DefaultLifetime is used when New is given a non-positive lifetime.
const DefaultLifetime = 24 * time.Hour

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool, lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()

	sm.Store = sqlite3store.New(db)

	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	sm.Lifetime = lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// ClientID returns the id of the browser owning the session, creating one on
// first use. Sign-in state in the auth backend is keyed by this id.
func ClientID(ctx context.Context, sm *scs.SessionManager) string {
	if id := sm.GetString(ctx, KeyClientID); id != "" {
		return id
	}
	id := uuid.NewString()
	sm.Put(ctx, KeyClientID, id)
	return id
}

// SetFlash stores a one-shot toast for the next rendered page.
func SetFlash(ctx context.Context, sm *scs.SessionManager, message, flashType string) {
	sm.Put(ctx, KeyFlash, message)
	sm.Put(ctx, KeyFlashType, flashType)
}

// PopFlash returns and clears the pending toast. The type defaults to info.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (message, flashType string) {
	message = sm.PopString(ctx, KeyFlash)
	if message == "" {
		return "", ""
	}
	flashType = sm.PopString(ctx, KeyFlashType)
	if flashType == "" {
		flashType = "info"
	}
	return message, flashType
}
