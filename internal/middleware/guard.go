// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for session gating, role
// checks, CSRF protection, security headers and request limits.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/session"
)

// Access is the requirement a page places on the session.
type Access int

// Access levels.
const (
	// AccessAny lets every request through.
	AccessAny Access = iota
	// AccessGuest is for the landing page: signed-in identities go home.
	AccessGuest
	// AccessAuthenticated requires an identity.
	AccessAuthenticated
	// AccessAdmin requires an identity with the admin role.
	AccessAdmin
)

// Redirect targets used by the guards.
const (
	LandingPath = "/"
	HomePath    = "/games"
)

// RoleResolver resolves the role of an identity.
type RoleResolver interface {
	Resolve(ctx context.Context, uid string) model.Role
}

// LoadSession builds the session.Context of the request: the client id, the
// identity signed in on that client, its role and the UI language. It must
// run inside sm.LoadAndSave. An identity lookup failure is treated as signed
// out so the guard fails closed.
func LoadSession(sm *scs.SessionManager, auth backend.Auth, roles RoleResolver, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := &session.Context{
				ClientID: session.ClientID(r.Context(), sm),
				Role:     model.RoleUser,
				Lang:     Language(sm, r),
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			identity, err := auth.CurrentIdentity(ctx, sc.ClientID)
			if err != nil {
				slog.Warn("loading identity failed", "category", model.EventCategoryAuth, "error", err)
			} else if identity != nil {
				sc.Identity = identity
				sc.Role = roles.Resolve(ctx, identity.UID)
			}
			cancel()

			next.ServeHTTP(w, r.WithContext(session.WithContext(r.Context(), sc)))
		})
	}
}

// Require gates a route on access. Requests without an identity on a
// protected route are sent to the landing page, signed-in requests on the
// landing page are sent home, and non-admins on admin routes are sent home
// with an access denied toast. Nothing of the page renders in those cases.
func Require(sm *scs.SessionManager, access Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := session.FromContext(r.Context())

			switch access {
			case AccessGuest:
				if sc.SignedIn() {
					http.Redirect(w, r, HomePath, http.StatusSeeOther)
					return
				}
			case AccessAuthenticated:
				if !sc.SignedIn() {
					http.Redirect(w, r, LandingPath, http.StatusSeeOther)
					return
				}
			case AccessAdmin:
				if !sc.SignedIn() {
					http.Redirect(w, r, LandingPath, http.StatusSeeOther)
					return
				}
				if !sc.IsAdmin() {
					slog.Warn("access denied",
						"category", model.EventCategoryRole,
						"status", http.StatusForbidden,
						"method", r.Method,
						"path", r.URL.Path,
						"uid", sc.UID(),
						"role", sc.Role,
					)
					session.SetFlash(r.Context(), sm, i18n.T(sc.Lang, "msg.access_denied"), "error")
					http.Redirect(w, r, HomePath, http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Language returns the UI language of the request: the session choice,
// then the Accept-Language header, then the default language.
func Language(sm *scs.SessionManager, r *http.Request) string {
	if lang := sm.GetString(r.Context(), session.KeyLang); lang != "" && i18n.IsSupported(lang) {
		return lang
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if lang := i18n.MatchLanguage(accept); lang != "" {
			return lang
		}
	}
	return i18n.Default()
}
