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

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/session"
)

// authErrorKeys maps identity provider failures to translation keys.
var authErrorKeys = []struct {
	err error
	key string
}{
	{backend.ErrEmailInUse, "auth.email_in_use"},
	{backend.ErrInvalidEmail, "auth.invalid_email"},
	{backend.ErrUserNotFound, "auth.user_not_found"},
	{backend.ErrWrongPassword, "auth.wrong_password"},
	{backend.ErrWeakPassword, "auth.weak_password"},
	{backend.ErrTooManyAttempts, "auth.too_many_attempts"},
	{backend.ErrNetwork, "auth.network"},
}

// authMessage returns the localized text for a sign-in or sign-up failure.
// Unknown failures fall back to a generic message carrying the error text.
func authMessage(lang string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return i18n.T(lang, "msg.timeout")
	}
	for _, m := range authErrorKeys {
		if errors.Is(err, m.err) {
			return i18n.T(lang, m.key)
		}
	}
	return i18n.T(lang, "auth.unknown", err.Error())
}

// Registrar creates and refreshes users records for identities.
type Registrar interface {
	Register(ctx context.Context, id backend.Identity) (model.Role, error)
	Touch(ctx context.Context, id backend.Identity) error
}

// AuthHandler handles the landing page, sign-in, registration, sign-out and
// the language switch.
type AuthHandler struct {
	auth              backend.Auth
	users             Registrar
	renderer          *render.Renderer
	sessionManager    *scs.SessionManager
	minPasswordLength int
	timeout           time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth backend.Auth, users Registrar, renderer *render.Renderer, sm *scs.SessionManager, minPasswordLength int, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:              auth,
		users:             users,
		renderer:          renderer,
		sessionManager:    sm,
		minPasswordLength: minPasswordLength,
		timeout:           timeout,
	}
}

// LandingPage is the data of the landing page.
type LandingPage struct {
	MinPasswordLength int
}

// Landing renders the landing page with the sign-in and registration forms.
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, "index", render.TemplateData{
		Title: i18n.T(langOf(r), "app.title"),
		Data:  LandingPage{MinPasswordLength: h.minPasswordLength},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r)
	if !parseFormOrRedirect(w, r, h.renderer, routeLanding) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		flashError(w, r, h.renderer, routeLanding, i18n.T(lang, "msg.fields_required"))
		return
	}

	sc := session.FromContext(r.Context())
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	identity, err := h.auth.SignIn(ctx, sc.ClientID, email, password)
	if err != nil {
		slog.Info("sign-in failed", "category", model.EventCategoryAuth, "error", err)
		flashError(w, r, h.renderer, routeLanding, authMessage(lang, err))
		return
	}

	if err := h.users.Touch(ctx, identity); err != nil {
		slog.Warn("refreshing user record failed", "category", model.EventCategoryAuth, "uid", identity.UID, "error", err)
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to renew session token", "error", err)
		return
	}

	slog.Info("user signed in", "category", model.EventCategoryAuth, "uid", identity.UID)
	flashSuccess(w, r, h.renderer, routeGames, i18n.T(lang, "msg.welcome"))
}

// Register handles POST /register. The new identity is signed in on this
// browser and its users record is written with the bootstrap role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r)
	if !parseFormOrRedirect(w, r, h.renderer, routeLanding) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	switch {
	case email == "" || password == "" || confirm == "":
		flashError(w, r, h.renderer, routeLanding, i18n.T(lang, "msg.fields_required"))
		return
	case password != confirm:
		flashError(w, r, h.renderer, routeLanding, i18n.T(lang, "msg.password_mismatch"))
		return
	case len(password) < h.minPasswordLength:
		flashError(w, r, h.renderer, routeLanding, i18n.T(lang, "msg.password_short", h.minPasswordLength))
		return
	}

	sc := session.FromContext(r.Context())
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	identity, err := h.auth.SignUp(ctx, sc.ClientID, email, password)
	if err != nil {
		slog.Info("registration failed", "category", model.EventCategoryAuth, "error", err)
		flashError(w, r, h.renderer, routeLanding, authMessage(lang, err))
		return
	}

	// The identity exists at this point; a missing users record is
	// recreated with its bootstrap role by the next sign-in.
	role, err := h.users.Register(ctx, identity)
	if err != nil {
		slog.Error("writing user record failed", "category", model.EventCategoryAuth, "uid", identity.UID, "error", err)
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to renew session token", "error", err)
		return
	}

	slog.Info("user registered", "category", model.EventCategoryAuth, "uid", identity.UID, "role", role)
	flashSuccess(w, r, h.renderer, routeGames, i18n.T(lang, "msg.registered"))
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	lang := langOf(r)
	sc := session.FromContext(r.Context())

	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	if err := h.auth.SignOut(ctx, sc.ClientID); err != nil {
		slog.Warn("sign-out failed", "category", model.EventCategoryAuth, "uid", sc.UID(), "error", err)
		flashError(w, r, h.renderer, routeGames, errorText(lang, err))
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to renew session token", "error", err)
		return
	}

	slog.Info("user signed out", "category", model.EventCategoryAuth, "uid", sc.UID())
	flashAndRedirect(w, r, h.renderer, routeLanding, i18n.T(lang, "msg.logged_out"), flashTypeInfo)
}

// SetLanguage handles POST /language and returns to the referring page.
func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if lang := r.FormValue("lang"); i18n.IsSupported(lang) {
		h.sessionManager.Put(r.Context(), session.KeyLang, lang)
	}
	http.Redirect(w, r, localRedirect(r.Referer(), routeLanding), http.StatusSeeOther)
}
