// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP handlers of gamehub: the landing page
// with sign-in and registration, the games and tools catalogs, the
// dashboard, the admin console and the live list streams.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/session"
)

// Flash message types.
const (
	flashTypeSuccess = "success"
	flashTypeError   = "error"
	flashTypeWarning = "warning"
	flashTypeInfo    = "info"
)

// Routes redirected to by handlers.
const (
	routeLanding = "/"
	routeGames   = "/games"
	routeTools   = "/tools"
	routeAdmin   = "/admin"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, flashTypeSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, i18n.T(langOf(r), "msg.fields_required"))
		return false
	}
	return true
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, r *http.Request, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, i18n.T(langOf(r), "error.internal"), http.StatusInternalServerError)
}

// renderPage renders a full page, writing a 500 when the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, r, "failed to render page", "page", name, "error", err)
	}
}

// ErrorPage is the data of the error page.
type ErrorPage struct {
	Status  int
	Message string
}

// renderError renders the error page with status.
func renderError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	renderPage(w, r, renderer, "error", render.TemplateData{
		Title: http.StatusText(status),
		Data:  ErrorPage{Status: status, Message: message},
	})
}

// NotFound renders the localized 404 page.
func NotFound(renderer *render.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, renderer, http.StatusNotFound, i18n.T(langOf(r), "error.not_found"))
	}
}

// langOf returns the UI language of the request.
func langOf(r *http.Request) string {
	if lang := session.FromContext(r.Context()).Lang; lang != "" {
		return lang
	}
	return i18n.Default()
}

// withTimeout bounds one backend call made on behalf of r.
func withTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeout)
}

// errorText is the user-facing text of a backend failure.
func errorText(lang string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return i18n.T(lang, "msg.timeout")
	}
	return err.Error()
}

// localRedirect returns target when it is a path on this site, else fallback.
func localRedirect(target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
