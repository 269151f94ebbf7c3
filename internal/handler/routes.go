package handler

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/gamehub/internal/middleware"
)

// Handlers groups the page handlers mounted by Mount.
type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
	Stream    *StreamHandler
	Health    *HealthHandler

	// SignInGuard, when set, wraps the sign-in and registration posts.
	SignInGuard func(http.Handler) http.Handler
}

// Mount registers the page, mutation, stream and health routes on r. The
// caller installs session loading in front of r. Every route except the
// streams runs under requestTimeout.
func (h Handlers) Mount(r chi.Router, sm *scs.SessionManager, requestTimeout time.Duration) {
	r.Get("/health", h.Health.Health)
	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/logout", h.Auth.Logout)
		r.Post("/language", h.Auth.SetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(sm, middleware.AccessGuest))
			r.Get("/", h.Auth.Landing)
			r.Group(func(r chi.Router) {
				if h.SignInGuard != nil {
					r.Use(h.SignInGuard)
				}
				r.Post("/login", h.Auth.Login)
				r.Post("/register", h.Auth.Register)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require(sm, middleware.AccessAuthenticated))
			r.Get("/games", h.Catalog.Games)
			r.Get("/games/grid", h.Catalog.GamesGrid)
			r.With(middleware.SameOrigin).Get("/games/{id}/play", h.Catalog.PlayGame)
			r.Get("/tools", h.Catalog.Tools)
			r.Get("/tools/grid", h.Catalog.ToolsGrid)
			r.With(middleware.SameOrigin).Get("/tools/{id}/use", h.Catalog.UseTool)
			r.Get("/dashboard", h.Dashboard.Dashboard)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Require(sm, middleware.AccessAdmin))
			r.Get("/", h.Admin.Console)
			r.Post("/users/{id}/role", h.Admin.ComingSoon)
			r.Post("/{collection}", h.Admin.Add)
			r.Get("/{collection}/confirm", h.Admin.ConfirmPage)
			r.Post("/{collection}/confirm", h.Admin.Confirm)
			r.Post("/{collection}/{id}/edit", h.Admin.ComingSoon)
			r.Post("/{collection}/{id}/delete", h.Admin.RequestDelete)
		})
	})

	r.With(middleware.Require(sm, middleware.AccessAuthenticated)).
		Get("/stream/{collection}", h.Stream.Stream)
}
