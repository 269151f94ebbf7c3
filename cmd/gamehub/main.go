// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/gamehub/internal/cache"
	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/config"
	"github.com/olegiv/gamehub/internal/handler"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/logging"
	"github.com/olegiv/gamehub/internal/middleware"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/role"
	"github.com/olegiv/gamehub/internal/scheduler"
	"github.com/olegiv/gamehub/internal/session"
	"github.com/olegiv/gamehub/internal/store"
	"github.com/olegiv/gamehub/internal/version"
	"github.com/olegiv/gamehub/internal/workflow"
	"github.com/olegiv/gamehub/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "gamehub - games and tools portal\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_DB_PATH             SQLite database path (default: ./data/gamehub.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_SERVER_HOST         Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_LOG_LEVEL           debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_REDIS_URL           Redis URL for the role cache and change relay (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_BACKEND_TIMEOUT     Deadline for backend calls (default: 10s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_MIN_PASSWORD_LENGTH Shortest accepted password (default: 6)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_DEFAULT_LANGUAGE    UI language for new sessions (default: en)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_RETENTION_SCHEDULE  Cron spec for pruning diagnostics and activity (default: @daily)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GAMEHUB_DO_SEED             Seed sample entries into an empty catalog (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("gamehub %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)
	slog.Info("starting gamehub", "version", info.String(), "env", cfg.Env)

	if err := i18n.Init(logger, cfg.DefaultLanguage); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	hub := store.NewHub()
	if cfg.UseRedis() {
		relay, err := store.NewRedisRelay(ctx, cfg.RedisURL, cfg.CachePrefix+"changes", hub)
		if err != nil {
			slog.Warn("change relay unavailable, live updates stay local", "error", err)
		} else {
			defer func() { _ = relay.Close() }()
			go func() {
				if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("change relay stopped", "error", err)
				}
			}()
		}
	}
	docs := store.NewDocumentStore(db, hub)

	// Warnings and errors are also kept in the diagnostics collection
	logger = slog.New(logging.NewDiagnosticsHandler(textHandler, docs))
	slog.SetDefault(logger)

	if cfg.DoSeed {
		if err := store.Seed(ctx, docs); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}

	sched := scheduler.New(docs, logger, scheduler.Config{
		Spec:                 cfg.RetentionSchedule,
		DiagnosticsRetention: cfg.DiagnosticsRetention,
		ActivityRetention:    cfg.ActivityRetention,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	auth := store.NewAuthStore(db,
		store.WithLockout(loginProtection),
		store.WithMinPasswordLength(cfg.MinPasswordLength),
	)

	roleCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.RoleCacheTTL,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	})
	defer func() { _ = roleCache.Close() }()
	roles := role.NewResolver(docs, roleCache, cfg.RoleCacheTTL, role.WithAccounts(auth))

	sessionManager := session.New(db, cfg.IsDevelopment(), cfg.SessionTTL)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
		ToastDuration:  cfg.ToastDuration,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	catalogStore := catalog.NewStore(docs)
	runner := workflow.NewRunner(nil)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(auth, roles, renderer, sessionManager, cfg.MinPasswordLength, cfg.BackendTimeout),
		Catalog:     handler.NewCatalogHandler(catalogStore, renderer, cfg.BackendTimeout),
		Dashboard:   handler.NewDashboardHandler(catalogStore, renderer, cfg.BackendTimeout),
		Admin:       handler.NewAdminHandler(catalogStore, runner, session.NewTickets(sessionManager), renderer, cfg.BackendTimeout),
		Stream:      handler.NewStreamHandler(catalogStore, auth, renderer, handler.DefaultKeepAlive),
		Health:      handler.NewHealthHandler(db, docs, dataDir, info.Version),
		SignInGuard: loginProtection.Middleware(sessionManager, "/"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadSession(sessionManager, auth, roles, cfg.BackendTimeout))
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("loading static files: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.NotFound(handler.NotFound(renderer))
	handlers.Mount(r, sessionManager, cfg.BackendTimeout+5*time.Second)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: /stream responses stay open for the whole session
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// Streams end when their request contexts are cancelled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
