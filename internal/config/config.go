// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads gamehub settings from GAMEHUB_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"GAMEHUB_DB_PATH" envDefault:"./data/gamehub.db"`
	SessionSecret string `env:"GAMEHUB_SESSION_SECRET,required"`
	ServerHost    string `env:"GAMEHUB_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"GAMEHUB_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"GAMEHUB_ENV" envDefault:"development"`
	LogLevel      string `env:"GAMEHUB_LOG_LEVEL" envDefault:"info"`

	// Redis is optional: role cache and cross-instance change relay
	RedisURL    string `env:"GAMEHUB_REDIS_URL"`
	CachePrefix string `env:"GAMEHUB_CACHE_PREFIX" envDefault:"gamehub:"`

	RoleCacheTTL   time.Duration `env:"GAMEHUB_ROLE_CACHE_TTL" envDefault:"30s"`
	BackendTimeout time.Duration `env:"GAMEHUB_BACKEND_TIMEOUT" envDefault:"10s"`
	SessionTTL     time.Duration `env:"GAMEHUB_SESSION_TTL" envDefault:"24h"`

	MinPasswordLength int           `env:"GAMEHUB_MIN_PASSWORD_LENGTH" envDefault:"6"`
	ToastDuration     time.Duration `env:"GAMEHUB_TOAST_DURATION" envDefault:"3s"`
	DefaultLanguage   string        `env:"GAMEHUB_DEFAULT_LANGUAGE" envDefault:"en"`

	// Retention of diagnostics and play activity, run on a cron schedule; 0 keeps forever
	RetentionSchedule    string        `env:"GAMEHUB_RETENTION_SCHEDULE" envDefault:"@daily"`
	DiagnosticsRetention time.Duration `env:"GAMEHUB_DIAGNOSTICS_RETENTION" envDefault:"720h"`
	ActivityRetention    time.Duration `env:"GAMEHUB_ACTIVITY_RETENTION" envDefault:"2160h"`

	// Seed sample catalog entries into an empty database
	DoSeed bool `env:"GAMEHUB_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("GAMEHUB_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("GAMEHUB_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("GAMEHUB_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.MinPasswordLength < 1 {
		return nil, fmt.Errorf("GAMEHUB_MIN_PASSWORD_LENGTH must be positive, got %d", cfg.MinPasswordLength)
	}
	if cfg.BackendTimeout <= 0 {
		return nil, fmt.Errorf("GAMEHUB_BACKEND_TIMEOUT must be positive, got %s", cfg.BackendTimeout)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
