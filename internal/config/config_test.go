// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "GAMEHUB_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/gamehub.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/gamehub.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.MinPasswordLength != 6 {
		t.Errorf("MinPasswordLength = %d, want 6", cfg.MinPasswordLength)
	}
	if cfg.ToastDuration != 3*time.Second {
		t.Errorf("ToastDuration = %s, want 3s", cfg.ToastDuration)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %s, want 10s", cfg.BackendTimeout)
	}
	if cfg.RoleCacheTTL != 30*time.Second {
		t.Errorf("RoleCacheTTL = %s, want 30s", cfg.RoleCacheTTL)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
	if cfg.UseRedis() {
		t.Error("UseRedis() = true without GAMEHUB_REDIS_URL")
	}
	if cfg.DoSeed {
		t.Error("DoSeed should default to false")
	}
	if cfg.RetentionSchedule != "@daily" || cfg.DiagnosticsRetention != 720*time.Hour || cfg.ActivityRetention != 2160*time.Hour {
		t.Errorf("retention = %q %s %s", cfg.RetentionSchedule, cfg.DiagnosticsRetention, cfg.ActivityRetention)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "GAMEHUB_SESSION_SECRET", "custom-secret-key-32-bytes-long!")
	setEnv(t, "GAMEHUB_DB_PATH", "/custom/path.db")
	setEnv(t, "GAMEHUB_SERVER_HOST", "0.0.0.0")
	setEnv(t, "GAMEHUB_SERVER_PORT", "3000")
	setEnv(t, "GAMEHUB_ENV", "production")
	setEnv(t, "GAMEHUB_REDIS_URL", "redis://localhost:6379/0")
	setEnv(t, "GAMEHUB_BACKEND_TIMEOUT", "2s")
	setEnv(t, "GAMEHUB_DEFAULT_LANGUAGE", "id")
	setEnv(t, "GAMEHUB_DO_SEED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false")
	}
	if cfg.BackendTimeout != 2*time.Second {
		t.Errorf("BackendTimeout = %s", cfg.BackendTimeout)
	}
	if cfg.DefaultLanguage != "id" {
		t.Errorf("DefaultLanguage = %q", cfg.DefaultLanguage)
	}
	if !cfg.DoSeed {
		t.Error("DoSeed = false")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() should fail without GAMEHUB_SESSION_SECRET")
	}
}

func TestLoad_SessionSecretRules(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr string
	}{
		{"too short", "short", "at least 32 bytes"},
		{"known weak", "change-me-to-32-byte-secret-key!", "known default"},
		{"exactly minimum", strings.Repeat("aB1", 10) + "aB", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "GAMEHUB_SESSION_SECRET", tt.secret)

			_, err := Load()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Load() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidLimits(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GAMEHUB_MIN_PASSWORD_LENGTH", "0"},
		{"GAMEHUB_BACKEND_TIMEOUT", "0s"},
		{"GAMEHUB_BACKEND_TIMEOUT", "soon"},
		{"GAMEHUB_SERVER_PORT", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "GAMEHUB_SESSION_SECRET", testSecret)
			setEnv(t, tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should fail for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := (Config{LogLevel: tt.level}).SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"aaaaaaaaaaaaaaaaAAAAAAAAAAAAAAAA", false},
		{"aaaaaaaaaaaaAAAAAAAAAA1111111111", true},
		{"test-secret-key-32-bytes-long!!!", true},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.s); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
