// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for gamehub.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// It is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "gamehub-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// Backend bundles a test database with the stores built on it.
type Backend struct {
	DB   *sql.DB
	Hub  *store.Hub
	Docs *store.DocumentStore
	Auth *store.AuthStore
}

// TestBackend creates a migrated database with document and auth stores.
func TestBackend(t *testing.T) *Backend {
	t.Helper()

	db := TestDB(t)
	hub := store.NewHub()
	return &Backend{
		DB:   db,
		Hub:  hub,
		Docs: store.NewDocumentStore(db, hub),
		Auth: store.NewAuthStore(db),
	}
}

// InitI18n loads the embedded translations with English as default.
func InitI18n(t *testing.T) {
	t.Helper()
	if err := i18n.Init(nil, "en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
}

// FailingDocuments is a backend.Documents whose every call fails with Err.
type FailingDocuments struct {
	Err error
}

var _ backend.Documents = FailingDocuments{}

func (f FailingDocuments) GetRecord(context.Context, string, string) (backend.Document, error) {
	return backend.Document{}, f.Err
}

func (f FailingDocuments) SetRecord(context.Context, string, string, map[string]any, bool) error {
	return f.Err
}

func (f FailingDocuments) UpdateRecord(context.Context, string, string, map[string]any) error {
	return f.Err
}

func (f FailingDocuments) AddRecord(context.Context, string, map[string]any) (string, error) {
	return "", f.Err
}

func (f FailingDocuments) DeleteRecord(context.Context, string, string) error {
	return f.Err
}

func (f FailingDocuments) QueryOrdered(context.Context, backend.Query) ([]backend.Document, error) {
	return nil, f.Err
}

func (f FailingDocuments) SubscribeOrdered(context.Context, backend.Query, backend.SnapshotFunc) (func(), error) {
	return nil, f.Err
}

func (f FailingDocuments) Count(context.Context, string) (int, error) {
	return 0, f.Err
}
