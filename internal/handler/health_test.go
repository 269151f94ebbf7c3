// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/session"
	"github.com/olegiv/gamehub/internal/testutil"
)

func newTestHealthHandler(t *testing.T) *HealthHandler {
	t.Helper()
	be := testutil.TestBackend(t)
	return NewHealthHandler(be.DB, be.Docs, t.TempDir(), "v1.2.3")
}

func healthRequest(path string, sc *session.Context) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sc != nil {
		req = req.WithContext(session.WithContext(req.Context(), sc))
	}
	return req
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestHealthHandler_Health_Public(t *testing.T) {
	handler := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	handler.Health(w, healthRequest("/health", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", ct)
	}

	resp := decodeJSON(t, w)
	if resp["status"] != "healthy" {
		t.Errorf("status = %v; want healthy", resp["status"])
	}
	for _, field := range []string{"checks", "uptime", "version", "system"} {
		if _, ok := resp[field]; ok {
			t.Errorf("public response should not contain %q", field)
		}
	}
}

func TestHealthHandler_Health_User(t *testing.T) {
	handler := newTestHealthHandler(t)
	sc := &session.Context{Identity: &backend.Identity{UID: "u1"}, Role: model.RoleUser}

	w := httptest.NewRecorder()
	handler.Health(w, healthRequest("/health?verbose=true", sc))

	resp := decodeJSON(t, w)
	if resp["version"] != "v1.2.3" {
		t.Errorf("version = %v; want v1.2.3", resp["version"])
	}
	if _, ok := resp["checks"]; ok {
		t.Error("non-admin response should not contain checks")
	}
	if _, ok := resp["system"]; ok {
		t.Error("non-admin response should not contain system info")
	}
}

func TestHealthHandler_Health_Admin(t *testing.T) {
	handler := newTestHealthHandler(t)
	sc := &session.Context{Identity: &backend.Identity{UID: "u1"}, Role: model.RoleAdmin}

	w := httptest.NewRecorder()
	handler.Health(w, healthRequest("/health?verbose=true", sc))

	assertStatus(t, w.Code, http.StatusOK)
	resp := decodeJSON(t, w)

	checks, ok := resp["checks"].(map[string]any)
	if !ok {
		t.Fatalf("checks missing: %v", resp)
	}
	for _, name := range []string{"database", "disk", "catalog"} {
		c, ok := checks[name].(map[string]any)
		if !ok {
			t.Errorf("check %q missing", name)
			continue
		}
		if c["status"] != "healthy" {
			t.Errorf("check %q status = %v", name, c["status"])
		}
	}
	if _, ok := resp["system"]; !ok {
		t.Error("verbose admin response should contain system info")
	}
}

func TestHealthHandler_MissingDataDir(t *testing.T) {
	be := testutil.TestBackend(t)
	handler := NewHealthHandler(be.DB, be.Docs, filepath.Join(t.TempDir(), "missing"), "dev")

	w := httptest.NewRecorder()
	handler.Health(w, healthRequest("/health", nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	if resp := decodeJSON(t, w); resp["status"] != "degraded" {
		t.Errorf("status = %v; want degraded", resp["status"])
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := newTestHealthHandler(t)

	w := httptest.NewRecorder()
	handler.Liveness(w, healthRequest("/health/live", nil))

	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != "alive" {
		t.Errorf("status = %v; want alive", resp["status"])
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	be := testutil.TestBackend(t)
	db := be.DB
	handler := NewHealthHandler(db, be.Docs, t.TempDir(), "dev")

	w := httptest.NewRecorder()
	handler.Readiness(w, healthRequest("/health/ready", nil))
	assertStatus(t, w.Code, http.StatusOK)
	if resp := decodeJSON(t, w); resp["status"] != "ready" {
		t.Errorf("status = %v; want ready", resp["status"])
	}

	_ = db.Close()
	admin := &session.Context{Identity: &backend.Identity{UID: "u1"}, Role: model.RoleAdmin}

	w = httptest.NewRecorder()
	handler.Readiness(w, healthRequest("/health/ready", admin))
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	resp := decodeJSON(t, w)
	if resp["status"] != "not_ready" {
		t.Errorf("status = %v; want not_ready", resp["status"])
	}
	if resp["message"] == "" || resp["message"] == nil {
		t.Error("admin should see the failure message")
	}

	w = httptest.NewRecorder()
	handler.Readiness(w, healthRequest("/health/ready", nil))
	if _, ok := decodeJSON(t, w)["message"]; ok {
		t.Error("anonymous caller should not see the failure message")
	}
}

func TestHealthHandler_CatalogCheck(t *testing.T) {
	be := testutil.TestBackend(t)
	ctx := context.Background()
	for _, name := range []string{"Snake", "Tetris"} {
		if _, err := be.Docs.AddRecord(ctx, model.CollectionGames, map[string]any{model.FieldName: name}); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}
	handler := NewHealthHandler(be.DB, be.Docs, t.TempDir(), "dev")

	c := handler.checkCatalog(ctx)
	if c.Status != "healthy" || c.Message != "2 games, 0 tools, 0 users" {
		t.Errorf("checkCatalog = %+v", c)
	}

	failing := NewHealthHandler(be.DB, testutil.FailingDocuments{Err: errors.New("down")}, t.TempDir(), "dev")
	w := httptest.NewRecorder()
	failing.Health(w, healthRequest("/health", nil))
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
}
