// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/session"
)

// Check states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// minFreeDisk is the free space below which the disk check degrades.
const minFreeDisk = 100 << 20

// HealthHandler reports on the database, the data directory and the
// catalog collections. Anonymous callers only learn the overall status.
type HealthHandler struct {
	db      *sql.DB
	docs    backend.Documents
	dataDir string
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler. dataDir is the directory
// holding the database file.
func NewHealthHandler(db *sql.DB, docs backend.Documents, dataDir, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		docs:    docs,
		dataDir: dataDir,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus is the /health body. Signed-in callers also get the version
// and uptime; admins get the individual checks.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is one health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains process-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(r.Context()),
		"disk":     h.checkDisk(),
		"catalog":  h.checkCatalog(r.Context()),
	}

	status := HealthStatus{Status: statusHealthy}
	for _, c := range checks {
		if c.Status != statusHealthy {
			status.Status = statusDegraded
		}
	}

	sc := session.FromContext(r.Context())
	if sc.SignedIn() {
		now := time.Now().UTC()
		status.Timestamp = &now
		status.Uptime = time.Since(h.started).Round(time.Second).String()
		status.Version = h.version
	}
	if sc.IsAdmin() {
		status.Checks = checks
		if r.URL.Query().Get("verbose") == "true" {
			status.System = systemInfo()
		}
	}

	code := http.StatusOK
	if status.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready: ready once the database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())
	if db.Status == statusHealthy {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	if session.FromContext(r.Context()).IsAdmin() {
		resp["message"] = db.Message
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency}
	}
	return Check{Status: statusHealthy, Message: "Connected", Latency: latency}
}

// checkCatalog counts the catalog collections through the document store.
func (h *HealthHandler) checkCatalog(ctx context.Context) Check {
	start := time.Now()
	counts := make(map[string]int, 3)
	for _, coll := range []string{model.CollectionGames, model.CollectionTools, model.CollectionUsers} {
		n, err := h.docs.Count(ctx, coll)
		if err != nil {
			return Check{Status: statusUnhealthy, Message: fmt.Sprintf("counting %s: %v", coll, err)}
		}
		counts[coll] = n
	}
	return Check{
		Status: statusHealthy,
		Message: fmt.Sprintf("%d games, %d tools, %d users",
			counts[model.CollectionGames], counts[model.CollectionTools], counts[model.CollectionUsers]),
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkDisk() Check {
	if _, err := os.Stat(h.dataDir); os.IsNotExist(err) {
		return Check{Status: statusUnhealthy, Message: "Data directory does not exist"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return Check{Status: statusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeDisk {
		return Check{Status: statusDegraded, Message: "Low disk space: " + humanize.IBytes(free) + " available"}
	}
	return Check{Status: statusHealthy, Message: humanize.IBytes(free) + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     humanize.IBytes(m.Alloc),
		MemSys:       humanize.IBytes(m.Sys),
	}
}
