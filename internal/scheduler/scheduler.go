// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance on the document store.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// DefaultSpec runs retention once a day at midnight.
const DefaultSpec = "@daily"

// pruneTimeout bounds one retention run.
const pruneTimeout = 2 * time.Minute

// Config selects when retention runs and how long records are kept.
// A zero retention keeps that collection forever.
type Config struct {
	Spec                 string
	DiagnosticsRetention time.Duration
	ActivityRetention    time.Duration
}

// Scheduler prunes the diagnostics and game_activity collections.
type Scheduler struct {
	docs   backend.Documents
	cron   *cron.Cron
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

// New creates a new scheduler instance.
func New(docs backend.Documents, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	return &Scheduler{
		docs:   docs,
		cron:   cron.New(),
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Start registers the retention job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		if _, err := s.Prune(ctx); err != nil {
			s.logger.Error("retention run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling retention %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.cfg.Spec, "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Prune deletes diagnostics and play activity older than their retention
// and returns how many records were removed.
func (s *Scheduler) Prune(ctx context.Context) (int, error) {
	targets := []struct {
		collection string
		field      string
		retention  time.Duration
	}{
		{model.CollectionDiagnostics, "createdAt", s.cfg.DiagnosticsRetention},
		{model.CollectionActivity, "playedAt", s.cfg.ActivityRetention},
	}

	total := 0
	for _, t := range targets {
		if t.retention <= 0 {
			continue
		}
		n, err := s.pruneCollection(ctx, t.collection, t.field, s.now().Add(-t.retention))
		total += n
		if err != nil {
			return total, err
		}
		if n > 0 {
			s.logger.Info("pruned old records", "collection", t.collection, "count", n)
		}
	}
	return total, nil
}

func (s *Scheduler) pruneCollection(ctx context.Context, collection, field string, cutoff time.Time) (int, error) {
	docs, err := s.docs.QueryOrdered(ctx, backend.Query{
		Collection: collection,
		OrderBy:    field,
		Direction:  backend.Ascending,
	})
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", collection, err)
	}

	n := 0
	for _, doc := range docs {
		t, ok := doc.Time(field)
		if !ok {
			continue
		}
		if !t.Before(cutoff) {
			break
		}
		if err := s.docs.DeleteRecord(ctx, collection, doc.ID); err != nil {
			return n, fmt.Errorf("deleting %s/%s: %w", collection, doc.ID, err)
		}
		n++
	}
	return n, nil
}
