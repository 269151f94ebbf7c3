// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workflow runs add and delete mutations through the
// idle, validating, submitting, success/failed state machine, with a
// confirmation step in front of deletes and a guard against duplicate
// submissions.
package workflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is a workflow state.
type State int

// Workflow states.
const (
	Idle State = iota
	Validating
	AwaitingConfirmation
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Errors returned by the runner.
var (
	ErrInFlight        = errors.New("submission already in progress")
	ErrNoPendingDelete = errors.New("no pending delete confirmation")
	ErrCancelled       = errors.New("delete cancelled")
)

// ValidationError wraps a failure detected before any write was issued.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Observer is told about every state transition of a workflow key.
type Observer func(key string, from, to State)

// DefaultTicketTTL bounds how long a delete confirmation stays valid.
const DefaultTicketTTL = 5 * time.Minute

// Runner executes workflows. Keys identify one form of one session, e.g.
// "<client>:add:games"; a key can only have one submission in flight.
type Runner struct {
	mu        sync.Mutex
	inFlight  map[string]struct{}
	observer  Observer
	ticketTTL time.Duration
	now       func() time.Time
}

// NewRunner creates a runner. obs may be nil.
func NewRunner(obs Observer) *Runner {
	return &Runner{
		inFlight:  make(map[string]struct{}),
		observer:  obs,
		ticketTTL: DefaultTicketTTL,
		now:       time.Now,
	}
}

func (r *Runner) transition(key string, from, to State) {
	slog.Debug("workflow transition", "key", key, "from", from, "to", to)
	if r.observer != nil {
		r.observer(key, from, to)
	}
}

func (r *Runner) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[key]; busy {
		return false
	}
	r.inFlight[key] = struct{}{}
	return true
}

func (r *Runner) release(key string) {
	r.mu.Lock()
	delete(r.inFlight, key)
	r.mu.Unlock()
}

// Busy reports whether key has a submission in flight.
func (r *Runner) Busy(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.inFlight[key]
	return busy
}

// Submit runs validate and, if it passes, submit. A validation failure
// returns a *ValidationError without calling submit. A concurrent second
// submission for the same key returns ErrInFlight without running either.
func (r *Runner) Submit(ctx context.Context, key string, validate func() error, submit func(context.Context) error) error {
	if !r.acquire(key) {
		slog.Warn("duplicate submission rejected", "key", key)
		return ErrInFlight
	}
	defer r.release(key)

	r.transition(key, Idle, Validating)
	if err := validate(); err != nil {
		r.transition(key, Validating, Idle)
		return &ValidationError{Err: err}
	}

	r.transition(key, Validating, Submitting)
	return r.finish(ctx, key, submit)
}

func (r *Runner) finish(ctx context.Context, key string, submit func(context.Context) error) error {
	if err := submit(ctx); err != nil {
		r.transition(key, Submitting, Failed)
		r.transition(key, Failed, Idle)
		return err
	}
	r.transition(key, Submitting, Success)
	r.transition(key, Success, Idle)
	return nil
}

// Ticket is a pending delete awaiting confirmation.
type Ticket struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Token      string    `json:"token"`
	IssuedAt   time.Time `json:"issued_at"`
}

// TicketStore keeps at most one pending ticket per key.
type TicketStore interface {
	PutTicket(ctx context.Context, key string, t Ticket) error
	// TakeTicket returns and removes the ticket for key.
	TakeTicket(ctx context.Context, key string) (Ticket, bool)
}

// RequestDelete records a pending delete for key and returns its ticket.
// Nothing is deleted until ConfirmDelete is called with the ticket token.
func (r *Runner) RequestDelete(ctx context.Context, tickets TicketStore, key, collection, id, name string) (Ticket, error) {
	t := Ticket{
		Collection: collection,
		ID:         id,
		Name:       name,
		Token:      newToken(),
		IssuedAt:   r.now(),
	}
	if err := tickets.PutTicket(ctx, key, t); err != nil {
		return Ticket{}, fmt.Errorf("storing delete ticket: %w", err)
	}
	r.transition(key, Idle, AwaitingConfirmation)
	return t, nil
}

// ConfirmDelete resolves the pending delete for key. When confirmed is
// false the ticket is dropped and ErrCancelled returned without calling del.
// A missing, expired or mismatched ticket yields ErrNoPendingDelete.
func (r *Runner) ConfirmDelete(ctx context.Context, tickets TicketStore, key, token string, confirmed bool, del func(context.Context, Ticket) error) (Ticket, error) {
	t, ok := tickets.TakeTicket(ctx, key)
	if !ok || token == "" || t.Token != token || r.now().Sub(t.IssuedAt) > r.ticketTTL {
		return Ticket{}, ErrNoPendingDelete
	}

	if !confirmed {
		r.transition(key, AwaitingConfirmation, Idle)
		return t, ErrCancelled
	}

	if !r.acquire(key) {
		slog.Warn("duplicate submission rejected", "key", key)
		return t, ErrInFlight
	}
	defer r.release(key)

	r.transition(key, AwaitingConfirmation, Submitting)
	err := r.finish(ctx, key, func(ctx context.Context) error { return del(ctx, t) })
	return t, err
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
