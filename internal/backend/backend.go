// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend describes the external identity provider and document store
// that gamehub delegates persistence, authentication and change notification to.
package backend

import (
	"context"
	"errors"
	"time"
)

// Auth errors. Callers map these to user-facing messages.
var (
	ErrEmailInUse      = errors.New("auth/email-already-in-use")
	ErrWeakPassword    = errors.New("auth/weak-password")
	ErrInvalidEmail    = errors.New("auth/invalid-email")
	ErrUserNotFound    = errors.New("auth/user-not-found")
	ErrWrongPassword   = errors.New("auth/wrong-password")
	ErrTooManyAttempts = errors.New("auth/too-many-requests")
	ErrNetwork         = errors.New("auth/network-request-failed")
)

// Document store errors.
var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Identity is an authenticated principal.
type Identity struct {
	UID   string
	Email string
}

// Auth is the identity provider. Sign-in state is held per client, where a
// client is one browser (its session).
type Auth interface {
	SignUp(ctx context.Context, client, email, password string) (Identity, error)
	SignIn(ctx context.Context, client, email, password string) (Identity, error)
	SignOut(ctx context.Context, client string) error
	CurrentIdentity(ctx context.Context, client string) (*Identity, error)
	// OnIdentityChange calls fn immediately with the current identity (nil when
	// signed out) and again on every later change for the client.
	OnIdentityChange(ctx context.Context, client string, fn func(*Identity)) (unsubscribe func(), err error)
}

// Lockout tracks failed sign-in attempts per account.
type Lockout interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

// Direction is a sort direction for ordered queries.
type Direction int

// Sort directions.
const (
	Descending Direction = iota
	Ascending
)

// Query selects an ordered slice of one collection. Limit <= 0 means no limit.
type Query struct {
	Collection string
	OrderBy    string
	Direction  Direction
	Limit      int
}

// SnapshotFunc receives a full ordered result set, or the error that
// prevented producing one.
type SnapshotFunc func(docs []Document, err error)

// Documents is the document store.
type Documents interface {
	GetRecord(ctx context.Context, collection, id string) (Document, error)
	SetRecord(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	// UpdateRecord merges fields into an existing document and returns
	// ErrNotFound when there is none.
	UpdateRecord(ctx context.Context, collection, id string, fields map[string]any) error
	AddRecord(ctx context.Context, collection string, fields map[string]any) (string, error)
	DeleteRecord(ctx context.Context, collection, id string) error
	QueryOrdered(ctx context.Context, q Query) ([]Document, error)
	// SubscribeOrdered delivers an initial snapshot and a fresh one after every
	// change to the collection until unsubscribe is called or ctx is done.
	SubscribeOrdered(ctx context.Context, q Query, fn SnapshotFunc) (unsubscribe func(), err error)
	Count(ctx context.Context, collection string) (int, error)
}
