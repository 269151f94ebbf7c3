// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/gamehub/internal/auth"
	"github.com/olegiv/gamehub/internal/backend"
)

// DefaultMinPasswordLength is the shortest password the provider accepts.
const DefaultMinPasswordLength = 6

// AuthStore implements backend.Auth on the accounts and auth_clients tables.
type AuthStore struct {
	db           *sql.DB
	lockout      backend.Lockout
	minPassword  int
	now          func() time.Time
	signUpMu     sync.Mutex
	listenersMu  sync.RWMutex
	nextListener uint64
	listeners    map[string]map[uint64]func(*backend.Identity)
}

var _ backend.Auth = (*AuthStore)(nil)

// AuthOption configures an AuthStore.
type AuthOption func(*AuthStore)

// WithLockout enables account lockout after repeated failed sign-ins.
func WithLockout(l backend.Lockout) AuthOption {
	return func(s *AuthStore) { s.lockout = l }
}

// WithMinPasswordLength overrides DefaultMinPasswordLength.
func WithMinPasswordLength(n int) AuthOption {
	return func(s *AuthStore) {
		if n > 0 {
			s.minPassword = n
		}
	}
}

// NewAuthStore creates the identity provider.
func NewAuthStore(db *sql.DB, opts ...AuthOption) *AuthStore {
	s := &AuthStore{
		db:          db,
		minPassword: DefaultMinPasswordLength,
		now:         time.Now,
		listeners:   make(map[string]map[uint64]func(*backend.Identity)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an account and signs client in as it.
func (s *AuthStore) SignUp(ctx context.Context, client, email, password string) (backend.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return backend.Identity{}, err
	}
	if len(password) < s.minPassword {
		return backend.Identity{}, backend.ErrWeakPassword
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("hashing password: %w", err)
	}

	s.signUpMu.Lock()
	defer s.signUpMu.Unlock()

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("%w: checking email: %w", backend.ErrNetwork, err)
	}
	if exists > 0 {
		return backend.Identity{}, backend.ErrEmailInUse
	}

	id := backend.Identity{UID: uuid.NewString(), Email: email}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (uid, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id.UID, id.Email, hash, s.now(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return backend.Identity{}, backend.ErrEmailInUse
		}
		return backend.Identity{}, fmt.Errorf("%w: creating account: %w", backend.ErrNetwork, err)
	}

	if err := s.bind(ctx, client, id); err != nil {
		return backend.Identity{}, err
	}
	return id, nil
}

// FirstAccount returns the uid of the earliest created account, or "" when
// there are none. Accounts are never deleted, so this never changes once set.
func (s *AuthStore) FirstAccount(ctx context.Context) (string, error) {
	var uid string
	err := s.db.QueryRowContext(ctx, `SELECT uid FROM accounts ORDER BY rowid LIMIT 1`).Scan(&uid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("%w: finding first account: %w", backend.ErrNetwork, err)
	}
	return uid, nil
}

// SignIn verifies credentials and signs client in.
func (s *AuthStore) SignIn(ctx context.Context, client, email, password string) (backend.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return backend.Identity{}, err
	}

	if s.lockout != nil {
		if locked, remaining := s.lockout.IsAccountLocked(email); locked {
			slog.Warn("sign-in blocked by lockout", "category", "auth", "email", email, "remaining", remaining)
			return backend.Identity{}, backend.ErrTooManyAttempts
		}
	}

	var id backend.Identity
	var hash string
	err = s.db.QueryRowContext(ctx,
		`SELECT uid, email, password_hash FROM accounts WHERE email = ?`, email,
	).Scan(&id.UID, &id.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Identity{}, backend.ErrUserNotFound
	}
	if err != nil {
		return backend.Identity{}, fmt.Errorf("%w: looking up account: %w", backend.ErrNetwork, err)
	}

	ok, err := auth.Verify(password, hash)
	if err != nil {
		return backend.Identity{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		if s.lockout != nil {
			if locked, _ := s.lockout.RecordFailedAttempt(email); locked {
				return backend.Identity{}, backend.ErrTooManyAttempts
			}
		}
		return backend.Identity{}, backend.ErrWrongPassword
	}
	if s.lockout != nil {
		s.lockout.RecordSuccessfulLogin(email)
	}

	if auth.NeedsRehash(hash) {
		s.rehash(ctx, id.UID, password)
	}

	if err := s.bind(ctx, client, id); err != nil {
		return backend.Identity{}, err
	}
	return id, nil
}

func (s *AuthStore) rehash(ctx context.Context, uid, password string) {
	hash, err := auth.Hash(password)
	if err != nil {
		slog.Warn("rehashing password failed", "category", "auth", "uid", uid, "error", err)
		return
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = ? WHERE uid = ?`, hash, uid); err != nil {
		slog.Warn("storing rehashed password failed", "category", "auth", "uid", uid, "error", err)
	}
}

// SignOut clears the identity bound to client. Signing out a client that is
// not signed in is a no-op.
func (s *AuthStore) SignOut(ctx context.Context, client string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_clients WHERE client_id = ?`, client)
	if err != nil {
		return fmt.Errorf("%w: signing out: %w", backend.ErrNetwork, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.emit(client, nil)
	}
	return nil
}

// CurrentIdentity returns the identity bound to client, or nil.
func (s *AuthStore) CurrentIdentity(ctx context.Context, client string) (*backend.Identity, error) {
	if client == "" {
		return nil, nil
	}
	var id backend.Identity
	err := s.db.QueryRowContext(ctx, `
		SELECT a.uid, a.email FROM auth_clients c
		JOIN accounts a ON a.uid = c.uid
		WHERE c.client_id = ?`, client,
	).Scan(&id.UID, &id.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading identity: %w", backend.ErrNetwork, err)
	}
	return &id, nil
}

// OnIdentityChange calls fn with the current identity, then on every sign-in
// or sign-out of client until unsubscribe is called.
func (s *AuthStore) OnIdentityChange(ctx context.Context, client string, fn func(*backend.Identity)) (func(), error) {
	current, err := s.CurrentIdentity(ctx, client)
	if err != nil {
		return nil, err
	}

	s.listenersMu.Lock()
	s.nextListener++
	key := s.nextListener
	if s.listeners[client] == nil {
		s.listeners[client] = make(map[uint64]func(*backend.Identity))
	}
	s.listeners[client][key] = fn
	s.listenersMu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners[client], key)
			if len(s.listeners[client]) == 0 {
				delete(s.listeners, client)
			}
			s.listenersMu.Unlock()
		})
	}, nil
}

func (s *AuthStore) bind(ctx context.Context, client string, id backend.Identity) error {
	if client == "" {
		return fmt.Errorf("binding identity: empty client")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_clients (client_id, uid, signed_in_at) VALUES (?, ?, ?)
		ON CONFLICT (client_id) DO UPDATE SET uid = excluded.uid, signed_in_at = excluded.signed_in_at`,
		client, id.UID, s.now(),
	)
	if err != nil {
		return fmt.Errorf("%w: binding identity: %w", backend.ErrNetwork, err)
	}
	s.emit(client, &id)
	return nil
}

func (s *AuthStore) emit(client string, id *backend.Identity) {
	s.listenersMu.RLock()
	fns := make([]func(*backend.Identity), 0, len(s.listeners[client]))
	for _, fn := range s.listeners[client] {
		fns = append(fns, fn)
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(id)
	}
}

// normalizeEmail lowercases and validates a bare address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", backend.ErrInvalidEmail
	}
	return email, nil
}
