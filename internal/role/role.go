// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package role maps identities to roles and keeps the per-identity users
// records, including the first-registrant-becomes-admin bootstrap.
package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/cache"
	"github.com/olegiv/gamehub/internal/model"
)

// DefaultCacheTTL is how long a resolved role is reused.
const DefaultCacheTTL = 30 * time.Second

const cacheKeyPrefix = "role:"

// Accounts reports the identity that was created first.
type Accounts interface {
	// FirstAccount returns the uid of the oldest account, or "" when there
	// is none.
	FirstAccount(ctx context.Context) (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAccounts makes the oldest account the admin, independent of which
// users records were written. Without it the first identity to find the
// users collection empty becomes admin.
func WithAccounts(a Accounts) Option {
	return func(r *Resolver) {
		r.accounts = a
	}
}

// Resolver resolves and records identity roles.
type Resolver struct {
	docs     backend.Documents
	cache    cache.Cache
	cacheTTL time.Duration
	accounts Accounts

	// registerMu serializes registrations so that only one of them can
	// observe an empty users collection.
	registerMu sync.Mutex
}

// NewResolver creates a resolver. A nil cache disables role caching.
func NewResolver(docs backend.Documents, c cache.Cache, ttl time.Duration, opts ...Option) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	r := &Resolver{docs: docs, cache: c, cacheTTL: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the role of uid. A missing record yields RoleUser, and so
// does any lookup failure, which is logged and never grants admin.
func (r *Resolver) Resolve(ctx context.Context, uid string) model.Role {
	if uid == "" {
		return model.RoleUser
	}

	if r.cache != nil {
		if v, err := r.cache.Get(ctx, cacheKeyPrefix+uid); err == nil {
			return model.ParseRole(string(v))
		}
	}

	doc, err := r.docs.GetRecord(ctx, model.CollectionUsers, uid)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		r.remember(ctx, uid, model.RoleUser)
		return model.RoleUser
	case err != nil:
		slog.Warn("role lookup failed, assuming user", "category", model.EventCategoryRole, "uid", uid, "error", err)
		return model.RoleUser
	}

	role := model.ParseRole(doc.String(model.FieldRole))
	r.remember(ctx, uid, role)
	return role
}

func (r *Resolver) remember(ctx context.Context, uid string, role model.Role) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKeyPrefix+uid, []byte(role), r.cacheTTL); err != nil {
		slog.Debug("caching role failed", "uid", uid, "error", err)
	}
}

// Invalidate drops the cached role of uid.
func (r *Resolver) Invalidate(ctx context.Context, uid string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKeyPrefix+uid); err != nil {
		slog.Debug("invalidating role failed", "uid", uid, "error", err)
	}
}

// bootstrapRole returns RoleAdmin for the first identity ever: the oldest
// account when accounts are known, otherwise whoever finds no users record.
func (r *Resolver) bootstrapRole(ctx context.Context, uid string) (model.Role, error) {
	if r.accounts != nil {
		first, err := r.accounts.FirstAccount(ctx)
		if err != nil {
			return "", fmt.Errorf("finding first account: %w", err)
		}
		if first != "" && first == uid {
			return model.RoleAdmin, nil
		}
		return model.RoleUser, nil
	}

	n, err := r.docs.Count(ctx, model.CollectionUsers)
	if err != nil {
		return "", fmt.Errorf("counting users: %w", err)
	}
	if n == 0 {
		return model.RoleAdmin, nil
	}
	return model.RoleUser, nil
}

// Register writes the users record of a newly created identity. The first
// identity ever registered becomes admin; every later one is a user.
func (r *Resolver) Register(ctx context.Context, id backend.Identity) (model.Role, error) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()

	role, err := r.bootstrapRole(ctx, id.UID)
	if err != nil {
		return "", err
	}

	err = r.docs.SetRecord(ctx, model.CollectionUsers, id.UID, map[string]any{
		model.FieldEmail:     id.Email,
		model.FieldRole:      string(role),
		model.FieldCreatedAt: backend.ServerTimestamp,
		model.FieldLastLogin: backend.ServerTimestamp,
	}, false)
	if err != nil {
		return "", fmt.Errorf("creating user record: %w", err)
	}
	r.Invalidate(ctx, id.UID)

	if role == model.RoleAdmin {
		slog.Info("first identity registered as admin", "category", model.EventCategoryRole, "uid", id.UID)
	}
	return role, nil
}

// Touch refreshes lastLogin after a sign-in. An identity without a users
// record gets one: with known accounts its bootstrap role, so a first
// registrant whose record was lost is still admin; otherwise RoleUser.
func (r *Resolver) Touch(ctx context.Context, id backend.Identity) error {
	_, err := r.docs.GetRecord(ctx, model.CollectionUsers, id.UID)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return r.repair(ctx, id)
	case err != nil:
		return fmt.Errorf("reading user record: %w", err)
	}

	err = r.docs.SetRecord(ctx, model.CollectionUsers, id.UID, map[string]any{
		model.FieldLastLogin: backend.ServerTimestamp,
	}, true)
	if err != nil {
		return fmt.Errorf("refreshing last login: %w", err)
	}
	return nil
}

func (r *Resolver) repair(ctx context.Context, id backend.Identity) error {
	role := model.RoleUser
	if r.accounts != nil {
		r.registerMu.Lock()
		defer r.registerMu.Unlock()

		var err error
		if role, err = r.bootstrapRole(ctx, id.UID); err != nil {
			return err
		}
	}

	err := r.docs.SetRecord(ctx, model.CollectionUsers, id.UID, map[string]any{
		model.FieldEmail:     id.Email,
		model.FieldRole:      string(role),
		model.FieldCreatedAt: backend.ServerTimestamp,
		model.FieldLastLogin: backend.ServerTimestamp,
	}, false)
	if err != nil {
		return fmt.Errorf("creating missing user record: %w", err)
	}
	r.Invalidate(ctx, id.UID)

	if role == model.RoleAdmin {
		slog.Info("first identity's missing record restored as admin", "category", model.EventCategoryRole, "uid", id.UID)
	}
	return nil
}
