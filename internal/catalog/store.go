// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// Store reads and writes catalog and user collections.
type Store struct {
	docs backend.Documents
}

// NewStore creates a catalog store on docs.
func NewStore(docs backend.Documents) *Store {
	return &Store{docs: docs}
}

func newestFirst(collection string, limit int) backend.Query {
	return backend.Query{
		Collection: collection,
		OrderBy:    model.FieldCreatedAt,
		Direction:  backend.Descending,
		Limit:      limit,
	}
}

// Entries loads the whole catalog, newest first.
func (s *Store) Entries(ctx context.Context, def Definition) ([]model.Entry, error) {
	docs, err := s.docs.QueryOrdered(ctx, newestFirst(def.Collection, 0))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", def.Collection, err)
	}
	return mapDocs(docs, def.EntryFromDocument), nil
}

// Entry loads one catalog entry.
func (s *Store) Entry(ctx context.Context, def Definition, id string) (model.Entry, error) {
	doc, err := s.docs.GetRecord(ctx, def.Collection, id)
	if err != nil {
		return model.Entry{}, fmt.Errorf("loading %s/%s: %w", def.Collection, id, err)
	}
	return def.EntryFromDocument(doc), nil
}

// Users loads user records, newest first. limit <= 0 loads all.
func (s *Store) Users(ctx context.Context, limit int) ([]model.User, error) {
	docs, err := s.docs.QueryOrdered(ctx, newestFirst(model.CollectionUsers, limit))
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	return mapDocs(docs, UserFromDocument), nil
}

// Add validates in and stores it as a new entry created by creator.
func (s *Store) Add(ctx context.Context, def Definition, in EntryInput, creator string) (string, error) {
	in, err := def.Validate(in)
	if err != nil {
		return "", err
	}
	id, err := s.docs.AddRecord(ctx, def.Collection, def.fields(in, creator))
	if err != nil {
		return "", fmt.Errorf("adding to %s: %w", def.Collection, err)
	}
	return id, nil
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, def Definition, id string) error {
	if err := s.docs.DeleteRecord(ctx, def.Collection, id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", def.Collection, id, err)
	}
	return nil
}

// WatchEntries subscribes to the catalog. The subscription delivers a full
// snapshot immediately and after every change.
func (s *Store) WatchEntries(ctx context.Context, def Definition) (*Subscription[model.Entry], error) {
	return watch(ctx, s.docs, newestFirst(def.Collection, 0), def.EntryFromDocument)
}

// WatchUsers subscribes to the users collection.
func (s *Store) WatchUsers(ctx context.Context) (*Subscription[model.User], error) {
	return watch(ctx, s.docs, newestFirst(model.CollectionUsers, 0), UserFromDocument)
}

func mapDocs[T any](docs []backend.Document, conv func(backend.Document) T) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, conv(d))
	}
	return out
}

// Snapshot is one delivery of a subscription: the full ordered collection,
// or the error that prevented loading it.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Subscription delivers snapshots of one collection until closed.
type Subscription[T any] struct {
	ch          chan Snapshot[T]
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func watch[T any](ctx context.Context, docs backend.Documents, q backend.Query, conv func(backend.Document) T) (*Subscription[T], error) {
	sub := &Subscription[T]{
		ch:   make(chan Snapshot[T]),
		done: make(chan struct{}),
	}

	unsubscribe, err := docs.SubscribeOrdered(ctx, q, func(d []backend.Document, err error) {
		var snap Snapshot[T]
		if err == nil {
			snap.Items = mapDocs(d, conv)
		} else {
			snap.Err = fmt.Errorf("watching %s: %w", q.Collection, err)
		}
		select {
		case sub.ch <- snap:
		case <-sub.done:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", q.Collection, err)
	}
	sub.unsubscribe = unsubscribe
	return sub, nil
}

// Snapshots returns the delivery channel. It is never closed; select on
// the caller's context as well.
func (s *Subscription[T]) Snapshots() <-chan Snapshot[T] {
	return s.ch
}

// Close stops deliveries. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.done)
		s.unsubscribe()
	})
}
