// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/gamehub/internal/backend"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DocumentStore implements backend.Documents on the documents table.
type DocumentStore struct {
	db  *sql.DB
	hub *Hub
	now func() time.Time

	// writeMu serializes read-modify-write cycles so that merges and
	// increments never interleave.
	writeMu sync.Mutex
}

var _ backend.Documents = (*DocumentStore)(nil)

// NewDocumentStore creates a document store publishing changes to hub.
func NewDocumentStore(db *sql.DB, hub *Hub) *DocumentStore {
	return &DocumentStore{db: db, hub: hub, now: time.Now}
}

// GetRecord returns one document or backend.ErrNotFound.
func (s *DocumentStore) GetRecord(ctx context.Context, collection, id string) (backend.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return backend.Document{}, backend.ErrNotFound
	}
	if err != nil {
		return backend.Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return backend.Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return backend.Document{ID: id, Fields: fields}, nil
}

// SetRecord writes a document. With merge, the given fields are combined
// with the stored ones; without it, the stored document is replaced.
func (s *DocumentStore) SetRecord(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if id == "" {
		return fmt.Errorf("setting %s: empty id", collection)
	}

	s.writeMu.Lock()
	err := s.write(ctx, collection, id, fields, merge, false)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	s.hub.Publish(ctx, collection)
	return nil
}

// UpdateRecord merges fields into an existing document. It never creates one.
func (s *DocumentStore) UpdateRecord(ctx context.Context, collection, id string, fields map[string]any) error {
	s.writeMu.Lock()
	err := s.write(ctx, collection, id, fields, true, true)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	s.hub.Publish(ctx, collection)
	return nil
}

// AddRecord stores a new document under a generated id.
func (s *DocumentStore) AddRecord(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()

	s.writeMu.Lock()
	err := s.write(ctx, collection, id, fields, false, false)
	s.writeMu.Unlock()
	if err != nil {
		return "", err
	}

	s.hub.Publish(ctx, collection)
	return id, nil
}

func (s *DocumentStore) write(ctx context.Context, collection, id string, fields map[string]any, merge, mustExist bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing := map[string]any{}
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if mustExist {
			return fmt.Errorf("updating %s/%s: %w", collection, id, backend.ErrNotFound)
		}
	case err != nil:
		return fmt.Errorf("reading %s/%s: %w", collection, id, err)
	default:
		if existing, err = decodeStored(raw); err != nil {
			return fmt.Errorf("reading %s/%s: %w", collection, id, err)
		}
	}

	now := s.now()
	resolved, err := resolveFields(fields, existing, now)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}

	if merge {
		for k, v := range resolved {
			existing[k] = v
		}
		resolved = existing
	}

	encoded, err := encodeFields(resolved)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`,
		collection, id, encoded, now,
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s/%s: %w", collection, id, err)
	}
	return nil
}

// decodeStored parses stored fields without converting timestamps, so that
// a merge writes them back unchanged.
func decodeStored(raw string) (map[string]any, error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			fields[k] = encodeTime(t)
		}
	}
	return fields, nil
}

// DeleteRecord removes a document. Deleting a missing document is not an error.
func (s *DocumentStore) DeleteRecord(ctx context.Context, collection, id string) error {
	s.writeMu.Lock()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.hub.Publish(ctx, collection)
	}
	return nil
}

// Count returns the number of documents in collection.
func (s *DocumentStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return n, nil
}

// QueryOrdered returns the documents of q.Collection ordered by q.OrderBy.
// Documents without the order field sort last in either direction.
func (s *DocumentStore) QueryOrdered(ctx context.Context, q backend.Query) ([]backend.Document, error) {
	stmt, err := orderedStatement(q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, stmt, q.Collection, limit)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []backend.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Collection, err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("querying %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, backend.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", q.Collection, err)
	}
	return docs, nil
}

func orderedStatement(q backend.Query) (string, error) {
	if q.Collection == "" {
		return "", fmt.Errorf("%w: empty collection", backend.ErrInvalidQuery)
	}
	if !fieldNamePattern.MatchString(q.OrderBy) {
		return "", fmt.Errorf("%w: order field %q", backend.ErrInvalidQuery, q.OrderBy)
	}

	dir := "DESC"
	if q.Direction == backend.Ascending {
		dir = "ASC"
	}

	// Field names are validated above; they cannot be bound as parameters.
	key := fmt.Sprintf(
		"COALESCE(json_extract(fields, '$.%[1]s.%[2]s'), json_extract(fields, '$.%[1]s'))",
		q.OrderBy, tsKey,
	)
	return fmt.Sprintf(
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY %[1]s IS NULL, %[1]s %[2]s, rowid %[2]s LIMIT ?`,
		key, dir,
	), nil
}

// SubscribeOrdered delivers an initial snapshot of q, then a fresh snapshot
// for every change notification. Notifications are never coalesced: each
// one produces its own query and delivery, in order, on a dedicated goroutine.
func (s *DocumentStore) SubscribeOrdered(ctx context.Context, q backend.Query, fn backend.SnapshotFunc) (func(), error) {
	if _, err := orderedStatement(q); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{wake: make(chan struct{}, 1), pending: 1}
	sub.wake <- struct{}{}

	stopHub := s.hub.Subscribe(q.Collection, sub.notify)

	go func() {
		defer stopHub()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.wake:
			}
			for n := sub.take(); n > 0; n-- {
				docs, err := s.QueryOrdered(ctx, q)
				if ctx.Err() != nil {
					return
				}
				fn(docs, err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			stopHub()
		})
	}, nil
}

// subscription counts undelivered notifications for one subscriber.
type subscription struct {
	mu      sync.Mutex
	pending int
	wake    chan struct{}
}

func (s *subscription) notify() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) take() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.pending
	s.pending = 0
	return n
}
