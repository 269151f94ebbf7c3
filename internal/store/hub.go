package store

import (
	"context"
	"log/slog"
	"sync"
)

// Relay forwards change notifications to other gamehub instances.
type Relay interface {
	Announce(ctx context.Context, collection string) error
}

// Hub fans out collection change notifications to local subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func()
	relay  Relay
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func())}
}

// SetRelay attaches a relay that receives every locally published change.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Subscribe registers notify for changes to collection. The returned
// function removes the registration and is safe to call more than once.
func (h *Hub) Subscribe(collection string, notify func()) (cancel func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[uint64]func())
	}
	h.subs[collection][id] = notify
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs[collection], id)
		if len(h.subs[collection]) == 0 {
			delete(h.subs, collection)
		}
		h.mu.Unlock()
	}
}

// Publish notifies local subscribers and the relay, if any.
func (h *Hub) Publish(ctx context.Context, collection string) {
	h.Deliver(collection)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay != nil {
		if err := relay.Announce(ctx, collection); err != nil {
			slog.WarnContext(ctx, "relaying change failed", "category", "system", "collection", collection, "error", err)
		}
	}
}

// Deliver notifies local subscribers only. Notify functions must not block.
func (h *Hub) Deliver(collection string) {
	h.mu.RLock()
	notify := make([]func(), 0, len(h.subs[collection]))
	for _, fn := range h.subs[collection] {
		notify = append(notify, fn)
	}
	h.mu.RUnlock()

	for _, fn := range notify {
		fn()
	}
}

// Subscribers returns the number of local subscribers for collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}
