package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/olegiv/gamehub/internal/cache"
)

// DefaultRelayChannel is the Redis channel change notifications travel on.
const DefaultRelayChannel = "gamehub:changes"

// RedisRelay shares change notifications between instances over Redis
// pub/sub. Messages have the form "<instance>|<collection>"; an instance
// ignores its own messages since the hub already delivered them locally.
type RedisRelay struct {
	client   *redis.Client
	channel  string
	instance string
	hub      *Hub
}

// NewRedisRelay connects to the Redis server at url and attaches the relay
// to hub.
func NewRedisRelay(ctx context.Context, url, channel string, hub *Hub) (*RedisRelay, error) {
	client, err := cache.Dial(ctx, url)
	if err != nil {
		return nil, err
	}

	if channel == "" {
		channel = DefaultRelayChannel
	}
	r := &RedisRelay{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		hub:      hub,
	}
	hub.SetRelay(r)
	return r, nil
}

// Announce implements Relay.
func (r *RedisRelay) Announce(ctx context.Context, collection string) error {
	return r.client.Publish(ctx, r.channel, r.instance+"|"+collection).Err()
}

// Run receives notifications from other instances until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *RedisRelay) handle(payload string) {
	instance, collection, ok := strings.Cut(payload, "|")
	if !ok || collection == "" {
		slog.Warn("malformed relay message", "payload", payload)
		return
	}
	if instance == r.instance {
		return
	}
	r.hub.Deliver(collection)
}

// Close closes the Redis connection.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}
