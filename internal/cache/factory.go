package cache

import (
	"context"
	"log/slog"
	"time"
)

// Config selects and configures a cache backend.
type Config struct {
	// RedisURL selects the Redis backend when set, e.g. redis://localhost:6379/0.
	RedisURL string

	// Prefix is the key prefix for Redis
	Prefix string

	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache (0 = unlimited)
	MaxSize int

	CleanupInterval time.Duration
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:          "gamehub:",
		DefaultTTL:      time.Minute,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a Redis cache when cfg.RedisURL is set and reachable, falling
// back to an in-memory cache otherwise.
func New(cfg Config) Cache {
	if cfg.RedisURL != "" {
		client, err := Dial(context.Background(), cfg.RedisURL)
		if err == nil {
			slog.Info("using redis cache", "prefix", cfg.Prefix)
			return NewRedisCache(client, cfg.Prefix, cfg.DefaultTTL)
		}
		slog.Warn("redis cache unavailable, using memory cache", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}
