package cache

import (
	"testing"
	"time"
)

func TestNewDefaultsToMemory(t *testing.T) {
	c := New(DefaultConfig())
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New(DefaultConfig()) = %T, want *MemoryCache", c)
	}
}

func TestNewFallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	cfg.DefaultTTL = time.Second

	c := New(cfg)
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Errorf("New() = %T, want *MemoryCache fallback", c)
	}
}
