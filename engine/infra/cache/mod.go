package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/verdicthq/verdict/pkg/config"
)

// Backend identifiers accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache stores small strings with a per-entry TTL. Lookups that miss return
// ErrNotFound. A ttl of zero or less stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// New builds the cache adapter selected by cfg.Backend. An empty backend
// selects the in-process memory cache.
func New(ctx context.Context, cfg *config.CacheConfig) (Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache: config is required")
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg)
	case BackendRedis:
		return NewRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("cache: backend %q is not supported", cfg.Backend)
	}
}

func prefixed(prefix string, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + key
}
