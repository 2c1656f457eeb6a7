package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verdicthq/verdict/pkg/config"
	"github.com/verdicthq/verdict/pkg/logger"
)

const redisPingTimeout = 10 * time.Second

// Redis is a cache adapter over a shared Redis instance.
type Redis struct {
	client redis.UniversalClient
	prefix string
	once   sync.Once // guarantees idempotent, race-free Close
}

// NewRedis connects to the Redis URL from cfg and validates connectivity
// before returning.
func NewRedis(ctx context.Context, cfg *config.CacheConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache: config is required")
	}
	url := strings.TrimSpace(string(cfg.RedisURL))
	if url == "" {
		return nil, fmt.Errorf("cache: redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping redis (timeout=%s): %w", redisPingTimeout, err)
	}
	logger.FromContext(ctx).Info("Cache connected",
		"cache_backend", BackendRedis,
		"addr", opt.Addr,
		"db", opt.DB)
	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, prefixed(r.prefix, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cache: get %q: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, prefixed(r.prefix, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, key := range keys {
		namespaced[i] = prefixed(r.prefix, key)
	}
	if err := r.client.Del(ctx, namespaced...).Err(); err != nil {
		return fmt.Errorf("cache: delete keys: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	var err error
	r.once.Do(func() {
		err = r.client.Close()
	})
	return err
}
