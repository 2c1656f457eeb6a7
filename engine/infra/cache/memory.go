package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/verdicthq/verdict/pkg/config"
)

const (
	defaultNumCounters = 100_000
	defaultMaxCost     = 8 << 20
	bufferItems        = 64
)

// Memory is an in-process cache backed by ristretto.
type Memory struct {
	cache  *ristretto.Cache[string, string]
	prefix string
}

// NewMemory builds the in-process adapter. Non-positive sizing values fall
// back to the defaults.
func NewMemory(cfg *config.CacheConfig) (*Memory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache: config is required")
	}
	numCounters := cfg.NumCounters
	if numCounters <= 0 {
		numCounters = defaultNumCounters
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = defaultMaxCost
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: init memory cache: %w", err)
	}
	return &Memory{cache: cache, prefix: cfg.Prefix}, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	value, ok := m.cache.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set waits for the write to pass through ristretto's buffers so a subsequent
// Get observes it.
func (m *Memory) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	cost := int64(len(value))
	if cost <= 0 {
		cost = 1
	}
	if ttl > 0 {
		m.cache.SetWithTTL(prefixed(m.prefix, key), value, cost, ttl)
	} else {
		m.cache.Set(prefixed(m.prefix, key), value, cost)
	}
	m.cache.Wait()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Del(prefixed(m.prefix, key))
	}
	return nil
}

func (m *Memory) Close() error {
	m.cache.Close()
	return nil
}
