package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/pkg/config"
)

func TestNew(t *testing.T) {
	t.Run("Should require a config", func(t *testing.T) {
		_, err := New(context.Background(), nil)
		require.ErrorContains(t, err, "config is required")
	})
	t.Run("Should default to the memory backend", func(t *testing.T) {
		cache, err := New(context.Background(), &config.CacheConfig{})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &Memory{}, cache)
	})
	t.Run("Should build the memory backend", func(t *testing.T) {
		cache, err := New(context.Background(), &config.CacheConfig{Backend: BackendMemory})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &Memory{}, cache)
	})
	t.Run("Should build the redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache, err := New(context.Background(), &config.CacheConfig{
			Backend:  BackendRedis,
			RedisURL: config.SensitiveString("redis://" + mr.Addr()),
		})
		require.NoError(t, err)
		defer cache.Close()
		assert.IsType(t, &Redis{}, cache)
	})
	t.Run("Should reject unknown backends", func(t *testing.T) {
		_, err := New(context.Background(), &config.CacheConfig{Backend: "memcached"})
		require.ErrorContains(t, err, `backend "memcached" is not supported`)
	})
}
