package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdicthq/verdict/pkg/config"
)

func newRedisCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := NewRedis(context.Background(), &config.CacheConfig{
		RedisURL: config.SensitiveString("redis://" + mr.Addr()),
		Prefix:   "verdict:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestNewRedis(t *testing.T) {
	t.Run("Should require a config", func(t *testing.T) {
		_, err := NewRedis(context.Background(), nil)
		require.ErrorContains(t, err, "config is required")
	})
	t.Run("Should require a redis url", func(t *testing.T) {
		_, err := NewRedis(context.Background(), &config.CacheConfig{})
		require.ErrorContains(t, err, "redis url is required")
	})
	t.Run("Should reject a malformed url", func(t *testing.T) {
		_, err := NewRedis(context.Background(), &config.CacheConfig{
			RedisURL: config.SensitiveString("://bad"),
		})
		require.ErrorContains(t, err, "parse redis url")
	})
	t.Run("Should fail fast when the server is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		url := "redis://" + mr.Addr()
		mr.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, err := NewRedis(ctx, &config.CacheConfig{RedisURL: config.SensitiveString(url)})
		require.ErrorContains(t, err, "ping redis")
	})
}

func TestRedis_RoundTrip(t *testing.T) {
	t.Run("Should store values under the configured prefix", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "question", "cached summary", time.Minute))
		value, err := cache.Get(ctx, "question")
		require.NoError(t, err)
		assert.Equal(t, "cached summary", value)
		stored, err := mr.Get("verdict:question")
		require.NoError(t, err)
		assert.Equal(t, "cached summary", stored)
	})
	t.Run("Should miss on unknown keys", func(t *testing.T) {
		cache, _ := newRedisCache(t)
		_, err := cache.Get(context.Background(), "absent")
		require.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("Should expire entries after the ttl", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "short-lived", "gone soon", time.Second))
		mr.FastForward(2 * time.Second)
		_, err := cache.Get(ctx, "short-lived")
		require.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("Should keep zero-ttl entries without expiry", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "durable", "stays", 0))
		mr.FastForward(time.Hour)
		value, err := cache.Get(ctx, "durable")
		require.NoError(t, err)
		assert.Equal(t, "stays", value)
	})
	t.Run("Should delete entries", func(t *testing.T) {
		cache, mr := newRedisCache(t)
		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "a", "1", 0))
		require.NoError(t, cache.Set(ctx, "b", "2", 0))
		require.NoError(t, cache.Delete(ctx, "a", "b"))
		assert.False(t, mr.Exists("verdict:a"))
		assert.False(t, mr.Exists("verdict:b"))
	})
	t.Run("Should ignore empty delete calls", func(t *testing.T) {
		cache, _ := newRedisCache(t)
		require.NoError(t, cache.Delete(context.Background()))
	})
	t.Run("Should close idempotently", func(t *testing.T) {
		cache, _ := newRedisCache(t)
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})
}
