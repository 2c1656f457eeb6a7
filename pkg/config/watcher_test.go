package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Watch(t *testing.T) {
	t.Run("Should notify on file writes", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))

		watcher, err := NewWatcher()
		require.NoError(t, err)
		defer watcher.Close()

		notified := make(chan struct{}, 1)
		watcher.OnChange(func() {
			select {
			case notified <- struct{}{}:
			default:
			}
		})
		require.NoError(t, watcher.Watch(ctx, path))

		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9002\n"), 0o644))

		select {
		case <-notified:
		case <-time.After(5 * time.Second):
			t.Fatal("expected change notification")
		}
	})

	t.Run("Should stop notifying after context cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		dir := t.TempDir()
		path := filepath.Join(dir, "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

		watcher, err := NewWatcher()
		require.NoError(t, err)
		defer watcher.Close()

		notified := make(chan struct{}, 8)
		watcher.OnChange(func() {
			select {
			case notified <- struct{}{}:
			default:
			}
		})
		require.NoError(t, watcher.Watch(ctx, path))

		cancel()
		// Give the cancellation goroutine time to drop the path.
		time.Sleep(200 * time.Millisecond)

		require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))

		select {
		case <-notified:
			t.Fatal("expected no notification after cancel")
		case <-time.After(1500 * time.Millisecond):
		}
	})
}

func TestWatcher_Close(t *testing.T) {
	t.Run("Should be idempotent", func(t *testing.T) {
		watcher, err := NewWatcher()
		require.NoError(t, err)

		assert.NoError(t, watcher.Close())
		assert.NoError(t, watcher.Close())
	})
}
