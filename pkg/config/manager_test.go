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

func TestManager_Load(t *testing.T) {
	t.Run("Should load configuration and expose it via Get", func(t *testing.T) {
		ctx := context.Background()
		manager := NewManager(NewService())
		defer manager.Close(ctx)

		cfg, err := manager.Load(ctx, NewDefaultProvider())

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Same(t, cfg, manager.Get())
	})

	t.Run("Should return nil before any load", func(t *testing.T) {
		manager := NewManager(NewService())

		assert.Nil(t, manager.Get())
	})

	t.Run("Should keep a copy of the sources", func(t *testing.T) {
		ctx := context.Background()
		manager := NewManager(NewService())
		defer manager.Close(ctx)

		sources := []Source{NewDefaultProvider()}
		_, err := manager.Load(ctx, sources...)
		require.NoError(t, err)

		sources[0] = nil
		got := manager.Sources()
		require.Len(t, got, 1)
		assert.NotNil(t, got[0])
	})
}

func TestManager_Reload(t *testing.T) {
	t.Run("Should pick up changed file contents", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))

		manager := NewManager(NewService())
		defer manager.Close(ctx)

		cfg, err := manager.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, 9001, cfg.Server.Port)

		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9002\n"), 0o644))
		require.NoError(t, manager.Reload(ctx))

		assert.Equal(t, 9002, manager.Get().Server.Port)
	})

	t.Run("Should notify OnChange callbacks when config changes", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))

		manager := NewManager(NewService())
		defer manager.Close(ctx)

		changed := make(chan *Config, 1)
		manager.OnChange(func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		})

		_, err := manager.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9002\n"), 0o644))
		require.NoError(t, manager.Reload(ctx))

		select {
		case c := <-changed:
			assert.Equal(t, 9002, c.Server.Port)
		case <-time.After(2 * time.Second):
			t.Fatal("expected OnChange callback")
		}
	})

	t.Run("Should not notify callbacks on the initial load", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "verdict.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o644))

		manager := NewManager(NewService())
		defer manager.Close(ctx)

		changed := make(chan *Config, 1)
		manager.OnChange(func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		})

		_, err := manager.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)

		select {
		case c := <-changed:
			t.Fatalf("unexpected callback for initial load (port %d)", c.Server.Port)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Should skip callbacks when nothing changed", func(t *testing.T) {
		ctx := context.Background()
		manager := NewManager(NewService())
		defer manager.Close(ctx)

		_, err := manager.Load(ctx, NewDefaultProvider())
		require.NoError(t, err)

		calls := 0
		manager.OnChange(func(*Config) { calls++ })

		require.NoError(t, manager.Reload(ctx))
		assert.Zero(t, calls)
	})
}

func TestManager_Close(t *testing.T) {
	t.Run("Should be idempotent", func(t *testing.T) {
		ctx := context.Background()
		manager := NewManager(NewService())

		_, err := manager.Load(ctx, NewDefaultProvider())
		require.NoError(t, err)

		require.NoError(t, manager.Close(ctx))
		require.NoError(t, manager.Close(ctx))
	})
}

func TestConfigEqual(t *testing.T) {
	t.Run("Should treat identical configs as equal", func(t *testing.T) {
		assert.True(t, configEqual(Default(), Default()))
	})

	t.Run("Should detect differences", func(t *testing.T) {
		a := Default()
		b := Default()
		b.Server.Port = 1234
		assert.False(t, configEqual(a, b))
	})
}
