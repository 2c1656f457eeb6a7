package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/verdicthq/verdict/pkg/logger"
)

// Manager handles configuration with atomic updates and hot-reload support.
type Manager struct {
	Service     Service
	current     atomic.Value // stores *Config
	sources     []Source
	callbacks   []func(*Config)
	callbackMu  sync.RWMutex
	reloadMu    sync.Mutex
	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
	closeOnce   sync.Once
}

// NewManager creates a new configuration manager.
func NewManager(service Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:   service,
		callbacks: make([]func(*Config), 0),
	}
}

// Load loads configuration from sources and starts watching for changes.
func (m *Manager) Load(ctx context.Context, sources ...Source) (*Config, error) {
	// Copy sources so later caller mutation can't affect reloads.
	m.reloadMu.Lock()
	m.sources = append([]Source(nil), sources...)
	m.reloadMu.Unlock()

	config, err := m.Service.Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	m.applyConfig(config)

	// Rebind the internal watch context to a non-canceling derivative of
	// the caller's context so watchers outlive the Load call.
	if ctx != nil {
		if m.watchCancel != nil {
			m.watchCancel()
		}
		base := context.WithoutCancel(ctx)
		m.watchCtx, m.watchCancel = context.WithCancel(base)
	}

	m.startWatching(sources)

	return config, nil
}

// Sources returns a copy of the currently configured sources.
func (m *Manager) Sources() []Source {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	if len(m.sources) == 0 {
		return []Source{}
	}
	out := make([]Source, len(m.sources))
	copy(out, m.sources)
	return out
}

// Get returns the current configuration atomically.
func (m *Manager) Get() *Config {
	val := m.current.Load()
	if val == nil {
		return nil
	}
	config, ok := val.(*Config)
	if !ok {
		return nil
	}
	return config
}

// Reload forces a configuration reload from all sources.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	newConfig, err := m.Service.Load(ctx, m.sources...)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	if err := m.Service.Validate(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.applyConfig(newConfig)

	return nil
}

// OnChange registers a callback to be invoked when configuration changes.
func (m *Manager) OnChange(callback func(*Config)) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Close stops watching and releases resources.
func (m *Manager) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		if m.watchCancel != nil {
			m.watchCancel()
		}

		m.watchWg.Wait()

		m.reloadMu.Lock()
		sourcesCopy := append([]Source(nil), m.sources...)
		m.reloadMu.Unlock()
		for _, source := range sourcesCopy {
			if source != nil {
				if err := source.Close(); err != nil {
					logger.FromContext(ctx).Error("failed to close configuration source", "error", err)
				}
			}
		}
	})

	return nil
}

// startWatching sets up file watching for sources that support it.
func (m *Manager) startWatching(sources []Source) {
	for _, source := range sources {
		if source == nil {
			continue
		}
		src := source
		m.watchWg.Add(1)
		go func() {
			defer m.watchWg.Done()
			ctx := m.watchCtx
			if ctx == nil {
				ctx = context.Background()
			}
			err := src.Watch(ctx, func() {
				if err := m.Reload(ctx); err != nil {
					logger.FromContext(ctx).Error("failed to reload configuration", "error", err)
				}
			})

			if err != nil {
				logger.FromContext(ctx).Debug("source does not support watching", "error", err)
			}
		}()
	}
}

// applyConfig applies a new configuration atomically and notifies callbacks.
// The initial load is not a change; callbacks fire on reloads only.
func (m *Manager) applyConfig(config *Config) {
	oldConfig := m.Get()
	m.current.Store(config)

	if oldConfig == nil || configEqual(oldConfig, config) {
		return
	}

	m.callbackMu.RLock()
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.callbackMu.RUnlock()

	// Invoke callbacks outside of the lock.
	for _, callback := range callbacks {
		if callback != nil {
			callback(config)
		}
	}
}

// configEqual performs a deep equality check on configurations.
func configEqual(a, b *Config) bool {
	return reflect.DeepEqual(a, b)
}
