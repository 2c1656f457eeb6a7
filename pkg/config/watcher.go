package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"
)

const (
	// watchDebounceWait coalesces bursts of write events into one reload.
	watchDebounceWait = 200 * time.Millisecond
	// watchDebounceMaxWait guarantees a reload fires even under a steady
	// stream of events.
	watchDebounceMaxWait = 1 * time.Second
)

// Watcher manages file watching for configuration hot-reload.
type Watcher struct {
	watcher   *fsnotify.Watcher
	callbacks []func()
	mu        sync.RWMutex
	// watched keeps track of actively watched absolute file paths along
	// with the per-call context so events are ignored immediately once
	// the context is canceled.
	watched        map[string]context.Context
	notifyDebounce func()
	cancelDebounce func()
	stopCh         chan struct{}
	startOnce      sync.Once
	closeOnce      sync.Once
}

// NewWatcher creates a new configuration file watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		watcher:   fsWatcher,
		callbacks: make([]func(), 0),
		watched:   make(map[string]context.Context),
		stopCh:    make(chan struct{}),
	}
	w.notifyDebounce, w.cancelDebounce = debounce.NewWithMaxWait(
		watchDebounceWait,
		watchDebounceMaxWait,
		w.notifyCallbacks,
	)
	return w, nil
}

// Watch starts watching the specified file for changes.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}
	w.mu.Lock()
	w.watched[absPath] = ctx
	w.mu.Unlock()
	if done := ctx.Done(); done != nil {
		go func(p string, done <-chan struct{}) {
			select {
			case <-done:
			case <-w.stopCh:
			}
			w.mu.Lock()
			delete(w.watched, p)
			w.mu.Unlock()
			if err := w.watcher.Remove(p); err != nil {
				if !errors.Is(err, fsnotify.ErrClosed) {
					_ = err
				}
			}
		}(absPath, done)
	}
	w.startOnce.Do(func() {
		go w.handleEvents()
	})
	return nil
}

// OnChange registers a callback to be invoked when a watched file changes.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// handleEvents processes file system events until the watcher is closed.
func (w *Watcher) handleEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.mu.RLock()
			pathCtx, stillWatched := w.watched[event.Name]
			w.mu.RUnlock()
			if !stillWatched {
				continue
			}
			if pathCtx != nil && pathCtx.Err() != nil {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.notifyDebounce()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				_ = err
			}
		}
	}
}

// notifyCallbacks invokes all registered callbacks.
func (w *Watcher) notifyCallbacks() {
	w.mu.RLock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback()
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		w.cancelDebounce()
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
