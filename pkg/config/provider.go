package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/verdicthq/verdict/pkg/config/definition"
	"gopkg.in/yaml.v3"
)

// envProvider is a marker source for environment variables. The actual
// loading is handled by koanf's native env provider in loader.go.
type envProvider struct{}

// NewEnvProvider creates a new environment variable configuration source.
func NewEnvProvider() Source {
	return &envProvider{}
}

// Load returns an empty map as environment loading is handled natively by koanf.
func (e *envProvider) Load() (map[string]any, error) {
	return make(map[string]any), nil
}

// Watch is not implemented for environment variables as they don't change at runtime.
func (e *envProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

// Type returns the source type identifier.
func (e *envProvider) Type() SourceType {
	return SourceEnv
}

// Close releases any resources held by the source.
func (e *envProvider) Close() error {
	return nil
}

// cliProvider implements Source for CLI flags.
type cliProvider struct {
	flags map[string]any
}

// NewCLIProvider creates a new CLI flags configuration source.
func NewCLIProvider(flags map[string]any) Source {
	return &cliProvider{
		flags: flags,
	}
}

// Load returns the CLI flags as configuration data.
func (c *cliProvider) Load() (map[string]any, error) {
	if c.flags == nil {
		return make(map[string]any), nil
	}
	registry := definition.CreateRegistry()
	flagToPath := registry.GetCLIFlagMapping()
	config := make(map[string]any)
	for key, value := range c.flags {
		if path, ok := flagToPath[key]; ok {
			if err := setNested(config, path, value); err != nil {
				return nil, fmt.Errorf("failed to set CLI flag %s: %w", key, err)
			}
		}
	}
	return config, nil
}

// Watch is not implemented for CLI flags as they don't change at runtime.
func (c *cliProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

// Type returns the source type identifier.
func (c *cliProvider) Type() SourceType {
	return SourceCLI
}

// Close releases any resources held by the source.
func (c *cliProvider) Close() error {
	return nil
}

// setNested sets a value in a nested map structure using dot notation.
// It returns an error if a path conflict is encountered.
func setNested(m map[string]any, path string, value any) error {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}

		next, ok := current[part].(map[string]any)
		if !ok {
			return fmt.Errorf("configuration conflict: key %q is not a map", strings.Join(parts[:i+1], "."))
		}
		current = next
	}
	if len(parts) > 0 {
		current[parts[len(parts)-1]] = value
	}
	return nil
}

// yamlProvider implements Source for YAML files.
type yamlProvider struct {
	path       string
	watcher    *Watcher
	watcherMu  sync.Mutex
	isWatching bool
	watchOnce  sync.Once
	closeOnce  sync.Once
}

// NewYAMLProvider creates a new YAML file configuration source.
func NewYAMLProvider(path string) Source {
	return &yamlProvider{
		path: path,
	}
}

// Load reads configuration from a YAML file. A missing file yields an
// empty map so optional config files don't fail startup.
func (y *yamlProvider) Load() (map[string]any, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("failed to read YAML file: %w", err)
	}
	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	return filterNilValues(config), nil
}

// filterNilValues recursively removes nil values from a map so koanf never
// overrides existing values with nil.
func filterNilValues(m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		if v == nil {
			continue
		}
		if nestedMap, ok := v.(map[string]any); ok {
			filtered := filterNilValues(nestedMap)
			if len(filtered) > 0 {
				result[k] = filtered
			}
		} else {
			result[k] = v
		}
	}
	return result
}

// Watch monitors the YAML file for changes.
func (y *yamlProvider) Watch(ctx context.Context, callback func()) error {
	var watchErr error
	y.watchOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()

		watcher, err := NewWatcher()
		if err != nil {
			watchErr = fmt.Errorf("failed to create watcher: %w", err)
			return
		}
		y.watcher = watcher

		if err := y.watcher.Watch(ctx, y.path); err != nil {
			watchErr = fmt.Errorf("failed to watch YAML file: %w", err)
			return
		}
		y.isWatching = true
	})
	if watchErr != nil {
		return watchErr
	}
	y.watcherMu.Lock()
	defer y.watcherMu.Unlock()
	if y.watcher != nil {
		y.watcher.OnChange(callback)
	}
	return nil
}

// Type returns the source type identifier.
func (y *yamlProvider) Type() SourceType {
	return SourceYAML
}

// Close releases any resources held by the source.
func (y *yamlProvider) Close() error {
	var closeErr error
	y.closeOnce.Do(func() {
		y.watcherMu.Lock()
		defer y.watcherMu.Unlock()

		if y.watcher != nil {
			if err := y.watcher.Close(); err != nil {
				closeErr = fmt.Errorf("failed to close watcher: %w", err)
				return
			}
			y.watcher = nil
			y.isWatching = false
		}

		y.watchOnce = sync.Once{}
	})
	return closeErr
}

// defaultProvider implements Source for default configuration values.
type defaultProvider struct {
	defaults map[string]any
}

// NewDefaultProvider creates a new default configuration source.
func NewDefaultProvider() Source {
	return &defaultProvider{
		defaults: createDefaultMap(),
	}
}

// Load returns the default configuration values.
func (d *defaultProvider) Load() (map[string]any, error) {
	return d.defaults, nil
}

// Watch is not implemented for defaults as they don't change at runtime.
func (d *defaultProvider) Watch(_ context.Context, _ func()) error {
	return nil
}

// Type returns the source type identifier.
func (d *defaultProvider) Type() SourceType {
	return SourceDefault
}

// Close releases any resources held by the source.
func (d *defaultProvider) Close() error {
	return nil
}

// createDefaultMap builds the nested default value map from the registry.
func createDefaultMap() map[string]any {
	registry := definition.CreateRegistry()
	defaults := make(map[string]any)
	for path, field := range registry.GetAllFields() {
		if err := setNested(defaults, path, field.Default); err != nil {
			continue
		}
	}
	return defaults
}
