package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// loader implements the Service interface for configuration management.
type loader struct {
	koanf          *koanf.Koanf
	validator      *validator.Validate
	metadata       Metadata
	metadataMu     sync.RWMutex
	currentConfig  atomic.Value // stores *Config
	watchCallbacks []func(*Config)
	callbackMu     sync.RWMutex
}

// sensitiveStringDecodeHook is a mapstructure decode hook that converts strings to SensitiveString
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}

	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

// NewService creates a new configuration service with validation support.
func NewService() Service {
	return &loader{
		koanf:     koanf.New("."),
		validator: validator.New(),
		metadata: Metadata{
			Sources: make(map[string]SourceType),
		},
		watchCallbacks: make([]func(*Config), 0),
	}
}

// Load loads configuration from the specified sources with precedence order.
// Sources are applied in order, so the last source has highest precedence;
// environment variables override everything.
func (l *loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.reset()

	if err := l.loadDefaults(); err != nil {
		return nil, err
	}

	if err := l.loadSources(sources); err != nil {
		return nil, err
	}

	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}

	config, err := l.unmarshalAndValidate()
	if err != nil {
		return nil, err
	}

	l.currentConfig.Store(config)

	return config, nil
}

// reset clears the configuration and metadata.
func (l *loader) reset() {
	l.koanf.Cut("")

	l.metadataMu.Lock()
	l.metadata.Sources = make(map[string]SourceType)
	l.metadata.LoadedAt = time.Now()
	l.metadataMu.Unlock()
}

// loadDefaults loads the default configuration.
func (l *loader) loadDefaults() error {
	defaultConfig := Default()

	// The structs provider converts the default config into a key map,
	// so defaults never need to be duplicated as literal key-value pairs.
	if err := l.koanf.Load(structs.Provider(defaultConfig, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, key := range l.koanf.Keys() {
		l.trackSource(key, SourceDefault)
	}

	return nil
}

// transformEnvKey converts environment variable names to koanf paths.
// For example: VERDICT_GRAPH_SEED_PATH -> graph.seed_path
func transformEnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "VERDICT_"))

	// Split by underscore and filter out empty parts so edge cases like
	// "FOO__BAR", "_FOO" and "FOO_" stay well-formed.
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_'
	})

	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}

	// First part is the top-level section; the remaining parts keep their
	// underscores to preserve field names:
	// ["graph", "seed", "path"] -> "graph.seed_path"
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// loadEnvironment loads configuration from environment variables.
func (l *loader) loadEnvironment() error {
	keysBefore := make(map[string]any)
	for _, key := range l.koanf.Keys() {
		keysBefore[key] = l.koanf.Get(key)
	}

	// Explicit mappings generated from struct tags take precedence over
	// the generic transform.
	envMappings := GenerateEnvMappings()
	envToPath := make(map[string]string)
	for _, mapping := range envMappings {
		envToPath[mapping.EnvVar] = mapping.ConfigPath
	}

	if err := l.koanf.Load(env.Provider(".", env.Opt{
		Prefix: "",
		TransformFunc: func(key string, value string) (string, any) {
			if configPath, exists := envToPath[key]; exists {
				return configPath, value
			}
			if strings.HasPrefix(key, "VERDICT_") {
				return transformEnvKey(key), value
			}
			// Unrelated environment variables are dropped.
			return "", nil
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	for _, key := range l.koanf.Keys() {
		valBefore, existed := keysBefore[key]
		valAfter := l.koanf.Get(key)
		if !existed || valBefore != valAfter {
			l.trackSource(key, SourceEnv)
		}
	}

	return nil
}

// loadSources loads configuration from additional sources.
func (l *loader) loadSources(sources []Source) error {
	for _, source := range sources {
		if source == nil || source.Type() == SourceEnv {
			continue
		}

		if err := l.loadSource(source); err != nil {
			return err
		}
	}
	return nil
}

// loadSource loads configuration from a single source.
func (l *loader) loadSource(source Source) error {
	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load from source %s: %w", source.Type(), err)
	}

	if len(data) == 0 {
		return nil
	}

	keysBefore := make(map[string]any)
	for _, key := range l.koanf.Keys() {
		keysBefore[key] = l.koanf.Get(key)
	}

	// YAML sources merge key by key so values the file omits keep their
	// current settings.
	if source.Type() == SourceYAML {
		flattened := flattenMap("", data)
		for key, value := range flattened {
			if err := l.koanf.Set(key, value); err != nil {
				return fmt.Errorf("failed to set key %s from source %s: %w", key, source.Type(), err)
			}
		}
	} else {
		if err := l.koanf.Load(rawMap(data), nil); err != nil {
			return fmt.Errorf("failed to apply source %s: %w", source.Type(), err)
		}
	}

	for _, key := range l.koanf.Keys() {
		valBefore, existed := keysBefore[key]
		valAfter := l.koanf.Get(key)
		if !existed || valBefore != valAfter {
			l.trackSource(key, source.Type())
		}
	}

	return nil
}

// flattenMap flattens a nested map into dot-notation keys
func flattenMap(prefix string, m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if nestedMap, ok := v.(map[string]any); ok {
			for fk, fv := range flattenMap(key, nestedMap) {
				result[fk] = fv
			}
		} else {
			result[key] = v
		}
	}
	return result
}

// unmarshalAndValidate unmarshals the configuration and validates it.
func (l *loader) unmarshalAndValidate() (*Config, error) {
	var config Config

	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				sensitiveStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Watch registers a callback invoked on configuration updates. The actual
// file watching is handled by the Manager and Source providers.
func (l *loader) Watch(_ context.Context, callback func(*Config)) error {
	if callback == nil {
		return fmt.Errorf("callback cannot be nil")
	}

	l.callbackMu.Lock()
	l.watchCallbacks = append(l.watchCallbacks, callback)
	l.callbackMu.Unlock()

	return nil
}

// Validate checks if the configuration meets all validation requirements.
func (l *loader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := l.validator.Struct(config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := l.validateCustom(config); err != nil {
		return fmt.Errorf("custom validation failed: %w", err)
	}

	return nil
}

// GetSource returns the source type for a specific configuration key.
func (l *loader) GetSource(key string) SourceType {
	l.metadataMu.RLock()
	defer l.metadataMu.RUnlock()

	if source, ok := l.metadata.Sources[key]; ok {
		return source
	}
	return SourceDefault
}

// trackSource records which source provided a specific configuration key.
func (l *loader) trackSource(key string, source SourceType) {
	l.metadataMu.Lock()
	defer l.metadataMu.Unlock()
	l.metadata.Sources[key] = source
}

// validateCustom performs cross-field validation beyond struct tags.
func (l *loader) validateCustom(config *Config) error {
	if config.Similarity.Provider == "pgvector" && config.Similarity.ConnString.IsEmpty() {
		return fmt.Errorf("similarity provider pgvector requires conn_string")
	}
	if config.Similarity.Provider == "redis" && config.Similarity.RedisURL.IsEmpty() {
		return fmt.Errorf("similarity provider redis requires redis_url")
	}
	if config.Cache.Backend == "redis" && config.Cache.RedisURL.IsEmpty() {
		return fmt.Errorf("cache backend redis requires redis_url")
	}
	if config.Ingest.ChunkOverlap >= config.Ingest.ChunkSize {
		return fmt.Errorf("ingest chunk overlap must be smaller than chunk size")
	}
	if config.Orchestrator.BackendTimeout <= 0 {
		return fmt.Errorf("orchestrator backend_timeout must be positive")
	}
	if config.Monitoring.Enabled && !strings.HasPrefix(config.Monitoring.Path, "/") {
		return fmt.Errorf("monitoring path must start with /")
	}
	return nil
}

// rawMap is a koanf.Provider adapter for map[string]any data.
// It's used to adapt custom source providers to koanf's loading mechanism.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
