package config

import (
	"context"
	"time"

	"github.com/verdicthq/verdict/pkg/config/definition"
)

// Config is the complete configuration for the verdict service.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server       ServerConfig       `koanf:"server"       validate:"required"`
	Runtime      RuntimeConfig      `koanf:"runtime"      validate:"required"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator" validate:"required"`
	Similarity   SimilarityConfig   `koanf:"similarity"   validate:"required"`
	Graph        GraphConfig        `koanf:"graph"        validate:"required"`
	Embedder     EmbedderConfig     `koanf:"embedder"`
	LLM          LLMConfig          `koanf:"llm"`
	Fallback     FallbackConfig     `koanf:"fallback"`
	Wikipedia    WikipediaConfig    `koanf:"wikipedia"`
	Cache        CacheConfig        `koanf:"cache"`
	Ingest       IngestConfig       `koanf:"ingest"`
	Monitoring   MonitoringConfig   `koanf:"monitoring"`
	CLI          CLIConfig          `koanf:"cli"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"VERDICT_SERVER_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"VERDICT_SERVER_PORT"`
	CORSEnabled     bool          `koanf:"cors_enabled"                                env:"VERDICT_SERVER_CORS_ENABLED"`
	Timeout         time.Duration `koanf:"timeout"                                     env:"VERDICT_SERVER_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"VERDICT_SERVER_SHUTDOWN_TIMEOUT"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production"   env:"VERDICT_RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled"   env:"VERDICT_RUNTIME_LOG_LEVEL"`
	LogJSON     bool   `koanf:"log_json"                                                      env:"VERDICT_RUNTIME_LOG_JSON"`
	LogSource   bool   `koanf:"log_source"                                                    env:"VERDICT_RUNTIME_LOG_SOURCE"`
}

// OrchestratorConfig controls answer selection and backend fan-out.
type OrchestratorConfig struct {
	ConfidenceThreshold float64       `koanf:"confidence_threshold" validate:"gte=0,lte=1" env:"VERDICT_ORCHESTRATOR_CONFIDENCE_THRESHOLD"`
	BackendTimeout      time.Duration `koanf:"backend_timeout"                             env:"VERDICT_ORCHESTRATOR_BACKEND_TIMEOUT"`
	RoutesPath          string        `koanf:"routes_path"                                 env:"VERDICT_ORCHESTRATOR_ROUTES_PATH"`
}

// SimilarityConfig configures the vector store backend.
type SimilarityConfig struct {
	Provider   string          `koanf:"provider"    validate:"oneof=filesystem pgvector redis" env:"VERDICT_SIMILARITY_PROVIDER"`
	Path       string          `koanf:"path"                                                   env:"VERDICT_SIMILARITY_PATH"`
	ConnString SensitiveString `koanf:"conn_string"                                            env:"VERDICT_SIMILARITY_CONN_STRING" sensitive:"true"`
	RedisURL   SensitiveString `koanf:"redis_url"                                              env:"VERDICT_SIMILARITY_REDIS_URL"   sensitive:"true"`
	IndexName  string          `koanf:"index_name"                                             env:"VERDICT_SIMILARITY_INDEX_NAME"`
	Dimension  int             `koanf:"dimension"   validate:"min=1"                           env:"VERDICT_SIMILARITY_DIMENSION"`
	TopK       int             `koanf:"top_k"       validate:"min=1"                           env:"VERDICT_SIMILARITY_TOP_K"`
	Synthesis  bool            `koanf:"synthesis"                                              env:"VERDICT_SIMILARITY_SYNTHESIS"`
}

// GraphConfig configures the knowledge graph store.
type GraphConfig struct {
	Path     string `koanf:"path"      validate:"required" env:"VERDICT_GRAPH_PATH"`
	SeedPath string `koanf:"seed_path"                     env:"VERDICT_GRAPH_SEED_PATH"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	Provider  string          `koanf:"provider"   validate:"oneof=openai ollama" env:"VERDICT_EMBEDDER_PROVIDER"`
	Model     string          `koanf:"model"                                     env:"VERDICT_EMBEDDER_MODEL"`
	BaseURL   string          `koanf:"base_url"                                  env:"VERDICT_EMBEDDER_BASE_URL"`
	APIKey    SensitiveString `koanf:"api_key"                                   env:"VERDICT_EMBEDDER_API_KEY"   sensitive:"true"`
	CacheSize int             `koanf:"cache_size" validate:"min=1"               env:"VERDICT_EMBEDDER_CACHE_SIZE"`
	BatchSize int             `koanf:"batch_size" validate:"min=1"               env:"VERDICT_EMBEDDER_BATCH_SIZE"`
}

// LLMConfig configures the generative provider used for reframing,
// answering and synthesis.
type LLMConfig struct {
	Provider       string          `koanf:"provider"         validate:"oneof=openai anthropic ollama" env:"VERDICT_LLM_PROVIDER"`
	Model          string          `koanf:"model"                                                     env:"VERDICT_LLM_MODEL"`
	BaseURL        string          `koanf:"base_url"                                                  env:"VERDICT_LLM_BASE_URL"`
	APIKey         SensitiveString `koanf:"api_key"                                                   env:"OPENAI_API_KEY"       sensitive:"true"`
	Temperature    float64         `koanf:"temperature"      validate:"gte=0,lte=2"                   env:"VERDICT_LLM_TEMPERATURE"`
	MaxTokens      int             `koanf:"max_tokens"       validate:"min=1"                         env:"VERDICT_LLM_MAX_TOKENS"`
	MaxRetries     int             `koanf:"max_retries"      validate:"min=0"                         env:"VERDICT_LLM_MAX_RETRIES"`
	RetryBaseDelay time.Duration   `koanf:"retry_base_delay"                                          env:"VERDICT_LLM_RETRY_BASE_DELAY"`
	Timeout        time.Duration   `koanf:"timeout"                                                   env:"VERDICT_LLM_TIMEOUT"`
}

// FallbackConfig configures the escalation path for low-confidence answers.
type FallbackConfig struct {
	DefaultMessage string `koanf:"default_message" env:"VERDICT_FALLBACK_DEFAULT_MESSAGE"`
	Seed           int64  `koanf:"seed"            env:"VERDICT_FALLBACK_SEED"`
}

// WikipediaConfig configures the optional Wikipedia search backend.
type WikipediaConfig struct {
	Enabled    bool          `koanf:"enabled"     env:"VERDICT_WIKIPEDIA_ENABLED"`
	BaseURL    string        `koanf:"base_url"    env:"VERDICT_WIKIPEDIA_BASE_URL"`
	Timeout    time.Duration `koanf:"timeout"     env:"VERDICT_WIKIPEDIA_TIMEOUT"`
	Confidence float64       `koanf:"confidence"  env:"VERDICT_WIKIPEDIA_CONFIDENCE" validate:"gte=0,lte=1"`
	MaxResults int           `koanf:"max_results" env:"VERDICT_WIKIPEDIA_MAX_RESULTS" validate:"min=1"`
	CacheTTL   time.Duration `koanf:"cache_ttl"   env:"VERDICT_WIKIPEDIA_CACHE_TTL"`
}

// CacheConfig configures the shared cache used by external lookups.
type CacheConfig struct {
	Backend     string          `koanf:"backend"      validate:"oneof=memory redis" env:"VERDICT_CACHE_BACKEND"`
	RedisURL    SensitiveString `koanf:"redis_url"                                  env:"VERDICT_CACHE_REDIS_URL" sensitive:"true"`
	Prefix      string          `koanf:"prefix"                                     env:"VERDICT_CACHE_PREFIX"`
	TTL         time.Duration   `koanf:"ttl"                                        env:"VERDICT_CACHE_TTL"`
	MaxCost     int64           `koanf:"max_cost"     validate:"min=1"              env:"VERDICT_CACHE_MAX_COST"`
	NumCounters int64           `koanf:"num_counters" validate:"min=1"              env:"VERDICT_CACHE_NUM_COUNTERS"`
}

// IngestConfig configures document ingestion into the vector store.
type IngestConfig struct {
	ChunkSize    int `koanf:"chunk_size"    validate:"min=1" env:"VERDICT_INGEST_CHUNK_SIZE"`
	ChunkOverlap int `koanf:"chunk_overlap" validate:"min=0" env:"VERDICT_INGEST_CHUNK_OVERLAP"`
}

// MonitoringConfig configures the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"VERDICT_MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"VERDICT_MONITORING_PATH"`
}

// CLIConfig contains CLI-specific configuration.
type CLIConfig struct {
	BaseURL    string        `koanf:"base_url"    env:"VERDICT_CLI_BASE_URL"`
	Timeout    time.Duration `koanf:"timeout"     env:"VERDICT_CLI_TIMEOUT"`
	EnvFile    string        `koanf:"env_file"    env:"VERDICT_CLI_ENV_FILE"`
	Quiet      bool          `koanf:"quiet"       env:"VERDICT_CLI_QUIET"`
	JSONOutput bool          `koanf:"json_output" env:"VERDICT_CLI_JSON_OUTPUT"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Watch monitors configuration changes and invokes callback on updates.
	Watch(ctx context.Context, callback func(*Config)) error
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type for a specific configuration key.
	// This tracks which source (env, CLI, YAML, default) provided each value,
	// enabling debugging and precedence verification.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Watch monitors the source for changes.
	Watch(ctx context.Context, callback func()) error
	// Type returns the source type identifier.
	Type() SourceType
	// Close releases any resources held by the source.
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration using the default service.
// This is a convenience function for simple configuration loading.
func Load() (*Config, error) {
	service := NewService()
	return service.Load(context.Background())
}

// Default returns a Config populated with registry defaults.
func Default() *Config {
	return defaultFromRegistry()
}

// defaultFromRegistry creates a Config using the centralized registry.
func defaultFromRegistry() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		Server:       buildServerConfig(registry),
		Runtime:      buildRuntimeConfig(registry),
		Orchestrator: buildOrchestratorConfig(registry),
		Similarity:   buildSimilarityConfig(registry),
		Graph:        buildGraphConfig(registry),
		Embedder:     buildEmbedderConfig(registry),
		LLM:          buildLLMConfig(registry),
		Fallback:     buildFallbackConfig(registry),
		Wikipedia:    buildWikipediaConfig(registry),
		Cache:        buildCacheConfig(registry),
		Ingest:       buildIngestConfig(registry),
		Monitoring:   buildMonitoringConfig(registry),
		CLI:          buildCLIConfig(registry),
	}
}

// Helper functions for type-safe registry access
func getString(registry *definition.Registry, path string) string {
	if val := registry.GetDefault(path); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if val := registry.GetDefault(path); val != nil {
		if i, ok := val.(int); ok {
			return i
		}
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	if val := registry.GetDefault(path); val != nil {
		if i, ok := val.(int64); ok {
			return i
		}
	}
	return 0
}

func getFloat64(registry *definition.Registry, path string) float64 {
	if val := registry.GetDefault(path); val != nil {
		if f, ok := val.(float64); ok {
			return f
		}
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if val := registry.GetDefault(path); val != nil {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if val := registry.GetDefault(path); val != nil {
		if d, ok := val.(time.Duration); ok {
			return d
		}
	}
	return 0
}

func buildServerConfig(registry *definition.Registry) ServerConfig {
	return ServerConfig{
		Host:            getString(registry, "server.host"),
		Port:            getInt(registry, "server.port"),
		CORSEnabled:     getBool(registry, "server.cors_enabled"),
		Timeout:         getDuration(registry, "server.timeout"),
		ShutdownTimeout: getDuration(registry, "server.shutdown_timeout"),
	}
}

func buildRuntimeConfig(registry *definition.Registry) RuntimeConfig {
	return RuntimeConfig{
		Environment: getString(registry, "runtime.environment"),
		LogLevel:    getString(registry, "runtime.log_level"),
		LogJSON:     getBool(registry, "runtime.log_json"),
		LogSource:   getBool(registry, "runtime.log_source"),
	}
}

func buildOrchestratorConfig(registry *definition.Registry) OrchestratorConfig {
	return OrchestratorConfig{
		ConfidenceThreshold: getFloat64(registry, "orchestrator.confidence_threshold"),
		BackendTimeout:      getDuration(registry, "orchestrator.backend_timeout"),
		RoutesPath:          getString(registry, "orchestrator.routes_path"),
	}
}

func buildSimilarityConfig(registry *definition.Registry) SimilarityConfig {
	return SimilarityConfig{
		Provider:   getString(registry, "similarity.provider"),
		Path:       getString(registry, "similarity.path"),
		ConnString: SensitiveString(getString(registry, "similarity.conn_string")),
		RedisURL:   SensitiveString(getString(registry, "similarity.redis_url")),
		IndexName:  getString(registry, "similarity.index_name"),
		Dimension:  getInt(registry, "similarity.dimension"),
		TopK:       getInt(registry, "similarity.top_k"),
		Synthesis:  getBool(registry, "similarity.synthesis"),
	}
}

func buildGraphConfig(registry *definition.Registry) GraphConfig {
	return GraphConfig{
		Path:     getString(registry, "graph.path"),
		SeedPath: getString(registry, "graph.seed_path"),
	}
}

func buildEmbedderConfig(registry *definition.Registry) EmbedderConfig {
	return EmbedderConfig{
		Provider:  getString(registry, "embedder.provider"),
		Model:     getString(registry, "embedder.model"),
		BaseURL:   getString(registry, "embedder.base_url"),
		APIKey:    SensitiveString(getString(registry, "embedder.api_key")),
		CacheSize: getInt(registry, "embedder.cache_size"),
		BatchSize: getInt(registry, "embedder.batch_size"),
	}
}

func buildLLMConfig(registry *definition.Registry) LLMConfig {
	return LLMConfig{
		Provider:       getString(registry, "llm.provider"),
		Model:          getString(registry, "llm.model"),
		BaseURL:        getString(registry, "llm.base_url"),
		APIKey:         SensitiveString(getString(registry, "llm.api_key")),
		Temperature:    getFloat64(registry, "llm.temperature"),
		MaxTokens:      getInt(registry, "llm.max_tokens"),
		MaxRetries:     getInt(registry, "llm.max_retries"),
		RetryBaseDelay: getDuration(registry, "llm.retry_base_delay"),
		Timeout:        getDuration(registry, "llm.timeout"),
	}
}

func buildFallbackConfig(registry *definition.Registry) FallbackConfig {
	return FallbackConfig{
		DefaultMessage: getString(registry, "fallback.default_message"),
		Seed:           getInt64(registry, "fallback.seed"),
	}
}

func buildWikipediaConfig(registry *definition.Registry) WikipediaConfig {
	return WikipediaConfig{
		Enabled:    getBool(registry, "wikipedia.enabled"),
		BaseURL:    getString(registry, "wikipedia.base_url"),
		Timeout:    getDuration(registry, "wikipedia.timeout"),
		Confidence: getFloat64(registry, "wikipedia.confidence"),
		MaxResults: getInt(registry, "wikipedia.max_results"),
		CacheTTL:   getDuration(registry, "wikipedia.cache_ttl"),
	}
}

func buildCacheConfig(registry *definition.Registry) CacheConfig {
	return CacheConfig{
		Backend:     getString(registry, "cache.backend"),
		RedisURL:    SensitiveString(getString(registry, "cache.redis_url")),
		Prefix:      getString(registry, "cache.prefix"),
		TTL:         getDuration(registry, "cache.ttl"),
		MaxCost:     getInt64(registry, "cache.max_cost"),
		NumCounters: getInt64(registry, "cache.num_counters"),
	}
}

func buildIngestConfig(registry *definition.Registry) IngestConfig {
	return IngestConfig{
		ChunkSize:    getInt(registry, "ingest.chunk_size"),
		ChunkOverlap: getInt(registry, "ingest.chunk_overlap"),
	}
}

func buildMonitoringConfig(registry *definition.Registry) MonitoringConfig {
	return MonitoringConfig{
		Enabled: getBool(registry, "monitoring.enabled"),
		Path:    getString(registry, "monitoring.path"),
	}
}

func buildCLIConfig(registry *definition.Registry) CLIConfig {
	return CLIConfig{
		BaseURL:    getString(registry, "cli.base_url"),
		Timeout:    getDuration(registry, "cli.timeout"),
		EnvFile:    getString(registry, "cli.env_file"),
		Quiet:      getBool(registry, "cli.quiet"),
		JSONOutput: getBool(registry, "cli.json_output"),
	}
}
