package definition

import (
	"reflect"
	"time"
)

// Standard type definitions for consistency
var (
	durationType = reflect.TypeOf(time.Duration(0))
	float64Type  = reflect.TypeOf(float64(0))
	int64Type    = reflect.TypeOf(int64(0))
)

// CreateRegistry creates and populates the configuration registry.
// This is the single source of truth for all configuration defaults.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerServerFields(registry)
	registerRuntimeFields(registry)
	registerOrchestratorFields(registry)
	registerSimilarityFields(registry)
	registerGraphFields(registry)
	registerEmbedderFields(registry)
	registerLLMFields(registry)
	registerFallbackFields(registry)
	registerWikipediaFields(registry)
	registerCacheFields(registry)
	registerIngestFields(registry)
	registerMonitoringFields(registry)
	registerCLIFields(registry)
	return registry
}

func registerServerFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "server.host",
		Default: "0.0.0.0",
		CLIFlag: "host",
		EnvVar:  "VERDICT_SERVER_HOST",
		Type:    reflect.TypeOf(""),
		Help:    "Host address to bind the HTTP server to",
	})
	registry.Register(&FieldDef{
		Path:    "server.port",
		Default: 8080,
		CLIFlag: "port",
		EnvVar:  "VERDICT_SERVER_PORT",
		Type:    reflect.TypeOf(0),
		Help:    "Port for the HTTP server",
	})
	registry.Register(&FieldDef{
		Path:    "server.cors_enabled",
		Default: true,
		CLIFlag: "cors",
		EnvVar:  "VERDICT_SERVER_CORS_ENABLED",
		Type:    reflect.TypeOf(false),
		Help:    "Enable permissive CORS headers on API responses",
	})
	registry.Register(&FieldDef{
		Path:    "server.timeout",
		Default: 30 * time.Second,
		CLIFlag: "server-timeout",
		EnvVar:  "VERDICT_SERVER_TIMEOUT",
		Type:    durationType,
		Help:    "Read/write timeout for HTTP requests",
	})
	registry.Register(&FieldDef{
		Path:    "server.shutdown_timeout",
		Default: 10 * time.Second,
		EnvVar:  "VERDICT_SERVER_SHUTDOWN_TIMEOUT",
		Type:    durationType,
		Help:    "Grace period for draining in-flight requests on shutdown",
	})
}

func registerRuntimeFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "runtime.environment",
		Default: "development",
		CLIFlag: "environment",
		EnvVar:  "VERDICT_RUNTIME_ENVIRONMENT",
		Type:    reflect.TypeOf(""),
		Help:    "Runtime environment (development, staging, production)",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  "VERDICT_RUNTIME_LOG_LEVEL",
		Type:    reflect.TypeOf(""),
		Help:    "Log level (debug, info, warn, error, disabled)",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_json",
		Default: false,
		CLIFlag: "log-json",
		EnvVar:  "VERDICT_RUNTIME_LOG_JSON",
		Type:    reflect.TypeOf(false),
		Help:    "Emit logs as JSON instead of styled text",
	})
	registry.Register(&FieldDef{
		Path:    "runtime.log_source",
		Default: false,
		CLIFlag: "log-source",
		EnvVar:  "VERDICT_RUNTIME_LOG_SOURCE",
		Type:    reflect.TypeOf(false),
		Help:    "Include source file and line in log output",
	})
}

func registerOrchestratorFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "orchestrator.confidence_threshold",
		Default: 0.5,
		CLIFlag: "confidence-threshold",
		EnvVar:  "VERDICT_ORCHESTRATOR_CONFIDENCE_THRESHOLD",
		Type:    float64Type,
		Help:    "Minimum confidence a backend answer needs to be returned directly",
	})
	registry.Register(&FieldDef{
		Path:    "orchestrator.backend_timeout",
		Default: 10 * time.Second,
		CLIFlag: "backend-timeout",
		EnvVar:  "VERDICT_ORCHESTRATOR_BACKEND_TIMEOUT",
		Type:    durationType,
		Help:    "Per-backend deadline during fan-out",
	})
	registry.Register(&FieldDef{
		Path:    "orchestrator.routes_path",
		Default: "",
		CLIFlag: "routes",
		EnvVar:  "VERDICT_ORCHESTRATOR_ROUTES_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "YAML file with exact-match question routes (empty uses built-ins)",
	})
}

func registerSimilarityFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "similarity.provider",
		Default: "filesystem",
		CLIFlag: "similarity-provider",
		EnvVar:  "VERDICT_SIMILARITY_PROVIDER",
		Type:    reflect.TypeOf(""),
		Help:    "Vector store backend (filesystem, pgvector, redis)",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.path",
		Default: "./data/vectors.json",
		CLIFlag: "similarity-path",
		EnvVar:  "VERDICT_SIMILARITY_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "Snapshot file for the filesystem vector store",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.conn_string",
		Default: "",
		EnvVar:  "VERDICT_SIMILARITY_CONN_STRING",
		Type:    reflect.TypeOf(""),
		Help:    "Postgres connection string for the pgvector store",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.redis_url",
		Default: "",
		EnvVar:  "VERDICT_SIMILARITY_REDIS_URL",
		Type:    reflect.TypeOf(""),
		Help:    "Redis URL for the redis vector store",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.index_name",
		Default: "verdict:chunks",
		EnvVar:  "VERDICT_SIMILARITY_INDEX_NAME",
		Type:    reflect.TypeOf(""),
		Help:    "Key prefix or table name for stored chunks",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.dimension",
		Default: 1536,
		EnvVar:  "VERDICT_SIMILARITY_DIMENSION",
		Type:    reflect.TypeOf(0),
		Help:    "Embedding dimension the vector store is provisioned for",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.top_k",
		Default: 3,
		CLIFlag: "top-k",
		EnvVar:  "VERDICT_SIMILARITY_TOP_K",
		Type:    reflect.TypeOf(0),
		Help:    "Number of nearest chunks retrieved per question",
	})
	registry.Register(&FieldDef{
		Path:    "similarity.synthesis",
		Default: false,
		CLIFlag: "synthesis",
		EnvVar:  "VERDICT_SIMILARITY_SYNTHESIS",
		Type:    reflect.TypeOf(false),
		Help:    "Synthesize a prose answer from retrieved chunks via the LLM",
	})
}

func registerGraphFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "graph.path",
		Default: "./data/graph.json",
		CLIFlag: "graph-path",
		EnvVar:  "VERDICT_GRAPH_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "Snapshot file for the knowledge graph",
	})
	registry.Register(&FieldDef{
		Path:    "graph.seed_path",
		Default: "",
		CLIFlag: "seed",
		EnvVar:  "VERDICT_GRAPH_SEED_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "YAML file with triplets to seed the knowledge graph from",
	})
}

func registerEmbedderFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "embedder.provider",
		Default: "openai",
		EnvVar:  "VERDICT_EMBEDDER_PROVIDER",
		Type:    reflect.TypeOf(""),
		Help:    "Embedding provider (openai, ollama)",
	})
	registry.Register(&FieldDef{
		Path:    "embedder.model",
		Default: "text-embedding-3-small",
		EnvVar:  "VERDICT_EMBEDDER_MODEL",
		Type:    reflect.TypeOf(""),
		Help:    "Embedding model name",
	})
	registry.Register(&FieldDef{
		Path:    "embedder.base_url",
		Default: "",
		EnvVar:  "VERDICT_EMBEDDER_BASE_URL",
		Type:    reflect.TypeOf(""),
		Help:    "Override base URL for the embedding API",
	})
	registry.Register(&FieldDef{
		Path:    "embedder.api_key",
		Default: "",
		EnvVar:  "VERDICT_EMBEDDER_API_KEY",
		Type:    reflect.TypeOf(""),
		Help:    "API key for the embedding provider (falls back to the LLM key)",
	})
	registry.Register(&FieldDef{
		Path:    "embedder.cache_size",
		Default: 512,
		EnvVar:  "VERDICT_EMBEDDER_CACHE_SIZE",
		Type:    reflect.TypeOf(0),
		Help:    "Number of embeddings kept in the in-process LRU cache",
	})
	registry.Register(&FieldDef{
		Path:    "embedder.batch_size",
		Default: 64,
		EnvVar:  "VERDICT_EMBEDDER_BATCH_SIZE",
		Type:    reflect.TypeOf(0),
		Help:    "Maximum texts sent per embedding request",
	})
}

func registerLLMFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "llm.provider",
		Default: "openai",
		EnvVar:  "VERDICT_LLM_PROVIDER",
		Type:    reflect.TypeOf(""),
		Help:    "Generative provider (openai, anthropic, ollama)",
	})
	registry.Register(&FieldDef{
		Path:    "llm.model",
		Default: "gpt-4o-mini",
		CLIFlag: "model",
		EnvVar:  "VERDICT_LLM_MODEL",
		Type:    reflect.TypeOf(""),
		Help:    "Model used for reframing, answering and synthesis",
	})
	registry.Register(&FieldDef{
		Path:    "llm.base_url",
		Default: "",
		EnvVar:  "VERDICT_LLM_BASE_URL",
		Type:    reflect.TypeOf(""),
		Help:    "Override base URL for the LLM API",
	})
	registry.Register(&FieldDef{
		Path:    "llm.api_key",
		Default: "",
		EnvVar:  "OPENAI_API_KEY",
		Type:    reflect.TypeOf(""),
		Help:    "API key for the LLM provider",
	})
	registry.Register(&FieldDef{
		Path:    "llm.temperature",
		Default: 0.0,
		EnvVar:  "VERDICT_LLM_TEMPERATURE",
		Type:    float64Type,
		Help:    "Sampling temperature for generative calls",
	})
	registry.Register(&FieldDef{
		Path:    "llm.max_tokens",
		Default: 512,
		EnvVar:  "VERDICT_LLM_MAX_TOKENS",
		Type:    reflect.TypeOf(0),
		Help:    "Maximum tokens per generative completion",
	})
	registry.Register(&FieldDef{
		Path:    "llm.max_retries",
		Default: 3,
		EnvVar:  "VERDICT_LLM_MAX_RETRIES",
		Type:    reflect.TypeOf(0),
		Help:    "Retry attempts for transient LLM failures",
	})
	registry.Register(&FieldDef{
		Path:    "llm.retry_base_delay",
		Default: 500 * time.Millisecond,
		EnvVar:  "VERDICT_LLM_RETRY_BASE_DELAY",
		Type:    durationType,
		Help:    "Initial backoff delay between LLM retries",
	})
	registry.Register(&FieldDef{
		Path:    "llm.timeout",
		Default: 30 * time.Second,
		EnvVar:  "VERDICT_LLM_TIMEOUT",
		Type:    durationType,
		Help:    "Per-call deadline for generative requests",
	})
}

func registerFallbackFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "fallback.default_message",
		Default: "I'm sorry, I couldn't find a definitive answer to your question at this time.",
		EnvVar:  "VERDICT_FALLBACK_DEFAULT_MESSAGE",
		Type:    reflect.TypeOf(""),
		Help:    "Message added to the canned apology pool",
	})
	registry.Register(&FieldDef{
		Path:    "fallback.seed",
		Default: int64(0),
		EnvVar:  "VERDICT_FALLBACK_SEED",
		Type:    int64Type,
		Help:    "Seed for canned answer selection (0 uses a random seed)",
	})
}

func registerWikipediaFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "wikipedia.enabled",
		Default: false,
		CLIFlag: "wikipedia",
		EnvVar:  "VERDICT_WIKIPEDIA_ENABLED",
		Type:    reflect.TypeOf(false),
		Help:    "Register the Wikipedia search backend",
	})
	registry.Register(&FieldDef{
		Path:    "wikipedia.base_url",
		Default: "https://en.wikipedia.org/w/api.php",
		EnvVar:  "VERDICT_WIKIPEDIA_BASE_URL",
		Type:    reflect.TypeOf(""),
		Help:    "MediaWiki API endpoint",
	})
	registry.Register(&FieldDef{
		Path:    "wikipedia.timeout",
		Default: 10 * time.Second,
		EnvVar:  "VERDICT_WIKIPEDIA_TIMEOUT",
		Type:    durationType,
		Help:    "HTTP timeout for Wikipedia requests",
	})
	registry.Register(&FieldDef{
		Path:    "wikipedia.confidence",
		Default: 0.4,
		EnvVar:  "VERDICT_WIKIPEDIA_CONFIDENCE",
		Type:    float64Type,
		Help:    "Confidence assigned to answers found on Wikipedia",
	})
	registry.Register(&FieldDef{
		Path:    "wikipedia.max_results",
		Default: 3,
		EnvVar:  "VERDICT_WIKIPEDIA_MAX_RESULTS",
		Type:    reflect.TypeOf(0),
		Help:    "Maximum search results considered per question",
	})
	registry.Register(&FieldDef{
		Path:    "wikipedia.cache_ttl",
		Default: 15 * time.Minute,
		EnvVar:  "VERDICT_WIKIPEDIA_CACHE_TTL",
		Type:    durationType,
		Help:    "How long Wikipedia summaries stay cached",
	})
}

func registerCacheFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "cache.backend",
		Default: "memory",
		EnvVar:  "VERDICT_CACHE_BACKEND",
		Type:    reflect.TypeOf(""),
		Help:    "Cache backend (memory, redis)",
	})
	registry.Register(&FieldDef{
		Path:    "cache.redis_url",
		Default: "",
		EnvVar:  "VERDICT_CACHE_REDIS_URL",
		Type:    reflect.TypeOf(""),
		Help:    "Redis URL for the redis cache backend",
	})
	registry.Register(&FieldDef{
		Path:    "cache.prefix",
		Default: "verdict:",
		EnvVar:  "VERDICT_CACHE_PREFIX",
		Type:    reflect.TypeOf(""),
		Help:    "Key prefix for cache entries",
	})
	registry.Register(&FieldDef{
		Path:    "cache.ttl",
		Default: 15 * time.Minute,
		EnvVar:  "VERDICT_CACHE_TTL",
		Type:    durationType,
		Help:    "Default TTL for cache entries",
	})
	registry.Register(&FieldDef{
		Path:    "cache.max_cost",
		Default: int64(64 << 20),
		EnvVar:  "VERDICT_CACHE_MAX_COST",
		Type:    int64Type,
		Help:    "Memory budget in bytes for the in-process cache",
	})
	registry.Register(&FieldDef{
		Path:    "cache.num_counters",
		Default: int64(100_000),
		EnvVar:  "VERDICT_CACHE_NUM_COUNTERS",
		Type:    int64Type,
		Help:    "Number of admission counters for the in-process cache",
	})
}

func registerIngestFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "ingest.chunk_size",
		Default: 1000,
		CLIFlag: "chunk-size",
		EnvVar:  "VERDICT_INGEST_CHUNK_SIZE",
		Type:    reflect.TypeOf(0),
		Help:    "Target chunk size in characters for ingested documents",
	})
	registry.Register(&FieldDef{
		Path:    "ingest.chunk_overlap",
		Default: 200,
		CLIFlag: "chunk-overlap",
		EnvVar:  "VERDICT_INGEST_CHUNK_OVERLAP",
		Type:    reflect.TypeOf(0),
		Help:    "Character overlap between consecutive chunks",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: true,
		EnvVar:  "VERDICT_MONITORING_ENABLED",
		Type:    reflect.TypeOf(false),
		Help:    "Expose Prometheus metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		EnvVar:  "VERDICT_MONITORING_PATH",
		Type:    reflect.TypeOf(""),
		Help:    "HTTP path the metrics endpoint is served on",
	})
}

func registerCLIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "cli.base_url",
		Default: "http://localhost:8080",
		CLIFlag: "base-url",
		EnvVar:  "VERDICT_CLI_BASE_URL",
		Type:    reflect.TypeOf(""),
		Help:    "Server URL CLI commands talk to",
	})
	registry.Register(&FieldDef{
		Path:    "cli.timeout",
		Default: 30 * time.Second,
		CLIFlag: "cli-timeout",
		EnvVar:  "VERDICT_CLI_TIMEOUT",
		Type:    durationType,
		Help:    "Request timeout for CLI commands",
	})
	registry.Register(&FieldDef{
		Path:    "cli.env_file",
		Default: "",
		CLIFlag: "env-file",
		EnvVar:  "VERDICT_CLI_ENV_FILE",
		Type:    reflect.TypeOf(""),
		Help:    "Env file loaded before reading configuration",
	})
	registry.Register(&FieldDef{
		Path:    "cli.quiet",
		Default: false,
		CLIFlag: "quiet",
		EnvVar:  "VERDICT_CLI_QUIET",
		Type:    reflect.TypeOf(false),
		Help:    "Suppress non-essential CLI output",
	})
	registry.Register(&FieldDef{
		Path:    "cli.json_output",
		Default: false,
		CLIFlag: "json",
		EnvVar:  "VERDICT_CLI_JSON_OUTPUT",
		Type:    reflect.TypeOf(false),
		Help:    "Print CLI results as JSON",
	})
}
