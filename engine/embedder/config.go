package embedder

// Provider identifies an embedding backend implementation.
type Provider string

const (
	// ProviderOpenAI embeds through the OpenAI embeddings API.
	ProviderOpenAI Provider = "openai"
	// ProviderOllama embeds through a local or remote Ollama server.
	ProviderOllama Provider = "ollama"
)

// Config describes how to construct an embedding adapter.
type Config struct {
	// ID identifies the adapter in logs and error messages.
	ID string
	// Provider selects the backend implementation.
	Provider Provider
	// Model is the provider-side embedding model name.
	Model string
	// APIKey authenticates against the provider. Required for openai.
	APIKey string
	// BaseURL overrides the provider endpoint (openai-compatible gateways,
	// non-default ollama servers).
	BaseURL string
	// Dimension is the width of the vectors the model produces.
	Dimension int
	// BatchSize caps how many texts are embedded per provider call.
	BatchSize int
	// CacheSize, when greater than zero, enables an LRU cache with that
	// many entries.
	CacheSize int
	// StripNewLines collapses newlines before embedding.
	StripNewLines bool
}
