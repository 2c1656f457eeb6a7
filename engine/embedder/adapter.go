package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Adapter wraps a langchaingo embedder implementation and augments error reporting.
type Adapter struct {
	id        string
	provider  Provider
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

var (
	errMissingEmbedderID       = errors.New("embedder id is required")
	errMissingEmbedderProvider = errors.New("embedder provider is required")
	errMissingEmbedderModel    = errors.New("embedder model is required")
	errMissingEmbedderAPIKey   = errors.New("embedder api key is required")
	errInvalidEmbedderDim      = errors.New("embedder dimension must be greater than zero")
	errInvalidEmbedderBatch    = errors.New("embedder batch size must be greater than zero")
)

// New constructs a provider-backed embedder adapter.
func New(_ context.Context, cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	options := []embeddings.Option{
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	}
	impl, err := buildProviderEmbedder(cfg, options...)
	if err != nil {
		return nil, err
	}
	adapter := &Adapter{
		id:        cfg.ID,
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}
	if cfg.CacheSize > 0 {
		if err := adapter.EnableCache(cfg.CacheSize); err != nil {
			return nil, err
		}
	}
	return adapter, nil
}

// Wrap constructs an adapter around an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.ID)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Adapter{
		id:        cfg.ID,
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}, nil
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int {
	return a.dimension
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// EnableCache initializes an LRU cache for embeddings.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("embedder %q: cache size must be greater than zero", a.id)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder %q: init cache: %w", a.id, err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedDocuments delegates to the underlying implementation with contextual errors.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if cache := a.getCache(); cache != nil {
		return a.cachedEmbedDocuments(ctx, cache, texts)
	}
	start := time.Now()
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		recordEmbedError(ctx, string(a.provider), a.model, categorizeError(err))
		return nil, a.withContext(err)
	}
	recordGeneration(ctx, string(a.provider), a.model, len(texts), time.Since(start))
	return vectors, nil
}

// EmbedQuery delegates to the underlying implementation with contextual errors.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	cache := a.getCache()
	if cache != nil {
		if vector, ok := a.lookupCache(cache, text); ok {
			recordCacheHit(ctx, string(a.provider))
			return vector, nil
		}
		recordCacheMiss(ctx, string(a.provider))
	}
	start := time.Now()
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		recordEmbedError(ctx, string(a.provider), a.model, categorizeError(err))
		return nil, a.withContext(err)
	}
	recordGeneration(ctx, string(a.provider), a.model, 1, time.Since(start))
	if cache != nil {
		cloned := cloneVector(vector)
		a.storeCache(cache, text, vector)
		return cloned, nil
	}
	return vector, nil
}

func (a *Adapter) cachedEmbedDocuments(
	ctx context.Context,
	cache *lru.Cache[string, []float32],
	texts []string,
) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missingIdxMap := make(map[string][]int)
	for i := range texts {
		text := texts[i]
		if vector, ok := a.lookupCache(cache, text); ok {
			recordCacheHit(ctx, string(a.provider))
			results[i] = vector
			continue
		}
		recordCacheMiss(ctx, string(a.provider))
		missingIdxMap[text] = append(missingIdxMap[text], i)
	}
	if len(missingIdxMap) == 0 {
		return results, nil
	}
	uniqueMissing := make([]string, 0, len(missingIdxMap))
	for text := range missingIdxMap {
		uniqueMissing = append(uniqueMissing, text)
	}
	start := time.Now()
	embedded, err := a.impl.EmbedDocuments(ctx, uniqueMissing)
	if err != nil {
		recordEmbedError(ctx, string(a.provider), a.model, categorizeError(err))
		return nil, a.withContext(err)
	}
	if len(embedded) != len(uniqueMissing) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(uniqueMissing)))
	}
	recordGeneration(ctx, string(a.provider), a.model, len(uniqueMissing), time.Since(start))
	for i := range embedded {
		text := uniqueMissing[i]
		for _, idx := range missingIdxMap[text] {
			results[idx] = cloneVector(embedded[i])
		}
		a.storeCache(cache, text, embedded[i])
	}
	return results, nil
}

func (a *Adapter) getCache() *lru.Cache[string, []float32] {
	a.cacheMu.Lock()
	cache := a.cache
	a.cacheMu.Unlock()
	return cache
}

func (a *Adapter) lookupCache(cache *lru.Cache[string, []float32], text string) ([]float32, bool) {
	if cache == nil {
		return nil, false
	}
	key := cacheKey(text)
	a.cacheMu.Lock()
	current := a.cache
	if current == nil || current != cache {
		a.cacheMu.Unlock()
		return nil, false
	}
	value, ok := current.Get(key)
	a.cacheMu.Unlock()
	if !ok {
		return nil, false
	}
	return cloneVector(value), true
}

func (a *Adapter) storeCache(cache *lru.Cache[string, []float32], text string, vector []float32) {
	if cache == nil || len(vector) == 0 {
		return
	}
	key := cacheKey(text)
	a.cacheMu.Lock()
	if a.cache == cache && a.cache != nil {
		a.cache.Add(key, cloneVector(vector))
	}
	a.cacheMu.Unlock()
}

func (a *Adapter) withContext(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("embedder %q: %w", a.id, err)
}

// categorizeError inspects the error text to approximate a standard error bucket.
// NOTE: This relies on string matching; prefer typed errors if providers expose them.
func categorizeError(err error) errorType {
	if err == nil {
		return errorTypeServerError
	}
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeServerError
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "429"):
		return errorTypeRateLimit
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "forbidden"), strings.Contains(lower, "auth"):
		return errorTypeAuth
	case strings.Contains(lower, "invalid"),
		strings.Contains(lower, "bad request"),
		strings.Contains(lower, "422"),
		strings.Contains(lower, "400"):
		return errorTypeInvalidInput
	default:
		return errorTypeServerError
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingEmbedderID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingEmbedderProvider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingEmbedderModel)
	}
	if cfg.Provider == ProviderOpenAI && strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingEmbedderAPIKey)
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidEmbedderDim)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidEmbedderBatch)
	}
	return nil
}

func buildProviderEmbedder(cfg *Config, options ...embeddings.Option) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return buildOpenAIEmbedder(cfg, options...)
	case ProviderOllama:
		return buildOllamaEmbedder(cfg, options...)
	default:
		return nil, fmt.Errorf("embedder %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func buildOpenAIEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	openaiOpts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(openaiOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize openai client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct openai embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}

func buildOllamaEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	ollamaOpts := []ollama.Option{
		ollama.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		ollamaOpts = append(ollamaOpts, ollama.WithServerURL(cfg.BaseURL))
	}
	client, err := ollama.New(ollamaOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize ollama client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct ollama embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}
