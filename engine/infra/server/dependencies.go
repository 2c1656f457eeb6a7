package server

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/engine/embedder"
	"github.com/verdicthq/verdict/engine/fallback"
	"github.com/verdicthq/verdict/engine/graph"
	"github.com/verdicthq/verdict/engine/infra/cache"
	"github.com/verdicthq/verdict/engine/infra/monitoring"
	"github.com/verdicthq/verdict/engine/ingest"
	"github.com/verdicthq/verdict/engine/llm"
	"github.com/verdicthq/verdict/engine/orchestrator"
	"github.com/verdicthq/verdict/engine/similarity"
	"github.com/verdicthq/verdict/engine/vectordb"
	"github.com/verdicthq/verdict/engine/wiki"
	"github.com/verdicthq/verdict/pkg/config"
	"github.com/verdicthq/verdict/pkg/logger"
)

// Dependencies is the wired object graph behind the HTTP surface: the
// orchestrator pipeline plus the stores and services it runs on.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Ingest       *ingest.Service
	Graph        *graph.Store
	Similarity   *similarity.Backend
	VectorStore  vectordb.Store
	Generative   *llm.Generative
	Cache        cache.Cache
	Monitoring   *monitoring.Service
}

// BuildDependencies wires every component from configuration. Any
// missing collaborator fails here, at startup, never on the first
// question.
func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.FromContext(ctx)

	graphStore, err := buildGraphStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	graphBackend, err := graph.NewBackend(graphStore)
	if err != nil {
		return nil, err
	}

	vectorStore, err := vectordb.New(ctx, vectorConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("build vector store: %w", err)
	}
	embedAdapter, err := embedder.New(ctx, embedderConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	generative, err := buildGenerative(cfg)
	if err != nil {
		return nil, err
	}

	simBackend, err := buildSimilarityBackend(ctx, cfg, embedAdapter, vectorStore, generative)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Graph:       graphStore,
		Similarity:  simBackend,
		VectorStore: vectorStore,
		Generative:  generative,
	}

	backends := []answer.Backend{simBackend, graphBackend}
	if cfg.Wikipedia.Enabled {
		wikiBackend, wikiCache, err := buildWikiBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backends = append(backends, wikiBackend)
		deps.Cache = wikiCache
	}

	escalator := buildEscalator(cfg, generative)
	routes, err := buildRoutes(ctx, cfg)
	if err != nil {
		return nil, err
	}
	orch, err := orchestrator.New(backends, escalator,
		orchestrator.WithThreshold(cfg.Orchestrator.ConfidenceThreshold),
		orchestrator.WithBackendTimeout(cfg.Orchestrator.BackendTimeout),
		orchestrator.WithRoutes(routes),
	)
	if err != nil {
		return nil, err
	}
	deps.Orchestrator = orch

	deps.Ingest, err = buildIngestService(cfg, embedAdapter, vectorStore, simBackend)
	if err != nil {
		return nil, err
	}

	log.Info("Dependencies wired",
		"backends", orch.Backends(),
		"routes", len(routes),
		"threshold", orch.Threshold())
	return deps, nil
}

// Close releases held connections. Safe to call once after shutdown.
func (d *Dependencies) Close(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if d.Graph != nil {
		if err := d.Graph.Save(); err != nil {
			log.Warn("Failed to persist graph snapshot on shutdown", "error", err)
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			log.Warn("Failed to close cache", "error", err)
		}
	}
	if d.Generative != nil {
		if err := d.Generative.Close(); err != nil {
			log.Warn("Failed to close generative client", "error", err)
		}
	}
	if d.VectorStore != nil {
		if err := d.VectorStore.Close(ctx); err != nil {
			return fmt.Errorf("close vector store: %w", err)
		}
	}
	return nil
}

func buildGraphStore(ctx context.Context, cfg *config.Config) (*graph.Store, error) {
	store, err := graph.NewStore(ctx, &graph.Config{Path: cfg.Graph.Path})
	if err != nil {
		return nil, fmt.Errorf("build graph store: %w", err)
	}
	if cfg.Graph.SeedPath != "" {
		if err := store.Seed(ctx, cfg.Graph.SeedPath); err != nil {
			return nil, fmt.Errorf("seed graph store: %w", err)
		}
	}
	return store, nil
}

func vectorConfig(cfg *config.Config) *vectordb.Config {
	sim := cfg.Similarity
	out := &vectordb.Config{
		ID:          "similarity",
		Provider:    vectordb.Provider(sim.Provider),
		Path:        sim.Path,
		Index:       sim.IndexName,
		Dimension:   sim.Dimension,
		EnsureIndex: true,
	}
	switch out.Provider {
	case vectordb.ProviderPGVector:
		out.DSN = string(sim.ConnString)
	case vectordb.ProviderRedis:
		out.DSN = string(sim.RedisURL)
	}
	return out
}

func embedderConfig(cfg *config.Config) *embedder.Config {
	return &embedder.Config{
		ID:        "embedder",
		Provider:  embedder.Provider(cfg.Embedder.Provider),
		Model:     cfg.Embedder.Model,
		APIKey:    string(cfg.Embedder.APIKey),
		BaseURL:   cfg.Embedder.BaseURL,
		Dimension: cfg.Similarity.Dimension,
		BatchSize: cfg.Embedder.BatchSize,
		CacheSize: cfg.Embedder.CacheSize,
	}
}

// buildGenerative is best-effort wiring: without a model configured the
// pipeline still runs, it just skips synthesis, reframing and refining.
func buildGenerative(cfg *config.Config) (*llm.Generative, error) {
	if cfg.LLM.Model == "" {
		return nil, nil
	}
	client, err := llm.NewLangChainAdapter(&llm.Config{
		Provider: llm.Provider(cfg.LLM.Provider),
		Model:    cfg.LLM.Model,
		APIKey:   string(cfg.LLM.APIKey),
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	generative, err := llm.NewGenerative(client, &llm.GenerativeConfig{
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		Timeout:          cfg.LLM.Timeout,
		RetryAttempts:    cfg.LLM.MaxRetries,
		RetryBackoffBase: cfg.LLM.RetryBaseDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("build generative service: %w", err)
	}
	return generative, nil
}

func buildSimilarityBackend(
	ctx context.Context,
	cfg *config.Config,
	embedAdapter *embedder.Adapter,
	vectorStore vectordb.Store,
	generative *llm.Generative,
) (*similarity.Backend, error) {
	opts := []similarity.Option{similarity.WithTopK(cfg.Similarity.TopK)}
	if cfg.Similarity.Synthesis && generative != nil {
		opts = append(opts, similarity.WithSynthesizer(generative))
	}
	backend, err := similarity.NewBackend(embedAdapter, vectorStore, opts...)
	if err != nil {
		return nil, fmt.Errorf("build similarity backend: %w", err)
	}
	// An index persisted by a previous ingest run is already queryable.
	if count, err := vectorStore.Count(ctx); err == nil && count > 0 {
		backend.MarkReady()
	}
	return backend, nil
}

func buildEscalator(cfg *config.Config, generative *llm.Generative) *fallback.Handler {
	opts := []fallback.Option{}
	if generative != nil {
		opts = append(opts, fallback.WithGenerative(generative))
	}
	if cfg.Fallback.DefaultMessage != "" {
		opts = append(opts, fallback.WithDefaultMessage(cfg.Fallback.DefaultMessage))
	}
	if cfg.Fallback.Seed != 0 {
		opts = append(opts, fallback.WithRand(rand.New(rand.NewSource(cfg.Fallback.Seed))))
	}
	return fallback.NewHandler(opts...)
}

func buildRoutes(ctx context.Context, cfg *config.Config) (orchestrator.RouteTable, error) {
	if cfg.Orchestrator.RoutesPath == "" {
		return orchestrator.DefaultRoutes(), nil
	}
	routes, err := orchestrator.LoadRoutes(ctx, cfg.Orchestrator.RoutesPath)
	if err != nil {
		return nil, fmt.Errorf("load exact-match routes: %w", err)
	}
	return routes, nil
}

func buildWikiBackend(ctx context.Context, cfg *config.Config) (*wiki.Backend, cache.Cache, error) {
	store, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("build cache: %w", err)
	}
	searcher, err := wiki.NewSearcher(&cfg.Wikipedia, wiki.WithCache(store))
	if err != nil {
		return nil, nil, fmt.Errorf("build wikipedia searcher: %w", err)
	}
	backend, err := wiki.NewBackend(searcher, cfg.Wikipedia.Confidence)
	if err != nil {
		return nil, nil, fmt.Errorf("build wikipedia backend: %w", err)
	}
	return backend, store, nil
}

func buildIngestService(
	cfg *config.Config,
	embedAdapter *embedder.Adapter,
	vectorStore vectordb.Store,
	simBackend *similarity.Backend,
) (*ingest.Service, error) {
	chunker, err := ingest.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	service, err := ingest.NewService(embedAdapter, vectorStore,
		ingest.WithChunker(chunker),
		ingest.WithBatchSize(cfg.Embedder.BatchSize),
		ingest.WithReadyMarker(simBackend),
	)
	if err != nil {
		return nil, fmt.Errorf("build ingest service: %w", err)
	}
	return service, nil
}
