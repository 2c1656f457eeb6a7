package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verdicthq/verdict/engine/vectordb"
	"github.com/verdicthq/verdict/pkg/logger"
)

const defaultBatchSize = 16

// retryPolicy bounds the embed and upsert retries for one batch.
type retryPolicy struct {
	attempts uint64
	base     time.Duration
	max      time.Duration
}

var defaultRetryPolicy = retryPolicy{
	attempts: 3,
	base:     200 * time.Millisecond,
	max:      2 * time.Second,
}

// Embedder produces embedding vectors for chunk batches.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Upserter persists embedded chunks.
type Upserter interface {
	Upsert(ctx context.Context, records []vectordb.Record) error
}

// ReadyMarker is notified once ingested material is searchable.
type ReadyMarker interface {
	MarkReady()
}

// Result reports how much material an ingestion run processed.
type Result struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Persisted int `json:"persisted"`
}

// Service runs the load, chunk, embed and persist pipeline.
type Service struct {
	embedder  Embedder
	store     Upserter
	chunker   *Chunker
	readiness ReadyMarker
	batchSize int
	retry     retryPolicy
	tracer    trace.Tracer
}

// Option customizes service construction.
type Option func(*Service)

// WithChunker overrides the default splitter settings.
func WithChunker(chunker *Chunker) Option {
	return func(s *Service) {
		if chunker != nil {
			s.chunker = chunker
		}
	}
}

// WithBatchSize bounds how many chunks are embedded and persisted per round trip.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithReadyMarker registers a component to notify after material is persisted.
func WithReadyMarker(marker ReadyMarker) Option {
	return func(s *Service) {
		if marker != nil {
			s.readiness = marker
		}
	}
}

// NewService wires the ingestion pipeline collaborators.
func NewService(embedder Embedder, store Upserter, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingest: embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ingest: vector store is required")
	}
	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}
	service := &Service{
		embedder:  embedder,
		store:     store,
		chunker:   chunker,
		batchSize: defaultBatchSize,
		retry:     defaultRetryPolicy,
		tracer:    otel.Tracer("verdict.ingest"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// IngestDirectory loads every supported file under root and persists its
// embedded chunks. The readiness marker fires only after at least one chunk
// was stored.
func (s *Service) IngestDirectory(ctx context.Context, root string) (*Result, error) {
	loader, err := NewLoader(root)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, loader)
}

func (s *Service) run(ctx context.Context, loader *Loader) (*Result, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verdict.ingest.run",
		trace.WithAttributes(attribute.String("root", loader.root)))
	defer span.End()
	docs, err := loader.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}
	result := &Result{Documents: len(docs)}
	if len(docs) == 0 {
		log.Warn("No documents found to ingest", "root", loader.root)
		return result, nil
	}
	chunks, err := s.chunker.Chunk(docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chunking failed")
		return result, err
	}
	result.Chunks = len(chunks)
	if len(chunks) == 0 {
		log.Warn("Documents produced no chunks", "documents", result.Documents)
		return result, nil
	}
	persisted, err := s.persist(ctx, chunks)
	result.Persisted = persisted
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return result, err
	}
	if s.readiness != nil && persisted > 0 {
		s.readiness.MarkReady()
	}
	recordIngestRun(ctx, time.Since(start), result)
	log.Info("Ingestion completed",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"persisted", result.Persisted,
		"duration", time.Since(start))
	return result, nil
}

func (s *Service) persist(ctx context.Context, chunks []Chunk) (int, error) {
	persisted := 0
	for begin := 0; begin < len(chunks); begin += s.batchSize {
		end := begin + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[begin:end]
		vectors, err := s.embedBatch(ctx, batch)
		if err != nil {
			return persisted, err
		}
		if len(vectors) != len(batch) {
			return persisted, fmt.Errorf("ingest: embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}
		records := make([]vectordb.Record, len(batch))
		for i := range batch {
			records[i] = vectordb.Record{
				ID:        batch[i].ID,
				Text:      batch[i].Text,
				Embedding: vectors[i],
				Metadata:  batch[i].Metadata,
			}
		}
		if err := s.upsertBatch(ctx, records); err != nil {
			return persisted, err
		}
		persisted += len(batch)
	}
	return persisted, nil
}

func (s *Service) embedBatch(ctx context.Context, batch []Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text
	}
	var vectors [][]float32
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		embedded, embedErr := s.embedder.EmbedDocuments(ctx, texts)
		if embedErr != nil {
			return retry.RetryableError(embedErr)
		}
		vectors = embedded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: embed chunk batch: %w", err)
	}
	return vectors, nil
}

func (s *Service) upsertBatch(ctx context.Context, records []vectordb.Record) error {
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if upsertErr := s.store.Upsert(ctx, records); upsertErr != nil {
			return retry.RetryableError(upsertErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest: persist chunk batch: %w", err)
	}
	return nil
}

func (s *Service) backoff() retry.Backoff {
	exponential := retry.NewExponential(s.retry.base)
	exponential = retry.WithMaxDuration(s.retry.max, exponential)
	return retry.WithMaxRetries(s.retry.attempts, exponential)
}
