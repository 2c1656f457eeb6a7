package similarity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/engine/llm"
	"github.com/verdicthq/verdict/engine/vectordb"
	"github.com/verdicthq/verdict/pkg/logger"
)

// BackendID identifies the vector store backend in envelopes.
const BackendID = "vector-store"

const (
	notReadyAnswer = "Vector store not initialized."
	noResultAnswer = "No relevant documents found in the vector store."

	// Zero matches is a successful-but-empty outcome, not an error.
	emptyResultConfidence = 0.1

	defaultTopK       = 3
	snippetMaxRunes   = 200
	sourceMetadataKey = "source"
	unknownSource     = "Unknown"
)

// Embedder turns the question into a query vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the read surface of the vector index.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, opts vectordb.SearchOptions) ([]vectordb.Match, error)
}

// Synthesizer produces a natural-language answer from retrieved chunks.
// *llm.Generative satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, snippets []llm.Snippet) (string, error)
}

// Backend answers questions by semantic similarity over the vector
// index. Confidence is derived from the best match distance as
// 1/(1+distance). It never returns an error: every failure degrades
// into a zero-confidence "System" envelope.
type Backend struct {
	embedder    Embedder
	store       Searcher
	synthesizer Synthesizer
	topK        int
	tracer      trace.Tracer
	ready       atomic.Bool
}

// Option configures optional backend collaborators.
type Option func(*Backend)

// WithSynthesizer attaches a generative answer synthesizer. Without one
// the backend concatenates labeled snippets.
func WithSynthesizer(s Synthesizer) Option {
	return func(b *Backend) {
		b.synthesizer = s
	}
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(b *Backend) {
		b.topK = k
	}
}

// NewBackend wires the backend to its embedder and vector store.
func NewBackend(emb Embedder, store Searcher, opts ...Option) (*Backend, error) {
	if emb == nil {
		return nil, errors.New("similarity: embedder is required")
	}
	if store == nil {
		return nil, errors.New("similarity: vector store is required")
	}
	b := &Backend{
		embedder: emb,
		store:    store,
		topK:     defaultTopK,
		tracer:   otel.Tracer("verdict.similarity"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.topK <= 0 {
		b.topK = defaultTopK
	}
	return b, nil
}

// ID implements answer.Backend.
func (b *Backend) ID() string { return BackendID }

// MarkReady flags the index as loaded. Until it is called every query
// answers with the not-initialized error envelope.
func (b *Backend) MarkReady() {
	b.ready.Store(true)
}

// Ready reports whether the index has been marked loaded.
func (b *Backend) Ready() bool {
	return b.ready.Load()
}

// Query implements answer.Backend.
func (b *Backend) Query(ctx context.Context, question string, qctx *answer.QueryContext) (env answer.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			env = answer.NewError(
				fmt.Sprintf("similarity search failed: %v", r),
				answer.TextSource("System"),
				BackendID,
			)
			err = nil
		}
	}()
	ctx, span := b.tracer.Start(ctx, "verdict.similarity.query", trace.WithAttributes(
		attribute.Int("question_length", len(question)),
		attribute.Int("top_k", b.topK),
	))
	defer span.End()
	log := logger.FromContext(ctx)

	if !b.ready.Load() {
		log.Warn("Vector store queried before initialization")
		return answer.NewError(notReadyAnswer, answer.TextSource("System"), BackendID), nil
	}

	vector, embedErr := b.embedQuery(ctx, question)
	if embedErr != nil {
		log.Error("Query embedding failed", "error", embedErr)
		return b.failure(span, embedErr), nil
	}

	matches, searchErr := b.search(ctx, vector, qctx)
	if searchErr != nil {
		log.Error("Vector search failed", "error", searchErr)
		return b.failure(span, searchErr), nil
	}

	if len(matches) == 0 {
		log.Debug("Vector search returned no documents")
		return answer.New(noResultAnswer, emptyResultConfidence, answer.TextSource("Vector Store"), BackendID), nil
	}

	confidence := confidenceFromDistance(matches[0].Distance)
	text, synthErr := b.composeAnswer(ctx, question, matches)
	if synthErr != nil {
		log.Error("Answer synthesis failed", "error", synthErr)
		return b.failure(span, synthErr), nil
	}
	span.SetAttributes(
		attribute.Int("matches", len(matches)),
		attribute.Float64("confidence", confidence),
	)
	log.Debug("Answered from vector store", "matches", len(matches), "confidence", confidence)
	return answer.New(text, confidence, answer.SetSource(collectSources(matches)...), BackendID), nil
}

func (b *Backend) embedQuery(ctx context.Context, question string) ([]float32, error) {
	spanCtx, span := b.tracer.Start(ctx, "verdict.similarity.embed_query")
	defer span.End()
	vector, err := b.embedder.EmbedQuery(spanCtx, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return vector, nil
}

func (b *Backend) search(ctx context.Context, vector []float32, qctx *answer.QueryContext) ([]vectordb.Match, error) {
	opts := vectordb.SearchOptions{
		TopK:    b.topK,
		Filters: searchFilters(qctx),
	}
	spanCtx, span := b.tracer.Start(ctx, "verdict.similarity.vector_search", trace.WithAttributes(
		attribute.Int("top_k", opts.TopK),
	))
	defer span.End()
	matches, err := b.store.Search(spanCtx, vector, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	return matches, nil
}

func (b *Backend) composeAnswer(ctx context.Context, question string, matches []vectordb.Match) (string, error) {
	if b.synthesizer == nil {
		return concatSnippets(matches), nil
	}
	snippets := make([]llm.Snippet, len(matches))
	for i, match := range matches {
		snippets[i] = llm.Snippet{Source: sourceLabel(match.Metadata), Text: match.Text}
	}
	text, err := b.synthesizer.Synthesize(ctx, question, snippets)
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return text, nil
}

func (b *Backend) failure(span trace.Span, err error) answer.Envelope {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return answer.NewError(err.Error(), answer.TextSource("System"), BackendID)
}

// searchFilters reads optional metadata filters from the per-backend
// hint mapping.
func searchFilters(qctx *answer.QueryContext) map[string]string {
	meta := qctx.BackendMeta(BackendID)
	if meta == nil {
		return nil
	}
	filters, ok := meta["filters"].(map[string]string)
	if !ok {
		return nil
	}
	return filters
}

// confidenceFromDistance maps the best (smallest) distance to 1/(1+d).
// Distance 0 scores 1.0, distance 1 scores 0.5, distance 3 scores 0.25.
// A negative distance signals a store bug and degrades to zero.
func confidenceFromDistance(distance float64) float64 {
	if distance < 0 {
		return 0
	}
	return 1 / (1 + distance)
}

func collectSources(matches []vectordb.Match) []string {
	sources := make([]string, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, sourceLabel(match.Metadata))
	}
	return sources
}

func sourceLabel(metadata map[string]any) string {
	value, ok := metadata[sourceMetadataKey]
	if !ok || value == nil {
		return unknownSource
	}
	label := strings.TrimSpace(fmt.Sprint(value))
	if label == "" {
		return unknownSource
	}
	return label
}

func concatSnippets(matches []vectordb.Match) string {
	lines := make([]string, 0, len(matches))
	for _, match := range matches {
		lines = append(lines, fmt.Sprintf("Source: %s, Content: %s",
			sourceLabel(match.Metadata), truncateRunes(match.Text, snippetMaxRunes)))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
