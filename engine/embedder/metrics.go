package embedder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/verdicthq/verdict/engine/infra/monitoring/metrics"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	meterName          = "verdict.embedder"
	subsystemEmbedder  = "embedder"
	labelProvider      = "provider"
	labelModel         = "model"
	labelBatchSize     = "batch_size"
	labelErrorType     = "error_type"
	normalizedModelAny = "other"
)

var embedLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

var (
	metricsOnce       sync.Once
	metricsInitErr    error
	errorLogOnce      sync.Once
	metricInstruments instruments
)

// errorType buckets embedding failures for the errors counter.
type errorType string

const (
	errorTypeAuth         errorType = "auth"
	errorTypeRateLimit    errorType = "rate_limit"
	errorTypeInvalidInput errorType = "invalid_input"
	errorTypeServerError  errorType = "server_error"
)

type instruments struct {
	generationLatency metric.Float64Histogram
	cacheHitsTotal    metric.Int64Counter
	cacheMissesTotal  metric.Int64Counter
	errorsTotal       metric.Int64Counter
}

// normalizeModelName reduces model cardinality by mapping known model patterns to stable names.
func normalizeModelName(model string) string {
	normalized := strings.ToLower(strings.TrimSpace(model))
	if normalized == "" {
		return normalizedModelAny
	}
	switch {
	case strings.HasPrefix(normalized, "text-embedding-ada"):
		return "text-embedding-ada"
	case strings.HasPrefix(normalized, "text-embedding-3"):
		return "text-embedding-3"
	case strings.HasPrefix(normalized, "nomic-embed"):
		return "nomic-embed"
	case strings.HasPrefix(normalized, "mxbai-embed"):
		return "mxbai-embed"
	case strings.HasPrefix(normalized, "all-minilm"):
		return "all-minilm"
	default:
		return normalizedModelAny
	}
}

func recordGeneration(ctx context.Context, provider, model string, batchSize int, duration time.Duration) {
	if !ensureInstruments(ctx) {
		return
	}
	metricInstruments.generationLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(labelProvider, provider),
		attribute.String(labelModel, normalizeModelName(model)),
		attribute.Int(labelBatchSize, batchSize),
	))
}

func recordCacheHit(ctx context.Context, provider string) {
	if !ensureInstruments(ctx) {
		return
	}
	metricInstruments.cacheHitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(labelProvider, provider)))
}

func recordCacheMiss(ctx context.Context, provider string) {
	if !ensureInstruments(ctx) {
		return
	}
	metricInstruments.cacheMissesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(labelProvider, provider)))
}

func recordEmbedError(ctx context.Context, provider, model string, kind errorType) {
	if !ensureInstruments(ctx) {
		return
	}
	metricInstruments.errorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(labelProvider, provider),
		attribute.String(labelModel, normalizeModelName(model)),
		attribute.String(labelErrorType, string(kind)),
	))
}

func newInstruments(meter metric.Meter) (instruments, error) {
	latency, err := meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem(subsystemEmbedder, "generate_seconds"),
		metric.WithDescription("Embedding generation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(embedLatencyBuckets...),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("create embedder latency histogram: %w", err)
	}
	hits, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(subsystemEmbedder, "cache_hits_total"),
		metric.WithDescription("Embedding cache hits"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("create embedder cache hits counter: %w", err)
	}
	misses, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(subsystemEmbedder, "cache_misses_total"),
		metric.WithDescription("Embedding cache misses"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("create embedder cache misses counter: %w", err)
	}
	errorsCounter, err := meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(subsystemEmbedder, "errors_total"),
		metric.WithDescription("Embedding generation errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("create embedder errors counter: %w", err)
	}
	return instruments{
		generationLatency: latency,
		cacheHitsTotal:    hits,
		cacheMissesTotal:  misses,
		errorsTotal:       errorsCounter,
	}, nil
}

func ensureInstruments(ctx context.Context) bool {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		ins, err := newInstruments(meter)
		if err != nil {
			metricsInitErr = err
			return
		}
		metricInstruments = ins
	})
	if metricsInitErr != nil {
		errorLogOnce.Do(func() {
			logger.FromContext(ctx).Error("embedder metrics disabled", "error", metricsInitErr)
		})
		return false
	}
	return true
}
