package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/verdicthq/verdict/engine/infra/monitoring/metrics"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	meterName       = "verdict.ingest"
	metricSubsystem = "ingest"
)

var runLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

var (
	metricsOnce    sync.Once
	metricsInitErr error
	errorLogOnce   sync.Once
	runSeconds     metric.Float64Histogram
	documentsTotal metric.Int64Counter
	chunksTotal    metric.Int64Counter
	persistedTotal metric.Int64Counter
)

func recordIngestRun(ctx context.Context, duration time.Duration, result *Result) {
	if !ensureInstruments(ctx) {
		return
	}
	runSeconds.Record(ctx, duration.Seconds())
	documentsTotal.Add(ctx, int64(result.Documents))
	chunksTotal.Add(ctx, int64(result.Chunks))
	persistedTotal.Add(ctx, int64(result.Persisted))
}

func ensureInstruments(ctx context.Context) bool {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		seconds, err := meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "run_seconds"),
			metric.WithDescription("Duration of corpus ingestion runs"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(runLatencyBuckets...),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create run latency histogram: %w", err)
			return
		}
		documents, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "documents_total"),
			metric.WithDescription("Documents loaded from the corpus"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create documents counter: %w", err)
			return
		}
		chunks, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "chunks_total"),
			metric.WithDescription("Chunks produced by the splitter"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create chunks counter: %w", err)
			return
		}
		persisted, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "persisted_total"),
			metric.WithDescription("Chunks written to the vector store"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create persisted counter: %w", err)
			return
		}
		runSeconds = seconds
		documentsTotal = documents
		chunksTotal = chunks
		persistedTotal = persisted
	})
	if metricsInitErr != nil {
		errorLogOnce.Do(func() {
			logger.FromContext(ctx).Error("ingest metrics disabled", "error", metricsInitErr)
		})
		return false
	}
	return true
}
