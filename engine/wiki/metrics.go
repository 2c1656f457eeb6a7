package wiki

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/verdicthq/verdict/engine/infra/monitoring/metrics"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	meterName       = "verdict.wiki"
	metricSubsystem = "wiki"
	labelOutcome    = "outcome"

	outcomeCacheHit    = "cache_hit"
	outcomeFound       = "found"
	outcomeEmpty       = "empty"
	outcomeError       = "error"
	outcomeCircuitOpen = "circuit_open"
)

var lookupLatencyBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10}

var (
	metricsOnce    sync.Once
	metricsInitErr error
	errorLogOnce   sync.Once
	lookupLatency  metric.Float64Histogram
	lookupsTotal   metric.Int64Counter
)

func recordLookup(ctx context.Context, outcome string, duration time.Duration) {
	if !ensureInstruments(ctx) {
		return
	}
	attrs := metric.WithAttributes(attribute.String(labelOutcome, outcome))
	lookupLatency.Record(ctx, duration.Seconds(), attrs)
	lookupsTotal.Add(ctx, 1, attrs)
}

func ensureInstruments(ctx context.Context) bool {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		latency, err := meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "lookup_seconds"),
			metric.WithDescription("Wikipedia lookup latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(lookupLatencyBuckets...),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create lookup latency histogram: %w", err)
			return
		}
		total, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "lookups_total"),
			metric.WithDescription("Wikipedia lookups by outcome"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create lookups counter: %w", err)
			return
		}
		lookupLatency = latency
		lookupsTotal = total
	})
	if metricsInitErr != nil {
		errorLogOnce.Do(func() {
			logger.FromContext(ctx).Error("wiki metrics disabled", "error", metricsInitErr)
		})
		return false
	}
	return true
}
