package llm

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
	meterName      = "verdict.llm"
	subsystemLLM   = "llm"
	labelOperation = "operation"
	labelOutcome   = "outcome"
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var completionLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

var (
	metricsOnce       sync.Once
	metricsInitErr    error
	errorLogOnce      sync.Once
	completionLatency metric.Float64Histogram
	completionsTotal  metric.Int64Counter
)

func recordCompletion(ctx context.Context, operation string, duration time.Duration, err error) {
	if !ensureInstruments(ctx) {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	completionLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(labelOperation, operation),
	))
	completionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(labelOperation, operation),
		attribute.String(labelOutcome, outcome),
	))
}

func ensureInstruments(ctx context.Context) bool {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		latency, err := meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem(subsystemLLM, "completion_seconds"),
			metric.WithDescription("Generative completion latency including retries"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(completionLatencyBuckets...),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create llm latency histogram: %w", err)
			return
		}
		total, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(subsystemLLM, "completions_total"),
			metric.WithDescription("Generative completions by operation and outcome"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create llm completions counter: %w", err)
			return
		}
		completionLatency = latency
		completionsTotal = total
	})
	if metricsInitErr != nil {
		errorLogOnce.Do(func() {
			logger.FromContext(ctx).Error("llm metrics disabled", "error", metricsInitErr)
		})
		return false
	}
	return true
}
