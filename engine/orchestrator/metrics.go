package orchestrator

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
	meterName          = "verdict.orchestrator"
	subsystemQuestions = "orchestrator"
	labelOutcome       = "outcome"
	labelBackendID     = "backend_id"

	outcomeExactMatch = "exact_match"
	outcomeSelected   = "selected"
	outcomeEscalated  = "escalated"
	outcomeFailed     = "failed"

	backendOutcomeAnswered = "answered"
	backendOutcomeError    = "error"
)

var questionLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}

var (
	metricsOnce     sync.Once
	metricsInitErr  error
	errorLogOnce    sync.Once
	questionLatency metric.Float64Histogram
	questionsTotal  metric.Int64Counter
	backendLatency  metric.Float64Histogram
)

func recordQuestion(ctx context.Context, outcome string, duration time.Duration) {
	if !ensureInstruments(ctx) {
		return
	}
	questionLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(labelOutcome, outcome),
	))
	questionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(labelOutcome, outcome),
	))
}

func recordBackendQuery(ctx context.Context, backendID string, duration time.Duration, failed bool) {
	if !ensureInstruments(ctx) {
		return
	}
	outcome := backendOutcomeAnswered
	if failed {
		outcome = backendOutcomeError
	}
	backendLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(labelBackendID, backendID),
		attribute.String(labelOutcome, outcome),
	))
}

func ensureInstruments(ctx context.Context) bool {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		latency, err := meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem(subsystemQuestions, "question_seconds"),
			metric.WithDescription("End-to-end question handling latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(questionLatencyBuckets...),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create question latency histogram: %w", err)
			return
		}
		total, err := meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem(subsystemQuestions, "questions_total"),
			metric.WithDescription("Questions handled by outcome"),
			metric.WithUnit("1"),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create questions counter: %w", err)
			return
		}
		backend, err := meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem(subsystemQuestions, "backend_seconds"),
			metric.WithDescription("Per-backend query latency during fanout"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(questionLatencyBuckets...),
		)
		if err != nil {
			metricsInitErr = fmt.Errorf("create backend latency histogram: %w", err)
			return
		}
		questionLatency = latency
		questionsTotal = total
		backendLatency = backend
	})
	if metricsInitErr != nil {
		errorLogOnce.Do(func() {
			logger.FromContext(ctx).Error("orchestrator metrics disabled", "error", metricsInitErr)
		})
		return false
	}
	return true
}
