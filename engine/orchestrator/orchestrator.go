package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	// DefaultThreshold is the minimum confidence a selected envelope
	// needs before it is returned without escalation.
	DefaultThreshold = 0.5

	// DefaultBackendTimeout bounds each backend call so one stalled
	// backend cannot hold up the rest of the fanout.
	DefaultBackendTimeout = 10 * time.Second

	exactMatchConfidence = 0.95
	emptyRouteConfidence = 0.3

	exactMatchSource = "KG"
	noRouteResults   = "No related nodes found."
)

// GraphQuerier is the capability exact-match routes run against. The
// knowledge graph backend satisfies it.
type GraphQuerier interface {
	answer.Backend
	QueryGraph(startNode, relationship, targetType string) []string
}

// Orchestrator routes questions through exact-match lookup, sequential
// backend fanout, best-envelope selection, and threshold-gated
// escalation. HandleQuestion never panics and never returns an error.
type Orchestrator struct {
	backends  []answer.Backend
	escalator answer.Escalator
	graph     GraphQuerier
	routes    RouteTable
	threshold float64
	timeout   time.Duration
	tracer    trace.Tracer
}

// Option configures the orchestrator at construction.
type Option func(*Orchestrator)

// WithThreshold sets the minimum confidence for direct answers.
func WithThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		o.threshold = threshold
	}
}

// WithRoutes installs the exact-match route table.
func WithRoutes(routes RouteTable) Option {
	return func(o *Orchestrator) {
		o.routes = routes
	}
}

// WithBackendTimeout sets the per-backend call deadline.
func WithBackendTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = timeout
	}
}

// New validates the wiring up front so a misconfigured orchestrator
// fails at startup, not on the first question.
func New(backends []answer.Backend, escalator answer.Escalator, opts ...Option) (*Orchestrator, error) {
	if len(backends) == 0 {
		return nil, errors.New("orchestrator: at least one backend is required")
	}
	if escalator == nil {
		return nil, errors.New("orchestrator: an escalator is required")
	}
	o := &Orchestrator{
		backends:  backends,
		escalator: escalator,
		threshold: DefaultThreshold,
		timeout:   DefaultBackendTimeout,
		tracer:    otel.Tracer("verdict.orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.threshold < 0 || o.threshold > 1 {
		return nil, fmt.Errorf("orchestrator: threshold %v is outside [0,1]", o.threshold)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultBackendTimeout
	}
	seen := make(map[string]struct{}, len(backends))
	for i, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("orchestrator: backend at position %d is nil", i)
		}
		id := backend.ID()
		if id == "" {
			return nil, fmt.Errorf("orchestrator: backend at position %d has an empty id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("orchestrator: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
		if o.graph == nil {
			if querier, ok := backend.(GraphQuerier); ok {
				o.graph = querier
			}
		}
	}
	if len(o.routes) > 0 && o.graph == nil {
		return nil, errors.New("orchestrator: exact-match routes require a graph-capable backend")
	}
	return o, nil
}

// Threshold returns the configured confidence threshold.
func (o *Orchestrator) Threshold() float64 { return o.threshold }

// Routes returns the exact-match route table.
func (o *Orchestrator) Routes() RouteTable { return o.routes }

// Backends returns the registered backend ids in registration order.
func (o *Orchestrator) Backends() []string {
	ids := make([]string, len(o.backends))
	for i, backend := range o.backends {
		ids[i] = backend.ID()
	}
	return ids
}

// QueryOption adjusts a single HandleQuestion call.
type QueryOption func(*answer.QueryContext)

// WithBackendMeta attaches per-backend hint data keyed by backend id.
func WithBackendMeta(meta map[string]any) QueryOption {
	return func(qctx *answer.QueryContext) {
		qctx.Meta = meta
	}
}

// HandleQuestion runs the full pipeline for one question and always
// produces an envelope: exact-match routes short-circuit to the graph,
// everything else fans out over the backends and either clears the
// threshold or escalates.
func (o *Orchestrator) HandleQuestion(ctx context.Context, question string, opts ...QueryOption) (env answer.Envelope) {
	start := time.Now()
	outcome := outcomeEscalated
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Question handling panicked", "panic", r)
			env = answer.NewError(
				fmt.Sprintf("orchestrator failure: %v", r),
				answer.TextSource("System"),
				"orchestrator",
			)
			outcome = outcomeFailed
		}
		recordQuestion(ctx, outcome, time.Since(start))
	}()
	ctx, span := o.tracer.Start(ctx, "verdict.orchestrator.handle_question", trace.WithAttributes(
		attribute.Int("question_length", len(question)),
		attribute.Int("backends", len(o.backends)),
	))
	defer span.End()
	log := logger.FromContext(ctx)
	log.Info("Handling question", "question", question)

	qctx := answer.NewQueryContext(question)
	for _, opt := range opts {
		opt(qctx)
	}

	if routed, ok := o.exactMatch(ctx, question); ok {
		outcome = outcomeExactMatch
		span.SetAttributes(attribute.String("outcome", outcome))
		return routed
	}

	o.fanout(ctx, qctx)

	selected, ok := selectBest(qctx.Collected())
	if ok && selected.Confidence >= o.threshold {
		log.Info("Selected answer",
			"backend_id", selected.BackendID, "confidence", selected.Confidence)
		outcome = outcomeSelected
		span.SetAttributes(attribute.String("outcome", outcome))
		return selected.WithChosen(true)
	}

	if ok {
		log.Info("Best answer below threshold",
			"backend_id", selected.BackendID,
			"confidence", selected.Confidence,
			"threshold", o.threshold)
	} else {
		log.Warn("Every backend failed", "threshold", o.threshold)
	}
	span.SetAttributes(attribute.String("outcome", outcomeEscalated))
	return o.escalator.Escalate(ctx, question, qctx)
}

// exactMatch runs the configured pattern query when the verbatim
// question is routed, bypassing fanout and the threshold policy.
func (o *Orchestrator) exactMatch(ctx context.Context, question string) (env answer.Envelope, ok bool) {
	route, found := o.routes.Lookup(question)
	if !found {
		return answer.Envelope{}, false
	}
	ctx, span := o.tracer.Start(ctx, "verdict.orchestrator.exact_match", trace.WithAttributes(
		attribute.String("start_node", route.StartNode),
		attribute.String("relationship", route.Relationship),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("error accessing knowledge graph: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			env = answer.NewError(err.Error(), answer.TextSource(exactMatchSource), o.graph.ID())
			ok = true
		}
	}()
	log := logger.FromContext(ctx)
	log.Debug("Question matched an exact route",
		"start_node", route.StartNode,
		"relationship", route.Relationship,
		"target_type", route.TargetType)

	results := o.graph.QueryGraph(route.StartNode, route.Relationship, route.TargetType)
	if len(results) == 0 {
		return answer.New(noRouteResults, emptyRouteConfidence,
			answer.TextSource(exactMatchSource), o.graph.ID()), true
	}
	return answer.New(strings.Join(results, ", "), exactMatchConfidence,
		answer.TextSource(exactMatchSource), o.graph.ID()), true
}

// fanout queries every backend in registration order, collecting one
// envelope per backend into the query context. A failure in one backend
// never stops the others.
func (o *Orchestrator) fanout(ctx context.Context, qctx *answer.QueryContext) {
	log := logger.FromContext(ctx)
	for _, backend := range o.backends {
		env := o.queryBackend(ctx, backend, qctx)
		qctx.Append(env)
		log.Debug("Backend responded",
			"backend_id", backend.ID(),
			"confidence", env.Confidence,
			"failed", env.IsError())
	}
}

type backendResult struct {
	env answer.Envelope
	err error
}

// queryBackend runs one backend under the per-call deadline. The call
// itself runs on a goroutine so a backend that ignores its context
// cannot stall the fanout past the deadline.
func (o *Orchestrator) queryBackend(ctx context.Context, backend answer.Backend, qctx *answer.QueryContext) (env answer.Envelope) {
	id := backend.ID()
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	callCtx, span := o.tracer.Start(callCtx, "verdict.orchestrator.backend_query", trace.WithAttributes(
		attribute.String("backend_id", id),
	))
	defer span.End()
	start := time.Now()
	defer func() {
		recordBackendQuery(ctx, id, time.Since(start), env.IsError())
	}()

	results := make(chan backendResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- backendResult{err: fmt.Errorf("backend panic: %v", r)}
			}
		}()
		result, err := backend.Query(callCtx, qctx.Question, qctx)
		results <- backendResult{env: result, err: err}
	}()

	select {
	case result := <-results:
		if result.err != nil {
			span.RecordError(result.err)
			span.SetStatus(codes.Error, result.err.Error())
			return answer.NewError(result.err.Error(), answer.TextSource(id), id)
		}
		return result.env
	case <-callCtx.Done():
		err := fmt.Errorf("backend timed out after %s: %w", o.timeout, callCtx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return answer.NewError(err.Error(), answer.TextSource(id), id)
	}
}

// selectBest keeps a running strictly-greater winner over the
// error-free envelopes. The comparison is deliberately > and not >=:
// equal confidences resolve to the earliest-registered backend.
func selectBest(envelopes []answer.Envelope) (answer.Envelope, bool) {
	var best answer.Envelope
	bestConfidence := -1.0
	found := false
	for _, env := range envelopes {
		if env.IsError() {
			continue
		}
		if env.Confidence > bestConfidence {
			best = env
			bestConfidence = env.Confidence
			found = true
		}
	}
	return best, found
}
