package answer

import "context"

// Backend is a pluggable answering strategy. Implementations may return
// an error or panic; the orchestrator isolates both into error envelopes
// so one backend can never abort the pipeline.
type Backend interface {
	// ID returns the stable identifier recorded in envelopes.
	ID() string
	// Query answers the question, using qctx for per-backend hints.
	Query(ctx context.Context, question string, qctx *QueryContext) (Envelope, error)
}

// Escalator is the last-resort answering path invoked when no backend
// clears the confidence threshold. Implementations never return an
// error; every failure degrades into a lower-confidence envelope.
type Escalator interface {
	Escalate(ctx context.Context, question string, qctx *QueryContext) Envelope
}
