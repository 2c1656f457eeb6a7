package answer

// QueryContext accumulates state for one question's journey through the
// pipeline: the original question, optional per-backend hints, and every
// envelope gathered so far. The escalator consumes the collected
// envelopes when no backend clears the threshold.
//
// A QueryContext lives for a single HandleQuestion call and is owned by
// that invocation; it is not safe for concurrent use.
type QueryContext struct {
	Question  string
	Meta      map[string]any
	Envelopes []Envelope
}

// NewQueryContext creates a context for the given question.
func NewQueryContext(question string) *QueryContext {
	return &QueryContext{Question: question}
}

// WithMeta attaches per-backend hint data keyed by backend ID.
func (q *QueryContext) WithMeta(meta map[string]any) *QueryContext {
	q.Meta = meta
	return q
}

// BackendMeta returns the hint sub-mapping for one backend, or nil.
func (q *QueryContext) BackendMeta(backendID string) map[string]any {
	if q == nil || q.Meta == nil {
		return nil
	}
	sub, ok := q.Meta[backendID].(map[string]any)
	if !ok {
		return nil
	}
	return sub
}

// Append records an envelope gathered during fan-out.
func (q *QueryContext) Append(envelope Envelope) {
	q.Envelopes = append(q.Envelopes, envelope)
}

// Collected returns a copy of the envelopes gathered so far.
func (q *QueryContext) Collected() []Envelope {
	if q == nil || len(q.Envelopes) == 0 {
		return nil
	}
	out := make([]Envelope, len(q.Envelopes))
	copy(out, q.Envelopes)
	return out
}
