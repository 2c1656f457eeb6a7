package answer

// Envelope is the uniform result record every answering component
// produces: the answer text, the backend's self-reported confidence,
// where the answer came from, and optional error/reframing markers.
//
// Envelopes are value objects. They are created once per query attempt
// and never mutated afterwards; the orchestrator marks the winning
// envelope through WithChosen, which returns a copy.
type Envelope struct {
	Answer           string  `json:"answer"`
	Confidence       float64 `json:"confidence"`
	Source           Source  `json:"source"`
	BackendID        string  `json:"backend_id"`
	Error            string  `json:"error,omitempty"`
	ReframedQuestion string  `json:"reframed_question,omitempty"`
	Chosen           bool    `json:"chosen,omitempty"`
}

// New builds an envelope for a successful query attempt. Confidence is
// clamped into [0,1] so the envelope invariant holds regardless of what
// a backend reports.
func New(answer string, confidence float64, source Source, backendID string) Envelope {
	return Envelope{
		Answer:     answer,
		Confidence: clamp(confidence),
		Source:     source,
		BackendID:  backendID,
	}
}

// NewError builds a degraded envelope for a failed query attempt.
// Error envelopes always carry confidence 0 and are never selectable.
func NewError(errMsg string, source Source, backendID string) Envelope {
	return Envelope{
		Answer:     errMsg,
		Confidence: 0,
		Source:     source,
		BackendID:  backendID,
		Error:      errMsg,
	}
}

// IsError reports whether the envelope represents a failed attempt.
// Error envelopes must never be selected as the best answer.
func (e Envelope) IsError() bool {
	return e.Error != ""
}

// WithChosen returns a copy marked as the orchestrator's final pick.
func (e Envelope) WithChosen(chosen bool) Envelope {
	e.Chosen = chosen
	return e
}

// WithReframedQuestion returns a copy carrying the reframed question text.
func (e Envelope) WithReframedQuestion(question string) Envelope {
	e.ReframedQuestion = question
	return e
}

// WithAnswer returns a copy with the answer text replaced.
func (e Envelope) WithAnswer(text string) Envelope {
	e.Answer = text
	return e
}

func clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
