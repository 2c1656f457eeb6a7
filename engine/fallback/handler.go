package fallback

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/pkg/logger"
)

// HandlerID identifies the fallback in envelopes returned by Escalate.
const HandlerID = "fallback"

const (
	generativeConfidence = 0.2
	cannedConfidence     = 0.01

	generativeSource = "Fallback - Generative"
	cannedSource     = "System/Fallback"

	reframeNote = " Note: reframing the question did not produce a better answer."
)

// DefaultMessage is returned alongside the canned pool when no custom
// default is configured.
const DefaultMessage = "I'm sorry, I couldn't find a definitive answer to your question at this time."

var cannedResponses = []string{
	"I'm unable to answer that question with the current information available.",
	"That's a bit outside my current knowledge. Could you try rephrasing or asking something else?",
	"I don't have enough information to provide a confident answer for that.",
	"Unfortunately, I can't assist with that specific query right now.",
}

// Generative is the text capability the handler escalates through.
// *llm.Generative satisfies it. Both calls are best-effort: any error
// stops that step without propagating.
type Generative interface {
	Reframe(ctx context.Context, question string) (string, error)
	Answer(ctx context.Context, question string) (string, error)
}

// Handler produces a last-resort answer when no backend clears the
// confidence threshold. It reframes the question, attempts a generative
// answer, and finally picks a canned apology. It never fails: every
// branch yields an envelope with reframed_question populated.
type Handler struct {
	gen            Generative
	defaultMessage string
	status         func(string)
	mu             sync.Mutex
	rng            *rand.Rand
}

// Option configures optional handler collaborators.
type Option func(*Handler)

// WithGenerative attaches the reframe/answer capability. Without it the
// handler goes straight to the canned pool.
func WithGenerative(gen Generative) Option {
	return func(h *Handler) {
		h.gen = gen
	}
}

// WithDefaultMessage replaces the default apology added to the canned
// pool. Blank values keep the built-in message.
func WithDefaultMessage(message string) Option {
	return func(h *Handler) {
		if strings.TrimSpace(message) != "" {
			h.defaultMessage = message
		}
	}
}

// WithStatusCallback registers a progress hook invoked with a
// human-readable message at each escalation step.
func WithStatusCallback(fn func(string)) Option {
	return func(h *Handler) {
		if fn != nil {
			h.status = fn
		}
	}
}

// WithRand injects the random source used for canned selection so tests
// can seed it.
func WithRand(rng *rand.Rand) Option {
	return func(h *Handler) {
		if rng != nil {
			h.rng = rng
		}
	}
}

// NewHandler builds a fallback handler.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		defaultMessage: DefaultMessage,
		status:         func(string) {},
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Escalate implements answer.Escalator.
func (h *Handler) Escalate(ctx context.Context, question string, qctx *answer.QueryContext) (env answer.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Fallback escalation panicked", "panic", r)
			env = h.cannedEnvelope(question)
		}
	}()
	log := logger.FromContext(ctx)
	h.logUnanswered(log, question, qctx)

	h.status(fmt.Sprintf("No confident answer found for %q, escalating.", question))
	reframed := h.reframe(ctx, question)

	if h.gen != nil {
		h.status("Attempting a generative answer for the reframed question.")
		text, err := h.gen.Answer(ctx, reframed)
		if err == nil && strings.TrimSpace(text) != "" {
			h.status("Generative fallback produced an answer.")
			return answer.New(text, generativeConfidence, answer.TextSource(generativeSource), HandlerID).
				WithReframedQuestion(reframed)
		}
		if err != nil {
			log.Debug("Generative fallback answer unavailable", "error", err)
		}
	}

	h.status("Returning a canned response.")
	return h.cannedEnvelope(reframed)
}

// reframe rewrites the question through the generative capability,
// silently keeping the original on any failure.
func (h *Handler) reframe(ctx context.Context, question string) string {
	if h.gen == nil {
		return question
	}
	h.status("Reframing the question.")
	reframed, err := h.gen.Reframe(ctx, question)
	if err != nil || strings.TrimSpace(reframed) == "" {
		if err != nil {
			logger.FromContext(ctx).Debug("Question reframe unavailable", "error", err)
		}
		return question
	}
	h.status(fmt.Sprintf("Reframed question: %q", reframed))
	return reframed
}

func (h *Handler) cannedEnvelope(reframed string) answer.Envelope {
	message := h.pickCanned() + reframeNote
	return answer.New(message, cannedConfidence, answer.TextSource(cannedSource), HandlerID).
		WithReframedQuestion(reframed)
}

// pickCanned selects uniformly over the four canned apologies plus the
// configured default message.
func (h *Handler) pickCanned() string {
	pool := make([]string, 0, len(cannedResponses)+1)
	pool = append(pool, cannedResponses...)
	pool = append(pool, h.defaultMessage)
	h.mu.Lock()
	defer h.mu.Unlock()
	return pool[h.rng.Intn(len(pool))]
}

func (h *Handler) logUnanswered(log logger.Logger, question string, qctx *answer.QueryContext) {
	collected := qctx.Collected()
	errCount := 0
	for i := range collected {
		if collected[i].IsError() {
			errCount++
		}
	}
	log.Warn("Question escalated to fallback",
		"question", question,
		"responses", len(collected),
		"errors", errCount,
	)
}
