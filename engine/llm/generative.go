package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Generative turns the raw Client into the small set of operations the
// answering pipeline needs. Reframe, Answer and Refine are best-effort for
// callers: they treat an error as "no output" and continue.
type Generative struct {
	client           Client
	temperature      float64
	maxTokens        int32
	timeout          time.Duration
	retryAttempts    int
	retryBackoffBase time.Duration
	retryBackoffMax  time.Duration
}

// GenerativeConfig tunes completion options and retry behavior.
type GenerativeConfig struct {
	Temperature      float64
	MaxTokens        int
	Timeout          time.Duration
	RetryAttempts    int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// Snippet is a retrieved chunk handed to Synthesize.
type Snippet struct {
	Source string
	Text   string
}

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxTokens        = 512
	defaultRetryAttempts    = 3
	defaultRetryBackoffBase = 500 * time.Millisecond
	defaultRetryBackoffMax  = 10 * time.Second
	retryJitterAmount       = 50 * time.Millisecond
	maxRetryAttempts        = 100
)

const (
	opReframe    = "reframe"
	opAnswer     = "answer"
	opSynthesize = "synthesize"
	opRefine     = "refine"
)

const (
	reframeSystemPrompt = "You rewrite user questions to be clearer and more specific " +
		"without changing their meaning. Respond with the rewritten question only."
	answerSystemPrompt = "You are a helpful assistant. Answer the question concisely. " +
		"If you do not know the answer, say so plainly."
	synthesizeSystemPrompt = "You are a helpful assistant. Answer the question using only " +
		"the provided context. If the context is not enough to answer, say so plainly."
	refineSystemPrompt = "You are a helpful assistant. Given the user's question and the " +
		"system answer, rewrite the answer to be more natural, friendly, and informative " +
		"without changing the meaning."
)

var (
	errEmptyQuestion   = errors.New("question is required")
	errEmptyAnswer     = errors.New("answer is required")
	errNoSnippets      = errors.New("at least one snippet is required")
	errEmptyCompletion = errors.New("model returned an empty completion")
)

// NewGenerative wraps a client with prompt templates and retry handling.
// A nil config selects the defaults.
func NewGenerative(client Client, cfg *GenerativeConfig) (*Generative, error) {
	if client == nil {
		return nil, errors.New("llm: client is required")
	}
	if cfg == nil {
		cfg = &GenerativeConfig{}
	}
	g := &Generative{
		client:           client,
		temperature:      cfg.Temperature,
		maxTokens:        defaultMaxTokens,
		timeout:          cfg.Timeout,
		retryAttempts:    cfg.RetryAttempts,
		retryBackoffBase: cfg.RetryBackoffBase,
		retryBackoffMax:  cfg.RetryBackoffMax,
	}
	if cfg.MaxTokens > 0 && cfg.MaxTokens <= 1<<20 {
		g.maxTokens = int32(cfg.MaxTokens) // #nosec G115 -- bounded above
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.retryAttempts <= 0 || g.retryAttempts > maxRetryAttempts {
		g.retryAttempts = defaultRetryAttempts
	}
	if g.retryBackoffBase <= 0 {
		g.retryBackoffBase = defaultRetryBackoffBase
	}
	if g.retryBackoffMax <= 0 {
		g.retryBackoffMax = defaultRetryBackoffMax
	}
	return g, nil
}

// Reframe rewrites the question into a clearer single-line form.
func (g *Generative) Reframe(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("llm %s: %w", opReframe, errEmptyQuestion)
	}
	response, err := g.invoke(ctx, opReframe, g.newRequest(reframeSystemPrompt, question))
	if err != nil {
		return "", err
	}
	reframed := firstLine(response.Content)
	if reframed == "" {
		return "", fmt.Errorf("llm %s: %w", opReframe, errEmptyCompletion)
	}
	return reframed, nil
}

// Answer produces a direct answer to the question.
func (g *Generative) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("llm %s: %w", opAnswer, errEmptyQuestion)
	}
	response, err := g.invoke(ctx, opAnswer, g.newRequest(answerSystemPrompt, question))
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(response.Content)
	if answer == "" {
		return "", fmt.Errorf("llm %s: %w", opAnswer, errEmptyCompletion)
	}
	return answer, nil
}

// Synthesize answers the question from the retrieved snippets.
func (g *Generative) Synthesize(ctx context.Context, question string, snippets []Snippet) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("llm %s: %w", opSynthesize, errEmptyQuestion)
	}
	if len(snippets) == 0 {
		return "", fmt.Errorf("llm %s: %w", opSynthesize, errNoSnippets)
	}
	var contextBlock strings.Builder
	for _, snippet := range snippets {
		source := snippet.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&contextBlock, "- (%s) %s\n", source, snippet.Text)
	}
	content := fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock.String(), question)
	response, err := g.invoke(ctx, opSynthesize, g.newRequest(synthesizeSystemPrompt, content))
	if err != nil {
		return "", err
	}
	answer := strings.TrimSpace(response.Content)
	if answer == "" {
		return "", fmt.Errorf("llm %s: %w", opSynthesize, errEmptyCompletion)
	}
	return answer, nil
}

// Refine polishes an answer while preserving its meaning.
func (g *Generative) Refine(ctx context.Context, question, answer string) (string, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" {
		return "", fmt.Errorf("llm %s: %w", opRefine, errEmptyQuestion)
	}
	if answer == "" {
		return "", fmt.Errorf("llm %s: %w", opRefine, errEmptyAnswer)
	}
	content := fmt.Sprintf("Question: %s\nAnswer: %s\n\nImproved Answer:", question, answer)
	response, err := g.invoke(ctx, opRefine, g.newRequest(refineSystemPrompt, content))
	if err != nil {
		return "", err
	}
	refined := strings.TrimSpace(response.Content)
	if refined == "" {
		return "", fmt.Errorf("llm %s: %w", opRefine, errEmptyCompletion)
	}
	return refined, nil
}

// Close releases the underlying client.
func (g *Generative) Close() error {
	return g.client.Close()
}

func (g *Generative) newRequest(systemPrompt, userContent string) *Request {
	return &Request{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: userContent}},
		Options: CallOptions{
			Temperature: g.temperature,
			MaxTokens:   g.maxTokens,
		},
	}
}

func (g *Generative) invoke(ctx context.Context, operation string, req *Request) (*Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	exponential := retry.NewExponential(g.retryBackoffBase)
	exponential = retry.WithMaxDuration(g.retryBackoffMax, exponential)
	backoff := retry.WithMaxRetries(
		uint64(g.retryAttempts), // #nosec G115 -- attempts sanitized in the constructor
		retry.WithJitter(retryJitterAmount, exponential),
	)
	start := time.Now()
	var response *Response
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		response, callErr = g.client.GenerateContent(ctx, req)
		if callErr != nil {
			if isRetryable(ctx, callErr) {
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	recordCompletion(ctx, operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("llm %s failed: %w", operation, err)
	}
	return response, nil
}

// isRetryable treats everything except context cancellation as transient.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
