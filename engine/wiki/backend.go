package wiki

import (
	"context"
	"fmt"

	"github.com/verdicthq/verdict/engine/answer"
)

// BackendID identifies the Wikipedia backend in envelopes and registrations.
const BackendID = "wikipedia"

const (
	emptyResultConfidence = 0.1
	noArticleAnswer       = "No relevant Wikipedia article found."
	sourceLabel           = "Wikipedia"
)

// Backend surfaces Wikipedia summaries as answer envelopes. It is registered
// only when explicitly enabled.
type Backend struct {
	searcher   *Searcher
	confidence float64
}

// NewBackend wraps a searcher at the confidence reported for found articles.
func NewBackend(searcher *Searcher, confidence float64) (*Backend, error) {
	if searcher == nil {
		return nil, fmt.Errorf("wiki: searcher is required")
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("wiki: confidence %v is outside [0,1]", confidence)
	}
	return &Backend{searcher: searcher, confidence: confidence}, nil
}

func (b *Backend) ID() string {
	return BackendID
}

// Query never returns an error: a failed or empty lookup degrades to the
// low-confidence empty-result envelope.
func (b *Backend) Query(ctx context.Context, question string, _ *answer.QueryContext) (env answer.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			env = answer.NewError(
				fmt.Sprintf("wikipedia lookup failed: %v", r),
				answer.TextSource("System"),
				BackendID,
			)
			err = nil
		}
	}()
	summary := b.searcher.SearchAndSummarize(ctx, question)
	if summary == "" {
		return answer.New(noArticleAnswer, emptyResultConfidence, answer.TextSource(sourceLabel), BackendID), nil
	}
	return answer.New(summary, b.confidence, answer.TextSource(sourceLabel), BackendID), nil
}
