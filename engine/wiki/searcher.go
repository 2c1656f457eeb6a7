package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/slok/goresilience"
	"github.com/slok/goresilience/circuitbreaker"
	gerrors "github.com/slok/goresilience/errors"
	gretry "github.com/slok/goresilience/retry"
	"github.com/slok/goresilience/timeout"

	"github.com/verdicthq/verdict/engine/infra/cache"
	"github.com/verdicthq/verdict/pkg/config"
	"github.com/verdicthq/verdict/pkg/logger"
)

const (
	defaultBaseURL    = "https://en.wikipedia.org"
	defaultTimeout    = 10 * time.Second
	defaultMaxResults = 3
	defaultCacheTTL   = time.Hour
	opensearchPath    = "/w/api.php"
	summaryPathFormat = "/api/rest_v1/page/summary/%s"
	summarySentences  = 2
	cacheKeyPrefix    = "wiki:"
)

// ResilienceConfig bounds the outbound Wikipedia calls.
type ResilienceConfig struct {
	Timeout                     time.Duration
	ErrorPercentThresholdToOpen int
	MinimumRequestToOpen        int
	WaitDurationInOpenState     time.Duration
	RetryTimes                  int
	RetryWaitBase               time.Duration
}

// DefaultResilienceConfig returns the production defaults.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Timeout:                     defaultTimeout,
		ErrorPercentThresholdToOpen: 50,
		MinimumRequestToOpen:        10,
		WaitDurationInOpenState:     5 * time.Second,
		RetryTimes:                  2,
		RetryWaitBase:               100 * time.Millisecond,
	}
}

// Searcher looks up the best-matching Wikipedia article for a query and
// returns a formatted summary. Lookups never fail loudly: any error or empty
// result collapses to an empty string, matching how callers treat Wikipedia
// as a best-effort source.
type Searcher struct {
	client *resty.Client
	runner goresilience.Runner
	cache  cache.Cache
	ttl    time.Duration
	limit  int
}

// Option customizes searcher construction.
type Option func(*Searcher) error

// WithCache stores found summaries keyed by query.
func WithCache(store cache.Cache) Option {
	return func(s *Searcher) error {
		s.cache = store
		return nil
	}
}

// WithResilience replaces the default timeout, circuit breaker and retry
// settings.
func WithResilience(rc ResilienceConfig) Option {
	return func(s *Searcher) error {
		if rc.Timeout <= 0 {
			return fmt.Errorf("wiki: resilience timeout must be positive")
		}
		s.runner = buildRunner(rc)
		return nil
	}
}

// NewSearcher builds a searcher from the Wikipedia configuration. Zero config
// values fall back to the defaults.
func NewSearcher(cfg *config.WikipediaConfig, opts ...Option) (*Searcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("wiki: config is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpTimeout := cfg.Timeout
	if httpTimeout <= 0 {
		httpTimeout = defaultTimeout
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(httpTimeout).
		SetHeader("Accept", "application/json")
	resilience := DefaultResilienceConfig()
	resilience.Timeout = httpTimeout
	searcher := &Searcher{
		client: client,
		runner: buildRunner(resilience),
		ttl:    ttl,
		limit:  limit,
	}
	for _, opt := range opts {
		if err := opt(searcher); err != nil {
			return nil, err
		}
	}
	return searcher, nil
}

// buildRunner chains timeout, circuit breaker and retry middleware. Timeouts
// are enforced first so a stalled call cannot hold the breaker window open.
func buildRunner(rc ResilienceConfig) goresilience.Runner {
	timeoutMiddleware := timeout.NewMiddleware(timeout.Config{
		Timeout: rc.Timeout,
	})
	breakerMiddleware := circuitbreaker.NewMiddleware(circuitbreaker.Config{
		ErrorPercentThresholdToOpen:        rc.ErrorPercentThresholdToOpen,
		MinimumRequestToOpen:               rc.MinimumRequestToOpen,
		SuccessfulRequiredOnHalfOpen:       1,
		WaitDurationInOpenState:            rc.WaitDurationInOpenState,
		MetricsSlidingWindowBucketQuantity: 10,
		MetricsBucketDuration:              time.Second,
	})
	retryMiddleware := gretry.NewMiddleware(gretry.Config{
		Times:    rc.RetryTimes,
		WaitBase: rc.RetryWaitBase,
	})
	return goresilience.RunnerChain(timeoutMiddleware, breakerMiddleware, retryMiddleware)
}

// SearchAndSummarize returns `**Wikipedia - <title>**\n\n<summary>` for the
// best open-search hit, or an empty string when nothing was found or any
// call failed.
func (s *Searcher) SearchAndSummarize(ctx context.Context, query string) string {
	log := logger.FromContext(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	start := time.Now()
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKeyPrefix+query); err == nil {
			recordLookup(ctx, outcomeCacheHit, time.Since(start))
			return cached
		}
	}
	var formatted string
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		title, err := s.firstSearchHit(ctx, query)
		if err != nil {
			return err
		}
		if title == "" {
			return nil
		}
		summary, err := s.pageSummary(ctx, title)
		if err != nil {
			return err
		}
		if summary == "" {
			return nil
		}
		formatted = fmt.Sprintf("**Wikipedia - %s**\n\n%s", title, summary)
		return nil
	})
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, gerrors.ErrCircuitOpen) {
			outcome = outcomeCircuitOpen
			log.Warn("Wikipedia circuit open, skipping lookup", "query", query)
		} else {
			log.Warn("Wikipedia lookup failed", "query", query, "error", err)
		}
		recordLookup(ctx, outcome, time.Since(start))
		return ""
	}
	if formatted == "" {
		recordLookup(ctx, outcomeEmpty, time.Since(start))
		return ""
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+query, formatted, s.ttl); err != nil {
			log.Debug("Failed to cache Wikipedia summary", "query", query, "error", err)
		}
	}
	recordLookup(ctx, outcomeFound, time.Since(start))
	return formatted
}

// firstSearchHit asks the MediaWiki open-search endpoint for the top article
// title. An empty title means no results, not an error.
func (s *Searcher) firstSearchHit(ctx context.Context, query string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":    "opensearch",
			"search":    query,
			"limit":     strconv.Itoa(s.limit),
			"namespace": "0",
			"format":    "json",
		}).
		Get(opensearchPath)
	if err != nil {
		return "", fmt.Errorf("wiki: opensearch %q: %w", query, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("wiki: opensearch %q: status %d", query, resp.StatusCode())
	}
	// The open-search payload is a positional array:
	// [query, [titles...], [descriptions...], [urls...]].
	var payload []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("wiki: decode opensearch response: %w", err)
	}
	if len(payload) < 2 {
		return "", nil
	}
	var titles []string
	if err := json.Unmarshal(payload[1], &titles); err != nil {
		return "", fmt.Errorf("wiki: decode opensearch titles: %w", err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}

type pageSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (s *Searcher) pageSummary(ctx context.Context, title string) (string, error) {
	var summary pageSummary
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&summary).
		Get(fmt.Sprintf(summaryPathFormat, url.PathEscape(title)))
	if err != nil {
		return "", fmt.Errorf("wiki: summary %q: %w", title, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("wiki: summary %q: status %d", title, resp.StatusCode())
	}
	return leadSentences(strings.TrimSpace(summary.Extract), summarySentences), nil
}

// leadSentences clamps text to its first n sentences. Text without sentence
// boundaries passes through whole.
func leadSentences(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\n' {
			continue
		}
		count++
		if count == n {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}
	return text
}
