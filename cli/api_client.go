package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/engine/ingest"
	"github.com/verdicthq/verdict/engine/orchestrator"
	"github.com/verdicthq/verdict/pkg/config"
)

const (
	defaultClientTimeout = 60 * time.Second
	clientRetryCount     = 2
	clientRetryWait      = 100 * time.Millisecond
	clientRetryMaxWait   = 2 * time.Second
)

// APIClient talks to a running verdict server.
type APIClient struct {
	client *resty.Client
}

// APIError is the problem document returned by the server.
type APIError struct {
	Status  int    `json:"status"`
	Title   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Details)
	}
	return e.Title
}

// NewAPIClient builds a client against the configured server address.
func NewAPIClient(cfg *config.Config) (*APIClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	baseURL := cfg.CLI.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	timeout := cfg.CLI.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(clientRetryCount).
		SetRetryWaitTime(clientRetryWait).
		SetRetryMaxWaitTime(clientRetryMaxWait)
	if cfg.Runtime.LogLevel == "debug" {
		client.SetDebug(true)
	}
	return &APIClient{client: client}, nil
}

// Ask submits a question and returns the response envelope.
func (c *APIClient) Ask(ctx context.Context, question string, refine bool) (*answer.Envelope, error) {
	var env answer.Envelope
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"question": question, "refine": refine}).
		SetResult(&env).
		SetError(&APIError{}).
		Post("/questions")
	if err != nil {
		return nil, fmt.Errorf("ask request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &env, nil
}

// Ingest asks the server to ingest a directory of documents.
func (c *APIClient) Ingest(ctx context.Context, path string) (*ingest.Result, error) {
	var result ingest.Result
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"path": path}).
		SetResult(&result).
		SetError(&APIError{}).
		Post("/ingest")
	if err != nil {
		return nil, fmt.Errorf("ingest request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &result, nil
}

// Routes fetches the exact-match route table.
func (c *APIClient) Routes(ctx context.Context) ([]orchestrator.Route, error) {
	var result struct {
		Routes []orchestrator.Route `json:"routes"`
		Count  int                  `json:"count"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&APIError{}).
		Get("/routes")
	if err != nil {
		return nil, fmt.Errorf("routes request failed: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return result.Routes, nil
}

func responseError(resp *resty.Response) error {
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Title != "" {
		return apiErr
	}
	return fmt.Errorf("API error: %s (status %d)", resp.String(), resp.StatusCode())
}
