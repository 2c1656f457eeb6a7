package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies a generative model backend.
type Provider string

const (
	// ProviderOpenAI talks to the OpenAI chat completions API.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic talks to the Anthropic messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderOllama talks to a local or remote Ollama server.
	ProviderOllama Provider = "ollama"
)

// Config describes how to reach a generative model provider.
type Config struct {
	Provider Provider
	Model    string
	// APIKey authenticates against the provider. When empty the provider
	// SDK falls back to its environment variable.
	APIKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

var (
	errMissingLLMProvider = errors.New("llm provider is required")
	errMissingLLMModel    = errors.New("llm model is required")
)

func validateClientConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("llm config is required")
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return errMissingLLMProvider
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return errMissingLLMModel
	}
	return nil
}

// newProviderModel creates a langchaingo model for the configured provider.
func newProviderModel(cfg *Config) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIModel(cfg)
	case ProviderAnthropic:
		return newAnthropicModel(cfg)
	case ProviderOllama:
		return newOllamaModel(cfg)
	default:
		return nil, fmt.Errorf("llm provider %q is not supported", cfg.Provider)
	}
}

func newOpenAIModel(cfg *Config) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

func newAnthropicModel(cfg *Config) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		opts = append(opts, anthropic.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return anthropic.New(opts...)
}

func newOllamaModel(cfg *Config) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	return ollama.New(opts...)
}
