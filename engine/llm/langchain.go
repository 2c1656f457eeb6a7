package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// LangChainAdapter adapts langchaingo models to the Client interface.
type LangChainAdapter struct {
	model llms.Model
}

// NewLangChainAdapter creates a client for the configured provider.
func NewLangChainAdapter(cfg *Config) (*LangChainAdapter, error) {
	if err := validateClientConfig(cfg); err != nil {
		return nil, err
	}
	model, err := newProviderModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm model: %w", err)
	}
	return &LangChainAdapter{model: model}, nil
}

// GenerateContent implements the Client interface.
func (a *LangChainAdapter) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	messages := a.convertMessages(req)
	options := a.buildCallOptions(req)
	response, err := a.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return nil, fmt.Errorf("langchain GenerateContent failed: %w", err)
	}
	return a.convertResponse(response)
}

// Close implements the Client interface. Langchaingo models hold no
// resources that need releasing.
func (a *LangChainAdapter) Close() error {
	return nil
}

func (a *LangChainAdapter) convertMessages(req *Request) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(a.mapMessageRole(msg.Role), msg.Content))
	}
	return messages
}

func (a *LangChainAdapter) mapMessageRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleUser:
		return llms.ChatMessageTypeHuman
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (a *LangChainAdapter) buildCallOptions(req *Request) []llms.CallOption {
	var options []llms.CallOption
	if req.Options.Temperature > 0 {
		options = append(options, llms.WithTemperature(req.Options.Temperature))
	}
	if req.Options.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(int(req.Options.MaxTokens)))
	}
	if req.Options.UseJSONMode {
		options = append(options, llms.WithJSONMode())
	}
	return options
}

func (a *LangChainAdapter) convertResponse(resp *llms.ContentResponse) (*Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from LLM")
	}
	return &Response{Content: resp.Choices[0].Content}, nil
}
