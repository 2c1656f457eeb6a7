package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel captures the converted request and returns a fixed response.
type fakeModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	response *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func textOf(t *testing.T, message llms.MessageContent) string {
	t.Helper()
	require.Len(t, message.Parts, 1)
	part, ok := message.Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

func TestLangChainAdapter_GenerateContent(t *testing.T) {
	t.Run("Should convert system prompt and user messages", func(t *testing.T) {
		model := &fakeModel{response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "hello"}},
		}}
		adapter := &LangChainAdapter{model: model}
		response, err := adapter.GenerateContent(context.Background(), &Request{
			SystemPrompt: "be brief",
			Messages:     []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", response.Content)
		require.Len(t, model.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
		assert.Equal(t, "be brief", textOf(t, model.messages[0]))
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
		assert.Equal(t, "hi", textOf(t, model.messages[1]))
	})
	t.Run("Should map assistant messages and default unknown roles to human", func(t *testing.T) {
		model := &fakeModel{response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "ok"}},
		}}
		adapter := &LangChainAdapter{model: model}
		_, err := adapter.GenerateContent(context.Background(), &Request{
			Messages: []Message{
				{Role: RoleAssistant, Content: "prior"},
				{Role: "mystery", Content: "next"},
			},
		})
		require.NoError(t, err)
		require.Len(t, model.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeAI, model.messages[0].Role)
		assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	})
	t.Run("Should apply temperature, max tokens and json mode", func(t *testing.T) {
		model := &fakeModel{response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "ok"}},
		}}
		adapter := &LangChainAdapter{model: model}
		_, err := adapter.GenerateContent(context.Background(), &Request{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
			Options:  CallOptions{Temperature: 0.4, MaxTokens: 128, UseJSONMode: true},
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.4, model.options.Temperature, 1e-9)
		assert.Equal(t, 128, model.options.MaxTokens)
		assert.True(t, model.options.JSONMode)
	})
	t.Run("Should fail on an empty choice list", func(t *testing.T) {
		model := &fakeModel{response: &llms.ContentResponse{}}
		adapter := &LangChainAdapter{model: model}
		_, err := adapter.GenerateContent(context.Background(), &Request{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response from LLM")
	})
	t.Run("Should wrap model errors", func(t *testing.T) {
		model := &fakeModel{err: errors.New("boom")}
		adapter := &LangChainAdapter{model: model}
		_, err := adapter.GenerateContent(context.Background(), &Request{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "langchain GenerateContent failed")
	})
}

func TestNewLangChainAdapter(t *testing.T) {
	t.Run("Should reject a nil config", func(t *testing.T) {
		_, err := NewLangChainAdapter(nil)
		require.Error(t, err)
	})
	t.Run("Should reject a missing provider", func(t *testing.T) {
		_, err := NewLangChainAdapter(&Config{Model: "gpt-4o-mini"})
		require.ErrorIs(t, err, errMissingLLMProvider)
	})
	t.Run("Should reject a missing model", func(t *testing.T) {
		_, err := NewLangChainAdapter(&Config{Provider: ProviderOpenAI})
		require.ErrorIs(t, err, errMissingLLMModel)
	})
	t.Run("Should reject an unsupported provider", func(t *testing.T) {
		_, err := NewLangChainAdapter(&Config{Provider: "groq", Model: "llama3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not supported")
	})
	t.Run("Should construct an ollama client", func(t *testing.T) {
		adapter, err := NewLangChainAdapter(&Config{
			Provider: ProviderOllama,
			Model:    "llama3",
			BaseURL:  "http://localhost:11434",
		})
		require.NoError(t, err)
		assert.NoError(t, adapter.Close())
	})
}
