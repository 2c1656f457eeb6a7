package llm

import "context"

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request represents a generative request, independent of provider.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Options      CallOptions
}

// Message represents a conversation message.
type Message struct {
	Role    string
	Content string
}

// CallOptions represents options for the model call.
type CallOptions struct {
	Temperature float64
	MaxTokens   int32
	UseJSONMode bool
}

// Response represents the model completion.
type Response struct {
	Content string
}

// Client is the main interface for generative model interactions.
type Client interface {
	// GenerateContent sends a request to the model and returns a response
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
	// Close cleans up any resources held by the client
	Close() error
}
