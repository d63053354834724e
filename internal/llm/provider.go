package llm

import (
	"context"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates chat completions for the request
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Message is one turn of a chat exchange
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// CompletionRequest contains the input for a model call
type CompletionRequest struct {
	// System is the system prompt framing the task
	System string

	// Examples are few-shot user/assistant message pairs sent before the prompt
	Examples []Message

	// Prompt is the user message for the current row
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// N is how many completions to generate at once; the caller uses the
	// first one that parses. Providers that cannot batch return one.
	N int

	// TopP is the nucleus sampling parameter
	TopP float32

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// JSONOnly asks the provider to constrain output to a JSON object
	// where the API supports it
	JSONOnly bool
}

// Usage tracks token consumption for cost accounting
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionResponse contains the model's output
type CompletionResponse struct {
	// Contents holds one string per generated completion
	Contents []string

	// Model is the model that generated the response
	Model string

	// Usage is the token consumption reported by the API
	Usage Usage
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Timeout:  60,
	}
}
