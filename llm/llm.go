package llm

import (
	"context"

	"github.com/relaykit/relay/schema"
)

// Client is the provider-agnostic chat interface the rest of the system
// depends on. One shared instance is safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Model() string
}

// Request encapsulates a single completion request.
type Request struct {
	Messages    []schema.Message `json:"messages"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`

	// JSONOnly asks for a bare JSON object reply. Providers without a
	// native response-format knob rely on the prompt contract, so the
	// caller still parses defensively.
	JSONOnly bool `json:"-"`
}

// Response encapsulates model output.
type Response struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// TokenUsage statistics.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config configures a provider-backed client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}
