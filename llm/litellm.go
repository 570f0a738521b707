package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/voocel/litellm"

	"github.com/relaykit/relay/schema"
)

// LiteLLMClient implements Client on top of the litellm multi-provider
// library. The provider is picked from the model name prefix.
type LiteLLMClient struct {
	client *litellm.Client
	config Config
}

// NewLiteLLMClient creates a litellm-backed client.
func NewLiteLLMClient(config Config) (*LiteLLMClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	var opt litellm.ClientOption
	switch {
	case isAnthropicModel(config.Model):
		if config.BaseURL != "" {
			opt = litellm.WithAnthropic(config.APIKey, config.BaseURL)
		} else {
			opt = litellm.WithAnthropic(config.APIKey)
		}
	case isGeminiModel(config.Model):
		if config.BaseURL != "" {
			opt = litellm.WithGemini(config.APIKey, config.BaseURL)
		} else {
			opt = litellm.WithGemini(config.APIKey)
		}
	default:
		// OpenAI and OpenAI-compatible endpoints.
		if config.BaseURL != "" {
			opt = litellm.WithOpenAI(config.APIKey, config.BaseURL)
		} else {
			opt = litellm.WithOpenAI(config.APIKey)
		}
	}

	client := litellm.New(opt, litellm.WithDefaults(config.MaxTokens, config.Temperature))

	return &LiteLLMClient{client: client, config: config}, nil
}

// Complete sends a completion request. Transport failures surface as
// retryable classifier errors.
func (c *LiteLLMClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	litellmReq := &litellm.Request{
		Model:    c.config.Model,
		Messages: toLiteLLMMessages(req.Messages),
	}
	if req.Temperature != 0 {
		litellmReq.Temperature = litellm.Float64Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		litellmReq.MaxTokens = litellm.IntPtr(req.MaxTokens)
	}
	resp, err := c.client.Complete(ctx, litellmReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrClassifierUnavailable, err)
	}

	return &Response{
		Content: resp.Content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
		},
	}, nil
}

// Model returns the configured model name.
func (c *LiteLLMClient) Model() string {
	return c.config.Model
}

func toLiteLLMMessages(messages []schema.Message) []litellm.Message {
	out := make([]litellm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, litellm.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(model, "claude")
}

func isGeminiModel(model string) bool {
	return strings.HasPrefix(model, "gemini")
}
