package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaykit/relay/schema"
)

// ToolDescriptor is one entry in the classifier's tool menu.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// Selection is the classifier's parsed decision: zero or one tool plus
// an argument mapping. An empty ToolName means the model answered the
// task directly; Answer then carries the reply.
type Selection struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Answer    string         `json:"answer"`
}

// Classifier turns a task plus a tool menu into a Selection. The model
// output is untrusted input: anything that does not parse into the
// expected shape is a malformed-output error, which the caller may
// retry.
type Classifier struct {
	client      Client
	temperature float64
}

// NewClassifier creates a classifier over a shared client.
func NewClassifier(client Client) *Classifier {
	return &Classifier{client: client}
}

// Classify asks the model to pick zero or one tool for the task.
// transcript carries prior steps of a chained execution, oldest first.
func (c *Classifier) Classify(ctx context.Context, task string, menu []ToolDescriptor, transcript []schema.Message) (*Selection, error) {
	messages := make([]schema.Message, 0, len(transcript)+2)
	messages = append(messages, schema.Message{
		Role:    schema.RoleSystem,
		Content: c.buildPrompt(menu),
	})
	messages = append(messages, transcript...)
	messages = append(messages, schema.Message{Role: schema.RoleUser, Content: task})

	resp, err := c.client.Complete(ctx, &Request{
		Messages:    messages,
		Temperature: c.temperature,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, err
	}

	return parseSelection(resp.Content)
}

func (c *Classifier) buildPrompt(menu []ToolDescriptor) string {
	var sb strings.Builder
	sb.WriteString("You route tasks to tools. Available tools:\n")
	for _, t := range menu {
		schemaJSON, _ := json.Marshal(t.Schema)
		sb.WriteString(fmt.Sprintf("- %s: %s\n  parameters: %s\n", t.Name, t.Description, schemaJSON))
	}
	sb.WriteString("\nRespond with exactly one JSON object and nothing else:\n")
	sb.WriteString(`{"tool_name": "<name or empty string>", "arguments": {<argument mapping>}, "answer": "<direct answer when no tool is needed>"}`)
	return sb.String()
}

// parseSelection defensively parses model output. Models wrap JSON in
// code fences or prose often enough that the first balanced object is
// extracted before unmarshalling.
func parseSelection(content string) (*Selection, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in %q", schema.ErrClassifierMalformed, truncate(content, 120))
	}

	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrClassifierMalformed, err)
	}
	if sel.Arguments == nil {
		sel.Arguments = make(map[string]any)
	}
	return &sel, nil
}

// extractJSONObject returns the first balanced top-level JSON object.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
