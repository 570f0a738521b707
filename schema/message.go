package schema

import "time"

// Role defines message roles in an agent transcript.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one entry in the per-execution transcript.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	ToolName  string         `json:"tool_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToolCall is a classifier-selected invocation request. Args carries the
// raw argument mapping exactly as the model produced it; validation
// happens at the tool boundary, never here.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Clone deep-copies the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		Role:      m.Role,
		Content:   m.Content,
		ToolName:  m.ToolName,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// SetMetadata sets a metadata entry, allocating the map on first use.
func (m *Message) SetMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}
