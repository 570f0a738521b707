package tools

import (
	"context"
)

// ReturnKind classifies what shape a tool's payload takes.
type ReturnKind string

const (
	ReturnMapping  ReturnKind = "mapping"
	ReturnSequence ReturnKind = "sequence"
	ReturnText     ReturnKind = "text"
)

// ParamType is the semantic type of a tool parameter, matching JSON
// Schema primitive names so schemas can be handed to a model unchanged.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamSpec declares one named tool parameter. A required parameter with
// no default rejects any invocation that omits it.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// Handler is the owned callable behind a tool. It receives the validated
// argument mapping and blocks its caller.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, described, schema-validated callable unit.
type Tool interface {
	Name() string
	Description() string
	Params() []ParamSpec
	ReturnKind() ReturnKind

	// SideEffecting marks tools whose execution may change external
	// state; the approval policy gates on it.
	SideEffecting() bool

	// Retryable marks handlers that are safe to repeat. Default false:
	// a failed invocation is surfaced, not silently retried.
	Retryable() bool

	Execute(ctx context.Context, args map[string]any) (any, error)
}

// BaseTool is the standard Tool implementation.
type BaseTool struct {
	name          string
	description   string
	params        []ParamSpec
	returnKind    ReturnKind
	sideEffecting bool
	retryable     bool
	handler       Handler
}

// Option configures a tool under construction.
type Option func(*BaseTool)

// WithParam appends a parameter declaration. Order is preserved.
func WithParam(spec ParamSpec) Option {
	return func(t *BaseTool) {
		t.params = append(t.params, spec)
	}
}

// WithReturnKind sets the payload shape. Default is mapping.
func WithReturnKind(kind ReturnKind) Option {
	return func(t *BaseTool) {
		t.returnKind = kind
	}
}

// WithSideEffect marks the tool as side-effecting.
func WithSideEffect() Option {
	return func(t *BaseTool) {
		t.sideEffecting = true
	}
}

// WithRetryable marks the handler as idempotent-safe to retry.
func WithRetryable() Option {
	return func(t *BaseTool) {
		t.retryable = true
	}
}

// New creates a tool from a name, a classifier-facing description and a
// handler.
func New(name, description string, handler Handler, opts ...Option) *BaseTool {
	t := &BaseTool{
		name:        name,
		description: description,
		returnKind:  ReturnMapping,
		handler:     handler,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *BaseTool) Name() string        { return t.name }
func (t *BaseTool) Description() string { return t.description }
func (t *BaseTool) ReturnKind() ReturnKind { return t.returnKind }
func (t *BaseTool) SideEffecting() bool { return t.sideEffecting }
func (t *BaseTool) Retryable() bool     { return t.retryable }

func (t *BaseTool) Params() []ParamSpec {
	return append([]ParamSpec(nil), t.params...)
}

func (t *BaseTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return t.handler(ctx, args)
}

// SchemaObject renders the parameter declarations as a JSON Schema
// object suitable for a model's tool menu.
func SchemaObject(t Tool) map[string]any {
	properties := make(map[string]any)
	var required []string
	for _, p := range t.Params() {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required && p.Default == nil {
			required = append(required, p.Name)
		}
	}
	obj := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		obj["required"] = required
	}
	return obj
}
