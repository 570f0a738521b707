package tools

import (
	"sync/atomic"

	"github.com/relaykit/relay/schema"
)

// Registry is the process-wide tool catalog. Registration happens during
// a single-threaded bootstrap phase; Freeze seals the registry before
// any agent runs, after which reads are safe from any goroutine.
type Registry struct {
	tools  map[string]Tool
	order  []string
	frozen atomic.Bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool, preserving insertion order.
func (r *Registry) Register(tool Tool) error {
	if r.frozen.Load() {
		return schema.NewToolError(tool.Name(), "register", schema.ErrRegistryFrozen)
	}
	name := tool.Name()
	if name == "" {
		return schema.NewValidationError("tool.name", name, schema.ErrUnknownTool, "tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return schema.NewToolError(name, "register", schema.ErrDuplicateTool)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers or panics. Bootstrap-phase convenience; a
// wiring error at startup aborts the process.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	tool, exists := r.tools[name]
	if !exists {
		return nil, schema.NewToolError(name, "get", schema.ErrUnknownTool)
	}
	return tool, nil
}

// Has reports whether a tool exists.
func (r *Registry) Has(name string) bool {
	_, exists := r.tools[name]
	return exists
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	list := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name])
	}
	return list
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.tools)
}

// Subset resolves names against the registry, in the given order.
func (r *Registry) Subset(names []string) ([]Tool, error) {
	subset := make([]Tool, 0, len(names))
	for _, name := range names {
		tool, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		subset = append(subset, tool)
	}
	return subset, nil
}

// Freeze seals the registry. Subsequent Register calls fail.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether the registry is sealed.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}
