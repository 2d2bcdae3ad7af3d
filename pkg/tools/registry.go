package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/weavehq/loom/pkg/engine"
)

// Registry holds the tools available to graph runs and routes engine tool
// calls to them. It implements engine.ToolRunner and
// engine.CapabilityProvider.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry. Tool names must be unique.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}

	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds tools and panics on duplicates. Intended for wiring the
// built-in tool set at startup, where a duplicate is a programming error.
func (r *Registry) MustRegister(toolList ...Tool) {
	for _, tool := range toolList {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RunTool implements engine.ToolRunner by dispatching the call to the
// registered tool.
func (r *Registry) RunTool(ctx context.Context, call engine.Call) (*engine.ToolResult, error) {
	tool, ok := r.Get(call.ToolID)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.ToolID)
	}
	return tool.Execute(ctx, call.Exec, call.Input)
}

// Capabilities implements engine.CapabilityProvider. Tools that do not
// report capabilities yield no metadata.
func (r *Registry) Capabilities(toolID string) (map[string]any, bool) {
	tool, ok := r.Get(toolID)
	if !ok {
		return nil, false
	}

	reporter, ok := tool.(CapabilityReporter)
	if !ok {
		return nil, false
	}
	return reporter.Capabilities(), true
}
