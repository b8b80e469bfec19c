package tools

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"athena/internal/adapters/ai"
	"athena/internal/metrics"
	"athena/pkg/errors"
)

// Registry stores tools by name for discovery and lookup.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds or replaces a tool under its own name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the names of all registered tools, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Definitions returns chat tool definitions for the named tools.
// Unknown names are skipped so a catalog can reference optional tools.
func (r *Registry) Definitions(names ...string) []ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ai.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			continue
		}
		defs = append(defs, ai.ToolDefinition{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs
}

// Dispatch decodes a model tool call and runs the matching tool.
func (r *Registry) Dispatch(ctx context.Context, call ai.ToolCall) (string, error) {
	t, ok := r.Get(call.Function.Name)
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "tool %q is not registered", call.Function.Name)
	}

	args := map[string]interface{}{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return "", errors.Wrapf(errors.ErrInvalidInput, "tool %q arguments: %v", call.Function.Name, err)
		}
	}

	result, err := t.Call(ctx, args)
	metrics.RecordToolExecution(call.Function.Name, err)
	return result, err
}
