package tools

import (
	"context"

	"athena/pkg/errors"
)

// Tool represents a callable data capability exposed to agents.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Parameters returns the JSON schema for the tool's arguments.
	Parameters() map[string]interface{}
	// Call performs the tool's action using the decoded arguments.
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (string, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, parameters map[string]interface{}, handler HandlerFunc) Tool {
	if parameters == nil {
		parameters = ObjectSchema(nil, nil)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the argument schema.
func (t *FunctionTool) Parameters() map[string]interface{} { return t.parameters }

// Call runs the underlying handler.
func (t *FunctionTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.handler == nil {
		return "", errors.New("tool handler is not defined")
	}
	return t.handler(ctx, args)
}

// ObjectSchema builds a JSON schema for an object with the given
// properties and required field names.
func ObjectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty builds a schema fragment for a string argument.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// IntProperty builds a schema fragment for an integer argument.
func IntProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// StringArg reads a string argument with a fallback default.
func StringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// IntArg reads an integer argument with a fallback default. JSON numbers
// decode as float64, so both forms are accepted.
func IntArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
