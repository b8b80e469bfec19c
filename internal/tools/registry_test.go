package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/adapters/ai"
	"athena/pkg/errors"
)

func echoTool(name string) Tool {
	return New(name, "echoes its input",
		ObjectSchema(map[string]interface{}{"text": StringProperty("text to echo")}, []string{"text"}),
		func(ctx context.Context, args map[string]interface{}) (string, error) {
			return StringArg(args, "text", ""), nil
		})
}

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("b_tool"))
	r.Register(echoTool("a_tool"))

	assert.Equal(t, []string{"a_tool", "b_tool"}, r.List())

	_, ok := r.Get("a_tool")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_DefinitionsKeepOrderAndSkipUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("alpha"))
	r.Register(echoTool("beta"))

	defs := r.Definitions("beta", "missing", "alpha")

	require.Len(t, defs, 2)
	assert.Equal(t, "beta", defs[0].Function.Name)
	assert.Equal(t, "alpha", defs[1].Function.Name)
	assert.Equal(t, "function", defs[0].Type)
	assert.NotNil(t, defs[0].Function.Parameters)
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))

	out, err := r.Dispatch(context.Background(), ai.ToolCall{
		Function: ai.FunctionCall{Name: "echo", Arguments: `{"text":"hello"}`},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Dispatch(context.Background(), ai.ToolCall{
		Function: ai.FunctionCall{Name: "nope", Arguments: "{}"},
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistry_DispatchBadArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool("echo"))

	_, err := r.Dispatch(context.Background(), ai.ToolCall{
		Function: ai.FunctionCall{Name: "echo", Arguments: "{not json"},
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"s": "value",
		"f": float64(7),
		"i": 3,
	}

	assert.Equal(t, "value", StringArg(args, "s", "d"))
	assert.Equal(t, "d", StringArg(args, "missing", "d"))
	assert.Equal(t, 7, IntArg(args, "f", 0))
	assert.Equal(t, 3, IntArg(args, "i", 0))
	assert.Equal(t, 9, IntArg(args, "missing", 9))
}
