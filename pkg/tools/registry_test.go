package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/loom/pkg/engine"
)

// fakeTool records its last invocation and returns canned values.
type fakeTool struct {
	name      string
	result    *engine.ToolResult
	err       error
	lastExec  engine.ExecContext
	lastInput map[string]any
}

func (f *fakeTool) Name() string                    { return f.name }
func (f *fakeTool) Description() string             { return "fake tool for registry tests" }
func (f *fakeTool) Schema() map[string]interface{}  { return BaseSchema(nil, nil) }
func (f *fakeTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	f.lastExec = exec
	f.lastInput = input
	return f.result, f.err
}

// capableTool additionally reports capability metadata.
type capableTool struct {
	fakeTool
	caps map[string]any
}

func (c *capableTool) Capabilities() map[string]any { return c.caps }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	tool := &fakeTool{name: "navigate_to_url"}
	require.NoError(t, r.Register(tool))

	got, ok := r.Get("navigate_to_url")
	assert.True(t, ok)
	assert.Same(t, tool, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeTool{name: "click_element"}))
	err := r.Register(&fakeTool{name: "click_element"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `tool "click_element" is already registered`)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()

	assert.Panics(t, func() {
		r.MustRegister(
			&fakeTool{name: "wait_for"},
			&fakeTool{name: "wait_for"},
		)
	})
}

func TestRegistryListKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		&fakeTool{name: "navigate_to_url"},
		&fakeTool{name: "read_page_content"},
		&fakeTool{name: "click_element"},
	)

	assert.Equal(t, []string{"navigate_to_url", "read_page_content", "click_element"}, r.Names())

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "navigate_to_url", list[0].Name())
	assert.Equal(t, "click_element", list[2].Name())
}

func TestRunToolDispatches(t *testing.T) {
	r := NewRegistry()
	tool := &fakeTool{
		name:   "read_page_content",
		result: &engine.ToolResult{OK: true, Observation: "page text"},
	}
	require.NoError(t, r.Register(tool))

	call := engine.Call{
		ToolID: "read_page_content",
		Exec:   engine.ExecContext{TabID: "tab-1"},
		Input:  map[string]any{"max_tokens": 500},
	}
	result, err := r.RunTool(context.Background(), call)
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, "page text", result.Observation)
	assert.Equal(t, "tab-1", tool.lastExec.TabID)
	assert.Equal(t, 500, tool.lastInput["max_tokens"])
}

func TestRunToolUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.RunTool(context.Background(), engine.Call{ToolID: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tool "nope"`)
}

func TestRunToolPropagatesErrors(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("selector not found")
	require.NoError(t, r.Register(&fakeTool{name: "click_element", err: boom}))

	_, err := r.RunTool(context.Background(), engine.Call{ToolID: "click_element"})
	assert.ErrorIs(t, err, boom)
}

func TestCapabilities(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		&capableTool{
			fakeTool: fakeTool{name: "navigate_to_url"},
			caps:     map[string]any{"category": "browser", "mutates_page": true},
		},
		&fakeTool{name: "plain"},
	)

	caps, ok := r.Capabilities("navigate_to_url")
	require.True(t, ok)
	assert.Equal(t, "browser", caps["category"])

	_, ok = r.Capabilities("plain")
	assert.False(t, ok, "tools without a reporter have no capability metadata")

	_, ok = r.Capabilities("missing")
	assert.False(t, ok)
}

func TestRegistrySatisfiesEngineContracts(t *testing.T) {
	var _ engine.ToolRunner = (*Registry)(nil)
	var _ engine.CapabilityProvider = (*Registry)(nil)
}
