package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph_ValidGraph(t *testing.T) {
	specs := []NodeSpec{
		{ID: "open", Kind: "tool", ToolID: "navigate_to_url", Input: map[string]any{"url": "https://example.com"}},
		{ID: "read", Kind: "tool", ToolID: "read_page_content", DependsOn: []string{"open"}},
		{ID: "pause", Kind: "delay", DelayMs: 250, DependsOn: []string{"open"}},
		{ID: "join", DependsOn: []string{"read", "pause"}},
	}

	g, err := NewGraph(specs, Meta{Goal: "read the example homepage"})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID())
	assert.Equal(t, 4, g.Len())
	assert.Empty(t, g.Warnings())
	assert.Equal(t, "read the example homepage", g.Meta().Goal)
	assert.False(t, g.Meta().CreatedAt.IsZero())

	require.NotNil(t, g.Node("pause"))
	assert.Equal(t, KindDelay, g.Node("pause").Kind)
	assert.Equal(t, 250*time.Millisecond, g.Node("pause").Delay)

	// Omitted kind defaults to noop.
	assert.Equal(t, KindNoop, g.Node("join").Kind)

	assert.Equal(t, 0, g.inDegree["open"])
	assert.Equal(t, 1, g.inDegree["read"])
	assert.Equal(t, 2, g.inDegree["join"])
}

func TestNewGraph_RejectsMissingID(t *testing.T) {
	_, err := NewGraph([]NodeSpec{{Kind: "noop"}}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no id")
}

func TestNewGraph_RejectsDuplicateID(t *testing.T) {
	_, err := NewGraph([]NodeSpec{{ID: "a"}, {ID: "a"}}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate node id "a"`)
}

func TestNewGraph_RejectsDanglingDependency(t *testing.T) {
	_, err := NewGraph([]NodeSpec{
		{ID: "a"},
		{ID: "b", DependsOn: []string{"ghost"}},
	}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `depends on unknown node "ghost"`)
}

func TestNewGraph_RejectsCycle(t *testing.T) {
	_, err := NewGraph([]NodeSpec{
		{ID: "a", DependsOn: []string{"c"}},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"b"}},
	}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestNewGraph_RejectsSelfDependency(t *testing.T) {
	_, err := NewGraph([]NodeSpec{{ID: "a", DependsOn: []string{"a"}}}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestNewGraph_RejectsToolWithoutToolID(t *testing.T) {
	_, err := NewGraph([]NodeSpec{{ID: "a", Kind: "tool"}}, Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no toolId")
}

func TestNewGraph_RejectsEmptySpecList(t *testing.T) {
	_, err := NewGraph(nil, Meta{})
	require.Error(t, err)
}

func TestNewGraph_NormalizesUnknownKind(t *testing.T) {
	g, err := NewGraph([]NodeSpec{{ID: "a", Kind: "teleport"}}, Meta{})
	require.NoError(t, err)

	assert.Equal(t, KindNoop, g.Node("a").Kind)
	require.Len(t, g.Warnings(), 1)
	assert.Contains(t, g.Warnings()[0], `unknown kind "teleport"`)
}

func TestNewGraph_NormalizesRetryPolicy(t *testing.T) {
	g, err := NewGraph([]NodeSpec{
		{ID: "floored", Kind: "tool", ToolID: "x", RetryPolicy: &RetryPolicySpec{MaxAttempts: 0, BackoffMs: -50}},
		{ID: "kept", Kind: "tool", ToolID: "x", RetryPolicy: &RetryPolicySpec{MaxAttempts: 4, BackoffMs: 200}},
		{ID: "absent", Kind: "tool", ToolID: "x"},
	}, Meta{})
	require.NoError(t, err)

	assert.Equal(t, RetryPolicy{MaxAttempts: 1, Backoff: 0}, g.Node("floored").Retry)
	assert.Equal(t, RetryPolicy{MaxAttempts: 4, Backoff: 200 * time.Millisecond}, g.Node("kept").Retry)
	assert.Equal(t, RetryPolicy{MaxAttempts: 1, Backoff: 0}, g.Node("absent").Retry)
}

func TestNewGraph_IdempotentConstruction(t *testing.T) {
	specs := []NodeSpec{
		{ID: "a", Kind: "tool", ToolID: "x"},
		{ID: "b", DependsOn: []string{"a"}},
		{ID: "c", DependsOn: []string{"a", "b"}},
	}

	first, err := NewGraph(specs, Meta{Goal: "same input"})
	require.NoError(t, err)
	second, err := NewGraph(specs, Meta{Goal: "same input"})
	require.NoError(t, err)

	// Graph ids differ; node sets and dependency structure do not.
	assert.NotEqual(t, first.ID(), second.ID())
	require.Equal(t, first.Len(), second.Len())
	for i, node := range first.Nodes() {
		other := second.Nodes()[i]
		assert.Equal(t, node.ID, other.ID)
		assert.Equal(t, node.Kind, other.Kind)
		assert.Equal(t, node.DependsOn, other.DependsOn)
	}
	assert.Equal(t, first.inDegree, second.inDegree)
	assert.Equal(t, first.dependents(), second.dependents())
}

func TestGraph_CorrelationID(t *testing.T) {
	g, err := NewGraph([]NodeSpec{{ID: "a"}}, Meta{CorrelationID: "req-42"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", g.CorrelationID())

	g2, err := NewGraph([]NodeSpec{{ID: "a"}}, Meta{})
	require.NoError(t, err)
	assert.Equal(t, g2.ID(), g2.CorrelationID())
}
