package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/types"
)

func nextEvent(t *testing.T, ag *DefaultAgent) *types.AgentEvent {
	t.Helper()
	select {
	case ev := <-ag.GetChannels().Event:
		require.NotNil(t, ev)
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event emitted")
		return nil
	}
}

func TestObserverBridgeRunLifecycle(t *testing.T) {
	ag := NewDefaultAgent(nil, WithBufferSize(16), WithConcurrency(4))

	ag.GraphStarted(engine.GraphEvent{GraphID: "g1", NodeCount: 5})
	ev := nextEvent(t, ag)
	require.Equal(t, types.EventTypeRunStart, ev.Type)
	assert.Equal(t, "g1", ev.Run.GraphID)
	assert.Equal(t, 5, ev.Run.NodeCount)
	assert.Equal(t, 4, ev.Run.Concurrency)

	ag.GraphFinished(engine.GraphEvent{
		GraphID:   "g1",
		OK:        false,
		Duration:  1500 * time.Millisecond,
		Succeeded: 3,
		Failed:    1,
		Skipped:   1,
	})
	ev = nextEvent(t, ag)
	require.Equal(t, types.EventTypeRunEnd, ev.Type)
	assert.False(t, ev.Run.OK)
	assert.Equal(t, "1.5s", ev.Run.Duration)
	assert.Equal(t, 3, ev.Run.Succeeded)
	assert.Equal(t, 1, ev.Run.Failed)
	assert.Equal(t, 1, ev.Run.Skipped)
}

func TestObserverBridgeNodeLifecycle(t *testing.T) {
	ag := NewDefaultAgent(nil, WithBufferSize(16))

	ag.NodeStarted(engine.NodeEvent{GraphID: "g1", NodeID: "s1-read", Kind: engine.KindTool})
	ev := nextEvent(t, ag)
	require.Equal(t, types.EventTypeNodeStart, ev.Type)
	assert.Equal(t, "s1-read", ev.NodeID)
	assert.Equal(t, "tool", ev.Node.Kind)

	ag.NodeFinished(engine.NodeEvent{
		GraphID:  "g1",
		NodeID:   "s1-read",
		Kind:     engine.KindTool,
		Status:   engine.StatusError,
		Attempts: 2,
		Elapsed:  40 * time.Millisecond,
		Detail:   "timed out",
	})
	ev = nextEvent(t, ag)
	require.Equal(t, types.EventTypeNodeFinish, ev.Type)
	assert.Equal(t, "error", ev.Node.Status)
	assert.Equal(t, 2, ev.Node.Attempts)
	assert.Equal(t, "40ms", ev.Node.Elapsed)
	assert.Equal(t, "timed out", ev.Node.Detail)
}

func TestObserverBridgeToolEvents(t *testing.T) {
	ag := NewDefaultAgent(nil, WithBufferSize(16))

	ag.ToolStarted(engine.ToolEvent{
		NodeID:       "s1-navigate",
		ToolID:       "navigate_to_url",
		Attempt:      1,
		Input:        map[string]any{"url": "https://example.com"},
		Capabilities: map[string]any{"category": "browser"},
	})
	ev := nextEvent(t, ag)
	require.Equal(t, types.EventTypeToolCall, ev.Type)
	assert.Equal(t, "navigate_to_url", ev.ToolName)
	assert.Equal(t, 1, ev.Attempt)
	assert.Equal(t, map[string]any{"url": "https://example.com"}, ev.ToolInput)
	assert.Equal(t, map[string]any{"category": "browser"}, ev.Metadata["capabilities"])

	ag.ToolResult(engine.ToolEvent{
		NodeID:      "s1-navigate",
		ToolID:      "navigate_to_url",
		Attempt:     1,
		OK:          true,
		Observation: "opened https://example.com",
	})
	ev = nextEvent(t, ag)
	require.Equal(t, types.EventTypeToolResult, ev.Type)
	assert.Equal(t, "opened https://example.com", ev.ToolOutput)

	ag.ToolResult(engine.ToolEvent{
		NodeID:  "s1-navigate",
		ToolID:  "navigate_to_url",
		Attempt: 2,
		OK:      false,
		Error:   "dns failure",
	})
	ev = nextEvent(t, ag)
	require.Equal(t, types.EventTypeToolResultError, ev.Type)
	require.Error(t, ev.Error)
	assert.Equal(t, "dns failure", ev.Error.Error())
	assert.Equal(t, 2, ev.Attempt)
}

func TestEmitEventSurvivesClosedChannel(t *testing.T) {
	ag := NewDefaultAgent(nil, WithBufferSize(1))
	ag.GetChannels().Close()

	// Must not panic even though the event channel is closed.
	ag.emitEvent(types.NewUpdateBusyEvent(true))
}
