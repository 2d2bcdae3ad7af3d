package agent

import (
	"errors"
	"time"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/types"
)

// DefaultAgent implements engine.Observer: scheduler telemetry is bridged
// onto the agent's event channel so executors see run, node and tool
// lifecycle without touching the engine. The scheduler calls these from
// executing goroutines behind its recovering adapter, and emitEvent is
// safe under concurrent senders, so no extra locking is needed here.
var _ engine.Observer = (*DefaultAgent)(nil)

// GraphStarted emits a run start event.
func (a *DefaultAgent) GraphStarted(e engine.GraphEvent) {
	a.emitEvent(types.NewRunStartEvent(e.GraphID, e.NodeCount, a.concurrency))
}

// GraphFinished emits a run end event with terminal state counts.
func (a *DefaultAgent) GraphFinished(e engine.GraphEvent) {
	a.emitEvent(types.NewRunEndEvent(e.GraphID, e.OK, formatElapsed(e.Duration), e.Succeeded, e.Failed, e.Skipped))
}

// NodeStarted emits a node start event.
func (a *DefaultAgent) NodeStarted(e engine.NodeEvent) {
	a.emitEvent(types.NewNodeStartEvent(e.GraphID, e.NodeID, string(e.Kind)))
}

// NodeFinished emits a node finish event carrying the terminal status and
// the observation preview or failure cause.
func (a *DefaultAgent) NodeFinished(e engine.NodeEvent) {
	a.emitEvent(types.NewNodeFinishEvent(
		e.GraphID, e.NodeID, string(e.Kind), string(e.Status),
		e.Attempts, formatElapsed(e.Elapsed), e.Detail,
	))
}

// ToolStarted emits a tool call event for one attempt. The node's input map
// rides along as the event's tool input; capability metadata, when the
// registry reports any, lands in the event metadata.
func (a *DefaultAgent) ToolStarted(e engine.ToolEvent) {
	ev := types.NewToolCallEvent(e.ToolID, e.NodeID, e.Attempt, e.Input)
	if len(e.Capabilities) > 0 {
		ev.WithMetadata("capabilities", e.Capabilities)
	}
	a.emitEvent(ev)
}

// ToolResult emits a tool result or tool error event for one attempt.
func (a *DefaultAgent) ToolResult(e engine.ToolEvent) {
	if e.OK {
		a.emitEvent(types.NewToolResultEvent(e.ToolID, e.NodeID, e.Attempt, e.Observation))
		return
	}
	a.emitEvent(types.NewToolResultErrorEvent(e.ToolID, e.NodeID, e.Attempt, errors.New(e.Error)))
}

// formatElapsed renders durations compactly for display.
func formatElapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
