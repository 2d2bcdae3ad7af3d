package engine

import (
	"context"
)

// ExecContext is the caller-supplied execution target forwarded verbatim to
// every tool call in a run. The engine never interprets it beyond attaching
// it to calls; at minimum it names the browser tab or session the tools
// should act on.
type ExecContext struct {
	// TabID names the browser tab/session shared by the run's tool calls.
	TabID string
	// Values carries any extra pass-through data the tool runner wants.
	Values map[string]string
}

// Call describes one tool invocation on behalf of a graph node.
type Call struct {
	ToolID string
	Exec   ExecContext
	Input  map[string]any
}

// ToolResult is what a tool runner reports back for one invocation.
// OK=false marks a tool-level failure, which the executor treats exactly
// like a returned error: retryable up to the node's policy.
type ToolResult struct {
	OK          bool
	Observation string
	Extra       map[string]any
}

// ToolRunner executes named capabilities on behalf of graph nodes. The
// engine does not interpret tool semantics; both a non-nil error and an
// OK=false result count as a failed attempt.
type ToolRunner interface {
	RunTool(ctx context.Context, call Call) (*ToolResult, error)
}

// CapabilityProvider is an optional extension of ToolRunner. When the
// runner implements it, tool-started telemetry is enriched with the
// capability metadata for the invoked tool id.
type CapabilityProvider interface {
	Capabilities(toolID string) (map[string]any, bool)
}
