// Package tools defines the capability contract between the task graph
// engine and concrete tool implementations, and the registry that routes
// graph node calls to them.
package tools

import (
	"context"

	"github.com/weavehq/loom/pkg/engine"
)

// Tool represents a capability a graph node can invoke.
//
// Tool inputs arrive as the node's input map, already structured; there is
// no argument syntax to parse. Implementations validate the fields they
// need and act on the execution target the run supplies (typically a
// browser tab).
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "navigate_to_url")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	// The schema should be a valid JSON Schema object defining the structure
	// of the input map that this tool accepts
	Schema() map[string]interface{}

	// Execute runs the tool against the given execution target.
	//
	// A returned error and a result with OK=false are both failed attempts
	// from the engine's point of view; use OK=false when the tool ran but
	// reports a negative outcome worth recording as its observation.
	Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error)
}

// CapabilityReporter is an optional interface for tools that publish
// capability metadata (category, whether they mutate the page, whether they
// call an LLM). The metadata is attached to tool-started telemetry.
type CapabilityReporter interface {
	Capabilities() map[string]any
}

// BaseSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
