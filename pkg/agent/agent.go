// Package agent provides the core agent interface and DefaultAgent
// implementation for the Loom automation framework.
//
// The DefaultAgent is available directly from this package for simple usage:
//
//	import "github.com/weavehq/loom/pkg/agent"
//	ag := agent.NewDefaultAgent(provider, agent.WithRegistry(registry))
//
// Agents turn natural-language goals into task graphs via the planner,
// execute them through the scheduler, and report progress as AgentEvents
// over channels. Executors (TUI, headless) consume those channels without
// knowing anything about planning or scheduling internals.
package agent

import (
	"context"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/types"
)

// Agent interface defines the core capabilities of a Loom agent.
// Agents are async event-driven components that plan goals into task
// graphs, run them, and communicate via channels.
type Agent interface {
	// Start begins the agent's event loop in a goroutine.
	// The agent will listen for inputs on its input channel and process them
	// asynchronously, sending events to the event channel.
	//
	// The agent runs until:
	// - The context is canceled
	// - The shutdown channel is closed
	// - An unrecoverable error occurs
	//
	// Returns an error if the agent fails to start, otherwise returns nil
	// and continues running asynchronously.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the agent.
	// This method signals the agent to stop accepting new goals and
	// complete any in-flight run before shutting down.
	//
	// Returns when the agent has fully stopped or the context is canceled.
	Shutdown(ctx context.Context) error

	// GetChannels returns the communication channels for this agent.
	// The executor uses these channels to send input and receive events.
	GetChannels() *types.AgentChannels

	// Run plans the goal into a task graph and executes it synchronously.
	// Lifecycle events are emitted on the event channel while the run is
	// in flight. The returned RunResult records per-node outcomes; node
	// failures are data in the result, not an error.
	Run(ctx context.Context, goal string) (*engine.RunResult, error)

	// RunGraph compiles the given node specs into a graph and executes it,
	// bypassing the planner. Used for saved templates and hand-built graphs.
	RunGraph(ctx context.Context, specs []engine.NodeSpec, meta engine.Meta) (*engine.RunResult, error)

	// GetToolNames returns the names of all tools the agent can schedule.
	GetToolNames() []string

	// SetProvider updates the LLM provider used for planning and run
	// summaries. This allows hot-reloading of provider configuration
	// without restarting the agent. The update is thread-safe and takes
	// effect on the next goal.
	SetProvider(provider llm.Provider) error
}
