// Package tui provides a terminal user interface executor for Loom
// agents: a live run monitor where goals go in and planning, graph
// execution and run summaries stream out.
//
// The TUI codebase is split into multiple files for better organization:
// - executor.go: Main executor implementation and program lifecycle
// - model.go: Core model structure and state
// - update.go: Bubble Tea Update function and message handling
// - view.go: Bubble Tea View function and rendering
// - events.go: Agent event processing
// - helpers.go: Utility functions
// - reload.go: LLM provider hot-reload
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/weavehq/loom/pkg/agent"
)

// Executor is a TUI-based executor that provides an interactive monitor
// for agent runs. Goals typed by the user are planned into task graphs
// and executed while the feed shows node, tool and summary progress.
type Executor struct {
	agent   agent.Agent
	program *tea.Program
	header  string // Custom banner text (optional)
}

// NewExecutor creates a new TUI executor for the given agent.
// The headerText is rendered as block-letter art above the run feed;
// pass an empty string for the default banner.
func NewExecutor(agent agent.Agent, headerText string) *Executor {
	return &Executor{
		agent:  agent,
		header: headerText,
	}
}

// Run starts the TUI executor and blocks until the user exits.
func (e *Executor) Run(ctx context.Context) error {
	// Initialize debug logging first
	initDebugLog()
	debugLog.Printf("TUI Executor starting...")

	// Start the agent first
	if err := e.agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}
	debugLog.Printf("Agent started successfully")

	m := initialModel()
	m.agent = e.agent
	m.channels = e.agent.GetChannels()
	m.header = e.header
	debugLog.Printf("Model initialized, tools: %v", e.agent.GetToolNames())

	e.program = tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		// Listen for agent events and forward them to the TUI
		for event := range m.channels.Event {
			debugLog.Printf("Forwarding agent event to TUI: %s", event.Type)
			e.program.Send(event)
		}
	}()

	if _, err := e.program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}

	return nil
}
