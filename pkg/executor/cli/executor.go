// Package cli provides a plain-terminal executor for Loom agents.
//
// Unlike the TUI executor it draws nothing interactive: goals are read
// line by line from stdin and run progress is printed as it streams in,
// which suits dumb terminals, logs of piped sessions, and quick manual
// debugging of a tool registry.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/weavehq/loom/pkg/agent"
//	    "github.com/weavehq/loom/pkg/executor/cli"
//	    "github.com/weavehq/loom/pkg/llm/openai"
//	)
//
//	func main() {
//	    provider, _ := openai.NewProvider(
//	        os.Getenv("OPENAI_API_KEY"),
//	        openai.WithModel("gpt-4o"),
//	    )
//
//	    ag := agent.NewDefaultAgent(provider)
//
//	    executor := cli.NewExecutor(ag,
//	        cli.WithShowProgress(true),
//	    )
//
//	    if err := executor.Run(context.Background()); err != nil {
//	        log.Fatal(err)
//	    }
//	}
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/weavehq/loom/pkg/agent"
	"github.com/weavehq/loom/pkg/types"
)

// Executor is a line-oriented executor that runs one goal at a time,
// printing planning, node and tool progress to the terminal.
type Executor struct {
	agent  agent.Agent
	reader *bufio.Reader
	writer io.Writer

	// Display options
	showProgress bool

	// State tracking
	summaryStartPrinted bool
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithShowProgress enables/disables per-node and per-tool progress lines.
// When disabled only the plan, the summary and the run totals are printed.
func WithShowProgress(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showProgress = show
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// NewExecutor creates a new CLI executor for the given agent.
func NewExecutor(agent agent.Agent, opts ...ExecutorOption) *Executor {
	e := &Executor{
		agent:        agent,
		reader:       bufio.NewReader(os.Stdin),
		writer:       os.Stdout,
		showProgress: true, // Show progress by default
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run starts the executor and begins the goal loop.
// Returns when the user exits or an error occurs.
func (e *Executor) Run(ctx context.Context) error {
	// Start the agent
	if err := e.agent.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	channels := e.agent.GetChannels()

	// Start event handler in background
	eventsDone := make(chan struct{})
	goalDone := make(chan struct{}, 1)
	go e.handleEvents(channels.Event, eventsDone, goalDone)

	// Print welcome message
	fmt.Fprintln(e.writer, "Loom Agent")
	fmt.Fprintln(e.writer, "Describe a goal and press Enter. Type 'exit' or 'quit' to end the session.")
	fmt.Fprintln(e.writer)

	// Main goal loop
	for {
		// Check if context is canceled
		select {
		case <-ctx.Done():
			e.shutdown()
			<-eventsDone
			return ctx.Err()
		default:
		}

		// Read the next goal
		fmt.Fprint(e.writer, "> ")
		input, err := e.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				e.shutdown()
				<-eventsDone
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)

		// Handle exit commands
		if input == "exit" || input == "quit" {
			e.shutdown()
			<-eventsDone
			return nil
		}

		// Skip empty input
		if input == "" {
			continue
		}

		// Send the goal to the agent
		channels.Input <- types.NewGoalInput(input)

		// Wait for the run to complete
		<-goalDone
	}
}

// handleEvents processes events from the agent and renders them to the terminal.
func (e *Executor) handleEvents(events <-chan *types.AgentEvent, done chan struct{}, goalDone chan struct{}) {
	defer close(done)

	for event := range events {
		e.handleEvent(event, goalDone)
	}
}

// handleEvent processes a single event based on its type
func (e *Executor) handleEvent(event *types.AgentEvent, goalDone chan struct{}) {
	switch event.Type {
	case types.EventTypePlanningStart:
		e.handlePlanningStart()
	case types.EventTypePlanningEnd:
		e.handlePlanningEnd(event.Plan)
	case types.EventTypeRunStart:
		e.handleRunStart(event.Run)
	case types.EventTypeRunEnd:
		e.handleRunEnd(event.Run)
	case types.EventTypeNodeStart:
		e.handleNodeStart(event.Node)
	case types.EventTypeNodeFinish:
		e.handleNodeFinish(event.Node)
	case types.EventTypeToolCall:
		e.handleToolCall(event.ToolName, event.Attempt)
	case types.EventTypeToolResult:
		e.handleToolResult(event.ToolOutput)
	case types.EventTypeToolResultError:
		e.handleToolResultError(event.ToolName, event.Error)
	case types.EventTypeMessageStart:
		e.handleSummaryStart()
	case types.EventTypeMessageContent:
		e.handleSummaryContent(event.Content)
	case types.EventTypeMessageEnd:
		e.handleSummaryEnd()
	case types.EventTypeError:
		e.handleError(event.Error)
	case types.EventTypeAPICallStart, types.EventTypeAPICallEnd, types.EventTypeTokenUsage, types.EventTypeUpdateBusy, types.EventTypeHistoryData:
		// Bookkeeping events are not rendered in plain mode
	case types.EventTypeGoalComplete:
		e.handleGoalComplete(goalDone)
	}
}

func (e *Executor) handlePlanningStart() {
	if e.showProgress {
		fmt.Fprintln(e.writer, "\n[Planning...]")
	}
}

func (e *Executor) handlePlanningEnd(plan *types.PlanInfo) {
	if plan == nil {
		return
	}
	fmt.Fprintf(e.writer, "Plan (%d node(s), %s planner):\n", plan.NodeCount, plan.Source)
	for i, task := range plan.SubTasks {
		fmt.Fprintf(e.writer, "  %d. %s\n", i+1, task)
	}
}

func (e *Executor) handleRunStart(run *types.RunInfo) {
	if run == nil || !e.showProgress {
		return
	}
	fmt.Fprintf(e.writer, "\n▶ Run %s: %d node(s), concurrency %d\n", run.GraphID, run.NodeCount, run.Concurrency)
}

func (e *Executor) handleRunEnd(run *types.RunInfo) {
	if run == nil {
		return
	}
	status := "✅"
	if !run.OK {
		status = "❌"
	}
	fmt.Fprintf(e.writer, "\n%s Run %s finished in %s: %d succeeded, %d failed, %d skipped\n",
		status, run.GraphID, run.Duration, run.Succeeded, run.Failed, run.Skipped)
}

func (e *Executor) handleNodeStart(node *types.NodeInfo) {
	if node == nil || !e.showProgress {
		return
	}
	fmt.Fprintf(e.writer, "● %s (%s)\n", node.NodeID, node.Kind)
}

func (e *Executor) handleNodeFinish(node *types.NodeInfo) {
	if node == nil || !e.showProgress {
		return
	}
	switch node.Status {
	case "success":
		fmt.Fprintf(e.writer, "  ✓ %s done in %s\n", node.NodeID, node.Elapsed)
	case "skipped":
		fmt.Fprintf(e.writer, "  ⏭ %s skipped: %s\n", node.NodeID, node.Detail)
	default:
		fmt.Fprintf(e.writer, "  ✗ %s failed: %s\n", node.NodeID, node.Detail)
	}
}

func (e *Executor) handleToolCall(toolName string, attempt int) {
	if !e.showProgress {
		return
	}
	if attempt > 1 {
		fmt.Fprintf(e.writer, "  🔧 %s (attempt %d)\n", toolName, attempt)
		return
	}
	fmt.Fprintf(e.writer, "  🔧 %s\n", toolName)
}

func (e *Executor) handleToolResult(toolOutput interface{}) {
	if !e.showProgress {
		return
	}
	if result, ok := toolOutput.(string); ok {
		fmt.Fprintf(e.writer, "    ✓ %s\n", firstLine(result))
	} else {
		fmt.Fprintf(e.writer, "    ✓ %v\n", toolOutput)
	}
}

func (e *Executor) handleToolResultError(toolName string, err error) {
	if !e.showProgress {
		return
	}
	fmt.Fprintf(e.writer, "    ✗ %s: %v\n", toolName, err)
}

func (e *Executor) handleSummaryStart() {
	e.summaryStartPrinted = false
}

func (e *Executor) handleSummaryContent(content string) {
	if content != "" && !e.summaryStartPrinted {
		fmt.Fprintln(e.writer, "\nSummary:")
		e.summaryStartPrinted = true
	}
	fmt.Fprint(e.writer, content)
}

func (e *Executor) handleSummaryEnd() {
	fmt.Fprintln(e.writer) // New line after summary
}

func (e *Executor) handleError(err error) {
	fmt.Fprintf(e.writer, "\n❌ Error: %v\n", err)
}

func (e *Executor) handleGoalComplete(goalDone chan struct{}) {
	select {
	case goalDone <- struct{}{}:
	default:
	}
}

// firstLine trims a tool observation to a single display line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const maxLine = 200
	if len(s) > maxLine {
		s = s[:maxLine] + "…"
	}
	return s
}

// shutdown gracefully shuts down the agent.
func (e *Executor) shutdown() {
	fmt.Fprintln(e.writer, "\nShutting down...")

	// A fresh context so shutdown still runs after cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.agent.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(e.writer, "Warning: shutdown error: %v\n", err)
	}
}
