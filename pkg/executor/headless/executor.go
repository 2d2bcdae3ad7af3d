package headless

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/weavehq/loom/pkg/agent"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/types"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

// stopGrace bounds how long the executor waits for a cancelled run to
// wind down before giving up on it.
const stopGrace = 5 * time.Second

// Executor drives one fully autonomous run: it feeds the agent a goal,
// template or inline graph, consumes the event stream, enforces the
// configured constraints, and writes artifacts when the run ends. It is
// the non-interactive counterpart of the TUI executor, built for CI jobs,
// cron schedules and scripted scraping pipelines.
type Executor struct {
	agent         agent.Agent
	config        *Config
	library       *templates.Library
	constraintMgr *ConstraintManager
	artifacts     *ArtifactWriter
	logger        *Logger

	// Run state
	startTime time.Time
	summary   *RunSummary

	// Violation and stop coordination. The consumer goroutine and the
	// run goroutine can both flag the first violation.
	vmu       sync.Mutex
	violation *ConstraintViolation
	stopOnce  sync.Once
	stopRun   func()

	// Event bookkeeping, owned by the consumer goroutine until it exits
	sawRunEnd bool
	runOK     bool
	lastError error
}

// Option configures optional executor collaborators.
type Option func(*Executor)

// WithLibrary provides the template library used to resolve template runs.
// Template configs fail without one.
func WithLibrary(lib *templates.Library) Option {
	return func(e *Executor) {
		e.library = lib
	}
}

// NewExecutor creates a new headless executor around a pre-built agent
func NewExecutor(ag agent.Agent, config *Config, opts ...Option) (*Executor, error) {
	if ag == nil {
		return nil, fmt.Errorf("agent cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Create constraint manager with the browsing mode
	constraintMgr, err := NewConstraintManager(config.Constraints, config.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint manager: %w", err)
	}

	e := &Executor{
		agent:         ag,
		config:        config,
		constraintMgr: constraintMgr,
		artifacts:     NewArtifactWriter(config.Artifacts.OutputDir, config.Artifacts),
		logger:        NewLogger(parseLogLevel(config.Logging.Verbosity)),
		summary: &RunSummary{
			Goal:     config.Goal,
			Template: config.Template,
			Status:   "running",
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the configured work to completion and writes artifacts.
// The returned error is non-nil only when the run failed outright; a
// partially successful graph returns nil with the detail in the summary.
func (e *Executor) Run(ctx context.Context) error {
	e.startTime = time.Now()
	e.summary.StartTime = e.startTime

	log.Printf("[Headless] Starting run (%s)", e.config.describeWork())
	e.logger.Header("Loom Headless Run")
	e.logger.Infof("%s", e.config.describeWork())
	e.logger.Infof("mode: %s", e.config.Mode)

	// Resolve template or inline nodes up front so a bad reference fails
	// before the agent is started
	specs, meta, err := e.resolveWork(ctx)
	if err != nil {
		return e.fail(err)
	}

	// Start agent
	if err := e.agent.Start(ctx); err != nil {
		return e.fail(fmt.Errorf("failed to start agent: %w", err))
	}

	// Create run context with the configured time budget
	var execCtx context.Context
	var cancel context.CancelFunc
	if e.config.Constraints.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, e.config.Constraints.Timeout)
	} else {
		execCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	channels := e.agent.GetChannels()
	runDone := make(chan error, 1)

	// Dispatch the work. Goals go through the agent's input channel and
	// complete with a goal event; graphs run directly and complete when
	// RunGraph returns. Both paths stream the same lifecycle events.
	if e.config.Goal != "" {
		e.stopRun = func() {
			select {
			case channels.Input <- types.NewCancelInput():
				log.Printf("[Headless] Cancellation requested")
			default:
				log.Printf("[Headless] Input channel full, dropping cancellation")
			}
		}
	} else {
		runCtx, stopGraph := context.WithCancel(execCtx)
		defer stopGraph()
		e.stopRun = stopGraph
		go func() {
			_, runErr := e.agent.RunGraph(runCtx, specs, meta)
			runDone <- runErr
		}()
	}

	// Start event consumer
	eventDone := make(chan struct{})
	go e.consumeEvents(channels, runDone, eventDone)

	if e.config.Goal != "" {
		channels.Input <- types.NewGoalInput(e.config.Goal)
	}

	// Wait for completion or the time budget
	var runErr error
	select {
	case runErr = <-runDone:
	case <-execCtx.Done():
		e.noteInterrupt(execCtx.Err())
		select {
		case runErr = <-runDone:
		case <-time.After(stopGrace):
			log.Printf("[Headless] Run did not stop within %s", stopGrace)
		}
	}

	// Stop the agent; its event loop closes the event channel on exit
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), stopGrace)
	defer shutdownCancel()
	if err := e.agent.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Headless] Warning: agent shutdown: %v", err)
	}

	select {
	case <-eventDone:
	case <-time.After(stopGrace):
		log.Printf("[Headless] Event consumer did not drain within %s", stopGrace)
	}

	// Finalize the run and generate artifacts
	return e.finalize(runErr)
}

// Stop gracefully stops the executor
func (e *Executor) Stop(ctx context.Context) error {
	return e.agent.Shutdown(ctx)
}

// resolveWork loads the template or inline specs the run should execute.
// Goal runs return nothing; the agent plans those itself.
func (e *Executor) resolveWork(ctx context.Context) ([]engine.NodeSpec, engine.Meta, error) {
	switch {
	case e.config.Goal != "":
		return nil, engine.Meta{}, nil

	case e.config.Template != "":
		if e.library == nil {
			return nil, engine.Meta{}, fmt.Errorf("template %q requested but no template library configured", e.config.Template)
		}
		tpl, err := e.library.LoadTemplate(ctx, e.config.Template)
		if err != nil {
			return nil, engine.Meta{}, fmt.Errorf("loading template %q: %w", e.config.Template, err)
		}
		goal := e.config.TemplateGoal
		if goal == "" {
			goal = tpl.Goal
		}
		e.summary.Goal = goal
		e.summary.Source = "template"
		return tpl.Specs, engine.Meta{Goal: goal, CreatedAt: time.Now().UTC()}, nil

	default:
		e.summary.Source = "inline"
		return e.config.Nodes, engine.Meta{CreatedAt: time.Now().UTC()}, nil
	}
}

// consumeEvents drains the agent's event channel until it closes, keeping
// the run summary current and enforcing constraints along the way. A goal
// completion event resolves runDone for goal-mode runs.
func (e *Executor) consumeEvents(channels *types.AgentChannels, runDone chan<- error, eventDone chan<- struct{}) {
	defer close(eventDone)

	var summaryText strings.Builder
	goalSignalled := false

	defer func() {
		if e.summary.Summary == "" && summaryText.Len() > 0 {
			e.summary.Summary = summaryText.String()
		}
	}()

	for event := range channels.Event {
		e.logger.Debugf("event: %s", event.Type)

		switch event.Type {
		case types.EventTypePlanningStart:
			e.logger.Step("Planning goal")

		case types.EventTypePlanningEnd:
			if event.Plan != nil {
				e.summary.SubTasks = event.Plan.SubTasks
				e.summary.Source = event.Plan.Source
				e.summary.GraphID = event.Plan.GraphID
				e.logger.Successf("Plan compiled: %d sub-task(s), %d node(s) (source: %s)",
					len(event.Plan.SubTasks), event.Plan.NodeCount, event.Plan.Source)
				for i, task := range event.Plan.SubTasks {
					e.logger.Verbosef("sub-task %d: %s", i+1, task)
				}
			}

		case types.EventTypeRunStart:
			if event.Run != nil {
				e.summary.GraphID = event.Run.GraphID
				e.summary.Metrics.NodesTotal = event.Run.NodeCount
				e.logger.Step(fmt.Sprintf("Running graph %s (%d nodes, concurrency %d)",
					event.Run.GraphID, event.Run.NodeCount, event.Run.Concurrency))
			}

		case types.EventTypeRunEnd:
			if event.Run != nil {
				e.sawRunEnd = true
				e.runOK = event.Run.OK
				e.summary.Metrics.NodesSucceeded = event.Run.Succeeded
				e.summary.Metrics.NodesFailed = event.Run.Failed
				e.summary.Metrics.NodesSkipped = event.Run.Skipped
				if event.Run.OK {
					e.logger.Successf("Run finished in %s: %d node(s) succeeded",
						event.Run.Duration, event.Run.Succeeded)
				} else {
					e.logger.Warningf("Run finished in %s: %d succeeded, %d failed, %d skipped",
						event.Run.Duration, event.Run.Succeeded, event.Run.Failed, event.Run.Skipped)
				}
			}

		case types.EventTypeNodeStart:
			if event.Node != nil {
				e.logger.Verbosef("node %s started (%s)", event.Node.NodeID, event.Node.Kind)
			}

		case types.EventTypeNodeFinish:
			if event.Node != nil {
				e.summary.Nodes = append(e.summary.Nodes, NodeReport{
					NodeID:   event.Node.NodeID,
					Kind:     event.Node.Kind,
					Status:   event.Node.Status,
					Attempts: event.Node.Attempts,
					Elapsed:  event.Node.Elapsed,
					Detail:   event.Node.Detail,
				})
				e.logger.NodeFinished(event.Node.NodeID, event.Node.Status, event.Node.Attempts, event.Node.Elapsed)
				if event.Node.Status != "success" && event.Node.Detail != "" {
					e.logger.Verbosef("node %s: %s", event.Node.NodeID, event.Node.Detail)
				}
			}

		case types.EventTypeToolCall:
			e.summary.Metrics.ToolCalls++
			e.logger.ToolCall(event.ToolName, e.summary.Metrics.ToolCalls)
			if v := asViolation(e.constraintMgr.RecordToolCall(event.ToolName, event.ToolInput, capabilitiesOf(event))); v != nil {
				e.flagViolation(v)
			}
			if v := asViolation(e.constraintMgr.CheckTimeout()); v != nil {
				e.flagViolation(v)
			}

		case types.EventTypeToolResult:
			if obs, ok := event.ToolOutput.(string); ok && obs != "" {
				e.logger.Verbosef("tool %s: %s", event.ToolName, obs)
			}

		case types.EventTypeToolResultError:
			e.summary.Metrics.ToolErrors++
			e.logger.Verbosef("tool %s attempt %d failed: %v", event.ToolName, event.Attempt, event.Error)

		case types.EventTypeTokenUsage:
			if event.TokenUsage != nil {
				e.logger.Verbosef("tokens: %d prompt, %d completion",
					event.TokenUsage.PromptTokens, event.TokenUsage.CompletionTokens)
				if v := asViolation(e.constraintMgr.RecordTokenUsage(event.TokenUsage.TotalTokens)); v != nil {
					e.flagViolation(v)
				}
			}

		case types.EventTypeAPICallStart:
			if event.APICallInfo != nil {
				e.logger.Verbosef("LLM call started (%d context tokens)", event.APICallInfo.ContextTokens)
			}

		case types.EventTypeMessageStart:
			e.logger.Verbosef("composing run summary")

		case types.EventTypeMessageContent:
			summaryText.WriteString(event.Content)

		case types.EventTypeMessageEnd:
			e.summary.Summary = summaryText.String()

		case types.EventTypeError:
			e.lastError = event.Error
			e.logger.Errorf("agent error: %v", event.Error)
			log.Printf("[Headless] Agent error: %v", event.Error)

		case types.EventTypeGoalComplete:
			log.Printf("[Headless] Goal complete")
			if !goalSignalled {
				goalSignalled = true
				runDone <- nil
			}
		}
	}
}

// flagViolation records the first constraint violation and stops the run.
// Later violations are dropped; the run is already being cancelled.
func (e *Executor) flagViolation(v *ConstraintViolation) {
	e.vmu.Lock()
	first := e.violation == nil
	if first {
		e.violation = v
	}
	e.vmu.Unlock()

	if !first {
		return
	}

	log.Printf("[Headless] Constraint violation: %v", v)
	e.logger.Errorf("Constraint violated: %s", v.Message)
	e.requestStop()
}

// currentViolation returns the recorded violation, if any.
func (e *Executor) currentViolation() *ConstraintViolation {
	e.vmu.Lock()
	defer e.vmu.Unlock()
	return e.violation
}

// requestStop cancels the in-flight run exactly once.
func (e *Executor) requestStop() {
	e.stopOnce.Do(func() {
		if e.stopRun != nil {
			e.stopRun()
		}
	})
}

// noteInterrupt classifies the run context ending before the work did:
// a deadline is the time budget violated, anything else is an outside
// cancellation (e.g. SIGINT).
func (e *Executor) noteInterrupt(cause error) {
	if errors.Is(cause, context.DeadlineExceeded) {
		e.flagViolation(&ConstraintViolation{
			Type:    ViolationTimeout,
			Message: fmt.Sprintf("run timeout exceeded (%v)", e.config.Constraints.Timeout),
			Details: map[string]interface{}{
				"timeout": e.config.Constraints.Timeout,
			},
		})
		return
	}

	log.Printf("[Headless] Run canceled: %v", cause)
	e.lastError = fmt.Errorf("run canceled: %w", cause)
	e.requestStop()
}

// finalize completes the run, decides the final status and generates
// artifacts
func (e *Executor) finalize(runErr error) error {
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.startTime)

	state := e.constraintMgr.GetCurrentState()
	e.summary.Metrics.TokensUsed = state.TokensUsed
	e.summary.Metrics.Elapsed = e.summary.Duration

	// An interrupted run never saw its run end event; reconstruct the
	// node counts from the reports that did arrive
	if !e.sawRunEnd {
		for _, node := range e.summary.Nodes {
			switch node.Status {
			case "success":
				e.summary.Metrics.NodesSucceeded++
			case "error":
				e.summary.Metrics.NodesFailed++
			case "skipped":
				e.summary.Metrics.NodesSkipped++
			}
		}
	}

	violation := e.currentViolation()
	switch {
	case violation != nil:
		e.summary.Status = statusFailed
		e.summary.Error = violation.Error()
	case runErr != nil:
		e.summary.Status = statusFailed
		e.summary.Error = runErr.Error()
	case !e.sawRunEnd:
		e.summary.Status = statusFailed
		if e.lastError != nil {
			e.summary.Error = e.lastError.Error()
		} else {
			e.summary.Error = "run did not complete"
		}
	case e.runOK:
		e.summary.Status = statusSuccess
	case e.summary.Metrics.NodesSucceeded > 0:
		e.summary.Status = statusPartialSuccess
		e.summary.Error = fmt.Sprintf("%d of %d node(s) did not succeed",
			e.summary.Metrics.NodesFailed+e.summary.Metrics.NodesSkipped, e.summary.Metrics.NodesTotal)
	default:
		e.summary.Status = statusFailed
		e.summary.Error = "no graph nodes succeeded"
	}

	// Generate artifacts if enabled
	if e.config.Artifacts.Enabled {
		if err := e.artifacts.WriteAll(e.summary); err != nil {
			log.Printf("[Headless] Warning: failed to write artifacts: %v", err)
		} else {
			log.Printf("[Headless] Artifacts written to %s", e.config.Artifacts.OutputDir)
		}
	}

	e.logger.Summary(e.summary.Status, e.summary)

	// Log final status
	log.Printf("[Headless] Run completed: %s (duration: %s)", e.summary.Status, e.summary.Duration)

	// Return error only for complete failures, not partial success
	if e.summary.Status == statusFailed {
		return fmt.Errorf("run failed: %s", e.summary.Error)
	}

	return nil
}

// fail marks the run as failed before it properly started and returns
// the error
func (e *Executor) fail(err error) error {
	e.summary.Status = statusFailed
	e.summary.Error = err.Error()
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.startTime)

	// Try to generate artifacts even on failure
	if e.config.Artifacts.Enabled {
		if artifactErr := e.artifacts.WriteAll(e.summary); artifactErr != nil {
			log.Printf("[Headless] Warning: failed to write failure artifacts: %v", artifactErr)
		}
	}

	e.logger.Errorf("%v", err)
	return err
}

// describeWork renders the configured work source for log lines.
func (c *Config) describeWork() string {
	switch {
	case c.Goal != "":
		return fmt.Sprintf("goal: %s", c.Goal)
	case c.Template != "":
		return fmt.Sprintf("template: %s", c.Template)
	default:
		return fmt.Sprintf("inline graph (%d nodes)", len(c.Nodes))
	}
}

// capabilitiesOf extracts the capability metadata attached to a tool call
// event, when present.
func capabilitiesOf(event *types.AgentEvent) map[string]interface{} {
	if event.Metadata == nil {
		return nil
	}
	caps, _ := event.Metadata["capabilities"].(map[string]interface{})
	return caps
}

// asViolation narrows a constraint error to the violation type. The
// constraint manager only ever returns violations, but the narrowing keeps
// the consumer honest about what it stops the run for.
func asViolation(err error) *ConstraintViolation {
	if err == nil {
		return nil
	}
	var v *ConstraintViolation
	if errors.As(err, &v) {
		return v
	}
	return &ConstraintViolation{Type: ViolationType("unknown"), Message: err.Error()}
}
