package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/types"
)

// processGoal drives one goal end to end: plan, run, summarize. It is
// invoked from the event loop and owns the cancel hook for the duration
// of the run so a cancel input can interrupt it.
func (a *DefaultAgent) processGoal(ctx context.Context, goal string) {
	// Create cancellable context for this goal
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.cancelMu.Lock()
	a.cancelRun = cancel
	a.cancelMu.Unlock()

	defer func() {
		a.cancelMu.Lock()
		a.cancelRun = nil
		a.cancelMu.Unlock()
	}()

	// Emit busy status
	a.emitEvent(types.NewUpdateBusyEvent(true))
	defer a.emitEvent(types.NewUpdateBusyEvent(false))

	result, err := a.Run(runCtx, goal)
	if err != nil {
		// Cancellation is not an error worth reporting; the run end
		// event already shows the skip counts
		if runCtx.Err() == nil {
			a.emitEvent(types.NewErrorEvent(err))
		}
		a.emitEvent(types.NewGoalCompleteEvent())
		return
	}

	// Compose the run summary, streamed as message events
	a.summarizeRun(runCtx, goal, result)

	// Emit goal complete
	a.emitEvent(types.NewGoalCompleteEvent())
}

// Run plans the goal and executes the resulting graph. Planning and run
// lifecycle events are emitted on the event channel as the work proceeds.
func (a *DefaultAgent) Run(ctx context.Context, goal string) (*engine.RunResult, error) {
	a.emitEvent(types.NewPlanningStartEvent(goal))

	graph, plan, err := a.getPlanner().BuildGraph(ctx, goal, a.planOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to plan goal: %w", err)
	}

	agentLog.Infof("Planned goal into %d sub-tasks (%d nodes, source=%s)",
		len(plan.SubTasks), graph.Len(), plan.Source)
	a.emitEvent(types.NewPlanningEndEvent(plan.Goal, plan.SubTasks, graph.ID(), plan.Source, graph.Len()))

	return a.runGraph(ctx, graph, plan.Source)
}

// RunGraph compiles the given specs and executes them without planning.
func (a *DefaultAgent) RunGraph(ctx context.Context, specs []engine.NodeSpec, meta engine.Meta) (*engine.RunResult, error) {
	graph, err := engine.NewGraph(specs, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return a.runGraph(ctx, graph, "direct")
}

// runGraph executes a compiled graph through the scheduler and records the
// outcome in run history. Node failures live in the result, not the error.
func (a *DefaultAgent) runGraph(ctx context.Context, graph *engine.Graph, source string) (*engine.RunResult, error) {
	started := time.Now()

	result, err := a.scheduler.Run(ctx, graph, engine.RunOptions{
		Concurrency:        a.concurrency,
		Exec:               a.exec,
		DefaultToolTimeout: a.toolTimeout,
		FailFast:           a.failFast,
	})
	if err != nil {
		return nil, fmt.Errorf("run failed: %w", err)
	}

	a.recordRun(graph, result, source, started)
	return result, nil
}

// recordRun persists a finished run into history. Recording is best-effort;
// failures are logged and never affect the run outcome.
func (a *DefaultAgent) recordRun(graph *engine.Graph, result *engine.RunResult, source string, started time.Time) {
	if a.history == nil {
		return
	}

	failed := len(result.Failed())
	skipped := len(result.Skipped())
	rec := &templates.RunRecord{
		GraphID:   result.GraphID,
		Goal:      graph.Meta().Goal,
		Source:    source,
		StartedAt: started,
		Duration:  result.Duration.Round(time.Millisecond).String(),
		OK:        result.OK,
		Nodes:     graph.Len(),
		Succeeded: graph.Len() - failed - skipped,
		Failed:    failed,
		Skipped:   skipped,
	}

	// Recording runs on a short deadline of its own so a stalled store
	// cannot hang goal processing
	recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.history.RecordRun(recCtx, rec); err != nil {
		agentLog.Warnf("Failed to record run %s: %v", result.GraphID, err)
	}
}
