// Package engine implements the task graph engine: a dependency-aware,
// concurrency-limited, retrying scheduler that turns a declarative graph of
// steps into an ordered, partially-parallel execution with failure
// containment.
//
// A graph is built once from serializable node specs and is immutable
// afterwards:
//
//	g, err := engine.NewGraph([]engine.NodeSpec{
//	    {ID: "open", Kind: "tool", ToolID: engine.ToolNavigateToURL,
//	        Input: map[string]any{"url": "https://example.com"}},
//	    {ID: "read", Kind: "tool", ToolID: engine.ToolReadPageContent,
//	        DependsOn: []string{"open"}},
//	}, engine.Meta{Goal: "read the example homepage"})
//
// The scheduler receives its collaborators as injected dependencies (a
// ToolRunner for tool nodes, an Observer for telemetry) and owns no
// per-run state, so one scheduler serves overlapping runs:
//
//	s := engine.NewScheduler(registry, engine.WithObserver(obs))
//	result, err := s.Run(ctx, g, engine.RunOptions{Concurrency: 2})
//
// Node failures never surface as Go errors; a run always returns a complete
// RunResult describing which nodes succeeded, failed, or were skipped.
// Downstream nodes of a failure are deterministically skipped, never
// silently dropped. Cancelling the run context stops new dispatch while
// nodes already in flight run to completion.
//
// PlanLinearFromSubTasks compiles an ordered list of free-text sub-task
// descriptions into a linear graph for callers that hand off a flat plan
// rather than an explicit DAG.
package engine
