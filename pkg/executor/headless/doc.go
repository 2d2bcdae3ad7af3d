// Package headless implements the headless executor for autonomous runs.
//
// The headless executor enables Loom to run to completion in non-interactive
// environments such as CI pipelines, cron schedules and scripted scraping
// jobs. It provides:
//
// - Safety constraints to keep unattended browsing inside agreed bounds
// - A choice of work sources: a natural-language goal, a saved template, or
//   an inline node list
// - Artifact generation for debugging and auditing
//
// Architecture:
//
// The executor wraps a fully constructed agent. It feeds the work in, consumes
// the event stream until the run completes, and enforces its constraints from
// the tool call events that stream past:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                 Headless Executor                        │
//	│  - Constraint Enforcement (hosts, mode, budgets)        │
//	│  - Template Resolution                                  │
//	│  - Artifact Generation                                  │
//	└──────────────────┬──────────────────────────────────────┘
//	                   │
//	                   ▼
//	        ┌──────────────────────┐
//	        │   DefaultAgent       │
//	        │ (planner + task      │
//	        │  graph engine)       │
//	        └──────────────────────┘
//
// Example usage:
//
//	config := headless.DefaultConfig()
//	config.Goal = "Collect the plan names and prices from https://example.com/pricing"
//
//	executor, _ := headless.NewExecutor(ag, config)
//
//	if err := executor.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Safety Constraints:
//
// The constraint manager enforces run limits:
// - Host allowlists/denylists for every tool that takes a URL
// - Observe mode, which refuses tools that mutate pages
// - Maximum tool calls per run
// - Token usage limits
// - Execution timeout
//
// The first violation cancels the run and fails it; the violation detail
// lands in the summary and artifacts.
//
// Artifacts:
//
// The artifact writer generates run reports under the configured directory:
// - run.json: Full run summary
// - summary.md: Human-readable markdown summary
// - metrics.json: Run metrics
package headless
