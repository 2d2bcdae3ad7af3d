package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/weavehq/loom/pkg/logging"
)

// DefaultConcurrency is the number of simultaneously in-flight node
// executions when a run does not set its own bound.
const DefaultConcurrency = 2

// RunOptions configures one scheduler run.
type RunOptions struct {
	// Concurrency bounds simultaneous in-flight node executions. It is a
	// cooperative limit on outstanding work, not a thread pool size.
	// Values < 1 fall back to DefaultConcurrency.
	Concurrency int

	// Exec is forwarded verbatim to every tool call in the run.
	Exec ExecContext

	// DefaultToolTimeout bounds tool attempts on nodes that declare no
	// timeout of their own. Zero leaves such attempts unbounded.
	DefaultToolTimeout time.Duration

	// FailFast stops dispatching new nodes after the first node error.
	// Nodes already in flight still run to completion.
	FailFast bool

	// OnNodeStart and OnNodeFinish are per-run callbacks invoked from the
	// scheduling loop. Panics inside them are swallowed.
	OnNodeStart  func(node *Node)
	OnNodeFinish func(node *Node, result NodeResult)
}

// Scheduler executes graphs: it dispatches ready nodes to the tool runner
// respecting dependencies and the concurrency bound, contains failures as
// cascading skips, and aggregates a RunResult per run. A Scheduler holds no
// per-run state and is safe for concurrent and repeated runs.
type Scheduler struct {
	tools    ToolRunner
	caps     CapabilityProvider
	observer *safeObserver
	log      *logging.Logger
	jitter   func() float64
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithObserver installs the telemetry sink for all runs of this scheduler.
func WithObserver(obs Observer) SchedulerOption {
	return func(s *Scheduler) {
		s.observer = newSafeObserver(obs)
	}
}

// WithLogger installs the scheduler's diagnostic logger.
func WithLogger(log *logging.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithJitterSource replaces the randomized backoff scaling source. The
// function must return values in [0.5, 1.5); tests pin it to a constant to
// make retry timing reproducible.
func WithJitterSource(jitter func() float64) SchedulerOption {
	return func(s *Scheduler) {
		if jitter != nil {
			s.jitter = jitter
		}
	}
}

// NewScheduler creates a scheduler around the given tool runner. The runner
// may be nil for graphs that contain no tool nodes.
func NewScheduler(tools ToolRunner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		tools:    tools,
		observer: newSafeObserver(nil),
		log:      logging.NewNop(),
		jitter: func() float64 {
			return 0.5 + rand.Float64()
		},
	}
	if caps, ok := tools.(CapabilityProvider); ok {
		s.caps = caps
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nodeOutcome carries one finished node execution back into the
// scheduling loop.
type nodeOutcome struct {
	node   *Node
	result NodeResult
}

// runState is the mutable state of exactly one run. It is created by Run,
// mutated only from the scheduling goroutine, and discarded when the run
// returns, so overlapping runs of the same Graph never share state.
type runState struct {
	graph      *Graph
	inDegree   map[string]int
	dependents map[string][]string
	ready      []*Node
	status     map[string]Status
	results    map[string]NodeResult
	pending    int
	running    int
	cancelled  bool
}

func newRunState(g *Graph) *runState {
	rs := &runState{
		graph:      g,
		inDegree:   g.inDegrees(),
		dependents: g.dependents(),
		status:     make(map[string]Status, g.Len()),
		results:    make(map[string]NodeResult, g.Len()),
		pending:    g.Len(),
	}
	for _, node := range g.Nodes() {
		rs.status[node.ID] = StatusPending
		if rs.inDegree[node.ID] == 0 {
			rs.ready = append(rs.ready, node)
		}
	}
	return rs
}

func (rs *runState) popReady() *Node {
	node := rs.ready[0]
	rs.ready = rs.ready[1:]
	return node
}

// blockedBy returns the id of a dependency that ended in error or skipped,
// or "" when the node may start.
func (rs *runState) blockedBy(node *Node) string {
	for _, dep := range node.DependsOn {
		if st := rs.status[dep]; st == StatusError || st == StatusSkipped {
			return dep
		}
	}
	return ""
}

// Run executes the graph and returns its aggregated result. Node-level
// failures never surface as a Go error; they are contained in the result.
// Run errors only on structural misuse. Cancelling ctx stops new dispatch
// and converts not-yet-started nodes to skipped, while nodes already in
// flight run to completion.
func (s *Scheduler) Run(ctx context.Context, g *Graph, opts RunOptions) (*RunResult, error) {
	if g == nil || g.Len() == 0 {
		return nil, fmt.Errorf("run requires a non-empty graph")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}

	start := time.Now()
	rs := newRunState(g)
	corrID := g.CorrelationID()

	s.log.Infof("run %s starting: %d nodes, concurrency %d", g.ID(), g.Len(), opts.Concurrency)
	for _, warning := range g.Warnings() {
		s.log.Warnf("run %s: %s", g.ID(), warning)
	}
	s.observer.GraphStarted(GraphEvent{
		GraphID:       g.ID(),
		CorrelationID: corrID,
		Goal:          g.Meta().Goal,
		NodeCount:     g.Len(),
	})

	done := make(chan nodeOutcome)
	cancelled := ctx.Done()

	for rs.pending > 0 {
		if rs.cancelled {
			s.drainReady(rs, opts)
		}

		for !rs.cancelled && rs.running < opts.Concurrency && len(rs.ready) > 0 {
			node := rs.popReady()
			if dep := rs.blockedBy(node); dep != "" {
				s.skip(rs, node, fmt.Sprintf("dependency %q did not succeed", dep), opts)
				continue
			}
			rs.status[node.ID] = StatusRunning
			rs.running++
			safeCall(func() {
				if opts.OnNodeStart != nil {
					opts.OnNodeStart(node)
				}
			})
			s.observer.NodeStarted(NodeEvent{
				GraphID:       g.ID(),
				CorrelationID: corrID,
				NodeID:        node.ID,
				Kind:          node.Kind,
			})
			go func(n *Node) {
				done <- nodeOutcome{node: n, result: s.executeNode(ctx, g, n, opts)}
			}(node)
		}

		if rs.pending == 0 {
			break
		}
		if rs.running == 0 {
			if len(rs.ready) > 0 {
				continue
			}
			// Unreachable for graphs the builder accepts; resolve rather
			// than spin if it ever happens.
			s.skipStranded(rs, opts)
			continue
		}

		select {
		case out := <-done:
			s.complete(rs, out, opts)
		case <-cancelled:
			rs.cancelled = true
			cancelled = nil
			s.log.Infof("run %s cancelled, draining in-flight nodes", g.ID())
		}
	}

	result := &RunResult{
		GraphID:  g.ID(),
		OK:       true,
		Duration: time.Since(start),
		Results:  rs.results,
		State:    make(map[string]NodeState, g.Len()),
	}
	var succeeded, failed, skipped int
	for id, st := range rs.status {
		result.State[id] = NodeState{Status: st, Attempts: rs.results[id].Attempts}
		switch st {
		case StatusSuccess:
			succeeded++
		case StatusError:
			failed++
			result.OK = false
		case StatusSkipped:
			skipped++
		}
	}

	s.log.Infof("run %s finished: ok=%v in %s", g.ID(), result.OK, result.Duration)
	s.observer.GraphFinished(GraphEvent{
		GraphID:       g.ID(),
		CorrelationID: corrID,
		Goal:          g.Meta().Goal,
		NodeCount:     g.Len(),
		OK:            result.OK,
		Duration:      result.Duration,
		Succeeded:     succeeded,
		Failed:        failed,
		Skipped:       skipped,
	})
	return result, nil
}

// complete folds one finished execution back into the run state and
// unblocks (or skips) its dependents.
func (s *Scheduler) complete(rs *runState, out nodeOutcome, opts RunOptions) {
	node := out.node
	rs.running--
	rs.pending--
	rs.status[node.ID] = out.result.Status
	rs.results[node.ID] = out.result

	if out.result.Status == StatusError {
		s.log.Warnf("node %s failed after %d attempt(s): %s", node.ID, out.result.Attempts, out.result.Error)
		if opts.FailFast && !rs.cancelled {
			rs.cancelled = true
			s.log.Infof("fail-fast: stopping dispatch after node %s", node.ID)
		}
	}

	s.finishNode(rs, node, out.result, opts)
	s.resolveDependents(rs, node.ID, opts)
}

// resolveDependents decrements the in-degree of every dependent of a node
// that just reached a terminal state. Dependents that hit zero either get
// skipped (cancelled run, or a dependency that did not succeed) or join the
// ready queue.
func (s *Scheduler) resolveDependents(rs *runState, id string, opts RunOptions) {
	for _, depID := range rs.dependents[id] {
		rs.inDegree[depID]--
		if rs.inDegree[depID] > 0 {
			continue
		}
		dependent := rs.graph.Node(depID)
		if blocker := rs.blockedBy(dependent); blocker != "" {
			s.skip(rs, dependent, fmt.Sprintf("dependency %q did not succeed", blocker), opts)
			continue
		}
		if rs.cancelled {
			s.skip(rs, dependent, "run cancelled", opts)
			continue
		}
		rs.ready = append(rs.ready, dependent)
	}
}

// skip marks a node skipped with a synthetic result naming the cause, then
// cascades through its dependents.
func (s *Scheduler) skip(rs *runState, node *Node, cause string, opts RunOptions) {
	rs.pending--
	rs.status[node.ID] = StatusSkipped
	result := NodeResult{
		Status: StatusSkipped,
		Error:  "skipped: " + cause,
	}
	rs.results[node.ID] = result
	s.log.Debugf("node %s skipped: %s", node.ID, cause)
	s.finishNode(rs, node, result, opts)
	s.resolveDependents(rs, node.ID, opts)
}

// drainReady skips every node currently in the ready queue. Called once
// the run is cancelled, so no queued node starts.
func (s *Scheduler) drainReady(rs *runState, opts RunOptions) {
	for len(rs.ready) > 0 {
		node := rs.popReady()
		s.skip(rs, node, "run cancelled", opts)
	}
}

// skipStranded force-skips every node still pending. Cycle detection at
// construction means this path never triggers for accepted graphs.
func (s *Scheduler) skipStranded(rs *runState, opts RunOptions) {
	for _, node := range rs.graph.Nodes() {
		if !rs.status[node.ID].Terminal() && rs.status[node.ID] != StatusRunning {
			s.skip(rs, node, "dependency resolution stalled", opts)
		}
	}
}

// finishNode emits the node-finished callback and telemetry event.
func (s *Scheduler) finishNode(rs *runState, node *Node, result NodeResult, opts RunOptions) {
	safeCall(func() {
		if opts.OnNodeFinish != nil {
			opts.OnNodeFinish(node, result)
		}
	})
	detail := result.Error
	if detail == "" {
		detail = truncateObservation(result.Observation)
	}
	s.observer.NodeFinished(NodeEvent{
		GraphID:       rs.graph.ID(),
		CorrelationID: rs.graph.CorrelationID(),
		NodeID:        node.ID,
		Kind:          node.Kind,
		Status:        result.Status,
		Attempts:      result.Attempts,
		Elapsed:       result.Elapsed,
		Detail:        detail,
	})
}

// safeCall isolates caller-supplied callbacks the same way the observer
// boundary does.
func safeCall(call func()) {
	defer func() {
		_ = recover()
	}()
	call()
}
