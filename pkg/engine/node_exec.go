package engine

import (
	"context"
	"fmt"
	"time"
)

// attemptOutcome is the result of a single execution attempt.
type attemptOutcome struct {
	ok          bool
	observation string
	errMsg      string
	extra       map[string]any
}

// executeNode runs one node to a terminal outcome: dispatch by kind, with
// the retry loop applied around every attempt. All failures are converted
// to data on the NodeResult; nothing escapes as an error or panic.
func (s *Scheduler) executeNode(ctx context.Context, g *Graph, node *Node, opts RunOptions) NodeResult {
	start := time.Now()
	result := NodeResult{Status: StatusError}

	switch node.Kind {
	case KindTool, KindDelay, KindNoop:
	default:
		// Builder normalization makes this unreachable for built graphs;
		// hand-constructed nodes fail here without retrying.
		result.Error = fmt.Sprintf("unknown node kind %q", node.Kind)
		result.Attempts = 1
		result.Elapsed = time.Since(start)
		return result
	}

	for attempt := 1; attempt <= node.Retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			result.Error = "run cancelled"
			break
		}

		outcome := s.attemptNode(ctx, g, node, attempt, opts)
		result.Attempts = attempt

		if outcome.ok {
			result.Status = StatusSuccess
			result.Observation = outcome.observation
			result.Extra = outcome.extra
			result.Error = ""
			break
		}
		result.Error = outcome.errMsg

		if attempt == node.Retry.MaxAttempts {
			break
		}
		backoff := time.Duration(float64(node.Retry.Backoff) * float64(attempt) * s.jitter())
		if !sleepContext(ctx, backoff) {
			result.Error = "run cancelled"
			break
		}
	}

	result.Elapsed = time.Since(start)
	return result
}

// attemptNode performs a single attempt of the node's work.
func (s *Scheduler) attemptNode(ctx context.Context, g *Graph, node *Node, attempt int, opts RunOptions) attemptOutcome {
	switch node.Kind {
	case KindNoop:
		return attemptOutcome{ok: true}

	case KindDelay:
		if !sleepContext(ctx, node.Delay) {
			return attemptOutcome{errMsg: "delay interrupted by cancellation"}
		}
		return attemptOutcome{ok: true, observation: fmt.Sprintf("delayed %s", node.Delay)}

	case KindTool:
		return s.attemptTool(ctx, g, node, attempt, opts)
	}
	return attemptOutcome{errMsg: fmt.Sprintf("unknown node kind %q", node.Kind)}
}

// attemptTool invokes the tool runner once, racing the call against the
// node's timeout. A timed-out attempt is recorded as a failure; the
// underlying call is cancelled through its context but never waited on.
func (s *Scheduler) attemptTool(ctx context.Context, g *Graph, node *Node, attempt int, opts RunOptions) attemptOutcome {
	if s.tools == nil {
		return attemptOutcome{errMsg: fmt.Sprintf("no tool runner configured for tool %q", node.ToolID)}
	}

	timeout := node.Timeout
	if timeout == 0 {
		timeout = opts.DefaultToolTimeout
	}
	toolCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	event := ToolEvent{
		GraphID:       g.ID(),
		CorrelationID: g.CorrelationID(),
		NodeID:        node.ID,
		ToolID:        node.ToolID,
		Attempt:       attempt,
		Input:         node.Input,
	}
	if s.caps != nil {
		if meta, ok := s.caps.Capabilities(node.ToolID); ok {
			event.Capabilities = meta
		}
	}
	s.observer.ToolStarted(event)
	start := time.Now()

	type callReturn struct {
		res *ToolResult
		err error
	}
	ch := make(chan callReturn, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- callReturn{err: fmt.Errorf("tool %q panicked: %v", node.ToolID, r)}
			}
		}()
		res, err := s.tools.RunTool(toolCtx, Call{
			ToolID: node.ToolID,
			Exec:   opts.Exec,
			Input:  node.Input,
		})
		ch <- callReturn{res: res, err: err}
	}()

	var outcome attemptOutcome
	select {
	case ret := <-ch:
		switch {
		case ret.err != nil:
			outcome = attemptOutcome{errMsg: ret.err.Error()}
		case ret.res == nil:
			outcome = attemptOutcome{errMsg: fmt.Sprintf("tool %q returned no result", node.ToolID)}
		case !ret.res.OK:
			msg := ret.res.Observation
			if msg == "" {
				msg = fmt.Sprintf("tool %q reported failure", node.ToolID)
			}
			outcome = attemptOutcome{errMsg: msg, extra: ret.res.Extra}
		default:
			outcome = attemptOutcome{
				ok:          true,
				observation: ret.res.Observation,
				extra:       ret.res.Extra,
			}
		}
	case <-toolCtx.Done():
		if toolCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			outcome = attemptOutcome{errMsg: fmt.Sprintf("tool %q timed out after %s", node.ToolID, timeout)}
		} else {
			outcome = attemptOutcome{errMsg: "run cancelled during tool call"}
		}
	}

	event.OK = outcome.ok
	event.Observation = truncateObservation(outcome.observation)
	event.Error = outcome.errMsg
	event.Elapsed = time.Since(start)
	event.Input = nil
	event.Capabilities = nil
	s.observer.ToolResult(event)
	return outcome
}

// sleepContext waits for the duration unless the context ends first. The
// return reports whether the full duration elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
