package engine

import (
	"time"
)

// obsPreviewLimit bounds the observation text attached to telemetry
// events. Full observations stay in the RunResult.
const obsPreviewLimit = 200

// GraphEvent describes a run-level lifecycle transition.
type GraphEvent struct {
	GraphID       string
	CorrelationID string
	Goal          string
	NodeCount     int

	// Populated on finish only.
	OK        bool
	Duration  time.Duration
	Succeeded int
	Failed    int
	Skipped   int
}

// NodeEvent describes a node-level lifecycle transition.
type NodeEvent struct {
	GraphID       string
	CorrelationID string
	NodeID        string
	Kind          Kind

	// Populated on finish only. Detail carries the error or skip cause
	// for unsuccessful nodes and an observation preview otherwise.
	Status   Status
	Attempts int
	Elapsed  time.Duration
	Detail   string
}

// ToolEvent describes one tool invocation attempt made for a tool node.
type ToolEvent struct {
	GraphID       string
	CorrelationID string
	NodeID        string
	ToolID        string
	Attempt       int

	// Input is the node's input map, forwarded so observers can surface
	// what the tool was asked to do. Populated on start only.
	Input map[string]any

	// Capabilities carries runner-provided metadata for the tool, when
	// the runner exposes any. Populated on start only.
	Capabilities map[string]any

	// Populated on result only. Observation is truncated to a preview.
	OK          bool
	Observation string
	Error       string
	Elapsed     time.Duration
}

// Observer is the best-effort sink for run lifecycle telemetry. Every
// implementation is wrapped in a recovering adapter before the scheduler
// touches it, so a panicking observer can never alter scheduling outcomes.
// Implementations must not block for long; they are called inline from the
// executing node's goroutine.
type Observer interface {
	GraphStarted(e GraphEvent)
	GraphFinished(e GraphEvent)
	NodeStarted(e NodeEvent)
	NodeFinished(e NodeEvent)
	ToolStarted(e ToolEvent)
	ToolResult(e ToolEvent)
}

// NopObserver discards all events. It is the default when no observer is
// injected.
type NopObserver struct{}

func (NopObserver) GraphStarted(GraphEvent)  {}
func (NopObserver) GraphFinished(GraphEvent) {}
func (NopObserver) NodeStarted(NodeEvent)    {}
func (NopObserver) NodeFinished(NodeEvent)   {}
func (NopObserver) ToolStarted(ToolEvent)    {}
func (NopObserver) ToolResult(ToolEvent)     {}

// safeObserver shields the scheduler from the injected observer: every
// call is isolated behind a recover so telemetry failures stay invisible
// to the run.
type safeObserver struct {
	inner Observer
}

func newSafeObserver(inner Observer) *safeObserver {
	if inner == nil {
		inner = NopObserver{}
	}
	return &safeObserver{inner: inner}
}

func (s *safeObserver) GraphStarted(e GraphEvent)  { s.emit(func() { s.inner.GraphStarted(e) }) }
func (s *safeObserver) GraphFinished(e GraphEvent) { s.emit(func() { s.inner.GraphFinished(e) }) }
func (s *safeObserver) NodeStarted(e NodeEvent)    { s.emit(func() { s.inner.NodeStarted(e) }) }
func (s *safeObserver) NodeFinished(e NodeEvent)   { s.emit(func() { s.inner.NodeFinished(e) }) }
func (s *safeObserver) ToolStarted(e ToolEvent)    { s.emit(func() { s.inner.ToolStarted(e) }) }
func (s *safeObserver) ToolResult(e ToolEvent)     { s.emit(func() { s.inner.ToolResult(e) }) }

func (s *safeObserver) emit(call func()) {
	defer func() {
		_ = recover()
	}()
	call()
}

// truncateObservation shortens an observation string for telemetry use.
func truncateObservation(obs string) string {
	if len(obs) <= obsPreviewLimit {
		return obs
	}
	return obs[:obsPreviewLimit] + "..."
}
