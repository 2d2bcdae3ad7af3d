package engine

import (
	"time"
)

// Status is the lifecycle state of one node within one run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	// StatusSkipped is terminal and reached without ever running: the node
	// was abandoned because a dependency failed or the run was cancelled.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusSkipped
}

// NodeState is the per-node execution record in a run's final snapshot.
type NodeState struct {
	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`
}

// NodeResult is the last outcome recorded for a node: the observation from
// its final attempt, or the failure/skip reason.
type NodeResult struct {
	Status      Status         `json:"status"`
	Observation string         `json:"observation,omitempty"`
	Error       string         `json:"error,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	Attempts    int            `json:"attempts"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// RunResult aggregates one completed run. OK is true iff no node ended in
// error; node-level failures are recorded here rather than surfaced as Go
// errors, so a partially failed run still describes exactly which nodes
// succeeded, failed, or were skipped.
type RunResult struct {
	GraphID  string                `json:"graphId"`
	OK       bool                  `json:"ok"`
	Duration time.Duration         `json:"duration"`
	Results  map[string]NodeResult `json:"results"`
	State    map[string]NodeState  `json:"state"`
}

// Failed returns the ids of nodes that ended in error, in no particular
// order.
func (r *RunResult) Failed() []string {
	var ids []string
	for id, st := range r.State {
		if st.Status == StatusError {
			ids = append(ids, id)
		}
	}
	return ids
}

// Skipped returns the ids of nodes that were skipped, in no particular
// order.
func (r *RunResult) Skipped() []string {
	var ids []string
	for id, st := range r.State {
		if st.Status == StatusSkipped {
			ids = append(ids, id)
		}
	}
	return ids
}
