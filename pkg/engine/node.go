package engine

import (
	"time"
)

// Kind identifies the variant of work a node performs.
type Kind string

const (
	// KindTool invokes a named capability through the tool runner.
	KindTool Kind = "tool"
	// KindDelay suspends for a fixed duration, then succeeds.
	KindDelay Kind = "delay"
	// KindNoop completes immediately without doing anything. Useful as a
	// join/fan-in point between branches.
	KindNoop Kind = "noop"
)

// RetryPolicySpec is the wire shape of a node's retry configuration.
type RetryPolicySpec struct {
	MaxAttempts int   `json:"maxAttempts,omitempty" yaml:"max_attempts,omitempty"`
	BackoffMs   int64 `json:"backoffMs,omitempty" yaml:"backoff_ms,omitempty"`
}

// NodeSpec is the serializable description of one unit of work, as supplied
// by callers, plan templates, and the linear plan compiler. The graph
// builder validates and normalizes specs into runtime Node values.
type NodeSpec struct {
	ID          string           `json:"id" yaml:"id"`
	Kind        string           `json:"kind,omitempty" yaml:"kind,omitempty"`
	DependsOn   []string         `json:"dependsOn,omitempty" yaml:"depends_on,omitempty"`
	ToolID      string           `json:"toolId,omitempty" yaml:"tool_id,omitempty"`
	Input       map[string]any   `json:"input,omitempty" yaml:"input,omitempty"`
	DelayMs     int64            `json:"delayMs,omitempty" yaml:"delay_ms,omitempty"`
	TimeoutMs   int64            `json:"timeoutMs,omitempty" yaml:"timeout_ms,omitempty"`
	RetryPolicy *RetryPolicySpec `json:"retryPolicy,omitempty" yaml:"retry_policy,omitempty"`
}

// RetryPolicy is the normalized retry configuration for a node.
// MaxAttempts is always >= 1 and Backoff is never negative.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Node is one schedulable unit of work inside a built graph. Nodes are
// immutable after construction; per-run progress lives in the run state,
// never on the node itself.
type Node struct {
	ID        string
	Kind      Kind
	DependsOn []string

	// ToolID and Input are populated only for KindTool.
	ToolID string
	Input  map[string]any

	// Delay is populated only for KindDelay.
	Delay time.Duration

	// Timeout bounds a single tool attempt. Zero means fall back to the
	// run-level default; if that is also zero, the attempt is unbounded.
	Timeout time.Duration

	Retry RetryPolicy
}

// normalizeKind maps a spec kind string onto a known Kind. Unknown or empty
// kinds normalize to KindNoop; the second return reports whether the input
// was recognized.
func normalizeKind(kind string) (Kind, bool) {
	switch Kind(kind) {
	case KindTool, KindDelay, KindNoop:
		return Kind(kind), true
	case "":
		return KindNoop, true
	default:
		return KindNoop, false
	}
}

// normalizeRetry applies the retry policy floors: at least one attempt,
// never a negative backoff.
func normalizeRetry(spec *RetryPolicySpec) RetryPolicy {
	policy := RetryPolicy{MaxAttempts: 1}
	if spec == nil {
		return policy
	}
	if spec.MaxAttempts > 1 {
		policy.MaxAttempts = spec.MaxAttempts
	}
	if spec.BackoffMs > 0 {
		policy.Backoff = time.Duration(spec.BackoffMs) * time.Millisecond
	}
	return policy
}
