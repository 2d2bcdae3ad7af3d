package headless

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/security/urlguard"
)

// ConstraintManager enforces safety limits during a headless run. It is
// fed from the agent's event stream: every tool call and token usage event
// is recorded here, and the first violation stops the run.
type ConstraintManager struct {
	config *ConstraintConfig
	mode   ExecutionMode
	guard  *urlguard.Guard

	// Runtime state tracking
	toolCalls  int
	tokensUsed int
	startTime  time.Time

	mu sync.RWMutex
}

// ConstraintViolation represents a constraint violation error
type ConstraintViolation struct {
	Type    ViolationType
	Message string
	Details map[string]interface{}
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation (%s): %s", e.Type, e.Message)
}

// ViolationType identifies the type of constraint that was violated
type ViolationType string

const (
	ViolationHostPattern  ViolationType = "host_pattern"
	ViolationPageMutation ViolationType = "page_mutation"
	ViolationToolCalls    ViolationType = "tool_calls"
	ViolationTokenLimit   ViolationType = "token_limit"
	ViolationTimeout      ViolationType = "timeout"
)

// NewConstraintManager creates a new constraint manager
func NewConstraintManager(cfg ConstraintConfig, mode ExecutionMode) (*ConstraintManager, error) {
	guard, err := buildGuard(cfg.AllowedHosts, cfg.DeniedHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to compile host patterns: %w", err)
	}

	return &ConstraintManager{
		config:    &cfg,
		mode:      mode,
		guard:     guard,
		startTime: time.Now(),
	}, nil
}

// buildGuard compiles the constraint host globs into a URL guard. An empty
// allow list becomes a match-all pattern so only the deny list restricts.
func buildGuard(allowed, denied []string) (*urlguard.Guard, error) {
	allow := make([]config.URLPattern, 0, len(allowed))
	for _, p := range allowed {
		allow = append(allow, config.URLPattern{Pattern: p})
	}
	if len(allow) == 0 {
		allow = append(allow, config.URLPattern{Pattern: "*", Description: "Any host"})
	}

	deny := make([]config.URLPattern, 0, len(denied))
	for _, p := range denied {
		deny = append(deny, config.URLPattern{Pattern: p, Description: "Denied by run constraints"})
	}

	return urlguard.New(allow, deny)
}

// RecordToolCall records one tool invocation attempt and validates it
// against the call budget, the browsing mode, and the host patterns. The
// input map is inspected for a url field; tools without one skip the host
// check.
func (cm *ConstraintManager) RecordToolCall(toolName string, input map[string]interface{}, capabilities map[string]interface{}) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.toolCalls++

	if cm.config.MaxToolCalls > 0 && cm.toolCalls > cm.config.MaxToolCalls {
		return &ConstraintViolation{
			Type:    ViolationToolCalls,
			Message: fmt.Sprintf("maximum tool calls exceeded (%d)", cm.config.MaxToolCalls),
			Details: map[string]interface{}{
				"max_tool_calls": cm.config.MaxToolCalls,
				"tool_calls":     cm.toolCalls,
				"tool":           toolName,
			},
		}
	}

	if cm.mode == ModeObserve && mutatesPage(capabilities) {
		return &ConstraintViolation{
			Type:    ViolationPageMutation,
			Message: fmt.Sprintf("tool '%s' mutates the page and is not allowed in observe mode", toolName),
			Details: map[string]interface{}{
				"tool": toolName,
				"mode": string(cm.mode),
			},
		}
	}

	if rawURL, ok := input["url"].(string); ok && rawURL != "" {
		if v := cm.checkURL(toolName, rawURL); v != nil {
			return v
		}
	}

	return nil
}

// checkURL runs the host pattern rules over one URL. Only pattern refusals
// become violations; malformed URLs are left for the tool itself to reject.
// Must be called with the lock held.
func (cm *ConstraintManager) checkURL(toolName, rawURL string) *ConstraintViolation {
	err := cm.guard.Check(rawURL)
	if err == nil {
		return nil
	}

	var denied *urlguard.DeniedError
	if !errors.As(err, &denied) {
		return nil
	}

	return &ConstraintViolation{
		Type:    ViolationHostPattern,
		Message: denied.Error(),
		Details: map[string]interface{}{
			"tool":          toolName,
			"url":           denied.URL,
			"host":          denied.Host,
			"allowed_hosts": cm.config.AllowedHosts,
			"denied_hosts":  cm.config.DeniedHosts,
		},
	}
}

// RecordTokenUsage records token usage and validates against the limit
func (cm *ConstraintManager) RecordTokenUsage(tokens int) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.tokensUsed += tokens

	if cm.config.MaxTokens > 0 && cm.tokensUsed > cm.config.MaxTokens {
		return &ConstraintViolation{
			Type:    ViolationTokenLimit,
			Message: fmt.Sprintf("maximum token usage exceeded (%d)", cm.config.MaxTokens),
			Details: map[string]interface{}{
				"max_tokens":  cm.config.MaxTokens,
				"tokens_used": cm.tokensUsed,
			},
		}
	}

	return nil
}

// CheckTimeout checks if the run has exceeded its time budget
func (cm *ConstraintManager) CheckTimeout() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.config.Timeout <= 0 {
		return nil // No timeout configured
	}

	elapsed := time.Since(cm.startTime)
	if elapsed > cm.config.Timeout {
		return &ConstraintViolation{
			Type:    ViolationTimeout,
			Message: fmt.Sprintf("run timeout exceeded (%v)", cm.config.Timeout),
			Details: map[string]interface{}{
				"timeout": cm.config.Timeout,
				"elapsed": elapsed,
			},
		}
	}

	return nil
}

// GetCurrentState returns the current constraint state
func (cm *ConstraintManager) GetCurrentState() *ConstraintState {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &ConstraintState{
		ToolCalls:  cm.toolCalls,
		TokensUsed: cm.tokensUsed,
		Elapsed:    time.Since(cm.startTime),
	}
}

// ConstraintState represents the current state of constraint tracking
type ConstraintState struct {
	ToolCalls  int
	TokensUsed int
	Elapsed    time.Duration
}

// mutatesPage reports whether the tool's capability metadata marks it as
// page-mutating. Tools without metadata are treated as read-only.
func mutatesPage(capabilities map[string]interface{}) bool {
	if capabilities == nil {
		return false
	}
	mutates, ok := capabilities["mutates_page"].(bool)
	return ok && mutates
}
