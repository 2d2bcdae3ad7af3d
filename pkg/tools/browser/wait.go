package browser

import (
	"context"
	"fmt"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/tools"
)

// WaitTool waits for an element on the current page to reach a state,
// bridging the gap between navigation and content that loads lazily.
type WaitTool struct {
	manager *Manager
}

// NewWaitTool creates a new wait tool.
func NewWaitTool(manager *Manager) *WaitTool {
	return &WaitTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *WaitTool) Name() string {
	return "wait_for"
}

// Description returns the tool description.
func (t *WaitTool) Description() string {
	return "Wait for an element matching a CSS selector to reach a state (visible by default). Use before reading pages that load content dynamically."
}

// Schema returns the tool's JSON schema.
func (t *WaitTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the element to wait for",
			},
			"state": map[string]interface{}{
				"type":        "string",
				"description": "State to wait for: 'visible' (default), 'attached', 'detached', or 'hidden'",
			},
			"timeout_ms": map[string]interface{}{
				"type":        "integer",
				"description": "Wait timeout in milliseconds. Default: the tab's navigation timeout",
			},
		},
		[]string{"selector"},
	)
}

// Execute waits for the element.
func (t *WaitTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	selector, err := tools.RequiredString(input, "selector")
	if err != nil {
		return nil, err
	}

	state, _ := tools.StringField(input, "state")
	if state == "" {
		state = "visible"
	}
	validStates := map[string]bool{
		"attached": true,
		"detached": true,
		"visible":  true,
		"hidden":   true,
	}
	if !validStates[state] {
		return nil, fmt.Errorf("invalid state: %s (must be 'attached', 'detached', 'visible', or 'hidden')", state)
	}

	timeout := tools.IntField(input, "timeout_ms", 0)
	if timeout < 0 {
		return nil, fmt.Errorf("timeout_ms cannot be negative")
	}

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	if err := tab.WaitFor(WaitOptions{
		Selector: selector,
		State:    state,
		Timeout:  float64(timeout),
	}); err != nil {
		return &engine.ToolResult{
			OK:          false,
			Observation: fmt.Sprintf("wait for %s (%s) on %s failed: %v", selector, state, tab.CurrentURL, err),
		}, nil
	}

	observation := fmt.Sprintf("Element %s is now %s on %s", selector, state, tab.CurrentURL)

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
	}, nil
}

// Capabilities describes the tool for telemetry.
func (t *WaitTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": false,
		"uses_llm":     false,
	}
}
