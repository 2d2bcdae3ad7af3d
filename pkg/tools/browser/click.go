package browser

import (
	"context"
	"fmt"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/tools"
)

// ClickTool clicks an element on the current page.
type ClickTool struct {
	manager *Manager
}

// NewClickTool creates a new click tool.
func NewClickTool(manager *Manager) *ClickTool {
	return &ClickTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *ClickTool) Name() string {
	return "click_element"
}

// Description returns the tool description.
func (t *ClickTool) Description() string {
	return "Click an element on the current page using a CSS selector. Supports single and double clicks, and different mouse buttons."
}

// Schema returns the tool's JSON schema.
func (t *ClickTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the element to click (e.g., 'button.submit', '#login-btn', 'a[href=\"/about\"]')",
			},
			"button": map[string]interface{}{
				"type":        "string",
				"description": "Mouse button to use: 'left' (default), 'right', or 'middle'",
			},
			"click_count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of clicks: 1 (default) for single click, 2 for double click",
			},
		},
		[]string{"selector"},
	)
}

// Execute clicks an element.
func (t *ClickTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	selector, err := tools.RequiredString(input, "selector")
	if err != nil {
		return nil, err
	}

	button, _ := tools.StringField(input, "button")
	if button != "" {
		validButtons := map[string]bool{
			"left":   true,
			"right":  true,
			"middle": true,
		}
		if !validButtons[button] {
			return nil, fmt.Errorf("invalid button: %s (must be 'left', 'right', or 'middle')", button)
		}
	}

	clickCount := tools.IntField(input, "click_count", 1)
	if clickCount < 1 || clickCount > 3 {
		return nil, fmt.Errorf("click_count must be between 1 and 3")
	}

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	if err := tab.Click(ClickOptions{
		Selector:   selector,
		Button:     button,
		ClickCount: clickCount,
	}); err != nil {
		return nil, err
	}

	clickType := "single click"
	switch clickCount {
	case 2:
		clickType = "double click"
	case 3:
		clickType = "triple click"
	}

	observation := fmt.Sprintf(`Clicked %s (%s)

Current URL: %s

If the click caused navigation or page changes, read the page content to see the new state.`,
		selector,
		clickType,
		tab.CurrentURL,
	)

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
		Extra: map[string]any{
			"url": tab.CurrentURL,
		},
	}, nil
}

// Capabilities describes the tool for telemetry.
func (t *ClickTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": true,
		"uses_llm":     false,
	}
}
