package browser

import (
	"context"
	"fmt"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/tools"
)

// FillTool fills a form input on the current page.
type FillTool struct {
	manager *Manager
}

// NewFillTool creates a new fill tool.
func NewFillTool(manager *Manager) *FillTool {
	return &FillTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *FillTool) Name() string {
	return "fill_field"
}

// Description returns the tool description.
func (t *FillTool) Description() string {
	return "Fill a form field on the current page using a CSS selector. Optionally press Enter afterwards to submit, which is useful for search boxes."
}

// Schema returns the tool's JSON schema.
func (t *FillTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector for the input element (e.g., 'input[name=\"q\"]', '#email')",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "The text to fill. An empty string clears the field.",
			},
			"submit": map[string]interface{}{
				"type":        "boolean",
				"description": "Press Enter after filling. Default: false",
			},
		},
		[]string{"selector", "value"},
	)
}

// Execute fills the field.
func (t *FillTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	selector, err := tools.RequiredString(input, "selector")
	if err != nil {
		return nil, err
	}

	// An empty value is a legal clear, so only presence is required
	value, ok := tools.StringField(input, "value")
	if !ok {
		return nil, fmt.Errorf("value is required")
	}

	submit := tools.BoolField(input, "submit", false)

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	if err := tab.Fill(FillOptions{
		Selector: selector,
		Value:    value,
	}); err != nil {
		return nil, err
	}

	action := fmt.Sprintf("Filled %s", selector)
	if value == "" {
		action = fmt.Sprintf("Cleared %s", selector)
	}

	if submit {
		if err := tab.Press(selector, "Enter"); err != nil {
			return nil, err
		}
		action += " and pressed Enter"
	}

	observation := fmt.Sprintf(`%s

Current URL: %s`,
		action,
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
func (t *FillTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": true,
		"uses_llm":     false,
	}
}
