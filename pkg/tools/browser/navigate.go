package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/security/urlguard"
	"github.com/weavehq/loom/pkg/tools"
)

// NavigateTool points the run's tab at a URL. Every navigation is checked
// against the URL guard first; refusals are reported as failed results so
// the run records why the page was never loaded.
type NavigateTool struct {
	manager *Manager
	guard   *urlguard.Guard
}

// NewNavigateTool creates a new navigate tool. A nil guard leaves
// navigation unrestricted.
func NewNavigateTool(manager *Manager, guard *urlguard.Guard) *NavigateTool {
	return &NavigateTool{
		manager: manager,
		guard:   guard,
	}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "navigate_to_url"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate the tab to a URL and wait for the page to load. Use wait_until to control when navigation counts as complete."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to navigate to (must include http:// or https://)",
			},
			"wait_until": map[string]interface{}{
				"type":        "string",
				"description": "When to consider navigation complete: 'load' (default), 'domcontentloaded', or 'networkidle'",
			},
		},
		[]string{"url"},
	)
}

// Execute navigates the tab to the requested URL.
func (t *NavigateTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	target, err := tools.RequiredString(input, "url")
	if err != nil {
		return nil, err
	}

	waitUntil, _ := tools.StringField(input, "wait_until")
	if waitUntil == "" {
		waitUntil = "load"
	}
	validWaitUntil := map[string]bool{
		"load":             true,
		"domcontentloaded": true,
		"networkidle":      true,
	}
	if !validWaitUntil[waitUntil] {
		return nil, fmt.Errorf("invalid wait_until: %s (must be 'load', 'domcontentloaded', or 'networkidle')", waitUntil)
	}

	if t.guard != nil {
		if err := t.guard.Check(target); err != nil {
			var denied *urlguard.DeniedError
			if errors.As(err, &denied) {
				return &engine.ToolResult{
					OK:          false,
					Observation: denied.Error(),
					Extra: map[string]any{
						"blocked": true,
						"host":    denied.Host,
					},
				}, nil
			}
			return nil, err
		}
	}

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	if err := tab.Navigate(target, NavigateOptions{WaitUntil: waitUntil}); err != nil {
		return nil, err
	}

	title := tab.Title()
	observation := fmt.Sprintf(`Navigated to %s

Navigation Details:
- Final URL: %s
- Title: %s
- Wait condition: %s`,
		target,
		tab.CurrentURL,
		title,
		waitUntil,
	)

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
		Extra: map[string]any{
			"url":   tab.CurrentURL,
			"title": title,
		},
	}, nil
}

// Capabilities describes the tool for telemetry.
func (t *NavigateTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": true,
		"uses_llm":     false,
		"guarded":      t.guard != nil,
	}
}
