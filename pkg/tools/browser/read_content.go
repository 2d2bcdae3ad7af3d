package browser

import (
	"context"
	"fmt"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/tools"
)

// ReadContentTool reads the current page in a model-consumable form.
// Output is budgeted in tokens rather than characters so downstream LLM
// nodes receive predictable context sizes.
type ReadContentTool struct {
	manager *Manager
	tok     *tokenizer.Tokenizer
}

// NewReadContentTool creates a new read content tool. A nil tokenizer
// falls back to character-based estimation for the token budget.
func NewReadContentTool(manager *Manager, tok *tokenizer.Tokenizer) *ReadContentTool {
	return &ReadContentTool{
		manager: manager,
		tok:     tok,
	}
}

// Name returns the tool name.
func (t *ReadContentTool) Name() string {
	return "read_page_content"
}

// Description returns the tool description.
func (t *ReadContentTool) Description() string {
	return "Read the current page's content. Supports multiple formats: markdown (default), plain text, or cleaned HTML that preserves structure and selectors."
}

// Schema returns the tool's JSON schema.
func (t *ReadContentTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Output format: 'markdown' (default), 'text', or 'html'",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Optional CSS selector to read a specific element (e.g., 'article', '.main-content'). Ignored for the html format.",
			},
			"max_tokens": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum content size in tokens. Default: 2500",
			},
		},
		nil,
	)
}

// Execute reads the page content.
func (t *ReadContentTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	format, _ := tools.StringField(input, "format")
	if format == "" {
		format = "markdown"
	}
	if format != "markdown" && format != "text" && format != "html" {
		return nil, fmt.Errorf("invalid format: %s (must be 'markdown', 'text', or 'html')", format)
	}

	maxTokens := tools.IntField(input, "max_tokens", DefaultMaxContentTokens)
	if maxTokens < 50 || maxTokens > 50000 {
		return nil, fmt.Errorf("max_tokens must be between 50 and 50000")
	}
	selector, _ := tools.StringField(input, "selector")

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	charBudget := maxTokens * charsPerToken

	var content string
	switch format {
	case "text":
		content, err = tab.Text(selector, charBudget)
	case "markdown":
		content, err = t.readMarkdown(tab, selector, charBudget)
	case "html":
		content, err = t.readHTML(tab, charBudget)
	}
	if err != nil {
		return nil, err
	}

	content, tokenCount := t.budget(content, maxTokens)

	source := "entire page"
	if selector != "" && format != "html" {
		source = fmt.Sprintf("selector: %s", selector)
	}

	observation := fmt.Sprintf(`Page content (%s, %s, ~%d tokens)

URL: %s

---

%s`,
		format,
		source,
		tokenCount,
		tab.CurrentURL,
		content,
	)

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
		Extra: map[string]any{
			"format": format,
			"length": len(content),
			"tokens": tokenCount,
		},
	}, nil
}

// readMarkdown produces a lightweight markdown rendering: the page title
// as a heading followed by the text content.
func (t *ReadContentTool) readMarkdown(tab *Tab, selector string, charBudget int) (string, error) {
	text, err := tab.Text(selector, charBudget)
	if err != nil {
		return "", err
	}

	if title := tab.Title(); title != "" {
		return fmt.Sprintf("# %s\n\n%s", title, text), nil
	}
	return text, nil
}

// readHTML produces the cleaned HTML rendering with the page metadata on
// top so selector-hunting nodes see title and description without extra
// calls.
func (t *ReadContentTool) readHTML(tab *Tab, charBudget int) (string, error) {
	cleaned, err := tab.CleanedPage(charBudget)
	if err != nil {
		return "", err
	}

	var header string
	if cleaned.Title != "" {
		header += fmt.Sprintf("<!-- title: %s -->\n", cleaned.Title)
	}
	if cleaned.Description != "" {
		header += fmt.Sprintf("<!-- description: %s -->\n", cleaned.Description)
	}
	if cleaned.Truncated {
		header += "<!-- truncated -->\n"
	}

	return header + cleaned.HTML, nil
}

// budget enforces the token limit on content, returning the kept content
// and its token count. Without a tokenizer the character heuristic already
// applied by the extraction is trusted and only estimated.
func (t *ReadContentTool) budget(content string, maxTokens int) (string, int) {
	if t.tok == nil {
		estimate := tokenizer.Estimate(content)
		return content, estimate
	}

	count := t.tok.CountTokens(content)
	if count <= maxTokens {
		return content, count
	}
	truncated := t.tok.Truncate(content, maxTokens)
	return truncated, maxTokens
}

// Capabilities describes the tool for telemetry.
func (t *ReadContentTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": false,
		"uses_llm":     false,
	}
}
