package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/types"
)

// ExtractTool pulls structured data out of the current page by handing
// the cleaned HTML to the model with an extraction instruction. The reply
// must be valid JSON; anything else counts as a failed attempt so retries
// can recover from a chatty model.
type ExtractTool struct {
	manager  *Manager
	provider llm.Provider
	tok      *tokenizer.Tokenizer
}

// NewExtractTool creates a new structured extraction tool.
func NewExtractTool(manager *Manager, provider llm.Provider, tok *tokenizer.Tokenizer) *ExtractTool {
	return &ExtractTool{
		manager:  manager,
		provider: provider,
		tok:      tok,
	}
}

// Name returns the tool name.
func (t *ExtractTool) Name() string {
	return "extract_structured_content"
}

// Description returns the tool description.
func (t *ExtractTool) Description() string {
	return "Extract structured data from the current page using AI. Describe what to extract in the instruction; the result is JSON matching that instruction."
}

// Schema returns the tool's JSON schema.
func (t *ExtractTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"instruction": map[string]interface{}{
				"type":        "string",
				"description": "What to extract and how to shape it (e.g., 'all plan names with monthly prices as an array of {name, price} objects')",
			},
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Optional CSS selector to narrow extraction to part of the page",
			},
			"max_tokens": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum page content handed to the model, in tokens. Default: 2500",
			},
		},
		[]string{"instruction"},
	)
}

// Execute extracts structured data from the page.
func (t *ExtractTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	if t.provider == nil {
		return nil, fmt.Errorf("LLM provider not available")
	}

	instruction, err := tools.RequiredString(input, "instruction")
	if err != nil {
		return nil, err
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

	content, err := t.pageContent(tab, selector, maxTokens)
	if err != nil {
		return nil, err
	}

	prompt := buildExtractionPrompt(tab.CurrentURL, tab.Title(), content, instruction)
	response, err := t.provider.Complete(ctx, []*types.Message{types.NewUserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	raw := stripCodeFences(response.Content)
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return &engine.ToolResult{
			OK:          false,
			Observation: fmt.Sprintf("model reply was not valid JSON: %v\n\nReply:\n%s", err, response.Content),
			Extra: map[string]any{
				"raw": response.Content,
			},
		}, nil
	}

	return &engine.ToolResult{
		OK:          true,
		Observation: raw,
		Extra: map[string]any{
			"data": data,
			"url":  tab.CurrentURL,
		},
	}, nil
}

// pageContent reads the cleaned HTML (or selector text) sized to the
// token budget.
func (t *ExtractTool) pageContent(tab *Tab, selector string, maxTokens int) (string, error) {
	charBudget := maxTokens * charsPerToken

	var content string
	var err error
	if selector != "" {
		content, err = tab.Text(selector, charBudget)
	} else {
		var cleaned *CleanedPage
		cleaned, err = tab.CleanedPage(charBudget)
		if err == nil {
			content = cleaned.HTML
		}
	}
	if err != nil {
		return "", err
	}

	if t.tok != nil && t.tok.CountTokens(content) > maxTokens {
		content = t.tok.Truncate(content, maxTokens)
	}
	return content, nil
}

// buildExtractionPrompt creates the extraction prompt for the model.
func buildExtractionPrompt(url, title, content, instruction string) string {
	var prompt strings.Builder

	prompt.WriteString("Extract structured data from the following web page.\n\n")
	prompt.WriteString(fmt.Sprintf("URL: %s\n", url))
	prompt.WriteString(fmt.Sprintf("Title: %s\n\n", title))
	prompt.WriteString(fmt.Sprintf("Extraction instruction: %s\n\n", instruction))
	prompt.WriteString("Page content:\n")
	prompt.WriteString("```html\n")
	prompt.WriteString(content)
	prompt.WriteString("\n```\n\n")
	prompt.WriteString("Respond with ONLY the extracted data as valid JSON. ")
	prompt.WriteString("No explanation, no markdown fences. ")
	prompt.WriteString("If the page contains none of the requested data, respond with an empty JSON object {}.")

	return prompt.String()
}

// stripCodeFences removes a wrapping markdown code fence (with optional
// language hint) from a model reply.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language hint line
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Capabilities describes the tool for telemetry.
func (t *ExtractTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": false,
		"uses_llm":     true,
	}
}
