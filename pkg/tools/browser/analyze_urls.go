package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/types"
)

// AnalyzeURLsTool collects the current page's links and asks the model
// which of them matter for a question, typically to decide where a run
// should navigate next.
type AnalyzeURLsTool struct {
	manager  *Manager
	provider llm.Provider
}

// NewAnalyzeURLsTool creates a new URL analysis tool.
func NewAnalyzeURLsTool(manager *Manager, provider llm.Provider) *AnalyzeURLsTool {
	return &AnalyzeURLsTool{
		manager:  manager,
		provider: provider,
	}
}

// Name returns the tool name.
func (t *AnalyzeURLsTool) Name() string {
	return "analyze_urls"
}

// Description returns the tool description.
func (t *AnalyzeURLsTool) Description() string {
	return "Collect the links on the current page and analyze them with AI to find the ones relevant to a question. Useful for deciding which page to visit next."
}

// Schema returns the tool's JSON schema.
func (t *AnalyzeURLsTool) Schema() map[string]interface{} {
	return tools.BaseSchema(
		map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "What to look for among the links (e.g., 'where is the pricing page?'). Default: which links are most relevant to the page's purpose",
			},
			"max_links": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of links to consider. Default: 40",
			},
		},
		nil,
	)
}

// Execute collects and analyzes the page's links.
func (t *AnalyzeURLsTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	if t.provider == nil {
		return nil, fmt.Errorf("LLM provider not available")
	}

	question, _ := tools.StringField(input, "question")
	if question == "" {
		question = "Which links are most relevant to this page's purpose?"
	}

	maxLinks := tools.IntField(input, "max_links", DefaultMaxLinks)
	if maxLinks < 1 || maxLinks > 200 {
		return nil, fmt.Errorf("max_links must be between 1 and 200")
	}

	tab, err := t.manager.AcquireFor(exec)
	if err != nil {
		return nil, err
	}

	links, err := tab.Links()
	if err != nil {
		return nil, err
	}

	if len(links) == 0 {
		return &engine.ToolResult{
			OK:          false,
			Observation: fmt.Sprintf("no links found on %s", tab.CurrentURL),
			Extra: map[string]any{
				"link_count": 0,
			},
		}, nil
	}

	if len(links) > maxLinks {
		links = links[:maxLinks]
	}

	prompt := buildLinkAnalysisPrompt(tab.CurrentURL, tab.Title(), links, question)
	response, err := t.provider.Complete(ctx, []*types.Message{types.NewUserMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("link analysis failed: %w", err)
	}

	observation := fmt.Sprintf(`Link Analysis (%d links on %s)

Question: %s

%s`,
		len(links),
		tab.CurrentURL,
		question,
		strings.TrimSpace(response.Content),
	)

	return &engine.ToolResult{
		OK:          true,
		Observation: observation,
		Extra: map[string]any{
			"link_count": len(links),
			"url":        tab.CurrentURL,
		},
	}, nil
}

// buildLinkAnalysisPrompt creates the link analysis prompt for the model.
func buildLinkAnalysisPrompt(url, title string, links []Link, question string) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze the links collected from a web page.\n\n")
	prompt.WriteString(fmt.Sprintf("URL: %s\n", url))
	prompt.WriteString(fmt.Sprintf("Title: %s\n", title))
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	prompt.WriteString(fmt.Sprintf("Links (%d):\n", len(links)))

	for i, link := range links {
		text := link.Text
		if text == "" {
			text = "(no text)"
		}
		prompt.WriteString(fmt.Sprintf("%d. %s -> %s\n", i+1, text, link.Href))
	}

	prompt.WriteString("\nAnswer the question using only these links. ")
	prompt.WriteString("Name the specific URLs that matter and say briefly why. ")
	prompt.WriteString("If none of the links help, say so.")

	return prompt.String()
}

// Capabilities describes the tool for telemetry.
func (t *AnalyzeURLsTool) Capabilities() map[string]any {
	return map[string]any{
		"category":     "browser",
		"mutates_page": false,
		"uses_llm":     true,
	}
}
