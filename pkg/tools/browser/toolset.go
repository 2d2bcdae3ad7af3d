package browser

import (
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/security/urlguard"
	"github.com/weavehq/loom/pkg/tools"
)

// Toolset bundles the shared dependencies of the browser tools and
// registers them as a group.
type Toolset struct {
	// Manager drives the browser; required.
	Manager *Manager

	// Provider backs the LLM tools (extraction, link analysis). When nil
	// those tools error at execution time.
	Provider llm.Provider

	// Guard restricts navigation. When nil navigation is unrestricted.
	Guard *urlguard.Guard

	// Tokenizer budgets page content. When nil character estimates are
	// used instead of exact token counts.
	Tokenizer *tokenizer.Tokenizer

	// ArtifactDir is where PDF captures land by default.
	ArtifactDir string
}

// Tools builds the full browser tool list.
func (ts Toolset) Tools() []tools.Tool {
	return []tools.Tool{
		NewNavigateTool(ts.Manager, ts.Guard),
		NewReadContentTool(ts.Manager, ts.Tokenizer),
		NewExtractTool(ts.Manager, ts.Provider, ts.Tokenizer),
		NewAnalyzeURLsTool(ts.Manager, ts.Provider),
		NewClickTool(ts.Manager),
		NewFillTool(ts.Manager),
		NewWaitTool(ts.Manager),
		NewCapturePDFTool(ts.Manager, ts.ArtifactDir),
	}
}

// Register adds every browser tool to the registry.
func (ts Toolset) Register(registry *tools.Registry) error {
	for _, tool := range ts.Tools() {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
