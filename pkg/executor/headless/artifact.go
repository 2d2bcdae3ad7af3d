package headless

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
	formats   ArtifactConfig
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, formats ArtifactConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		formats:   formats,
	}
}

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(summary *RunSummary) error {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.formats.JSON {
		if err := w.WriteRunJSON(summary); err != nil {
			return fmt.Errorf("failed to write run JSON: %w", err)
		}
	}

	if w.formats.Markdown {
		if err := w.WriteSummaryMarkdown(summary); err != nil {
			return fmt.Errorf("failed to write summary markdown: %w", err)
		}
	}

	if w.formats.Metrics {
		if err := w.WriteMetricsJSON(summary); err != nil {
			return fmt.Errorf("failed to write metrics JSON: %w", err)
		}
	}

	return nil
}

// WriteRunJSON writes the full run summary as JSON
func (w *ArtifactWriter) WriteRunJSON(summary *RunSummary) error {
	path := filepath.Join(w.outputDir, "run.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *RunSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString("# Loom Run Summary\n\n")
	if summary.Goal != "" {
		md.WriteString(fmt.Sprintf("**Goal:** %s\n\n", summary.Goal))
	}
	if summary.Template != "" {
		md.WriteString(fmt.Sprintf("**Template:** %s\n\n", summary.Template))
	}
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	if summary.GraphID != "" {
		md.WriteString(fmt.Sprintf("**Graph:** %s\n\n", summary.GraphID))
	}
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	// Result
	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	// Plan
	if len(summary.SubTasks) > 0 {
		md.WriteString("## Plan\n\n")
		for i, task := range summary.SubTasks {
			md.WriteString(fmt.Sprintf("%d. %s\n", i+1, task))
		}
		md.WriteString("\n")
	}

	// Nodes
	if len(summary.Nodes) > 0 {
		md.WriteString("## Nodes\n\n")
		md.WriteString("| Node | Kind | Status | Attempts | Elapsed |\n")
		md.WriteString("|------|------|--------|----------|--------|\n")
		for _, node := range summary.Nodes {
			md.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
				node.NodeID, node.Kind, statusSymbol(node.Status), node.Attempts, node.Elapsed))
		}
		md.WriteString("\n")

		for _, node := range summary.Nodes {
			if node.Status == "error" && node.Detail != "" {
				md.WriteString(fmt.Sprintf("- `%s`: %s\n", node.NodeID, node.Detail))
			}
		}
		md.WriteString("\n")
	}

	// Agent summary
	if summary.Summary != "" {
		md.WriteString("## Agent Summary\n\n")
		md.WriteString(summary.Summary)
		md.WriteString("\n\n")
	}

	// Metrics
	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Nodes:** %d (%d succeeded, %d failed, %d skipped)\n",
		summary.Metrics.NodesTotal, summary.Metrics.NodesSucceeded,
		summary.Metrics.NodesFailed, summary.Metrics.NodesSkipped))
	md.WriteString(fmt.Sprintf("- **Tool Calls:** %d\n", summary.Metrics.ToolCalls))
	md.WriteString(fmt.Sprintf("- **Tool Errors:** %d\n", summary.Metrics.ToolErrors))
	md.WriteString(fmt.Sprintf("- **Tokens Used:** %d\n", summary.Metrics.TokensUsed))

	// Write file
	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// WriteMetricsJSON writes run metrics as JSON
func (w *ArtifactWriter) WriteMetricsJSON(summary *RunSummary) error {
	path := filepath.Join(w.outputDir, "metrics.json")

	data, err := json.MarshalIndent(summary.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write metrics JSON: %w", writeErr)
	}

	return nil
}

// statusSymbol prefixes a node status with a glyph for the markdown table.
func statusSymbol(status string) string {
	switch status {
	case "success":
		return "✅ success"
	case "error":
		return "❌ error"
	case "skipped":
		return "⏭ skipped"
	default:
		return status
	}
}

// RunSummary contains a complete summary of one headless run
type RunSummary struct {
	Goal      string        `json:"goal,omitempty"`
	Template  string        `json:"template,omitempty"`
	Source    string        `json:"source,omitempty"`
	GraphID   string        `json:"graph_id,omitempty"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	SubTasks  []string      `json:"sub_tasks,omitempty"`
	Nodes     []NodeReport  `json:"nodes"`
	Summary   string        `json:"summary,omitempty"`
	Metrics   RunMetrics    `json:"metrics"`
}

// NodeReport records one graph node's terminal outcome
type NodeReport struct {
	NodeID   string `json:"node_id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Elapsed  string `json:"elapsed,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// RunMetrics contains run metrics
type RunMetrics struct {
	NodesTotal     int           `json:"nodes_total"`
	NodesSucceeded int           `json:"nodes_succeeded"`
	NodesFailed    int           `json:"nodes_failed"`
	NodesSkipped   int           `json:"nodes_skipped"`
	ToolCalls      int           `json:"tool_calls"`
	ToolErrors     int           `json:"tool_errors"`
	TokensUsed     int           `json:"tokens_used"`
	Elapsed        time.Duration `json:"elapsed"`
}
