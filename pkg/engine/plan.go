package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Tool ids the linear plan compiler emits. The browser toolset registers
// capabilities under these names.
const (
	ToolNavigateToURL     = "navigate_to_url"
	ToolReadPageContent   = "read_page_content"
	ToolExtractStructured = "extract_structured_content"
	ToolAnalyzeURLs       = "analyze_urls"
)

// defaultMaxReadChars bounds read_page_content output when the caller does
// not set a limit of their own.
const defaultMaxReadChars = 4000

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// PlanOptions tunes the linear plan compiler.
type PlanOptions struct {
	// MaxReadChars bounds the page content read per sub-task.
	MaxReadChars int
	// Retry, when set, is applied to every generated tool node.
	Retry *RetryPolicySpec
}

// PlanLinearFromSubTasks converts an ordered list of free-text sub-task
// descriptions into a strictly linear chain of node specs: each generated
// node depends on the one before it, across sub-task boundaries.
//
// Per sub-task, ordered heuristics decide the nodes emitted:
//  1. an embedded URL expands to navigate -> read -> extract;
//  2. mentions of analyzing or links expand to read -> analyze;
//  3. anything else expands to read -> extract.
//
// The compiler never creates branches; it exists to give the planning
// layer a trivial, always-valid fallback graph shape.
func PlanLinearFromSubTasks(subTasks []string, opts PlanOptions) []NodeSpec {
	maxChars := opts.MaxReadChars
	if maxChars <= 0 {
		maxChars = defaultMaxReadChars
	}

	var specs []NodeSpec
	prevID := ""
	emit := func(taskIdx int, op, toolID string, input map[string]any) {
		spec := NodeSpec{
			ID:          fmt.Sprintf("s%d-%s", taskIdx+1, op),
			Kind:        string(KindTool),
			ToolID:      toolID,
			Input:       input,
			RetryPolicy: opts.Retry,
		}
		if prevID != "" {
			spec.DependsOn = []string{prevID}
		}
		specs = append(specs, spec)
		prevID = spec.ID
	}

	for i, task := range subTasks {
		lower := strings.ToLower(task)
		switch {
		case urlPattern.MatchString(task):
			url := strings.TrimRight(urlPattern.FindString(task), ".,;:!?)")
			emit(i, "navigate", ToolNavigateToURL, map[string]any{"url": url})
			emit(i, "read", ToolReadPageContent, map[string]any{"max_chars": maxChars})
			emit(i, "extract", ToolExtractStructured, map[string]any{"hint": task})

		case strings.Contains(lower, "analyze") ||
			strings.Contains(lower, "analysis") ||
			strings.Contains(lower, "links"):
			emit(i, "read", ToolReadPageContent, map[string]any{"max_chars": maxChars})
			emit(i, "analyze", ToolAnalyzeURLs, map[string]any{"question": task})

		default:
			emit(i, "read", ToolReadPageContent, map[string]any{"max_chars": maxChars})
			emit(i, "extract", ToolExtractStructured, map[string]any{"hint": task})
		}
	}
	return specs
}

// NewLinearGraphFromSubTasks pipes the compiler's output through the graph
// builder.
func NewLinearGraphFromSubTasks(subTasks []string, meta Meta, opts PlanOptions) (*Graph, error) {
	specs := PlanLinearFromSubTasks(subTasks, opts)
	if len(specs) == 0 {
		return nil, fmt.Errorf("no sub-tasks to plan")
	}
	return NewGraph(specs, meta)
}
