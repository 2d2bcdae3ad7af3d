package headless

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleSummary() *RunSummary {
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	return &RunSummary{
		Goal:      "Collect plan prices from https://example.com/pricing",
		Source:    "heuristic",
		GraphID:   "graph-1",
		Status:    statusSuccess,
		StartTime: start,
		EndTime:   start.Add(42 * time.Second),
		Duration:  42 * time.Second,
		SubTasks:  []string{"Open https://example.com/pricing and note the plan prices"},
		Nodes: []NodeReport{
			{NodeID: "navigate-1", Kind: "tool", Status: "success", Attempts: 1, Elapsed: "1.2s"},
			{NodeID: "read-1", Kind: "tool", Status: "success", Attempts: 2, Elapsed: "3.4s"},
			{NodeID: "extract-1", Kind: "tool", Status: "success", Attempts: 1, Elapsed: "2.1s"},
		},
		Summary: "Three plans found: Basic, Pro and Max.",
		Metrics: RunMetrics{
			NodesTotal:     3,
			NodesSucceeded: 3,
			ToolCalls:      4,
			ToolErrors:     1,
			TokensUsed:     1234,
			Elapsed:        42 * time.Second,
		},
	}
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{JSON: true, Markdown: true, Metrics: true})

	if err := w.WriteAll(sampleSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	for _, name := range []string{"run.json", "summary.md", "metrics.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}
}

func TestArtifactWriter_FormatFlags(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{JSON: true})

	if err := w.WriteAll(sampleSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "run.json")); err != nil {
		t.Errorf("run.json should be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.md")); !os.IsNotExist(err) {
		t.Error("summary.md should not be written when markdown is disabled")
	}
	if _, err := os.Stat(filepath.Join(dir, "metrics.json")); !os.IsNotExist(err) {
		t.Error("metrics.json should not be written when metrics are disabled")
	}
}

func TestArtifactWriter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	w := NewArtifactWriter(dir, ArtifactConfig{JSON: true})

	if err := w.WriteAll(sampleSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "run.json")); err != nil {
		t.Errorf("expected run.json in created directory: %v", err)
	}
}

func TestWriteRunJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{})

	if err := w.WriteRunJSON(sampleSummary()); err != nil {
		t.Fatalf("WriteRunJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("reading run.json: %v", err)
	}

	var got RunSummary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("run.json is not valid JSON: %v", err)
	}

	if got.Status != statusSuccess {
		t.Errorf("status = %q, want %q", got.Status, statusSuccess)
	}
	if got.Metrics.NodesSucceeded != 3 {
		t.Errorf("nodes_succeeded = %d, want 3", got.Metrics.NodesSucceeded)
	}
	if len(got.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(got.Nodes))
	}
}

func TestWriteSummaryMarkdown_Content(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{})

	if err := w.WriteSummaryMarkdown(sampleSummary()); err != nil {
		t.Fatalf("WriteSummaryMarkdown() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("reading summary.md: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Loom Run Summary",
		"**Goal:** Collect plan prices from https://example.com/pricing",
		"**Status:** success",
		"## Plan",
		"1. Open https://example.com/pricing and note the plan prices",
		"| Node | Kind | Status | Attempts | Elapsed |",
		"| read-1 | tool | ✅ success | 2 | 3.4s |",
		"## Agent Summary",
		"Three plans found: Basic, Pro and Max.",
		"- **Tool Calls:** 4",
		"- **Tokens Used:** 1234",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary.md missing %q", want)
		}
	}
}

func TestWriteSummaryMarkdown_FailureDetail(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{})

	summary := sampleSummary()
	summary.Status = statusFailed
	summary.Error = "constraint violation (host_pattern): host \"billing.internal\" is denied"
	summary.Nodes = []NodeReport{
		{NodeID: "navigate-1", Kind: "tool", Status: "error", Attempts: 3, Elapsed: "9s", Detail: "tool failed: connection refused"},
		{NodeID: "read-1", Kind: "tool", Status: "skipped", Detail: `dependency "navigate-1" did not succeed`},
	}

	if err := w.WriteSummaryMarkdown(summary); err != nil {
		t.Fatalf("WriteSummaryMarkdown() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("reading summary.md: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"❌ **Error:** constraint violation (host_pattern)",
		"| navigate-1 | tool | ❌ error | 3 | 9s |",
		"| read-1 | tool | ⏭ skipped | 0 |  |",
		"- `navigate-1`: tool failed: connection refused",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("summary.md missing %q", want)
		}
	}
}

func TestWriteMetricsJSON(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{})

	if err := w.WriteMetricsJSON(sampleSummary()); err != nil {
		t.Fatalf("WriteMetricsJSON() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "metrics.json"))
	if err != nil {
		t.Fatalf("reading metrics.json: %v", err)
	}

	var metrics RunMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		t.Fatalf("metrics.json is not valid JSON: %v", err)
	}
	if metrics.ToolCalls != 4 {
		t.Errorf("tool_calls = %d, want 4", metrics.ToolCalls)
	}
	if metrics.TokensUsed != 1234 {
		t.Errorf("tokens_used = %d, want 1234", metrics.TokensUsed)
	}
}
