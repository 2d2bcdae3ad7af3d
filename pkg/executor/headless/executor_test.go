package headless

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/weavehq/loom/pkg/agent"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/store/file"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/tools"
)

// scriptedTool is a registry stand-in whose behavior a test can swap out.
type scriptedTool struct {
	name    string
	caps    map[string]any
	mu      sync.Mutex
	calls   int
	execute func(ctx context.Context, input map[string]any) (*engine.ToolResult, error)
}

func (s *scriptedTool) Name() string                   { return s.name }
func (s *scriptedTool) Description() string            { return "scripted tool" }
func (s *scriptedTool) Schema() map[string]interface{} { return tools.BaseSchema(nil, nil) }
func (s *scriptedTool) Capabilities() map[string]any   { return s.caps }

func (s *scriptedTool) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedTool) Execute(ctx context.Context, exec engine.ExecContext, input map[string]any) (*engine.ToolResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.execute != nil {
		return s.execute(ctx, input)
	}
	return &engine.ToolResult{OK: true, Observation: "ok: " + s.name}, nil
}

// browserRegistry registers stand-ins for the tool ids the plan compiler
// emits.
func browserRegistry() (*tools.Registry, map[string]*scriptedTool) {
	registry := tools.NewRegistry()
	stubs := make(map[string]*scriptedTool)
	for _, name := range []string{
		engine.ToolNavigateToURL,
		engine.ToolReadPageContent,
		engine.ToolExtractStructured,
		engine.ToolAnalyzeURLs,
	} {
		st := &scriptedTool{name: name}
		stubs[name] = st
		registry.MustRegister(st)
	}
	return registry, stubs
}

func newTestAgent(registry *tools.Registry) agent.Agent {
	opts := []agent.AgentOption{agent.WithBufferSize(256)}
	if registry != nil {
		opts = append(opts, agent.WithRegistry(registry))
	}
	return agent.NewDefaultAgent(nil, opts...)
}

// quietConfig returns a config that keeps test output small.
func quietConfig() *Config {
	return &Config{
		Constraints: ConstraintConfig{Timeout: 30 * time.Second},
		Logging:     LoggingConfig{Verbosity: "quiet"},
	}
}

func TestNewExecutor_Validation(t *testing.T) {
	ag := newTestAgent(nil)

	valid := quietConfig()
	valid.Goal = "do something"

	if _, err := NewExecutor(nil, valid); err == nil {
		t.Error("NewExecutor(nil agent) should fail")
	}
	if _, err := NewExecutor(ag, nil); err == nil {
		t.Error("NewExecutor(nil config) should fail")
	}
	if _, err := NewExecutor(ag, &Config{}); err == nil {
		t.Error("NewExecutor(empty config) should fail validation")
	}

	badGlob := quietConfig()
	badGlob.Goal = "do something"
	badGlob.Constraints.AllowedHosts = []string{"[unclosed"}
	if _, err := NewExecutor(ag, badGlob); err == nil {
		t.Error("NewExecutor(bad host glob) should fail")
	}

	if _, err := NewExecutor(ag, valid); err != nil {
		t.Errorf("NewExecutor(valid config) error = %v", err)
	}
}

func TestExecutor_GoalRunWritesArtifacts(t *testing.T) {
	registry, stubs := browserRegistry()
	ag := newTestAgent(registry)

	dir := t.TempDir()
	config := quietConfig()
	config.Goal = "Read https://example.com/pricing and extract the plan prices"
	config.Artifacts = ArtifactConfig{Enabled: true, OutputDir: dir, JSON: true, Markdown: true, Metrics: true}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exec.summary.Status != statusSuccess {
		t.Errorf("status = %q, want %q (error: %s)", exec.summary.Status, statusSuccess, exec.summary.Error)
	}
	if exec.summary.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", exec.summary.Source)
	}
	if exec.summary.Metrics.NodesSucceeded != 3 {
		t.Errorf("nodes succeeded = %d, want 3", exec.summary.Metrics.NodesSucceeded)
	}
	if exec.summary.Metrics.ToolCalls != 3 {
		t.Errorf("tool calls = %d, want 3", exec.summary.Metrics.ToolCalls)
	}
	if !strings.Contains(exec.summary.Summary, "succeeded") {
		t.Errorf("summary %q should mention node outcomes", exec.summary.Summary)
	}

	// The planned pipeline actually ran
	if stubs[engine.ToolNavigateToURL].callCount() != 1 {
		t.Errorf("navigate calls = %d, want 1", stubs[engine.ToolNavigateToURL].callCount())
	}
	if stubs[engine.ToolExtractStructured].callCount() != 1 {
		t.Errorf("extract calls = %d, want 1", stubs[engine.ToolExtractStructured].callCount())
	}

	// Artifacts landed
	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("reading run.json: %v", err)
	}
	var written RunSummary
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("run.json is not valid JSON: %v", err)
	}
	if written.Status != statusSuccess {
		t.Errorf("run.json status = %q, want %q", written.Status, statusSuccess)
	}

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("reading summary.md: %v", err)
	}
	if !strings.Contains(string(md), "**Status:** success") {
		t.Error("summary.md should report success")
	}

	if _, err := os.Stat(filepath.Join(dir, "metrics.json")); err != nil {
		t.Errorf("expected metrics.json: %v", err)
	}
}

func TestExecutor_ToolCallBudgetFailsRun(t *testing.T) {
	registry, _ := browserRegistry()
	ag := newTestAgent(registry)

	config := quietConfig()
	config.Goal = "Read https://example.com/pricing and extract the plan prices"
	config.Constraints.MaxToolCalls = 1

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	runErr := exec.Run(context.Background())
	if runErr == nil {
		t.Fatal("Run() should fail when the tool call budget is exceeded")
	}
	if !strings.Contains(runErr.Error(), "constraint violation (tool_calls)") {
		t.Errorf("Run() error = %v, want tool_calls violation", runErr)
	}

	if exec.summary.Status != statusFailed {
		t.Errorf("status = %q, want %q", exec.summary.Status, statusFailed)
	}
	v := exec.currentViolation()
	if v == nil || v.Type != ViolationToolCalls {
		t.Errorf("violation = %+v, want type %v", v, ViolationToolCalls)
	}
}

func TestExecutor_DeniedHostFailsRun(t *testing.T) {
	registry, _ := browserRegistry()
	ag := newTestAgent(registry)

	config := quietConfig()
	config.Goal = "Read https://billing.internal/invoices and summarize the open items"
	config.Constraints.DeniedHosts = []string{"*.internal"}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	runErr := exec.Run(context.Background())
	if runErr == nil {
		t.Fatal("Run() should fail when a denied host is navigated")
	}

	v := exec.currentViolation()
	if v == nil || v.Type != ViolationHostPattern {
		t.Errorf("violation = %+v, want type %v", v, ViolationHostPattern)
	}
	if exec.summary.Status != statusFailed {
		t.Errorf("status = %q, want %q", exec.summary.Status, statusFailed)
	}
}

func TestExecutor_ObserveModeBlocksMutatingNode(t *testing.T) {
	registry, _ := browserRegistry()
	registry.MustRegister(&scriptedTool{
		name: "click_element",
		caps: map[string]any{"category": "browser", "mutates_page": true},
	})
	ag := newTestAgent(registry)

	config := quietConfig()
	config.Nodes = []engine.NodeSpec{
		{ID: "open", Kind: "tool", ToolID: engine.ToolNavigateToURL, Input: map[string]any{"url": "https://example.com"}},
		{ID: "buy", Kind: "tool", ToolID: "click_element", Input: map[string]any{"selector": "#buy"}, DependsOn: []string{"open"}},
	}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	runErr := exec.Run(context.Background())
	if runErr == nil {
		t.Fatal("Run() should fail when a mutating tool runs in observe mode")
	}

	v := exec.currentViolation()
	if v == nil || v.Type != ViolationPageMutation {
		t.Errorf("violation = %+v, want type %v", v, ViolationPageMutation)
	}
	if exec.summary.Source != "inline" {
		t.Errorf("source = %q, want inline", exec.summary.Source)
	}
}

func TestExecutor_InteractModeAllowsMutatingNode(t *testing.T) {
	registry, _ := browserRegistry()
	clicker := &scriptedTool{
		name: "click_element",
		caps: map[string]any{"category": "browser", "mutates_page": true},
	}
	registry.MustRegister(clicker)
	ag := newTestAgent(registry)

	config := quietConfig()
	config.Mode = ModeInteract
	config.Nodes = []engine.NodeSpec{
		{ID: "open", Kind: "tool", ToolID: engine.ToolNavigateToURL, Input: map[string]any{"url": "https://example.com"}},
		{ID: "buy", Kind: "tool", ToolID: "click_element", Input: map[string]any{"selector": "#buy"}, DependsOn: []string{"open"}},
	}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exec.summary.Status != statusSuccess {
		t.Errorf("status = %q, want %q (error: %s)", exec.summary.Status, statusSuccess, exec.summary.Error)
	}
	if clicker.callCount() != 1 {
		t.Errorf("click calls = %d, want 1", clicker.callCount())
	}
}

func TestExecutor_TemplateRun(t *testing.T) {
	library := templates.NewLibrary(file.New(t.TempDir()))
	err := library.SaveTemplate(context.Background(), &templates.Template{
		Name: "nightly-check",
		Goal: "stored goal",
		Specs: []engine.NodeSpec{
			{ID: "warmup", Kind: "noop"},
			{ID: "settle", Kind: "delay", DelayMs: 1, DependsOn: []string{"warmup"}},
		},
	})
	if err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}

	ag := newTestAgent(nil)
	config := quietConfig()
	config.Template = "nightly-check"
	config.TemplateGoal = "tonight's sweep"

	exec, err := NewExecutor(ag, config, WithLibrary(library))
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exec.summary.Status != statusSuccess {
		t.Errorf("status = %q, want %q (error: %s)", exec.summary.Status, statusSuccess, exec.summary.Error)
	}
	if exec.summary.Source != "template" {
		t.Errorf("source = %q, want template", exec.summary.Source)
	}
	if exec.summary.Goal != "tonight's sweep" {
		t.Errorf("goal = %q, want the template override", exec.summary.Goal)
	}
	if exec.summary.Metrics.NodesSucceeded != 2 {
		t.Errorf("nodes succeeded = %d, want 2", exec.summary.Metrics.NodesSucceeded)
	}
}

func TestExecutor_TemplateWithoutLibraryFails(t *testing.T) {
	ag := newTestAgent(nil)

	dir := t.TempDir()
	config := quietConfig()
	config.Template = "nightly-check"
	config.Artifacts = ArtifactConfig{Enabled: true, OutputDir: dir, JSON: true}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	runErr := exec.Run(context.Background())
	if runErr == nil {
		t.Fatal("Run() should fail without a template library")
	}
	if !strings.Contains(runErr.Error(), "no template library configured") {
		t.Errorf("Run() error = %v, want missing library message", runErr)
	}

	// Failure artifacts still land for debugging.
	data, err := os.ReadFile(filepath.Join(dir, "run.json"))
	if err != nil {
		t.Fatalf("reading run.json: %v", err)
	}
	if !strings.Contains(string(data), statusFailed) {
		t.Error("run.json should record the failed status")
	}
}

func TestExecutor_TimeBudgetCancelsRun(t *testing.T) {
	ag := newTestAgent(nil)

	config := quietConfig()
	config.Constraints.Timeout = 150 * time.Millisecond
	config.Nodes = []engine.NodeSpec{
		{ID: "stall", Kind: "delay", DelayMs: 30_000},
	}

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	start := time.Now()
	runErr := exec.Run(context.Background())
	elapsed := time.Since(start)

	if runErr == nil {
		t.Fatal("Run() should fail when the time budget expires")
	}
	if elapsed > 10*time.Second {
		t.Errorf("run took %v, the budget should have cancelled it", elapsed)
	}

	v := exec.currentViolation()
	if v == nil || v.Type != ViolationTimeout {
		t.Errorf("violation = %+v, want type %v", v, ViolationTimeout)
	}
	if exec.summary.Status != statusFailed {
		t.Errorf("status = %q, want %q", exec.summary.Status, statusFailed)
	}
}

func TestExecutor_OutsideCancellationFailsRun(t *testing.T) {
	registry, stubs := browserRegistry()
	started := make(chan struct{})
	stubs[engine.ToolNavigateToURL].execute = func(ctx context.Context, input map[string]any) (*engine.ToolResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	ag := newTestAgent(registry)

	config := quietConfig()
	config.Goal = "Read https://example.com slowly"

	exec, err := NewExecutor(ag, config)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	runErr := exec.Run(ctx)
	if runErr == nil {
		t.Fatal("Run() should fail when the caller cancels")
	}
	if exec.summary.Status != statusFailed {
		t.Errorf("status = %q, want %q", exec.summary.Status, statusFailed)
	}
}
