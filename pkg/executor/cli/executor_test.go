package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/weavehq/loom/pkg/types"
)

func newTestExecutor(showProgress bool) (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	e := &Executor{
		writer:       &buf,
		showProgress: showProgress,
	}
	return e, &buf
}

func TestHandleEvent_PlanRendering(t *testing.T) {
	e, buf := newTestExecutor(true)
	goalDone := make(chan struct{}, 1)

	e.handleEvent(&types.AgentEvent{
		Type: types.EventTypePlanningEnd,
		Plan: &types.PlanInfo{
			Goal:      "scan pricing pages",
			SubTasks:  []string{"open the pricing page", "extract the tiers"},
			GraphID:   "g1",
			NodeCount: 2,
			Source:    "llm",
		},
	}, goalDone)

	out := buf.String()
	for _, want := range []string{
		"Plan (2 node(s), llm planner):",
		"1. open the pricing page",
		"2. extract the tiers",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHandleEvent_RunProgress(t *testing.T) {
	e, buf := newTestExecutor(true)
	goalDone := make(chan struct{}, 1)

	events := []*types.AgentEvent{
		{Type: types.EventTypeRunStart, Run: &types.RunInfo{GraphID: "g1", NodeCount: 2, Concurrency: 4}},
		{Type: types.EventTypeNodeStart, Node: &types.NodeInfo{NodeID: "s1-navigate", Kind: "tool"}},
		{Type: types.EventTypeToolCall, ToolName: "navigate_to_url", Attempt: 1},
		{Type: types.EventTypeToolResult, ToolName: "navigate_to_url", ToolOutput: "navigated to https://example.com\nstatus: 200"},
		{Type: types.EventTypeNodeFinish, Node: &types.NodeInfo{NodeID: "s1-navigate", Status: "success", Elapsed: "820ms"}},
		{Type: types.EventTypeToolCall, ToolName: "read_page_content", Attempt: 2},
		{Type: types.EventTypeToolResultError, ToolName: "read_page_content", Error: errors.New("timeout")},
		{Type: types.EventTypeNodeFinish, Node: &types.NodeInfo{NodeID: "s2-read", Status: "error", Detail: "tool failed: timeout"}},
		{Type: types.EventTypeRunEnd, Run: &types.RunInfo{GraphID: "g1", OK: false, Duration: "3s", Succeeded: 1, Failed: 1}},
	}
	for _, ev := range events {
		e.handleEvent(ev, goalDone)
	}

	out := buf.String()
	for _, want := range []string{
		"▶ Run g1: 2 node(s), concurrency 4",
		"● s1-navigate (tool)",
		"🔧 navigate_to_url",
		"✓ navigated to https://example.com",
		"✓ s1-navigate done in 820ms",
		"🔧 read_page_content (attempt 2)",
		"✗ read_page_content: timeout",
		"✗ s2-read failed: tool failed: timeout",
		"❌ Run g1 finished in 3s: 1 succeeded, 1 failed, 0 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "status: 200") {
		t.Errorf("tool output not trimmed to first line:\n%s", out)
	}
}

func TestHandleEvent_QuietMode(t *testing.T) {
	e, buf := newTestExecutor(false)
	goalDone := make(chan struct{}, 1)

	events := []*types.AgentEvent{
		{Type: types.EventTypeRunStart, Run: &types.RunInfo{GraphID: "g1", NodeCount: 1, Concurrency: 1}},
		{Type: types.EventTypeNodeStart, Node: &types.NodeInfo{NodeID: "s1", Kind: "tool"}},
		{Type: types.EventTypeToolCall, ToolName: "navigate_to_url", Attempt: 1},
		{Type: types.EventTypeRunEnd, Run: &types.RunInfo{GraphID: "g1", OK: true, Duration: "1s", Succeeded: 1}},
	}
	for _, ev := range events {
		e.handleEvent(ev, goalDone)
	}

	out := buf.String()
	if strings.Contains(out, "● s1") || strings.Contains(out, "🔧") || strings.Contains(out, "▶") {
		t.Errorf("quiet mode printed progress lines:\n%s", out)
	}
	if !strings.Contains(out, "✅ Run g1 finished in 1s") {
		t.Errorf("quiet mode dropped run totals:\n%s", out)
	}
}

func TestHandleEvent_SummaryStream(t *testing.T) {
	e, buf := newTestExecutor(true)
	goalDone := make(chan struct{}, 1)

	events := []*types.AgentEvent{
		{Type: types.EventTypeMessageStart},
		{Type: types.EventTypeMessageContent, Content: "Found 3 pricing tiers. "},
		{Type: types.EventTypeMessageContent, Content: "Pro is $49/month."},
		{Type: types.EventTypeMessageEnd},
	}
	for _, ev := range events {
		e.handleEvent(ev, goalDone)
	}

	out := buf.String()
	if strings.Count(out, "Summary:") != 1 {
		t.Errorf("summary header should print exactly once:\n%s", out)
	}
	if !strings.Contains(out, "Found 3 pricing tiers. Pro is $49/month.") {
		t.Errorf("summary content not streamed:\n%s", out)
	}
}

func TestHandleEvent_GoalCompleteSignals(t *testing.T) {
	e, _ := newTestExecutor(true)
	goalDone := make(chan struct{}, 1)

	e.handleEvent(&types.AgentEvent{Type: types.EventTypeGoalComplete}, goalDone)

	select {
	case <-goalDone:
	default:
		t.Fatal("goal_complete did not signal the goal loop")
	}

	// A second signal with a full channel must not block.
	e.handleEvent(&types.AgentEvent{Type: types.EventTypeGoalComplete}, goalDone)
	e.handleEvent(&types.AgentEvent{Type: types.EventTypeGoalComplete}, goalDone)
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo\nthree"); got != "one" {
		t.Errorf("firstLine() = %q, want %q", got, "one")
	}
	if got := firstLine("  padded  "); got != "padded" {
		t.Errorf("firstLine() = %q, want %q", got, "padded")
	}
	long := strings.Repeat("y", 300)
	if got := firstLine(long); !strings.HasSuffix(got, "…") || len(got) > 210 {
		t.Errorf("firstLine() did not truncate: len=%d", len(got))
	}
}
