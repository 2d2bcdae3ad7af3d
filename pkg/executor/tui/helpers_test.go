package tui

import (
	"strings"
	"testing"
)

func TestFormatTokenCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  string
	}{
		{"small count unchanged", 500, "500"},
		{"thousands get K suffix", 1500, "1.5K"},
		{"exact thousand", 1000, "1.0K"},
		{"millions get M suffix", 2500000, "2.5M"},
		{"zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTokenCount(tt.count); got != tt.want {
				t.Errorf("formatTokenCount(%d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}

func TestObservationPreview(t *testing.T) {
	t.Run("first line only", func(t *testing.T) {
		got := observationPreview("status: 200\ntitle: Example\nbody: ...")
		if got != "status: 200" {
			t.Errorf("observationPreview() = %q, want first line", got)
		}
	})

	t.Run("long line truncated", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		got := observationPreview(long)
		if !strings.HasSuffix(got, "…") {
			t.Errorf("observationPreview() = %q, want truncation marker", got)
		}
		if len(got) > 170 {
			t.Errorf("observationPreview() length = %d, want at most 170", len(got))
		}
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		if got := observationPreview("  ok  "); got != "ok" {
			t.Errorf("observationPreview() = %q, want %q", got, "ok")
		}
	})
}

func TestHighlightJSON(t *testing.T) {
	t.Run("non-JSON passes through", func(t *testing.T) {
		raw := "plain text observation"
		if got := highlightJSON(raw); got != raw {
			t.Errorf("highlightJSON() = %q, want raw passthrough", got)
		}
	})

	t.Run("JSON is highlighted and pretty-printed", func(t *testing.T) {
		got := highlightJSON(`{"status":200,"title":"Example"}`)
		if got == "" {
			t.Fatal("highlightJSON() returned empty string")
		}
		if !strings.Contains(got, "status") {
			t.Errorf("highlightJSON() lost field names:\n%s", got)
		}
		// Pretty printing puts each field on its own line
		if !strings.Contains(got, "\n") {
			t.Errorf("highlightJSON() output not pretty-printed:\n%s", got)
		}
	})
}

func TestObservationCache(t *testing.T) {
	c := newObservationCache(2)

	c.store("a", "navigate", "n1", "one")
	c.store("b", "read", "n2", "two")
	c.store("c", "extract", "n3", "three")

	if _, ok := c.get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}

	obs, ok := c.get("c")
	if !ok {
		t.Fatal("newest entry missing from cache")
	}
	if obs.toolName != "extract" || obs.raw != "three" {
		t.Errorf("cached entry = %+v", obs)
	}

	if _, ok := c.get("missing"); ok {
		t.Error("get() returned an entry for an unknown id")
	}
}

func TestWordWrap(t *testing.T) {
	t.Run("wraps at width", func(t *testing.T) {
		got := wordWrap("alpha beta gamma delta", 11)
		for i, line := range strings.Split(got, "\n") {
			if len(line) > 11 {
				t.Errorf("line %d exceeds width: %q", i, line)
			}
		}
	})

	t.Run("breaks oversized words", func(t *testing.T) {
		got := wordWrap(strings.Repeat("a", 25), 10)
		lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
		if len(lines) != 3 {
			t.Errorf("expected 3 chunks, got %d: %q", len(lines), got)
		}
	})

	t.Run("preserves paragraph breaks", func(t *testing.T) {
		got := wordWrap("first paragraph\n\nsecond paragraph", 80)
		if !strings.Contains(got, "\n") {
			t.Errorf("paragraph break lost: %q", got)
		}
	})
}

func TestRunStatusLine(t *testing.T) {
	m := newTestModel()

	if got := m.runStatusLine(); !strings.Contains(got, "idle") {
		t.Errorf("idle status = %q, want idle hint", got)
	}

	m.agentBusy = true
	if got := m.runStatusLine(); !strings.Contains(got, "planning") {
		t.Errorf("busy status = %q, want planning hint", got)
	}

	m.graphID = "g7"
	m.nodeCount = 3
	m.nodesSucceeded = 1
	m.nodesFailed = 1
	m.nodesRunning = 1
	m.runActive = true
	got := m.runStatusLine()
	for _, want := range []string{"g7", "2/3 done", "1 running", "1 failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("active status = %q, missing %q", got, want)
		}
	}

	m.nodesRunning = 0
	m.runActive = false
	m.lastDuration = "4.2s"
	if got := m.runStatusLine(); !strings.Contains(got, "finished in 4.2s") {
		t.Errorf("finished status = %q, want duration", got)
	}
}
