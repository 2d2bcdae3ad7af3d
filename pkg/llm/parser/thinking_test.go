package parser

import (
	"strings"
	"testing"
)

// feed runs a sequence of stream deltas through the parser and returns the
// accumulated reasoning and message text, including the final flush.
func feed(p *ThinkingParser, chunks []string) (thinking, message string) {
	for _, chunk := range chunks {
		th, msg := p.Parse(chunk)
		if th != nil {
			thinking += th.Content
		}
		if msg != nil {
			message += msg.Content
		}
	}
	th, msg := p.Flush()
	if th != nil {
		thinking += th.Content
	}
	if msg != nil {
		message += msg.Content
	}
	return thinking, message
}

func TestThinkingParserSeparatesReasoning(t *testing.T) {
	p := NewThinkingParser()

	thinking, message := feed(p, []string{
		"<thinking>",
		"The page lists three plans, check the middle one",
		"</thinking>",
		"The Pro plan costs $12/month.",
	})

	if p.IsInThinking() {
		t.Error("parser should have left thinking mode after the closing tag")
	}
	if thinking != "The page lists three plans, check the middle one" {
		t.Errorf("unexpected thinking content: %q", thinking)
	}
	if message != "The Pro plan costs $12/month." {
		t.Errorf("unexpected message content: %q", message)
	}
}

func TestThinkingParserTagSplitAcrossChunks(t *testing.T) {
	p := NewThinkingParser()

	// SSE deltas routinely split tags mid-token.
	thinking, message := feed(p, []string{
		"<thin", "king>step ", "one</thi", "nking>answer",
	})

	if thinking != "step one" {
		t.Errorf("expected thinking %q, got %q", "step one", thinking)
	}
	if message != "answer" {
		t.Errorf("expected message %q, got %q", "answer", message)
	}
}

func TestThinkingParserComparisonCharactersInsideReasoning(t *testing.T) {
	p := NewThinkingParser()

	// Reasoning about selectors and prices uses < and > freely. The closing
	// tag must still be detected afterwards.
	thinking, message := feed(p, []string{
		"<thinking>",
		"Rows where price<100 matter\n",
		"and quantity>3 should be flagged\n",
		"</thinking>",
		"\n\nFound 4 matching rows.",
	})

	if p.IsInThinking() {
		t.Error("parser stuck in thinking mode after closing tag")
	}
	if !strings.Contains(thinking, "price<100") || !strings.Contains(thinking, "quantity>3") {
		t.Errorf("thinking content should preserve < and > characters, got %q", thinking)
	}
	if !strings.Contains(message, "Found 4 matching rows.") {
		t.Errorf("message content missing text after reasoning block, got %q", message)
	}
}

func TestThinkingParserThinkAlias(t *testing.T) {
	p := NewThinkingParser()

	thinking, message := feed(p, []string{
		"<think>shorter tag form</think>done",
	})

	if thinking != "shorter tag form" {
		t.Errorf("expected <think> blocks to be treated as reasoning, got thinking=%q", thinking)
	}
	if message != "done" {
		t.Errorf("unexpected message content: %q", message)
	}
}

func TestThinkingParserOtherTagsPassThrough(t *testing.T) {
	p := NewThinkingParser()

	_, message := feed(p, []string{
		`Open the <a href="/pricing">pricing</a> page`,
	})

	if message != `Open the <a href="/pricing">pricing</a> page` {
		t.Errorf("non-reasoning tags must be kept in the message, got %q", message)
	}
}

func TestThinkingParserUnterminatedCandidateFlushed(t *testing.T) {
	p := NewThinkingParser()

	// A stream ending while a potential tag is still buffered must not
	// swallow the text.
	_, message := feed(p, []string{"total is a < b"})

	if message != "total is a < b" {
		t.Errorf("unterminated candidate lost, got %q", message)
	}
}

func TestThinkingParserMixedContentSingleChunk(t *testing.T) {
	p := NewThinkingParser()

	thinking, message := feed(p, []string{
		"Sure.<thinking>check nav first</thinking> Navigating now.",
	})

	if thinking != "check nav first" {
		t.Errorf("unexpected thinking content: %q", thinking)
	}
	if message != "Sure. Navigating now." {
		t.Errorf("unexpected message content: %q", message)
	}
}

func TestThinkingParserReset(t *testing.T) {
	p := NewThinkingParser()

	p.Parse("<thinking>half finished")
	if !p.IsInThinking() {
		t.Fatal("expected parser to be inside a reasoning block")
	}

	p.Reset()
	if p.IsInThinking() {
		t.Error("Reset should clear thinking state")
	}

	_, msg := p.Parse("fresh stream")
	if msg == nil || msg.Content != "fresh stream" {
		t.Errorf("content after Reset should be message content, got %+v", msg)
	}
}

func TestThinkingParserEmptyChunk(t *testing.T) {
	p := NewThinkingParser()

	thinking, message := p.Parse("")
	if thinking != nil || message != nil {
		t.Error("empty delta should produce no chunks")
	}
}
