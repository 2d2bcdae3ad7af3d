// Package parser separates structured markup from LLM output streams.
package parser

import (
	"strings"

	"github.com/weavehq/loom/pkg/llm"
)

// reasoningTags lists the tag names models use to wrap reasoning content.
// Hosted models tend to emit <thinking> blocks while open-weight reasoning
// models emit <think>; both are recognized.
var reasoningTags = map[string]bool{
	"thinking": true,
	"think":    true,
}

// ThinkingParser splits an LLM stream into reasoning and message content.
//
// Models that reason before answering wrap the reasoning in tags such as
// <thinking>...</thinking>. The parser tracks tag state across chunk
// boundaries, so a tag split over two deltas is still recognized, and text
// containing bare < or > characters (code snippets, comparisons) passes
// through untouched.
type ThinkingParser struct {
	text        strings.Builder // content accumulated in the current mode
	candidate   strings.Builder // potential tag, from '<' up to '>'
	inCandidate bool
	inThinking  bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse processes a content delta and returns the reasoning and message
// content found so far. Either return value may be nil when the delta held no
// content of that kind, or when everything is still buffered as a potential
// tag awaiting its closing '>'.
func (p *ThinkingParser) Parse(content string) (thinking, message *llm.StreamChunk) {
	if content == "" {
		return nil, nil
	}

	for _, r := range content {
		switch {
		case r == '<':
			// A second '<' means the buffered candidate was plain text,
			// not a tag. Release it before starting a new candidate.
			if p.inCandidate {
				thinking, message = p.emit(thinking, message, p.takeCandidate())
			}
			thinking, message = p.emit(thinking, message, p.takeText())
			p.inCandidate = true
			p.candidate.WriteRune(r)

		case r == '>' && p.inCandidate:
			p.candidate.WriteRune(r)
			tag := p.takeCandidate()
			p.inCandidate = false

			name, closing := tagName(tag)
			switch {
			case reasoningTags[name] && !closing:
				p.inThinking = true
			case reasoningTags[name] && closing:
				p.inThinking = false
			default:
				// Some other tag. It belongs to the content as-is.
				thinking, message = p.emit(thinking, message, tag)
			}

		case p.inCandidate:
			p.candidate.WriteRune(r)

		default:
			p.text.WriteRune(r)
		}
	}

	thinking, message = p.emit(thinking, message, p.takeText())
	return thinking, message
}

// Flush returns any buffered content that has not been emitted yet. Call it
// at the end of a stream so an unterminated candidate tag is not lost.
func (p *ThinkingParser) Flush() (thinking, message *llm.StreamChunk) {
	if p.inCandidate {
		thinking, message = p.emit(thinking, message, p.takeCandidate())
		p.inCandidate = false
	}
	thinking, message = p.emit(thinking, message, p.takeText())
	return thinking, message
}

// IsInThinking returns true if the parser is currently inside a reasoning block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Reset clears all parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.text.Reset()
	p.candidate.Reset()
	p.inCandidate = false
	p.inThinking = false
}

// emit appends text to the chunk matching the current mode, allocating the
// chunk on first use. Content is classified at flush time, which is always
// before a tag flips the mode.
func (p *ThinkingParser) emit(thinking, message *llm.StreamChunk, text string) (*llm.StreamChunk, *llm.StreamChunk) {
	if text == "" {
		return thinking, message
	}

	if p.inThinking {
		if thinking == nil {
			thinking = &llm.StreamChunk{Type: llm.ContentTypeThinking}
		}
		thinking.Content += text
		return thinking, message
	}

	if message == nil {
		message = &llm.StreamChunk{Type: llm.ContentTypeMessage}
	}
	message.Content += text
	return thinking, message
}

func (p *ThinkingParser) takeCandidate() string {
	s := p.candidate.String()
	p.candidate.Reset()
	return s
}

func (p *ThinkingParser) takeText() string {
	s := p.text.String()
	p.text.Reset()
	return s
}

// tagName extracts the bare name from a complete tag like "<thinking>" or
// "</think>" and reports whether it is a closing tag.
func tagName(tag string) (name string, closing bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	if strings.HasPrefix(inner, "/") {
		return inner[1:], true
	}
	return inner, false
}
