// Package tokenizer provides token counting and budgeting for LLM calls.
//
// Counting uses tiktoken encodings, which are fetched and cached on first
// use. Environments without the encoding data can still budget with the
// package-level estimators, which fall back to a characters-per-token
// heuristic.
package tokenizer

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/weavehq/loom/pkg/types"
)

// defaultEncoding is the cl100k_base encoding used by the GPT-4 family.
const defaultEncoding = "cl100k_base"

// messageOverheadTokens approximates the per-message framing cost of the
// chat completion wire format.
const messageOverheadTokens = 3

// Tokenizer counts and truncates text in model tokens.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New creates a tokenizer with the default encoding.
func New() (*Tokenizer, error) {
	return NewWithEncoding(defaultEncoding)
}

// NewWithEncoding creates a tokenizer for a named tiktoken encoding.
func NewWithEncoding(name string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q encoding: %w", name, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// NewForModel creates a tokenizer using the encoding registered for the
// given model name, falling back to the default encoding for models tiktoken
// does not know about (local deployments, gateway aliases).
func NewForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return New()
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count of a chat payload, including
// the per-message framing overhead.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += t.CountTokens(string(msg.Role)) + t.CountTokens(msg.Content) + messageOverheadTokens
	}
	return total
}

// Truncate returns text cut to at most maxTokens tokens. The cut falls on a
// token boundary; a trailing partially-decoded rune is dropped rather than
// emitted as garbage.
func (t *Tokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return strings.ToValidUTF8(t.enc.Decode(tokens[:maxTokens]), "")
}

// Estimate approximates a token count without an encoder using the rough
// four-characters-per-token heuristic.
func Estimate(text string) int {
	return (len(text) + 3) / 4
}

// EstimateMessages approximates CountMessagesTokens without an encoder.
func EstimateMessages(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += (len(msg.Content) + len(string(msg.Role)) + 12) / 4
	}
	return total
}
