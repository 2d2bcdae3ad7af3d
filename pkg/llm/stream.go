package llm

// ContentType classifies streamed content from an LLM.
type ContentType string

const (
	// ContentTypeMessage is regular response content meant for the caller.
	ContentTypeMessage ContentType = "message"

	// ContentTypeThinking is reasoning content the model wrapped in
	// thinking tags. It is separated from the response so callers can
	// surface or discard it without it polluting parsed output.
	ContentTypeThinking ContentType = "thinking"
)

// StreamChunk is a single increment of a streamed LLM response.
//
// A stream typically looks like: a first chunk carrying Role, a sequence of
// Content deltas, and a final chunk with Finished set. Errors that occur
// mid-stream are delivered as a chunk with Error set; the channel is closed
// afterwards.
type StreamChunk struct {
	// Error is set when the stream failed. No further content follows.
	Error error

	// Type classifies the content. The zero value is treated as message
	// content.
	Type ContentType

	// Role is the author role, set on the first chunk of a response.
	Role string

	// Content is the text delta for this chunk.
	Content string

	// Finished is true on the terminal chunk of a successful stream.
	Finished bool
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}

// IsThinking reports whether the chunk carries reasoning content.
func (c *StreamChunk) IsThinking() bool {
	return c.Type == ContentTypeThinking
}
