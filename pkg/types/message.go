package types

// MessageRole identifies the author of a chat message sent to an LLM.
type MessageRole string

const (
	// RoleSystem is the system prompt role.
	RoleSystem MessageRole = "system"

	// RoleUser is the user/request role. Page content and tool observations
	// embedded in prompts are sent under this role.
	RoleUser MessageRole = "user"

	// RoleAssistant is the model response role.
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat message exchanged with an LLM provider.
type Message struct {
	// Metadata carries additional message annotations, such as which
	// prompt built it or which run it belongs to.
	Metadata map[string]interface{}

	// Role identifies the message author.
	Role MessageRole

	// Content is the message text.
	Content string
}

// NewMessage creates a message with the given role and content.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		Role:    role,
		Content: content,
	}
}

// NewSystemMessage creates a system prompt message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) *Message {
	return NewMessage(RoleAssistant, content)
}

// WithMetadata attaches a metadata key/value to the message and returns the
// message for chaining.
func (m *Message) WithMetadata(key string, value interface{}) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
	return m
}

// ModelInfo describes the LLM model behind a provider.
type ModelInfo struct {
	// Metadata carries provider-specific details such as a non-default
	// base URL.
	Metadata map[string]interface{}

	// Provider names the backing service, e.g. "openai".
	Provider string

	// Name is the model name, e.g. "gpt-4o".
	Name string

	// MaxTokens is the model's context window size, when known.
	MaxTokens int

	// SupportsStreaming reports whether the provider streams responses.
	SupportsStreaming bool
}
