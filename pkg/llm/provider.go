// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/weavehq/loom/pkg/llm/openai"
//	    "github.com/weavehq/loom/pkg/types"
//	)
//
//	func main() {
//	    // Create provider
//	    provider, err := openai.NewProvider(
//	        os.Getenv("OPENAI_API_KEY"),
//	        openai.WithModel("gpt-4o"),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Ask for an ordered breakdown of a browsing goal
//	    messages := []*types.Message{
//	        types.NewUserMessage("Break 'compare plan prices on example.com' into steps."),
//	    }
//
//	    stream, err := provider.StreamCompletion(context.Background(), messages)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for chunk := range stream {
//	        if chunk.IsError() {
//	            log.Fatal(chunk.Error)
//	        }
//	        fmt.Print(chunk.Content)
//	    }
//	}
package llm

import (
	"context"

	"github.com/weavehq/loom/pkg/types"
)

// ModelCloner is an optional interface that LLM providers can implement to
// support lightweight per-call model overrides without constructing a full
// second provider. The returned provider shares credentials and transport with
// the original but directs calls to the given model. The planner and the
// content-extraction tools use this when the configuration names a dedicated
// model for them.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication with LLM services and return simple
// StreamChunk instances. This design keeps providers focused on LLM concerns
// without coupling them to agent-level events or orchestration.
//
// The Agent layer is responsible for:
// - Converting StreamChunks to AgentEvents
// - Emitting planning, message, and status events
// - Accounting token usage around calls
//
// This separation allows providers to be:
// - Reusable in non-agent contexts (the planner, extraction tools, CLIs)
// - Testable independently of agent logic
// - Simpler to implement and maintain
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response chunks.
	//
	// The returned channel emits StreamChunk instances:
	// - First chunk typically has Role set (e.g., "assistant")
	// - Subsequent chunks contain Content deltas
	// - Final chunk has Finished=true
	// - Error chunks have Error set
	//
	// The channel is closed when streaming completes or an error occurs.
	// Callers should continue reading until the channel is closed.
	//
	// Returns an error only if streaming cannot be initiated (e.g., invalid
	// configuration, network unavailable). Stream-time errors are sent as
	// StreamChunk instances with Error set.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response.
	//
	// This is a convenience wrapper around StreamCompletion for non-streaming
	// use cases such as planning and structured extraction. It accumulates
	// message content and returns the complete message; reasoning content the
	// model wrapped in thinking tags is dropped so callers can parse the
	// response without stripping it themselves.
	//
	// Returns the assistant's response message or an error.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string

	// GetAPIKey returns the API key being used for authentication.
	GetAPIKey() string
}
