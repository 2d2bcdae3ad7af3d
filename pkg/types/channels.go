package types

// AgentChannels groups the channels an executor uses to drive an agent:
// inputs flow in, events flow out, and two signal channels coordinate
// shutdown.
type AgentChannels struct {
	// Input carries goals, cancellations and history requests to the agent.
	Input chan *Input

	// Event carries agent events to the executor. The agent closes it when
	// its event loop exits.
	Event chan *AgentEvent

	// Shutdown is closed by the executor to stop the agent.
	Shutdown chan struct{}

	// Done is closed by the agent once its event loop has fully exited and
	// no further events will be emitted.
	Done chan struct{}
}

// NewAgentChannels creates a channel set with the given buffer size for the
// Input and Event channels. Sizes below one are raised to one.
func NewAgentChannels(bufferSize int) *AgentChannels {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &AgentChannels{
		Input:    make(chan *Input, bufferSize),
		Event:    make(chan *AgentEvent, bufferSize),
		Shutdown: make(chan struct{}),
		Done:     make(chan struct{}),
	}
}

// Close closes the outbound channels. Called exactly once by the agent when
// its event loop exits; executors must never call it.
func (c *AgentChannels) Close() {
	close(c.Event)
	close(c.Done)
}
