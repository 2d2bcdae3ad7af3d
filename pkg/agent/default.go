package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/logging"
	"github.com/weavehq/loom/pkg/planner"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/types"
)

var agentLog *logging.Logger

func init() {
	var err error
	agentLog, err = logging.NewLogger("agent")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		agentLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// DefaultAgent is the standard implementation of the Agent interface.
// It owns a planner, a scheduler and a tool registry: goals arriving on
// the input channel are planned into task graphs and executed, with
// lifecycle telemetry bridged onto the event channel.
type DefaultAgent struct {
	provider   llm.Provider
	providerMu sync.RWMutex
	channels   *types.AgentChannels
	bufferSize int

	planner         *planner.Planner
	plannerInjected bool
	plannerModel    string
	scheduler       *engine.Scheduler
	registry        *tools.Registry

	// Run configuration applied to every graph execution
	concurrency int
	failFast    bool
	toolTimeout time.Duration
	exec        engine.ExecContext
	planOpts    engine.PlanOptions

	// History recording (optional)
	history *templates.Library

	// Control channels
	cancelMu  sync.Mutex
	cancelRun context.CancelFunc

	// Running state
	running      bool
	runMu        sync.Mutex
	shutdownOnce sync.Once

	// Token usage tracking
	tokenizer *tokenizer.Tokenizer

	jitter func() float64
}

// AgentOption is a function that configures an agent
type AgentOption func(*DefaultAgent)

// WithRegistry sets the tool registry the agent schedules against.
// If not provided, an empty registry is created.
func WithRegistry(registry *tools.Registry) AgentOption {
	return func(a *DefaultAgent) {
		a.registry = registry
	}
}

// WithPlanner sets a custom planner for the agent.
// If not provided, a planner is built from the agent's LLM provider.
func WithPlanner(p *planner.Planner) AgentOption {
	return func(a *DefaultAgent) {
		a.planner = p
		a.plannerInjected = true
	}
}

// WithPlannerModel directs planning calls at the named model instead of
// the provider's main model. Ignored when a planner is injected directly.
func WithPlannerModel(model string) AgentOption {
	return func(a *DefaultAgent) {
		a.plannerModel = model
	}
}

// WithConcurrency sets the dispatch limit for graph runs.
func WithConcurrency(n int) AgentOption {
	return func(a *DefaultAgent) {
		a.concurrency = n
	}
}

// WithFailFast makes runs stop dispatching new nodes after the first
// node failure. Pending nodes are skipped.
func WithFailFast(enabled bool) AgentOption {
	return func(a *DefaultAgent) {
		a.failFast = enabled
	}
}

// WithToolTimeout sets the per-attempt timeout applied to tool nodes
// that do not declare their own.
func WithToolTimeout(timeout time.Duration) AgentOption {
	return func(a *DefaultAgent) {
		a.toolTimeout = timeout
	}
}

// WithExecContext sets the execution context passed to every tool call,
// carrying the browser tab id and shared values.
func WithExecContext(exec engine.ExecContext) AgentOption {
	return func(a *DefaultAgent) {
		a.exec = exec
	}
}

// WithPlanOptions sets the options used when compiling planned sub-tasks
// into graph nodes (read budgets, retry policy).
func WithPlanOptions(opts engine.PlanOptions) AgentOption {
	return func(a *DefaultAgent) {
		a.planOpts = opts
	}
}

// WithHistory sets a template library used to record finished runs.
// Without it runs are not persisted and history requests return empty.
func WithHistory(library *templates.Library) AgentOption {
	return func(a *DefaultAgent) {
		a.history = library
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) AgentOption {
	return func(a *DefaultAgent) {
		a.bufferSize = size
	}
}

// WithJitterSource sets the jitter source forwarded to the scheduler.
// Used by tests to make backoff deterministic.
func WithJitterSource(src func() float64) AgentOption {
	return func(a *DefaultAgent) {
		a.jitter = src
	}
}

// NewDefaultAgent creates a new DefaultAgent with the given provider and options.
// The provider may be nil, in which case planning falls back to the heuristic
// splitter and run summaries are composed locally.
func NewDefaultAgent(provider llm.Provider, opts ...AgentOption) *DefaultAgent {
	// Create tokenizer for client-side token counting
	tok, err := tokenizer.New()
	if err != nil {
		// Fall back to nil tokenizer if initialization fails
		tok = nil
	}

	a := &DefaultAgent{
		provider:    provider,
		bufferSize:  10, // default buffer size
		concurrency: engine.DefaultConcurrency,
		toolTimeout: 30 * time.Second,
		tokenizer:   tok,
	}

	// Apply options
	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		a.registry = tools.NewRegistry()
	}
	if a.planner == nil {
		a.planner = planner.New(provider, planner.WithModel(a.plannerModel))
	}

	schedOpts := []engine.SchedulerOption{engine.WithObserver(a)}
	if a.jitter != nil {
		schedOpts = append(schedOpts, engine.WithJitterSource(a.jitter))
	}
	a.scheduler = engine.NewScheduler(a.registry, schedOpts...)

	// Create channels with configured buffer size
	a.channels = types.NewAgentChannels(a.bufferSize)

	return a
}

// Start begins the agent's event loop in a goroutine.
func (a *DefaultAgent) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return fmt.Errorf("agent is already running")
	}
	a.running = true
	a.runMu.Unlock()

	// Start event loop
	go a.eventLoop(ctx)

	return nil
}

// Shutdown gracefully stops the agent.
func (a *DefaultAgent) Shutdown(ctx context.Context) error {
	// Signal shutdown; safe to call more than once
	a.shutdownOnce.Do(func() {
		close(a.channels.Shutdown)
	})

	// Wait for completion or context cancellation
	select {
	case <-a.channels.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetChannels returns the communication channels for this agent.
func (a *DefaultAgent) GetChannels() *types.AgentChannels {
	return a.channels
}

// GetToolNames returns the names of all registered tools.
func (a *DefaultAgent) GetToolNames() []string {
	return a.registry.Names()
}

// GetRegistry returns the agent's tool registry for direct registration.
func (a *DefaultAgent) GetRegistry() *tools.Registry {
	return a.registry
}

// SetProvider updates the LLM provider used for planning and summaries.
// Unless a planner was injected explicitly, it is rebuilt on the new
// provider so subsequent goals plan against it, keeping any planner
// model override in place.
func (a *DefaultAgent) SetProvider(provider llm.Provider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	a.providerMu.Lock()
	defer a.providerMu.Unlock()

	a.provider = provider
	if !a.plannerInjected {
		a.planner = planner.New(provider, planner.WithModel(a.plannerModel))
	}

	agentLog.Infof("Provider updated to model: %s", provider.GetModel())
	return nil
}

// SetPlannerModel updates the planner model override. An empty model
// reverts planning to the provider's main model. No-op for injected
// planners, which own their model choice.
func (a *DefaultAgent) SetPlannerModel(model string) {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()

	if a.plannerModel == model {
		return
	}
	a.plannerModel = model
	if !a.plannerInjected {
		a.planner = planner.New(a.provider, planner.WithModel(model))
	}
}

// getProvider returns the current provider under the read lock.
func (a *DefaultAgent) getProvider() llm.Provider {
	a.providerMu.RLock()
	defer a.providerMu.RUnlock()
	return a.provider
}

// getPlanner returns the current planner under the read lock.
func (a *DefaultAgent) getPlanner() *planner.Planner {
	a.providerMu.RLock()
	defer a.providerMu.RUnlock()
	return a.planner
}

// eventLoop is the main processing loop for the agent.
func (a *DefaultAgent) eventLoop(ctx context.Context) {
	defer a.channels.Close()
	defer func() {
		a.runMu.Lock()
		a.running = false
		a.runMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			// Context canceled
			a.emitEvent(types.NewErrorEvent(ctx.Err()))
			return

		case <-a.channels.Shutdown:
			// Shutdown requested
			return

		case input := <-a.channels.Input:
			if input == nil {
				// Channel closed
				return
			}

			// Handle cancellation immediately (synchronously) so it can
			// interrupt an in-flight run
			if input.IsCancel() {
				a.processInput(ctx, input)
				continue
			}

			// Process other inputs asynchronously so eventLoop keeps
			// handling cancel requests
			go a.processInput(ctx, input)
		}
	}
}

// processInput handles a single input from the executor.
func (a *DefaultAgent) processInput(ctx context.Context, input *types.Input) {
	// Handle cancellation
	if input.IsCancel() {
		a.cancelMu.Lock()
		if a.cancelRun != nil {
			a.cancelRun()
			a.cancelRun = nil
		}
		a.cancelMu.Unlock()
		return
	}

	// Handle a goal
	if input.IsGoal() {
		a.processGoal(ctx, input.Content)
		return
	}

	// Handle run history request
	if input.IsHistoryRequest() {
		a.handleHistoryRequest(ctx, input)
		return
	}
}

// emitEvent sends an event on the event channel.
// This is a blocking send to ensure critical events like GoalComplete are not
// dropped. It safely handles the case where the event channel may be closed
// during shutdown.
func (a *DefaultAgent) emitEvent(event *types.AgentEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Event channel was closed during shutdown - this is expected
		}
	}()
	a.channels.Event <- event
}
