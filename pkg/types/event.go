package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypePlanningStart   AgentEventType = "planning_start"    // EventTypePlanningStart indicates the agent has started planning a goal.
	EventTypePlanningEnd     AgentEventType = "planning_end"      // EventTypePlanningEnd indicates planning finished and a task graph was produced.
	EventTypeRunStart        AgentEventType = "run_start"         // EventTypeRunStart indicates a task graph run has started.
	EventTypeRunEnd          AgentEventType = "run_end"           // EventTypeRunEnd indicates a task graph run has finished.
	EventTypeNodeStart       AgentEventType = "node_start"        // EventTypeNodeStart indicates a graph node has been dispatched.
	EventTypeNodeFinish      AgentEventType = "node_finish"       // EventTypeNodeFinish indicates a graph node reached a terminal state.
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates a tool invocation attempt is starting.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult indicates a successful tool call result.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates a tool call attempt failed.
	EventTypeMessageStart    AgentEventType = "message_start"     // EventTypeMessageStart indicates the agent is starting to compose its summary.
	EventTypeMessageContent  AgentEventType = "message_content"   // EventTypeMessageContent indicates content from the agent's summary.
	EventTypeMessageEnd      AgentEventType = "message_end"       // EventTypeMessageEnd indicates the agent has finished its summary.
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates the agent is making an LLM API call.
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // EventTypeAPICallEnd indicates an LLM API call has completed.
	EventTypeTokenUsage      AgentEventType = "token_usage"       // EventTypeTokenUsage indicates token usage information from an LLM completion.
	EventTypeUpdateBusy      AgentEventType = "update_busy"       // EventTypeUpdateBusy indicates a change in the agent's busy status.
	EventTypeGoalComplete    AgentEventType = "goal_complete"     // EventTypeGoalComplete indicates the agent has finished working on the goal.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates an error occurred during agent processing.
	EventTypeHistoryData     AgentEventType = "history_data"      // EventTypeHistoryData indicates run history data response from the agent.
)

// AgentEvent represents an event emitted by the agent during execution.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// ToolInput is the input being sent to the tool (for tool call events).
	ToolInput map[string]interface{}

	// ToolOutput is the result from the tool (for tool result events).
	ToolOutput interface{}

	// Error contains error information for error events.
	Error error

	// Content holds text content for content-type events (summary messages).
	Content string

	// ToolName is the name of the tool being called (for tool events).
	ToolName string

	// NodeID identifies the graph node the event belongs to (for node and
	// tool events).
	NodeID string

	// Type indicates the kind of event.
	Type AgentEventType

	// Attempt is the 1-based attempt number (for tool events).
	Attempt int

	// IsBusy indicates if the agent is busy (for busy status events).
	IsBusy bool

	// Plan contains planning information (for planning events).
	Plan *PlanInfo

	// Run contains run lifecycle information (for run events).
	Run *RunInfo

	// Node contains node lifecycle information (for node events).
	Node *NodeInfo

	// TokenUsage contains token usage information (for token usage events).
	// Fields: PromptTokens, CompletionTokens, TotalTokens
	TokenUsage *TokenUsage

	// APICallInfo contains API call information (for API call events).
	APICallInfo *APICallInfo

	// History contains run history data (for history data events).
	History *HistoryData
}

// TokenUsage contains token usage statistics from an LLM API call.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the input/prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens in the generated completion/response.
	CompletionTokens int

	// TotalTokens is the total number of tokens used (prompt + completion).
	TotalTokens int
}

// PlanInfo describes the task graph produced for a goal.
type PlanInfo struct {
	// Goal is the natural-language goal that was planned.
	Goal string

	// SubTasks lists the planner's sub-task descriptions in order.
	SubTasks []string

	// GraphID is the identifier of the compiled task graph.
	GraphID string

	// NodeCount is the number of nodes in the compiled graph.
	NodeCount int

	// Source names where the plan came from: "llm" or "heuristic".
	Source string
}

// RunInfo describes a task graph run.
type RunInfo struct {
	// GraphID is the identifier of the graph being run.
	GraphID string

	// NodeCount is the number of nodes in the graph.
	NodeCount int

	// Concurrency is the dispatch limit for this run.
	Concurrency int

	// OK reports whether the run finished without node errors
	// (for run end events).
	OK bool

	// Duration is how long the run took (for run end events).
	Duration string

	// Succeeded, Failed and Skipped count terminal node states
	// (for run end events).
	Succeeded int
	Failed    int
	Skipped   int
}

// NodeInfo describes a single graph node's lifecycle transition.
type NodeInfo struct {
	// GraphID is the identifier of the graph the node belongs to.
	GraphID string

	// NodeID is the node's identifier within the graph.
	NodeID string

	// Kind is the node kind: "tool", "delay" or "noop".
	Kind string

	// Status is the node's terminal status (for finish events).
	Status string

	// Attempts is how many execution attempts were consumed (for finish events).
	Attempts int

	// Elapsed is how long the node took (for finish events).
	Elapsed string

	// Detail carries the observation preview, error message or skip cause
	// (for finish events).
	Detail string
}

// APICallInfo contains information about an LLM API call.
type APICallInfo struct {
	// ContextTokens is the current prompt size in tokens.
	ContextTokens int

	// MaxContextTokens is the configured maximum context limit in tokens.
	MaxContextTokens int
}

// HistoryRunData represents a single past run for display.
type HistoryRunData struct {
	GraphID   string
	Goal      string
	StartedAt string
	Duration  string
	Nodes     int
	Failed    int
	OK        bool
}

// HistoryData contains the run history response data.
type HistoryData struct {
	Runs  []HistoryRunData
	Limit int // Echo the requested limit
}

// NewPlanningStartEvent creates a planning start event.
func NewPlanningStartEvent(goal string) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypePlanningStart,
		Plan:     &PlanInfo{Goal: goal},
		Metadata: make(map[string]interface{}),
	}
}

// NewPlanningEndEvent creates a planning end event.
func NewPlanningEndEvent(goal string, subTasks []string, graphID, source string, nodeCount int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypePlanningEnd,
		Plan: &PlanInfo{
			Goal:      goal,
			SubTasks:  subTasks,
			GraphID:   graphID,
			NodeCount: nodeCount,
			Source:    source,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewRunStartEvent creates a run start event.
func NewRunStartEvent(graphID string, nodeCount, concurrency int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeRunStart,
		Run: &RunInfo{
			GraphID:     graphID,
			NodeCount:   nodeCount,
			Concurrency: concurrency,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewRunEndEvent creates a run end event.
func NewRunEndEvent(graphID string, ok bool, duration string, succeeded, failed, skipped int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeRunEnd,
		Run: &RunInfo{
			GraphID:   graphID,
			OK:        ok,
			Duration:  duration,
			Succeeded: succeeded,
			Failed:    failed,
			Skipped:   skipped,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewNodeStartEvent creates a node start event.
func NewNodeStartEvent(graphID, nodeID, kind string) *AgentEvent {
	return &AgentEvent{
		Type:   EventTypeNodeStart,
		NodeID: nodeID,
		Node: &NodeInfo{
			GraphID: graphID,
			NodeID:  nodeID,
			Kind:    kind,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewNodeFinishEvent creates a node finish event.
func NewNodeFinishEvent(graphID, nodeID, kind, status string, attempts int, elapsed, detail string) *AgentEvent {
	return &AgentEvent{
		Type:   EventTypeNodeFinish,
		NodeID: nodeID,
		Node: &NodeInfo{
			GraphID:  graphID,
			NodeID:   nodeID,
			Kind:     kind,
			Status:   status,
			Attempts: attempts,
			Elapsed:  elapsed,
			Detail:   detail,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewToolCallEvent creates a tool call event for one attempt.
func NewToolCallEvent(toolName, nodeID string, attempt int, toolInput map[string]interface{}) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeToolCall,
		ToolName:  toolName,
		NodeID:    nodeID,
		Attempt:   attempt,
		ToolInput: toolInput,
		Metadata:  make(map[string]interface{}),
	}
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName, nodeID string, attempt int, output interface{}) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolResult,
		ToolName:   toolName,
		NodeID:     nodeID,
		Attempt:    attempt,
		ToolOutput: output,
		Metadata:   make(map[string]interface{}),
	}
}

// NewToolResultErrorEvent creates a tool result error event.
func NewToolResultErrorEvent(toolName, nodeID string, attempt int, err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeToolResultError,
		ToolName: toolName,
		NodeID:   nodeID,
		Attempt:  attempt,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewMessageStartEvent creates a message start event.
func NewMessageStartEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeMessageStart,
		Metadata: make(map[string]interface{}),
	}
}

// NewMessageContentEvent creates a message content event.
func NewMessageContentEvent(content string) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeMessageContent,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// NewMessageEndEvent creates a message end event.
func NewMessageEndEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeMessageEnd,
		Metadata: make(map[string]interface{}),
	}
}

// NewAPICallStartEvent creates an API call start event with context token information.
func NewAPICallStartEvent(apiName string, contextTokens, maxContextTokens int) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallStart,
		Metadata: map[string]interface{}{"api_name": apiName},
		APICallInfo: &APICallInfo{
			ContextTokens:    contextTokens,
			MaxContextTokens: maxContextTokens,
		},
	}
}

// NewAPICallEndEvent creates an API call end event.
func NewAPICallEndEvent(apiName string) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeAPICallEnd,
		Metadata: map[string]interface{}{"api_name": apiName},
	}
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(promptTokens, completionTokens, totalTokens int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeTokenUsage,
		TokenUsage: &TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      totalTokens,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewUpdateBusyEvent creates a busy status update event.
func NewUpdateBusyEvent(isBusy bool) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeUpdateBusy,
		IsBusy:   isBusy,
		Metadata: make(map[string]interface{}),
	}
}

// NewGoalCompleteEvent creates a goal complete event. It is always the
// last event emitted for a goal, regardless of outcome.
func NewGoalCompleteEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeGoalComplete,
		Metadata: make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeError,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// NewHistoryDataEvent creates a new run history data event.
func NewHistoryDataEvent(runs []HistoryRunData, limit int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeHistoryData,
		History: &HistoryData{
			Runs:  runs,
			Limit: limit,
		},
	}
}

// WithMetadata adds metadata to the event and returns the event for chaining.
func (e *AgentEvent) WithMetadata(key string, value interface{}) *AgentEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsPlanningEvent returns true if this is any planning-related event.
func (e *AgentEvent) IsPlanningEvent() bool {
	return e.Type == EventTypePlanningStart ||
		e.Type == EventTypePlanningEnd
}

// IsRunEvent returns true if this is any run lifecycle event.
func (e *AgentEvent) IsRunEvent() bool {
	return e.Type == EventTypeRunStart ||
		e.Type == EventTypeRunEnd
}

// IsNodeEvent returns true if this is any node lifecycle event.
func (e *AgentEvent) IsNodeEvent() bool {
	return e.Type == EventTypeNodeStart ||
		e.Type == EventTypeNodeFinish
}

// IsToolEvent returns true if this is any tool-related event.
func (e *AgentEvent) IsToolEvent() bool {
	return e.Type == EventTypeToolCall ||
		e.Type == EventTypeToolResult ||
		e.Type == EventTypeToolResultError
}

// IsMessageEvent returns true if this is any message-related event.
func (e *AgentEvent) IsMessageEvent() bool {
	return e.Type == EventTypeMessageStart ||
		e.Type == EventTypeMessageContent ||
		e.Type == EventTypeMessageEnd
}

// IsContentEvent returns true if this event contains text content.
func (e *AgentEvent) IsContentEvent() bool {
	return e.Type == EventTypeMessageContent
}

// IsAPIEvent returns true if this is any API-related event.
func (e *AgentEvent) IsAPIEvent() bool {
	return e.Type == EventTypeAPICallStart ||
		e.Type == EventTypeAPICallEnd
}

// IsErrorEvent returns true if this is an error event.
func (e *AgentEvent) IsErrorEvent() bool {
	return e.Type == EventTypeError
}
