package types

// InputType defines the type of input being sent to the agent.
type InputType string

const (
	InputTypeCancel         InputType = "cancel"          // InputTypeCancel indicates a cancellation request for the active run.
	InputTypeGoal           InputType = "goal"            // InputTypeGoal indicates a natural-language goal to plan and run.
	InputTypeHistoryRequest InputType = "history_request" // InputTypeHistoryRequest indicates a request for run history data.
)

// Input represents various types of input that can be sent to an agent.
type Input struct {
	// Metadata holds optional additional information about the input.
	Metadata map[string]interface{}

	// Content is the goal text.
	// Only populated when Type is InputTypeGoal.
	Content string

	// Type indicates the kind of input (cancel, goal, history_request).
	Type InputType
}

// NewCancelInput creates a new cancellation input.
func NewCancelInput() *Input {
	return &Input{
		Type:     InputTypeCancel,
		Metadata: make(map[string]interface{}),
	}
}

// NewGoalInput creates a new goal input.
func NewGoalInput(content string) *Input {
	return &Input{
		Type:     InputTypeGoal,
		Content:  content,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the input and returns the input for chaining.
func (i *Input) WithMetadata(key string, value interface{}) *Input {
	if i.Metadata == nil {
		i.Metadata = make(map[string]interface{})
	}
	i.Metadata[key] = value
	return i
}

// IsCancel returns true if this is a cancellation input.
func (i *Input) IsCancel() bool {
	return i.Type == InputTypeCancel
}

// IsGoal returns true if this is a goal input.
func (i *Input) IsGoal() bool {
	return i.Type == InputTypeGoal
}

// IsHistoryRequest returns true if this is a run history request.
func (i *Input) IsHistoryRequest() bool {
	return i.Type == InputTypeHistoryRequest
}

// HistoryRequestParams contains parameters for requesting run history.
type HistoryRequestParams struct {
	Limit      int  // Max runs to return (default 10)
	FailedOnly bool // Only include runs that finished with errors
}

// NewHistoryRequestInput creates a new run history request input.
func NewHistoryRequestInput(params HistoryRequestParams) *Input {
	// Set default limit if not specified
	if params.Limit == 0 {
		params.Limit = 10
	}

	return &Input{
		Type:     InputTypeHistoryRequest,
		Metadata: map[string]interface{}{"params": params},
	}
}
