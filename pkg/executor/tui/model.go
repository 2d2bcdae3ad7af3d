package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/weavehq/loom/pkg/agent"
	"github.com/weavehq/loom/pkg/types"
)

// model represents the state of the TUI application.
// It contains all components needed for the interactive run monitor.
type model struct {
	// Bubble Tea components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Agent integration
	agent    agent.Agent
	channels *types.AgentChannels

	// Customization
	header string // Custom banner text (empty means use default)

	// Content buffers
	content       *strings.Builder
	messageBuffer *strings.Builder

	// UI state
	toast *toastNotification

	// Agent state
	agentBusy             bool
	currentLoadingMessage string
	pendingHistoryRequest bool // Waiting for run history data

	// Run state
	runGoal        string // Goal of the active or most recent run
	planSource     string // "llm" or "heuristic"
	graphID        string
	nodeCount      int
	nodesRunning   int
	nodesSucceeded int
	nodesFailed    int
	nodesSkipped   int
	runActive      bool
	lastDuration   string

	// Window dimensions
	width  int
	height int
	ready  bool

	// Message state
	hasMessageContentStarted bool
	lastSummary              string // Final run summary, for clipboard copy

	// Observation display
	observations      *observationCache
	lastObservationID string
	lastToolName      string

	// Token usage tracking
	totalPromptTokens     int // Cumulative input tokens across all API calls
	totalCompletionTokens int // Cumulative output tokens across all API calls
	totalTokens           int // Cumulative total tokens (input + output)
	currentContextTokens  int // Current prompt context size
	maxContextTokens      int // Maximum allowed context size

	// Application state
	shouldQuit bool // Flag to trigger application exit
}

// agentErrMsg represents an error from agent operations
type agentErrMsg struct{ err error }

// toastMsg triggers a toast notification
type toastMsg struct {
	message string
	details string
	icon    string
	isError bool
}

// toastNotification represents a temporary notification message
type toastNotification struct {
	active    bool
	message   string
	details   string
	icon      string
	isError   bool
	showUntil time.Time
}

// initialModel constructs the model with all components in their
// pre-run state. Agent wiring is filled in by the executor.
func initialModel() model {
	ta := textarea.New()
	ta.Placeholder = "Describe a goal for the agent..."
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.MaxHeight = 6
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(salmonPink)

	return model{
		viewport:      vp,
		textarea:      ta,
		spinner:       sp,
		content:       &strings.Builder{},
		messageBuffer: &strings.Builder{},
		toast:         &toastNotification{},
		observations:  newObservationCache(50),
	}
}

// Init starts the spinner tick and cursor blink.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// resetRunCounters clears per-run node accounting before a new run.
func (m *model) resetRunCounters() {
	m.graphID = ""
	m.nodeCount = 0
	m.nodesRunning = 0
	m.nodesSucceeded = 0
	m.nodesFailed = 0
	m.nodesSkipped = 0
	m.lastDuration = ""
}
