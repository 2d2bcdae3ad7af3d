package tui

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/weavehq/loom/pkg/types"
)

var debugLog *log.Logger

func initDebugLog() {
	if debugLog != nil {
		return // Already initialized
	}

	// Create debug log file
	f, err := os.OpenFile("loom-tui-debug.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Warning: error opening debug log file: %v", err)
		// Create a no-op logger to avoid nil pointer panics
		debugLog = log.New(os.Stderr, "[DEBUG] ", log.LstdFlags|log.Lshortfile)
		return
	}
	debugLog = log.New(f, "", log.LstdFlags|log.Lshortfile)
	debugLog.Printf("Debug logging initialized")
}

// Update handles all state updates for the TUI model.
// This is the main event loop handler for Bubble Tea.
//
// Uses a pointer receiver so state mutations made by event handlers
// persist across updates.
//
//nolint:gocyclo
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Check if quit was requested by a component
	if m.shouldQuit {
		return m, tea.Quit
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	// Handle spinner tick messages
	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)

	// Store old textarea height to detect changes
	oldHeight := m.textarea.Height()
	m.textarea, tiCmd = m.textarea.Update(msg)
	newHeight := m.textarea.Height()

	// If textarea height changed, recalculate viewport height
	if oldHeight != newHeight && m.ready {
		m.recalculateLayout()
	}

	// Auto-adjust textarea height based on content after any key press
	m.updateTextAreaHeight()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		debugLog.Printf("Received tea.WindowSizeMsg: width=%d, height=%d", msg.Width, msg.Height)
		return m.handleWindowResize(msg)

	case toastMsg:
		debugLog.Printf("Received toastMsg: %s", msg.message)
		return m.handleToast(msg)

	case agentErrMsg:
		debugLog.Printf("Received agentErrMsg: %v", msg.err)
		return m.handleAgentError(msg)

	case *types.AgentEvent:
		debugLog.Printf("Received *types.AgentEvent: %s", msg.Type)

		// Update viewport BEFORE handling event (important for streaming)
		m.viewport, vpCmd = m.viewport.Update(msg)
		m.handleAgentEvent(msg)
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)

	case tea.MouseMsg:
		debugLog.Printf("Received tea.MouseMsg")
		// Route mouse events (especially scroll wheel) to the viewport
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)

	case tea.KeyMsg:
		debugLog.Printf("Received tea.KeyMsg: %s", msg.String())
		return m.handleKeyPress(msg, vpCmd, tiCmd, spinnerCmd)

	default:
		debugLog.Printf("Received unknown message type: %T", msg)
	}

	// Update viewport with current message handling
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
}

// calculateViewportHeight computes the appropriate viewport height based on current model state
func (m *model) calculateViewportHeight() int {
	headerHeight := 10                     // Banner (6) + tips (1) + status bar (1) + blank line (1) + spacing (1)
	inputHeight := m.textarea.Height() + 2 // textarea height + border
	statusBarHeight := 1
	loadingHeight := 0
	if m.agentBusy {
		loadingHeight = 1 // Loading indicator is a separate line when visible
	}

	viewportHeight := m.height - headerHeight - inputHeight - statusBarHeight - loadingHeight
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	return viewportHeight
}

// handleWindowResize processes window size change events
func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	// Update viewport on window resize
	m.viewport, _ = m.viewport.Update(msg)

	m.width = msg.Width
	m.height = msg.Height

	// Calculate and set viewport dimensions
	m.viewport.Width = m.width - 4
	m.viewport.Height = m.calculateViewportHeight()
	m.textarea.SetWidth(m.width - 8)
	m.ready = true
	m.recalculateLayout()
	return m, nil
}

// handleToast processes toast notification messages
func (m *model) handleToast(msg toastMsg) (tea.Model, tea.Cmd) {
	m.showToast(msg.message, msg.details, msg.icon, msg.isError)
	return m, nil
}

// handleAgentError processes agent error messages
func (m *model) handleAgentError(msg agentErrMsg) (tea.Model, tea.Cmd) {
	m.content.WriteString(errorStyle.Render(fmt.Sprintf("  ❌ Error: %v", msg.err)))
	m.content.WriteString("\n\n")
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
	m.agentBusy = false
	m.recalculateLayout()
	return m, nil
}

// handleKeyPress processes keyboard input
func (m *model) handleKeyPress(msg tea.KeyMsg, vpCmd, tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Escape requests cancellation of the active run
		if m.agentBusy {
			return m.handleCancelRun()
		}

	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyCtrlV:
		return m.handleCtrlV()

	case tea.KeyCtrlY:
		return m.handleCtrlY()

	case tea.KeyCtrlL:
		return m.handleCtrlL()

	case tea.KeyCtrlR:
		return m.handleCtrlR()

	case tea.KeyEnter:
		// Check if Alt is held down
		if msg.Alt {
			// Insert a newline character
			m.textarea.InsertString("\n")
			m.updateTextAreaHeight()
			return m, nil
		}
		return m.handleEnter(tiCmd, vpCmd, spinnerCmd)
	}

	return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
}

// handleCancelRun handles Esc during an active run (request cancellation)
func (m *model) handleCancelRun() (tea.Model, tea.Cmd) {
	debugLog.Printf("Sending cancel input to agent")
	m.channels.Input <- types.NewCancelInput()
	m.showToast("Cancel requested", "Stopping the active run", "🛑", false)
	return m, nil
}

// handleCtrlV handles Ctrl+V key press (view last tool observation)
func (m *model) handleCtrlV() (tea.Model, tea.Cmd) {
	obs, ok := m.observations.get(m.lastObservationID)
	if !ok {
		m.showToast("No observation", "No tool observation captured yet", "👀", true)
		return m, nil
	}

	m.content.WriteString(headerStyle.Render(fmt.Sprintf("👀 %s observation (%s)", obs.toolName, obs.nodeID)))
	m.content.WriteString("\n")
	m.content.WriteString(highlightJSON(obs.raw))
	m.content.WriteString("\n\n")
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
	return m, nil
}

// handleCtrlY handles Ctrl+Y key press (copy last run summary to clipboard)
func (m *model) handleCtrlY() (tea.Model, tea.Cmd) {
	if m.lastSummary == "" {
		m.showToast("Nothing to copy", "No run summary available yet", "📋", true)
		return m, nil
	}
	if err := clipboard.WriteAll(m.lastSummary); err != nil {
		m.showToast("Copy failed", err.Error(), "📋", true)
		return m, nil
	}
	m.showToast("Summary copied", fmt.Sprintf("%d characters on the clipboard", len(m.lastSummary)), "📋", false)
	return m, nil
}

// handleCtrlL handles Ctrl+L key press (request recent run history)
func (m *model) handleCtrlL() (tea.Model, tea.Cmd) {
	if m.pendingHistoryRequest {
		return m, nil
	}
	m.pendingHistoryRequest = true
	m.agentBusy = true
	m.currentLoadingMessage = "Fetching run history..."
	m.recalculateLayout()

	request := types.NewHistoryRequestInput(types.HistoryRequestParams{Limit: 10})
	debugLog.Printf("Sending history request to agent")
	m.channels.Input <- request
	return m, nil
}

// handleCtrlR handles Ctrl+R key press (hot-reload LLM provider from config)
func (m *model) handleCtrlR() (tea.Model, tea.Cmd) {
	if err := m.reloadLLMProvider(); err != nil {
		m.showToast("Reload failed", err.Error(), "⚙️", true)
		return m, nil
	}
	m.showToast("Provider reloaded", "LLM settings re-read from configuration", "⚙️", false)
	return m, nil
}

// handleEnter handles Enter key press (submit a goal)
func (m *model) handleEnter(tiCmd, vpCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())

	if input == "" {
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
	}

	if m.agentBusy {
		m.showToast("Agent busy", "Wait for the active run to finish or press Esc to cancel", "⏳", true)
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
	}

	return m.handleGoalSubmit(input, tiCmd, vpCmd, spinnerCmd)
}

// handleGoalSubmit sends a goal to the agent and prepares the run feed
func (m *model) handleGoalSubmit(input string, tiCmd, vpCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	// Display the goal
	formatted := formatEntry("Goal: ", input, goalStyle, m.width, true)
	// Strip any trailing newlines before adding our spacing
	formatted = strings.TrimRight(formatted, "\n")
	m.content.WriteString(formatted + "\n\n")

	// Clear input
	m.textarea.Reset()
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()

	// Set agent busy
	m.agentBusy = true
	m.runGoal = input
	m.currentLoadingMessage = getRandomLoadingMessage()
	m.recalculateLayout()

	// Send goal to agent
	goalInput := types.NewGoalInput(input)
	debugLog.Printf("Sending goal input to agent: %+v", goalInput)
	m.channels.Input <- goalInput

	return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)
}

// recalculateLayout updates viewport content and scrolls to bottom
func (m *model) recalculateLayout() {
	// Update viewport height based on current state (including loading indicator)
	m.viewport.Height = m.calculateViewportHeight()
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}
