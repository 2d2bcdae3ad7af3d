package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/weavehq/loom/pkg/types"
)

// handleAgentEvent processes events from the agent event stream.
// This is the main event handler that updates the UI based on agent activity.
//
//nolint:gocyclo
func (m *model) handleAgentEvent(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypePlanningStart:
		m.handlePlanningStart(event)

	case types.EventTypePlanningEnd:
		m.handlePlanningEnd(event)

	case types.EventTypeRunStart:
		m.handleRunStart(event)

	case types.EventTypeRunEnd:
		m.handleRunEnd(event)

	case types.EventTypeNodeStart:
		m.handleNodeStart(event)

	case types.EventTypeNodeFinish:
		m.handleNodeFinish(event)

	case types.EventTypeToolCall:
		m.handleToolCall(event)

	case types.EventTypeToolResult:
		m.handleToolResult(event)

	case types.EventTypeToolResultError:
		m.handleToolResultError(event)

	case types.EventTypeMessageStart:
		m.handleMessageStart()

	case types.EventTypeMessageContent:
		if m.handleMessageContent(event.Content) {
			return // Exit early to preserve streaming viewport update
		}

	case types.EventTypeMessageEnd:
		m.handleMessageEnd()

	case types.EventTypeError:
		debugLog.Printf("Processing EventTypeError: %v", event.Error)
		m.handleError(event)

	case types.EventTypeGoalComplete:
		m.handleGoalComplete()

	case types.EventTypeUpdateBusy:
		m.handleUpdateBusy(event)

	case types.EventTypeAPICallStart:
		m.handleAPICallStart(event)

	case types.EventTypeTokenUsage:
		m.handleTokenUsage(event)

	case types.EventTypeHistoryData:
		m.handleHistoryData(event)
	}

	// Update viewport with current content
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}

// Planning event handlers

func (m *model) handlePlanningStart(event *types.AgentEvent) {
	if event.Plan != nil {
		m.runGoal = event.Plan.Goal
	}
	m.planSource = ""
	m.resetRunCounters()
	formatted := formatEntry("🧭 ", "Planning...", planStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

func (m *model) handlePlanningEnd(event *types.AgentEvent) {
	if event.Plan == nil {
		return
	}
	m.planSource = event.Plan.Source

	header := fmt.Sprintf("Plan ready: %d node(s) via %s planner", event.Plan.NodeCount, event.Plan.Source)
	formatted := formatEntry("🗺 ", header, planStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")

	for i, task := range event.Plan.SubTasks {
		formatted := formatEntry(fmt.Sprintf("   %d. ", i+1), task, planStyle, m.width, false)
		m.content.WriteString(formatted)
		m.content.WriteString("\n")
	}
}

// Run lifecycle handlers

func (m *model) handleRunStart(event *types.AgentEvent) {
	if event.Run == nil {
		return
	}
	m.runActive = true
	m.graphID = event.Run.GraphID
	m.nodeCount = event.Run.NodeCount

	text := fmt.Sprintf("Run %s started: %d node(s), concurrency %d",
		event.Run.GraphID, event.Run.NodeCount, event.Run.Concurrency)
	formatted := formatEntry("▶ ", text, toolStyle, m.width, true)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

func (m *model) handleRunEnd(event *types.AgentEvent) {
	if event.Run == nil {
		return
	}
	m.runActive = false
	m.lastDuration = event.Run.Duration

	text := fmt.Sprintf("Run %s finished in %s: %d succeeded, %d failed, %d skipped",
		event.Run.GraphID, event.Run.Duration,
		event.Run.Succeeded, event.Run.Failed, event.Run.Skipped)
	style := successStyle
	if !event.Run.OK {
		style = errorStyle
	}
	formatted := formatEntry("■ ", text, style, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

// Node lifecycle handlers

func (m *model) handleNodeStart(event *types.AgentEvent) {
	if event.Node == nil {
		return
	}
	m.nodesRunning++

	formatted := formatEntry("● ", fmt.Sprintf("%s (%s)", event.Node.NodeID, event.Node.Kind), nodeStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

func (m *model) handleNodeFinish(event *types.AgentEvent) {
	if event.Node == nil {
		return
	}
	if m.nodesRunning > 0 {
		m.nodesRunning--
	}

	switch event.Node.Status {
	case "success":
		m.nodesSucceeded++
		text := fmt.Sprintf("%s done in %s", event.Node.NodeID, event.Node.Elapsed)
		if event.Node.Attempts > 1 {
			text = fmt.Sprintf("%s after %d attempts", text, event.Node.Attempts)
		}
		formatted := formatEntry("  ✓ ", text, toolStyle, m.width, false)
		m.content.WriteString(formatted)

	case "error":
		m.nodesFailed++
		formatted := formatEntry("  ✗ ", fmt.Sprintf("%s failed: %s", event.Node.NodeID, event.Node.Detail), errorStyle, m.width, false)
		m.content.WriteString(formatted)

	case "skipped":
		m.nodesSkipped++
		formatted := formatEntry("  ⏭ ", fmt.Sprintf("%s skipped: %s", event.Node.NodeID, event.Node.Detail), nodeStyle, m.width, false)
		m.content.WriteString(formatted)
	}
	m.content.WriteString("\n")
}

// Tool event handlers

func (m *model) handleToolCall(event *types.AgentEvent) {
	m.lastToolName = event.ToolName

	text := event.ToolName
	if event.Attempt > 1 {
		text = fmt.Sprintf("%s (attempt %d)", text, event.Attempt)
	}
	formatted := formatEntry("  🔧 ", text, toolStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

func (m *model) handleToolResult(event *types.AgentEvent) {
	raw := fmt.Sprintf("%v", event.ToolOutput)

	// Cache the full observation for viewing with Ctrl+V
	m.lastObservationID = fmt.Sprintf("%s#%d", event.NodeID, event.Attempt)
	m.observations.store(m.lastObservationID, event.ToolName, event.NodeID, raw)

	formatted := formatEntry("    ✓ ", observationPreview(raw), toolResultStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

func (m *model) handleToolResultError(event *types.AgentEvent) {
	text := fmt.Sprintf("attempt %d failed: %v", event.Attempt, event.Error)
	formatted := formatEntry("    ✗ ", text, errorStyle, m.width, false)
	m.content.WriteString(formatted)
	m.content.WriteString("\n")
}

// Message event handlers

func (m *model) handleMessageStart() {
	m.messageBuffer.Reset()
	m.content.WriteString("\n")
}

func (m *model) handleMessageContent(content string) bool {
	if strings.TrimSpace(content) != "" && !m.hasMessageContentStarted {
		m.hasMessageContentStarted = true
	}

	// Buffer the message content
	m.messageBuffer.WriteString(content)

	// Stream message content as it arrives
	formatted := formatEntry("", m.messageBuffer.String(), lipgloss.NewStyle(), m.width, false)
	m.viewport.SetContent(m.content.String() + formatted)
	m.viewport.GotoBottom()

	return true
}

func (m *model) handleMessageEnd() {
	// Finalize message content (keep a copy for clipboard export)
	if m.messageBuffer.Len() > 0 && m.hasMessageContentStarted {
		m.lastSummary = m.messageBuffer.String()
		formatted := formatEntry("", m.lastSummary, lipgloss.NewStyle(), m.width, false)
		m.content.WriteString(formatted)
		m.content.WriteString("\n\n")
		m.hasMessageContentStarted = false
	}
	m.messageBuffer.Reset()
}

// Error and state handlers

func (m *model) handleError(event *types.AgentEvent) {
	m.content.WriteString(errorStyle.Render(fmt.Sprintf("  ❌ Error: %v", event.Error)))
	m.content.WriteString("\n\n")
}

func (m *model) handleGoalComplete() {
	// Goal finished - clear busy state
	m.agentBusy = false
	m.runActive = false
	m.recalculateLayout()
}

func (m *model) handleUpdateBusy(event *types.AgentEvent) {
	// Update busy state based on event
	wasBusy := m.agentBusy
	m.agentBusy = event.IsBusy
	if m.agentBusy {
		// Pick a random loading message when becoming busy
		m.currentLoadingMessage = getRandomLoadingMessage()
	}
	// Recalculate layout if busy state changed
	if wasBusy != m.agentBusy {
		m.recalculateLayout()
	}
}

// API and token handlers

func (m *model) handleAPICallStart(event *types.AgentEvent) {
	// Update context token information
	if event.APICallInfo != nil {
		m.currentContextTokens = event.APICallInfo.ContextTokens
		m.maxContextTokens = event.APICallInfo.MaxContextTokens
	}
}

func (m *model) handleTokenUsage(event *types.AgentEvent) {
	// Update token usage counts
	if event.TokenUsage != nil {
		m.totalPromptTokens += event.TokenUsage.PromptTokens
		m.totalCompletionTokens += event.TokenUsage.CompletionTokens
		m.totalTokens += event.TokenUsage.TotalTokens
	}
}

// Run history handler

func (m *model) handleHistoryData(event *types.AgentEvent) {
	if event.History == nil {
		return
	}

	// End loading state
	m.agentBusy = false
	m.currentLoadingMessage = ""
	m.recalculateLayout()

	// History data should only come from an explicit Ctrl+L request
	if !m.pendingHistoryRequest {
		return
	}
	m.pendingHistoryRequest = false

	m.content.WriteString(headerStyle.Render("📜 Recent runs"))
	m.content.WriteString("\n")

	if len(event.History.Runs) == 0 {
		m.content.WriteString(planStyle.Render("   no runs recorded yet"))
		m.content.WriteString("\n\n")
		return
	}

	for _, run := range event.History.Runs {
		marker := "✓"
		style := toolStyle
		if !run.OK {
			marker = "✗"
			style = errorStyle
		}
		line := fmt.Sprintf("   %s %s  %s  %d node(s), %d failed, %s",
			marker, run.StartedAt, run.GraphID, run.Nodes, run.Failed, run.Duration)
		m.content.WriteString(style.Render(line))
		m.content.WriteString("\n")
		if run.Goal != "" {
			m.content.WriteString(planStyle.Render("     " + run.Goal))
			m.content.WriteString("\n")
		}
	}
	m.content.WriteString("\n")
}
