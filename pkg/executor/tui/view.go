package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/weavehq/loom/pkg/ui"
)

// View renders the entire TUI interface.
// This is called by Bubble Tea whenever the UI needs to be redrawn.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	// Build header and status sections
	header := m.buildHeader()
	tips := m.buildTips()
	topStatus := m.buildTopStatus()
	loadingIndicator := m.buildLoadingIndicator()
	inputBox := m.buildInputBox()
	bottomBar := m.buildBottomBar()

	// Build viewport section
	viewportSection := m.viewport.View()

	// Assemble the base UI
	baseView := m.assembleBaseView(header, tips, topStatus, viewportSection, loadingIndicator, inputBox, bottomBar)

	// Layer the toast notification
	return m.applyToast(baseView)
}

// buildHeader renders the banner above the run feed
func (m *model) buildHeader() string {
	text := m.header
	if text == "" {
		text = "LOOM"
	}
	return headerStyle.Render(ui.GenerateASCIIArt(text))
}

// buildTips renders usage tips
func (m *model) buildTips() string {
	return tipsStyle.Render(`  Tips: Describe a goal • Enter to run • Esc to cancel a run • Ctrl+V to view last observation • Ctrl+Y to copy summary • Ctrl+L for run history • Ctrl+C to exit`)
}

// buildTopStatus renders the run status bar
func (m *model) buildTopStatus() string {
	return statusBarStyle.Render(" " + m.runStatusLine())
}

// runStatusLine summarizes the active or most recent run for the status bar
func (m *model) runStatusLine() string {
	if m.graphID == "" {
		if m.agentBusy {
			return "Run: planning..."
		}
		return "Run: idle, enter a goal to begin"
	}

	done := m.nodesSucceeded + m.nodesFailed + m.nodesSkipped
	progress := fmt.Sprintf("Run: %s • %d/%d done", m.graphID, done, m.nodeCount)
	if m.nodesRunning > 0 {
		progress = fmt.Sprintf("%s • %d running", progress, m.nodesRunning)
	}
	if m.nodesFailed > 0 {
		progress = fmt.Sprintf("%s • %d failed", progress, m.nodesFailed)
	}
	if !m.runActive && m.lastDuration != "" {
		progress = fmt.Sprintf("%s • finished in %s", progress, m.lastDuration)
	}
	return progress
}

// buildLoadingIndicator renders the loading spinner when agent is busy
func (m *model) buildLoadingIndicator() string {
	if !m.agentBusy {
		return ""
	}
	loadingMsg := fmt.Sprintf("%s %s", m.spinner.View(), m.currentLoadingMessage)
	loadingStyle := lipgloss.NewStyle().
		Foreground(salmonPink).
		Width(m.width-4).
		Padding(0, 2)
	return loadingStyle.Render(loadingMsg)
}

// buildInputBox renders the text input area
func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(m.width - 4).Render(m.textarea.View())
}

// buildBottomBar renders the bottom status bar with token usage
func (m *model) buildBottomBar() string {
	bottomLeft := "~/loom"
	bottomCenter := "Enter to run • Alt+Enter for new line"
	bottomRight := m.buildTokenDisplay()

	totalUsed := len(bottomLeft) + len(bottomCenter) + len(bottomRight)
	leftPadding := (m.width - totalUsed) / 3
	rightPadding := m.width - totalUsed - leftPadding*2
	if leftPadding < 2 {
		leftPadding = 2
	}
	if rightPadding < 2 {
		rightPadding = 2
	}

	return statusBarStyle.Width(m.width).Render(
		bottomLeft +
			strings.Repeat(" ", leftPadding) +
			bottomCenter +
			strings.Repeat(" ", rightPadding) +
			bottomRight,
	)
}

// buildTokenDisplay renders the token usage statistics
func (m *model) buildTokenDisplay() string {
	if m.totalTokens == 0 {
		return "Loom Agent"
	}

	contextStr := formatTokenCount(m.currentContextTokens)
	if m.maxContextTokens > 0 {
		contextStr = fmt.Sprintf("%s/%s", contextStr, formatTokenCount(m.maxContextTokens))
		percentage := float64(m.currentContextTokens) / float64(m.maxContextTokens) * 100
		if percentage >= 80 {
			contextStr = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(contextStr)
		}
	}

	return fmt.Sprintf("◆ Context: %s | Input: %s | Output: %s | Total: %s",
		contextStr,
		formatTokenCount(m.totalPromptTokens),
		formatTokenCount(m.totalCompletionTokens),
		formatTokenCount(m.totalTokens))
}

// assembleBaseView combines all UI components into the base view
func (m *model) assembleBaseView(header, tips, topStatus, viewportSection, loadingIndicator, inputBox, bottomBar string) string {
	if m.agentBusy {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			tips,
			topStatus,
			"",
			viewportSection,
			loadingIndicator,
			inputBox,
			bottomBar,
		)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tips,
		topStatus,
		"",
		viewportSection,
		inputBox,
		bottomBar,
	)
}

// applyToast layers the toast notification on top of the base view
// if one is active and not expired
func (m *model) applyToast(baseView string) string {
	if m.toast.active && time.Now().Before(m.toast.showUntil) {
		baseView = renderToastOverlay(baseView, m.renderToast())
	}
	return baseView
}

// renderToastOverlay paints toast content over the bottom of the base view
// without affecting the base view's layout
func renderToastOverlay(baseView string, toastContent string) string {
	if toastContent == "" {
		return baseView
	}

	// Split base view into lines
	baseLines := strings.Split(baseView, "\n")

	// Position the toast a few lines above the bottom, just over the input area
	toastLines := strings.Split(strings.TrimRight(toastContent, "\n"), "\n")
	toastHeight := len(toastLines)

	startLine := len(baseLines) - 5 - toastHeight
	if startLine < 0 {
		startLine = 0
	}

	// Build result with toast overlaid
	var result strings.Builder
	for i, line := range baseLines {
		toastLineIdx := i - startLine
		if toastLineIdx >= 0 && toastLineIdx < len(toastLines) {
			// Overlay the toast line, left-aligned with small padding
			toastLine := toastLines[toastLineIdx]
			padding := 2 // Left padding for spacing from edge
			result.WriteString(strings.Repeat(" ", padding))
			result.WriteString(toastLine)
		} else {
			result.WriteString(line)
		}
		if i < len(baseLines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

// renderToast renders a toast notification
func (m *model) renderToast() string {
	if !m.toast.active || time.Now().After(m.toast.showUntil) {
		return ""
	}

	// Create box with border
	boxWidth := m.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	var content strings.Builder

	// Icon and message
	header := fmt.Sprintf("%s %s", m.toast.icon, m.toast.message)
	content.WriteString(header)
	content.WriteString("\n")

	// Details
	if m.toast.details != "" {
		content.WriteString(m.toast.details)
	}

	// Create styled box
	borderColor := salmonPink
	if m.toast.isError {
		borderColor = lipgloss.Color("203") // Red color for errors
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(boxWidth)

	return "\n" + boxStyle.Render(content.String()) + "\n"
}

// showToast displays a toast notification to the user
func (m *model) showToast(message, details, icon string, isError bool) {
	m.toast.active = true
	m.toast.message = message
	m.toast.details = details
	m.toast.icon = icon
	m.toast.isError = isError
	m.toast.showUntil = time.Now().Add(3 * time.Second)
}
