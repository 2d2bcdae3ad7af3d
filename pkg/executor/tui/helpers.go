package tui

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
)

// getRandomLoadingMessage returns a random loading message to display while agent is working
func getRandomLoadingMessage() string {
	messages := []string{
		"Planning...",
		"Weaving the task graph...",
		"Scheduling nodes...",
		"Spinning up the browser...",
		"Warming the page cache...",
		"Untangling dependencies...",
		"Dispatching tools...",
		"Reading the fine print...",
		"Following redirects...",
		"Negotiating with the DOM...",
		"Waiting for the network to settle...",
		"Scrolling so you don't have to...",
		"Squinting at selectors...",
		"Counting retries on one hand...",
		"Politely knocking on port 443...",
		"Asking the page to hold still...",
		"Extracting structure from chaos...",
		"Bribing the rate limiter...",
		"Teaching spiders to weave...",
		"Consulting the allowlist...",
		"Measuring backoff with jitter...",
		"Herding concurrent goroutines...",
		"Flattening nested iframes...",
		"Translating HTML into answers...",
		"Dusting off stale selectors...",
		"Chasing a pagination trail...",
		"Checking robots aren't watching...",
		"Compressing a novel into a summary...",
	}
	return messages[rand.Intn(len(messages))] //nolint:gosec
}

// formatTokenCount formats a token count with K/M suffixes for readability
func formatTokenCount(count int) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// formatEntry formats a content entry with an icon and optional styling
func formatEntry(icon string, text string, style lipgloss.Style, width int, iconOnly bool) string {
	// Calculate wrap width (full width minus small padding)
	wrapWidth := width - 4
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	if iconOnly {
		// Style only the icon, keep text white
		styledIcon := style.Render(icon)
		fullText := icon + text // Use unstyled for wrapping calculation
		wrapped := wordWrap(fullText, wrapWidth)

		// Replace the unstyled icon with styled icon in first occurrence
		wrapped = strings.Replace(wrapped, icon, styledIcon, 1)
		return wrapped
	}

	// Style everything (default behavior)
	fullText := icon + text
	wrapped := wordWrap(fullText, wrapWidth)
	return style.Render(wrapped)
}

// wordWrap wraps text to fit within the specified width while preserving paragraph breaks
//
//nolint:gocyclo
func wordWrap(text string, width int) string {
	if width <= 0 {
		width = 80
	}

	var result strings.Builder
	// Split by newlines to preserve paragraph breaks
	paragraphs := strings.Split(text, "\n")

	firstPara := true
	for _, para := range paragraphs {
		// Trim leading/trailing spaces from paragraph but preserve structure
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if !firstPara {
			result.WriteString("\n")
		}
		firstPara = false

		// Extract and preserve leading whitespace
		leadingSpace := ""
		trimmed := strings.TrimLeft(para, " \t")
		if len(trimmed) < len(para) {
			leadingSpace = para[:len(para)-len(trimmed)]
		}

		words := strings.Fields(trimmed)
		if len(words) == 0 {
			continue
		}

		currentLine := leadingSpace // Start first line with leading space

		for _, word := range words {
			// If a single word is longer than width, break it up
			if len(word) > width {
				// First, flush current line if it has content
				if currentLine != "" {
					result.WriteString(currentLine)
					result.WriteString("\n")
					currentLine = ""
				}

				// Break the long word into chunks
				for len(word) > 0 {
					chunkSize := width
					if len(word) < chunkSize {
						chunkSize = len(word)
					}
					result.WriteString(word[:chunkSize])
					result.WriteString("\n")
					word = word[chunkSize:]
				}
				continue
			}

			// Check if adding this word would exceed width
			switch {
			case currentLine == "" || currentLine == leadingSpace:
				currentLine = leadingSpace + word
			case len(currentLine)+1+len(word) > width:
				// Write current line and start new one
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			default:
				// Add word to current line
				currentLine += " " + word
			}
		}

		// Write final line if there's content
		if currentLine != "" && currentLine != leadingSpace {
			result.WriteString(currentLine)
		}
	}

	return result.String()
}

// updateTextAreaHeight dynamically adjusts the textarea height based on content
// accounting for line wrapping and multi-line input
func (m *model) updateTextAreaHeight() {
	value := m.textarea.Value()
	if value == "" {
		if m.textarea.Height() != 1 {
			m.textarea.SetHeight(1)
			m.recalculateLayout()
		}
		return
	}

	// Calculate visual lines accounting for wrapping
	width := m.textarea.Width()
	if width <= 0 {
		width = 80 // default width
	}

	// Account for prompt width ("> " = 2 chars)
	effectiveWidth := width - 2
	if effectiveWidth <= 0 {
		effectiveWidth = 78
	}

	// Split by actual newlines first
	textLines := strings.Split(value, "\n")
	visualLines := 0

	for _, line := range textLines {
		if line == "" {
			visualLines++ // Empty line still counts as 1 visual line
		} else {
			// Calculate how many visual lines this logical line takes
			lineLen := len(line)
			wrappedLines := (lineLen + effectiveWidth - 1) / effectiveWidth
			if wrappedLines == 0 {
				wrappedLines = 1
			}
			visualLines += wrappedLines
		}
	}

	// Clamp between 1 and MaxHeight
	if visualLines < 1 {
		visualLines = 1
	}
	if visualLines > m.textarea.MaxHeight {
		visualLines = m.textarea.MaxHeight
	}

	// Only update if height changed to avoid unnecessary recalculation
	if visualLines != m.textarea.Height() {
		m.textarea.SetHeight(visualLines)
		m.recalculateLayout()
	}
}

// observationPreview returns a single-line preview of a tool observation
// for the run feed. The full observation stays available via Ctrl+V.
func observationPreview(raw string) string {
	preview := strings.TrimSpace(raw)
	if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
		preview = preview[:idx]
	}
	const maxPreview = 160
	if len(preview) > maxPreview {
		preview = preview[:maxPreview] + "…"
	}
	return preview
}

// highlightJSON renders an observation with JSON syntax highlighting for
// terminal display. Non-JSON content and highlighting failures fall back
// to the raw text.
func highlightJSON(raw string) string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}

	pretty, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return raw
	}

	var buf strings.Builder
	if err := quick.Highlight(&buf, string(pretty), "json", "terminal256", "monokai"); err != nil {
		return string(pretty)
	}
	return buf.String()
}

// cachedObservation holds one tool observation for later viewing.
type cachedObservation struct {
	id       string
	toolName string
	nodeID   string
	raw      string
}

// observationCache keeps recent tool observations in arrival order,
// evicting the oldest entries beyond the limit.
type observationCache struct {
	entries []cachedObservation
	limit   int
}

// newObservationCache creates a cache holding up to limit observations.
func newObservationCache(limit int) *observationCache {
	if limit < 1 {
		limit = 1
	}
	return &observationCache{limit: limit}
}

// store records an observation, evicting the oldest entry when full.
func (c *observationCache) store(id, toolName, nodeID, raw string) {
	c.entries = append(c.entries, cachedObservation{
		id:       id,
		toolName: toolName,
		nodeID:   nodeID,
		raw:      raw,
	})
	if len(c.entries) > c.limit {
		c.entries = c.entries[len(c.entries)-c.limit:]
	}
}

// get returns the observation with the given id.
func (c *observationCache) get(id string) (cachedObservation, bool) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		if c.entries[i].id == id {
			return c.entries[i], true
		}
	}
	return cachedObservation{}, false
}
