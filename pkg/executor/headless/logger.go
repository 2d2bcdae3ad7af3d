package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows standard run progress (default)
	LogLevelNormal
	// LogLevelVerbose shows detailed run information
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

// Logger provides structured, beautiful logging for headless runs
type Logger struct {
	level  LogLevel
	writer io.Writer

	// ANSI color codes
	colorReset     string
	colorGreen     string
	colorCyan      string
	colorSalmon    string
	colorYellow    string
	colorRed       string
	colorWhite     string
	colorGray      string
	colorBoldGreen string
	colorBoldRed   string
	colorBoldWhite string

	// Run state
	startTime time.Time
	stepCount int
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		level:          level,
		writer:         os.Stdout,
		colorReset:     "\033[0m",
		colorGreen:     "\033[32m",
		colorCyan:      "\033[36m",
		colorSalmon:    "\033[38;5;217m", // Salmon pink #FFB3BA
		colorYellow:    "\033[33m",
		colorRed:       "\033[31m",
		colorWhite:     "\033[37m",
		colorGray:      "\033[90m",
		colorBoldGreen: "\033[1;32m",
		colorBoldRed:   "\033[1;31m",
		colorBoldWhite: "\033[1;37m",
		startTime:      time.Now(),
	}
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintf(l.writer, "\n%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
		fmt.Fprintf(l.writer, "%s  %s%s\n", l.colorBoldWhite, message, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	}
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
		fmt.Fprintf(l.writer, "%s▶ %s%s\n", l.colorCyan, title, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorGray, strings.Repeat("─", 50), l.colorReset)
	}
}

// Step prints a numbered step in the run
func (l *Logger) Step(message string) {
	if l.level >= LogLevelNormal {
		l.stepCount++
		fmt.Fprintf(l.writer, "\n%s[%d] %s%s\n", l.colorCyan, l.stepCount, message, l.colorReset)
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s✓ %s%s\n", l.colorBoldGreen, msg, l.colorReset)
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorSalmon, msg, l.colorReset)
	}
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s⚠ Warning: %s%s\n", l.colorYellow, msg, l.colorReset)
	}
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s✗ Error: %s%s\n", l.colorBoldRed, msg, l.colorReset)
	}
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level >= LogLevelVerbose {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s→ %s%s\n", l.colorGray, msg, l.colorReset)
	}
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s[DEBUG] %s%s\n", l.colorGray, msg, l.colorReset)
	}
}

// ToolCall logs a tool invocation with formatting based on verbosity
func (l *Logger) ToolCall(toolName string, count int) {
	switch l.level {
	case LogLevelQuiet:
		// Don't log individual tool calls in quiet mode
	case LogLevelNormal:
		// Show compact progress indicator
		fmt.Fprintf(l.writer, "%s  • %s (#%d)%s\n", l.colorGray, toolName, count, l.colorReset)
	case LogLevelVerbose, LogLevelDebug:
		// Show detailed information
		fmt.Fprintf(l.writer, "%s  🔧 Tool: %s (call #%d)%s\n", l.colorCyan, toolName, count, l.colorReset)
	}
}

// NodeFinished logs a graph node reaching a terminal state
func (l *Logger) NodeFinished(nodeID, status string, attempts int, elapsed string) {
	if l.level < LogLevelNormal {
		return
	}

	switch status {
	case "success":
		fmt.Fprintf(l.writer, "%s  ✓ %s%s %s(%s)%s\n",
			l.colorBoldGreen, nodeID, l.colorReset, l.colorGray, elapsed, l.colorReset)
	case "error":
		fmt.Fprintf(l.writer, "%s  ✗ %s%s %s(%d attempt(s), %s)%s\n",
			l.colorBoldRed, nodeID, l.colorReset, l.colorGray, attempts, elapsed, l.colorReset)
	case "skipped":
		fmt.Fprintf(l.writer, "%s  ⏭ %s (skipped)%s\n", l.colorGray, nodeID, l.colorReset)
	default:
		fmt.Fprintf(l.writer, "%s  %s: %s%s\n", l.colorGray, nodeID, status, l.colorReset)
	}
}

// Summary prints a final run summary
func (l *Logger) Summary(status string, summary *RunSummary) {
	if l.level < LogLevelQuiet {
		return
	}

	l.printSummaryHeader()
	l.printStatus(status)
	l.printGoalAndDuration(summary)
	l.printMetrics(summary)
	l.printNodes(summary)
	l.printAgentSummary(summary)
	l.printError(summary)
	l.printSummaryFooter()
}

func (l *Logger) printSummaryHeader() {
	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintf(l.writer, "%s  RUN SUMMARY%s\n", l.colorBoldWhite, l.colorReset)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
}

func (l *Logger) printStatus(status string) {
	fmt.Fprint(l.writer, "  Status: ")
	switch status {
	case statusSuccess:
		fmt.Fprintf(l.writer, "%s✓ SUCCESS%s\n", l.colorBoldGreen, l.colorReset)
	case statusPartialSuccess:
		fmt.Fprintf(l.writer, "%s⚠ PARTIAL SUCCESS%s\n", l.colorYellow, l.colorReset)
	case statusFailed:
		fmt.Fprintf(l.writer, "%s✗ FAILED%s\n", l.colorBoldRed, l.colorReset)
	default:
		fmt.Fprintln(l.writer, status)
	}
}

func (l *Logger) printGoalAndDuration(summary *RunSummary) {
	if summary.Goal != "" {
		fmt.Fprintf(l.writer, "  Goal: %s\n", summary.Goal)
	}
	if summary.Template != "" {
		fmt.Fprintf(l.writer, "  Template: %s\n", summary.Template)
	}
	fmt.Fprintf(l.writer, "  Duration: %s\n", summary.Duration.Round(time.Second))
}

func (l *Logger) printMetrics(summary *RunSummary) {
	if summary.Metrics.NodesTotal == 0 && summary.Metrics.ToolCalls == 0 {
		return
	}

	fmt.Fprintf(l.writer, "\n  📊 Metrics:\n")
	fmt.Fprintf(l.writer, "    Nodes: %d succeeded, %d failed, %d skipped (of %d)\n",
		summary.Metrics.NodesSucceeded, summary.Metrics.NodesFailed,
		summary.Metrics.NodesSkipped, summary.Metrics.NodesTotal)
	fmt.Fprintf(l.writer, "    Tool calls: %d\n", summary.Metrics.ToolCalls)

	if summary.Metrics.ToolErrors > 0 {
		fmt.Fprintf(l.writer, "    Tool errors: %d\n", summary.Metrics.ToolErrors)
	}

	if summary.Metrics.TokensUsed > 0 {
		fmt.Fprintf(l.writer, "    Tokens used: %s\n", formatNumber(summary.Metrics.TokensUsed))
	}
}

func (l *Logger) printNodes(summary *RunSummary) {
	if l.level < LogLevelVerbose || len(summary.Nodes) == 0 {
		return
	}

	fmt.Fprintf(l.writer, "\n  🧩 Nodes:\n")
	for _, node := range summary.Nodes {
		fmt.Fprintf(l.writer, "    • %s [%s] %s", node.NodeID, node.Kind, node.Status)
		if node.Elapsed != "" {
			fmt.Fprintf(l.writer, " (%s)", node.Elapsed)
		}
		fmt.Fprintln(l.writer)
		if node.Detail != "" && node.Status != "success" {
			fmt.Fprintf(l.writer, "%s      %s%s\n", l.colorGray, node.Detail, l.colorReset)
		}
	}
}

func (l *Logger) printAgentSummary(summary *RunSummary) {
	if summary.Summary == "" {
		return
	}

	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s  Agent Summary:%s\n", l.colorBoldWhite, l.colorReset)
	for _, line := range strings.Split(strings.TrimSpace(summary.Summary), "\n") {
		fmt.Fprintf(l.writer, "    %s\n", line)
	}
}

func (l *Logger) printError(summary *RunSummary) {
	if summary.Error == "" {
		return
	}

	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s  Error Details:%s\n", l.colorBoldRed, l.colorReset)
	fmt.Fprintf(l.writer, "%s    %s%s\n", l.colorRed, summary.Error, l.colorReset)
}

func (l *Logger) printSummaryFooter() {
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintln(l.writer)
}

// Newline adds a blank line (respects log level)
func (l *Logger) Newline() {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
	}
}

// parseLogLevel converts a string log level to LogLevel type
func parseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}

// formatNumber formats large numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
