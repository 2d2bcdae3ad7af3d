package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Tab is an isolated browser context with a single page. All tool calls of
// a run share one tab, so page state (cookies, navigation history, filled
// forms) carries across the run's nodes.
type Tab struct {
	// ID is the unique identifier for this tab
	ID string

	// Context is the browser context backing the tab (isolated storage)
	Context playwright.BrowserContext

	// Page is the tab's page
	Page playwright.Page

	// CreatedAt is the timestamp when the tab was created
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this tab
	LastUsedAt time.Time

	// CurrentURL is the URL of the current page
	CurrentURL string
}

// TabInfo contains metadata about an open tab.
type TabInfo struct {
	ID         string
	CurrentURL string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means the tab default)
	Timeout float64
}

// ClickOptions configures element clicking behavior.
type ClickOptions struct {
	// Selector identifies the element to click
	Selector string

	// Button specifies which mouse button to use (left, right, middle)
	Button string

	// ClickCount is the number of times to click (1 for single, 2 for double)
	ClickCount int

	// Timeout in milliseconds
	Timeout float64
}

// FillOptions configures form input filling.
type FillOptions struct {
	// Selector identifies the input element
	Selector string

	// Value is the text to fill
	Value string

	// Timeout in milliseconds
	Timeout float64
}

// WaitOptions configures waiting behavior.
type WaitOptions struct {
	// Selector to wait for
	Selector string

	// State to wait for: "attached", "detached", "visible", "hidden"
	State string

	// Timeout in milliseconds
	Timeout float64
}

// Link represents a hyperlink collected from a page, with its href
// resolved to an absolute URL.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Default values for browser operations
const (
	// DefaultTabID is used when a tool call's execution context names no tab.
	DefaultTabID = "main"

	// DefaultMaxContentTokens bounds page content handed to the model.
	DefaultMaxContentTokens = 2500

	// DefaultMaxLinks bounds how many links the link analysis collects.
	DefaultMaxLinks = 40

	// charsPerToken is the rough byte-per-token ratio used to size raw
	// extraction budgets before exact token truncation runs.
	charsPerToken = 4
)
