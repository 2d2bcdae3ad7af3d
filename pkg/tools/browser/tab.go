package browser

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Touch updates the LastUsedAt timestamp to the current time.
func (t *Tab) Touch() {
	t.LastUsedAt = time.Now()
}

// Navigate navigates the tab's page to the specified URL.
func (t *Tab) Navigate(target string, opts NavigateOptions) error {
	t.Touch()

	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := t.Page.Goto(target, playwrightOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	t.CurrentURL = t.Page.URL()
	return nil
}

// Text extracts plain text from the element matching selector, or the
// page body when selector is empty. Content beyond maxChars is cut and
// marked with a truncation notice.
func (t *Tab) Text(selector string, maxChars int) (string, error) {
	t.Touch()

	if selector == "" {
		selector = "body"
	}

	element, err := t.Page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}

	content, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}

	content = strings.TrimSpace(content)
	if maxChars > 0 && len(content) > maxChars {
		truncated := content[:maxChars]
		notice := fmt.Sprintf("\n\n[Content truncated: %d of %d characters shown]", maxChars, len(content))
		return truncated + notice, nil
	}

	return content, nil
}

// CleanedPage returns the page's HTML cleaned for model consumption:
// scripts and styles stripped, semantic structure and targeting
// attributes preserved, truncated at maxChars.
func (t *Tab) CleanedPage(maxChars int) (*CleanedPage, error) {
	t.Touch()

	raw, err := t.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	return cleanPage(raw, maxChars)
}

// Links collects the page's hyperlinks with hrefs resolved against the
// current URL. Non-web schemes and fragment-only anchors are dropped and
// duplicate targets collapsed.
func (t *Tab) Links() ([]Link, error) {
	t.Touch()

	raw, err := t.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	return pageLinks(raw, t.Page.URL())
}

// Click clicks an element matching the selector.
func (t *Tab) Click(opts ClickOptions) error {
	t.Touch()

	playwrightOpts := playwright.PageClickOptions{}

	if opts.Button != "" {
		button := playwright.MouseButton(opts.Button)
		playwrightOpts.Button = &button
	}

	if opts.ClickCount > 0 {
		playwrightOpts.ClickCount = &opts.ClickCount
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := t.Page.Click(opts.Selector, playwrightOpts); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	// The click may have caused navigation
	t.CurrentURL = t.Page.URL()
	return nil
}

// Fill fills an input element with the specified value.
func (t *Tab) Fill(opts FillOptions) error {
	t.Touch()

	playwrightOpts := playwright.PageFillOptions{}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if err := t.Page.Fill(opts.Selector, opts.Value, playwrightOpts); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	return nil
}

// Press sends a key press to the element matching the selector.
func (t *Tab) Press(selector, key string) error {
	t.Touch()

	if err := t.Page.Press(selector, key); err != nil {
		return fmt.Errorf("key press failed: %w", err)
	}

	t.CurrentURL = t.Page.URL()
	return nil
}

// WaitFor waits for an element to reach the requested state.
func (t *Tab) WaitFor(opts WaitOptions) error {
	t.Touch()

	if opts.Selector == "" {
		return fmt.Errorf("selector is required for wait")
	}

	playwrightOpts := playwright.PageWaitForSelectorOptions{}

	if opts.State != "" {
		state := playwright.WaitForSelectorState(opts.State)
		playwrightOpts.State = &state
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = &opts.Timeout
	}

	if _, err := t.Page.WaitForSelector(opts.Selector, playwrightOpts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}

	return nil
}

// PDF renders the current page to a PDF file at the given path and
// returns the rendered size in bytes. Chromium only supports PDF export
// in headless mode.
func (t *Tab) PDF(path string) (int, error) {
	t.Touch()

	printBackground := true
	data, err := t.Page.PDF(playwright.PagePdfOptions{
		Path:            &path,
		PrintBackground: &printBackground,
	})
	if err != nil {
		return 0, fmt.Errorf("pdf render failed: %w", err)
	}

	return len(data), nil
}

// Title returns the current page title, or an empty string when the title
// cannot be read.
func (t *Tab) Title() string {
	title, err := t.Page.Title()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(title)
}

// pageLinks parses rawHTML and collects its anchors, resolving hrefs
// against baseURL.
func pageLinks(rawHTML, baseURL string) ([]Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return extractLinks(rawHTML, base)
}
