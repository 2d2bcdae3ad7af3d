// Package browser provides web browser automation through Playwright.
//
// The package is built around a Manager that owns a single Chromium
// instance and a set of named tabs. Each tab is an isolated browser
// context with one page; graph runs name the tab their tool calls share,
// so every node in a run acts on the same page state while separate runs
// stay isolated from each other.
//
// # Tab Lifecycle
//
//  1. Initialize: the Manager installs the Playwright driver and launches
//     the shared browser using the configured browser settings.
//  2. Acquire: tools acquire the tab named by their execution context,
//     creating it on first use. The configured tab limit bounds how many
//     tabs may be open at once.
//  3. Shutdown: closing the manager tears down every tab, the browser,
//     and the Playwright driver.
//
// # Tools
//
// The package ships the browser capabilities graph nodes invoke:
// navigation (guarded by URL allow/deny rules), page reading with
// token-budgeted output, LLM-backed structured extraction and link
// analysis, clicking, form filling, waiting for selectors, and PDF
// capture with text extraction.
//
// # Example Usage
//
//	manager := browser.NewManager(config.GetBrowser())
//	if err := manager.Initialize(); err != nil {
//		return err
//	}
//	defer manager.Shutdown()
//
//	tab, err := manager.Acquire("run-42")
//	if err != nil {
//		return err
//	}
//	err = tab.Navigate("https://example.com", browser.NavigateOptions{
//		WaitUntil: "domcontentloaded",
//	})
package browser
