package browser

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/engine"
)

// Manager owns the shared browser instance and the named tabs tool calls
// act on. Browser settings (headless mode, viewport, navigation timeout,
// tab limit) come from the configuration section handed to NewManager.
type Manager struct {
	mu          sync.RWMutex
	tabs        map[string]*Tab
	playwright  *playwright.Playwright
	browser     playwright.Browser
	settings    *config.BrowserSection
	initialized bool
}

// NewManager creates a new browser manager. A nil settings section falls
// back to the default browser configuration.
func NewManager(settings *config.BrowserSection) *Manager {
	if settings == nil {
		settings = config.NewBrowserSection()
	}
	return &Manager{
		tabs:     make(map[string]*Tab),
		settings: settings,
	}
}

// Initialize installs the Playwright driver, starts it, and launches the
// shared browser. It must be called before any tab is acquired.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Install and run Playwright with output discarded so driver chatter
	// does not interfere with the TUI
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := m.settings.GetHeadless()
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.playwright = pw
	m.browser = browser
	m.initialized = true
	return nil
}

// Acquire returns the tab with the given id, creating it on first use.
// Tab creation fails when the manager is not initialized or the configured
// tab limit is reached.
func (m *Manager) Acquire(id string) (*Tab, error) {
	if id == "" {
		id = DefaultTabID
	}

	m.mu.RLock()
	tab, exists := m.tabs[id]
	m.mu.RUnlock()
	if exists {
		tab.Touch()
		return tab, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have created the tab while the lock was released
	if tab, exists := m.tabs[id]; exists {
		tab.Touch()
		return tab, nil
	}

	if !m.initialized {
		return nil, fmt.Errorf("browser manager not initialized")
	}

	maxTabs := m.settings.GetMaxTabs()
	if len(m.tabs) >= maxTabs {
		return nil, fmt.Errorf("maximum number of tabs (%d) reached", maxTabs)
	}

	width, height := m.settings.GetViewport()
	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  width,
			Height: height,
		},
	}
	if ua := m.settings.GetUserAgent(); ua != "" {
		contextOpts.UserAgent = &ua
	}

	context, err := m.browser.NewContext(contextOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(float64(m.settings.GetNavigationTimeout().Milliseconds()))

	now := time.Now()
	tab = &Tab{
		ID:         id,
		Context:    context,
		Page:       page,
		CreatedAt:  now,
		LastUsedAt: now,
		CurrentURL: "about:blank",
	}

	m.tabs[id] = tab
	return tab, nil
}

// AcquireFor resolves the tab a tool call should act on from its execution
// context, falling back to the default tab when none is named.
func (m *Manager) AcquireFor(exec engine.ExecContext) (*Tab, error) {
	return m.Acquire(exec.TabID)
}

// Tab retrieves an open tab by id without creating it.
func (m *Manager) Tab(id string) (*Tab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tab, exists := m.tabs[id]
	if !exists {
		return nil, fmt.Errorf("tab %q not found", id)
	}
	return tab, nil
}

// CloseTab closes and removes a tab.
func (m *Manager) CloseTab(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tab, exists := m.tabs[id]
	if !exists {
		return fmt.Errorf("tab %q not found", id)
	}

	_ = tab.Page.Close()    // Ignore errors, continue cleanup
	_ = tab.Context.Close() // Ignore errors, continue cleanup

	delete(m.tabs, id)
	return nil
}

// CloseAll closes every open tab, keeping the browser running.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, tab := range m.tabs {
		if err := tab.Page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := tab.Context.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.tabs, id)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing tabs: %v", errs)
	}
	return nil
}

// HasTabs returns true if any tab is open.
func (m *Manager) HasTabs() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs) > 0
}

// TabInfos returns metadata about all open tabs, ordered by id.
func (m *Manager) TabInfos() []TabInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]TabInfo, 0, len(m.tabs))
	for _, tab := range m.tabs {
		infos = append(infos, TabInfo{
			ID:         tab.ID,
			CurrentURL: tab.CurrentURL,
			CreatedAt:  tab.CreatedAt,
			LastUsedAt: tab.LastUsedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Shutdown closes all tabs, the browser, and stops Playwright.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, tab := range m.tabs {
		tab.Page.Close()
		tab.Context.Close()
		delete(m.tabs, id)
	}

	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.playwright = nil
		m.initialized = false
	}

	return nil
}
