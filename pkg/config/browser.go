package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// Default values for browser settings
	defaultBrowserHeadless   = true
	defaultNavigationTimeout = 30 * time.Second
	defaultViewportWidth     = 1280
	defaultViewportHeight    = 800
	defaultMaxTabs           = 4
)

// BrowserSection manages browser automation settings.
type BrowserSection struct {
	Headless          bool          `json:"headless"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	UserAgent         string        `json:"user_agent"`
	ViewportWidth     int           `json:"viewport_width"`
	ViewportHeight    int           `json:"viewport_height"`
	MaxTabs           int           `json:"max_tabs"`
	mu                sync.RWMutex
}

// NewBrowserSection creates a new browser section with default settings.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		Headless:          defaultBrowserHeadless,
		NavigationTimeout: defaultNavigationTimeout,
		ViewportWidth:     defaultViewportWidth,
		ViewportHeight:    defaultViewportHeight,
		MaxTabs:           defaultMaxTabs,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser Settings"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Configure the automated browser: headless mode, navigation timeout, viewport size and how many tabs a session may hold open."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"headless":           s.Headless,
		"navigation_timeout": s.NavigationTimeout.String(),
		"user_agent":         s.UserAgent,
		"viewport_width":     s.ViewportWidth,
		"viewport_height":    s.ViewportHeight,
		"max_tabs":           s.MaxTabs,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "headless":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			s.Headless = enabled

		case "navigation_timeout":
			d, err := durationValue(key, value)
			if err != nil {
				return err
			}
			s.NavigationTimeout = d

		case "user_agent":
			ua, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for user_agent: expected string, got %T", value)
			}
			s.UserAgent = ua

		case "viewport_width":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.ViewportWidth = n

		case "viewport_height":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.ViewportHeight = n

		case "max_tabs":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.MaxTabs = n

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.NavigationTimeout < time.Second || s.NavigationTimeout > 2*time.Minute {
		return fmt.Errorf("navigation_timeout must be between 1s and 2m, got %v", s.NavigationTimeout)
	}
	if s.ViewportWidth < 320 || s.ViewportHeight < 240 {
		return fmt.Errorf("viewport must be at least 320x240, got %dx%d", s.ViewportWidth, s.ViewportHeight)
	}
	if s.MaxTabs < 1 || s.MaxTabs > 16 {
		return fmt.Errorf("max_tabs must be between 1 and 16, got %d", s.MaxTabs)
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultBrowserHeadless
	s.NavigationTimeout = defaultNavigationTimeout
	s.UserAgent = ""
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.MaxTabs = defaultMaxTabs
}

// GetHeadless returns whether the browser runs headless.
func (s *BrowserSection) GetHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Headless
}

// SetHeadless sets headless mode.
func (s *BrowserSection) SetHeadless(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = enabled
}

// GetNavigationTimeout returns the navigation timeout.
func (s *BrowserSection) GetNavigationTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NavigationTimeout
}

// SetNavigationTimeout sets the navigation timeout.
func (s *BrowserSection) SetNavigationTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NavigationTimeout = d
}

// GetUserAgent returns the configured user agent override.
// An empty string means use the browser default.
func (s *BrowserSection) GetUserAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserAgent
}

// GetViewport returns the configured viewport size.
func (s *BrowserSection) GetViewport() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ViewportWidth, s.ViewportHeight
}

// GetMaxTabs returns how many tabs a session may hold open.
func (s *BrowserSection) GetMaxTabs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxTabs
}
