package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDEngine is the identifier for the engine settings section
	SectionIDEngine = "engine"

	// Default values for engine settings
	defaultEngineConcurrency = 2
	defaultToolTimeout       = 30 * time.Second
	defaultMaxAttempts       = 2
	defaultRetryBackoff      = 500 * time.Millisecond
)

// EngineSection manages task graph run settings.
type EngineSection struct {
	Concurrency  int           `json:"concurrency"`
	ToolTimeout  time.Duration `json:"tool_timeout"`
	FailFast     bool          `json:"fail_fast"`
	MaxAttempts  int           `json:"max_attempts"`
	RetryBackoff time.Duration `json:"retry_backoff"`
	mu           sync.RWMutex
}

// NewEngineSection creates a new engine section with default settings.
func NewEngineSection() *EngineSection {
	return &EngineSection{
		Concurrency:  defaultEngineConcurrency,
		ToolTimeout:  defaultToolTimeout,
		MaxAttempts:  defaultMaxAttempts,
		RetryBackoff: defaultRetryBackoff,
	}
}

// ID returns the section identifier.
func (s *EngineSection) ID() string {
	return SectionIDEngine
}

// Title returns the section title.
func (s *EngineSection) Title() string {
	return "Engine Settings"
}

// Description returns the section description.
func (s *EngineSection) Description() string {
	return "Configure task graph execution: dispatch concurrency, per-tool timeout, fail-fast behavior and the retry policy planned tool nodes get by default."
}

// Data returns the current configuration data.
func (s *EngineSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"concurrency":   s.Concurrency,
		"tool_timeout":  s.ToolTimeout.String(),
		"fail_fast":     s.FailFast,
		"max_attempts":  s.MaxAttempts,
		"retry_backoff": s.RetryBackoff.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *EngineSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "concurrency":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.Concurrency = n

		case "tool_timeout":
			d, err := durationValue(key, value)
			if err != nil {
				return err
			}
			s.ToolTimeout = d

		case "fail_fast":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for fail_fast: expected bool, got %T", value)
			}
			s.FailFast = enabled

		case "max_attempts":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.MaxAttempts = n

		case "retry_backoff":
			d, err := durationValue(key, value)
			if err != nil {
				return err
			}
			s.RetryBackoff = d

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *EngineSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Concurrency < 1 || s.Concurrency > 64 {
		return fmt.Errorf("concurrency must be between 1 and 64, got %d", s.Concurrency)
	}
	if s.ToolTimeout < time.Second || s.ToolTimeout > 10*time.Minute {
		return fmt.Errorf("tool_timeout must be between 1s and 10m, got %v", s.ToolTimeout)
	}
	if s.MaxAttempts < 1 || s.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts must be between 1 and 10, got %d", s.MaxAttempts)
	}
	if s.RetryBackoff < 0 || s.RetryBackoff > 30*time.Second {
		return fmt.Errorf("retry_backoff must be between 0 and 30s, got %v", s.RetryBackoff)
	}

	return nil
}

// Reset resets the section to default configuration.
func (s *EngineSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Concurrency = defaultEngineConcurrency
	s.ToolTimeout = defaultToolTimeout
	s.FailFast = false
	s.MaxAttempts = defaultMaxAttempts
	s.RetryBackoff = defaultRetryBackoff
}

// GetConcurrency returns the configured dispatch concurrency.
func (s *EngineSection) GetConcurrency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Concurrency
}

// SetConcurrency sets the dispatch concurrency.
func (s *EngineSection) SetConcurrency(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Concurrency = n
}

// GetToolTimeout returns the default per-tool timeout.
func (s *EngineSection) GetToolTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ToolTimeout
}

// SetToolTimeout sets the default per-tool timeout.
func (s *EngineSection) SetToolTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ToolTimeout = d
}

// GetFailFast returns whether runs stop dispatching after the first failure.
func (s *EngineSection) GetFailFast() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FailFast
}

// SetFailFast sets the fail-fast behavior.
func (s *EngineSection) SetFailFast(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailFast = enabled
}

// GetRetryPolicy returns the default retry policy for planned tool nodes.
func (s *EngineSection) GetRetryPolicy() (maxAttempts int, backoff time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxAttempts, s.RetryBackoff
}

// SetRetryPolicy sets the default retry policy for planned tool nodes.
func (s *EngineSection) SetRetryPolicy(maxAttempts int, backoff time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxAttempts = maxAttempts
	s.RetryBackoff = backoff
}

// intValue coerces a stored config value into an int. JSON numbers
// arrive as float64.
func intValue(key string, value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

// durationValue coerces a stored config value into a duration. Strings
// use time.ParseDuration; bare numbers are taken as nanoseconds.
func durationValue(key string, value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}
