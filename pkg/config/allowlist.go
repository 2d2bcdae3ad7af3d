package config

import (
	"fmt"
	"strings"
)

const (
	// SectionIDURLAllowlist is the identifier for the URL allowlist section
	SectionIDURLAllowlist = "url_allowlist"
)

// URLPattern represents a host glob pattern with a human-readable reason.
type URLPattern struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

// URLAllowlistSection manages the host patterns navigation is allowed to
// reach. Deny patterns win over allow patterns. The section only stores
// the patterns; matching is done by the URL guard, which compiles them
// into globs.
type URLAllowlistSection struct {
	allow []URLPattern
	deny  []URLPattern
}

// NewURLAllowlistSection creates a new URL allowlist section with default
// settings: any public host is allowed, loopback and link-local hosts are
// denied.
func NewURLAllowlistSection() *URLAllowlistSection {
	s := &URLAllowlistSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *URLAllowlistSection) ID() string {
	return SectionIDURLAllowlist
}

// Title returns the section title.
func (s *URLAllowlistSection) Title() string {
	return "URL Allowlist"
}

// Description returns the section description.
func (s *URLAllowlistSection) Description() string {
	return "Host patterns the browser may navigate to. A URL must match an allow pattern and no deny pattern; deny always wins."
}

// Data returns the current configuration data.
func (s *URLAllowlistSection) Data() map[string]any {
	return map[string]any{
		"allow": patternsToData(s.allow),
		"deny":  patternsToData(s.deny),
	}
}

func patternsToData(patterns []URLPattern) []any {
	data := make([]any, len(patterns))
	for i, p := range patterns {
		data[i] = map[string]any{
			"pattern":     p.Pattern,
			"description": p.Description,
		}
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *URLAllowlistSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	if raw, ok := data["allow"]; ok {
		patterns, err := patternsFromData("allow", raw)
		if err != nil {
			return err
		}
		s.allow = patterns
	}

	if raw, ok := data["deny"]; ok {
		patterns, err := patternsFromData("deny", raw)
		if err != nil {
			return err
		}
		s.deny = patterns
	}

	return nil
}

func patternsFromData(list string, raw any) ([]URLPattern, error) {
	slice, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("invalid %s list type: expected array, got %T", list, raw)
	}

	patterns := make([]URLPattern, 0, len(slice))
	for i, item := range slice {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid %s pattern at index %d: expected map, got %T", list, i, item)
		}

		pattern, ok := entry["pattern"].(string)
		if !ok {
			return nil, fmt.Errorf("invalid %s pattern at index %d: missing or invalid pattern field", list, i)
		}

		description, _ := entry["description"].(string)

		patterns = append(patterns, URLPattern{
			Pattern:     pattern,
			Description: description,
		})
	}

	return patterns, nil
}

// Validate validates the current configuration.
func (s *URLAllowlistSection) Validate() error {
	for i, p := range s.allow {
		if strings.TrimSpace(p.Pattern) == "" {
			return fmt.Errorf("allow pattern at index %d is empty", i)
		}
	}
	for i, p := range s.deny {
		if strings.TrimSpace(p.Pattern) == "" {
			return fmt.Errorf("deny pattern at index %d is empty", i)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *URLAllowlistSection) Reset() {
	s.allow = []URLPattern{
		{
			Pattern:     "*",
			Description: "Any public host",
		},
	}
	s.deny = []URLPattern{
		{
			Pattern:     "localhost",
			Description: "Loopback hostname",
		},
		{
			Pattern:     "127.*",
			Description: "IPv4 loopback range",
		},
		{
			Pattern:     "::1",
			Description: "IPv6 loopback",
		},
		{
			Pattern:     "169.254.*",
			Description: "Link-local range, including cloud metadata endpoints",
		},
		{
			Pattern:     "*.internal",
			Description: "Private service domains",
		},
	}
}

// AllowPatterns returns a copy of the allow patterns.
func (s *URLAllowlistSection) AllowPatterns() []URLPattern {
	out := make([]URLPattern, len(s.allow))
	copy(out, s.allow)
	return out
}

// DenyPatterns returns a copy of the deny patterns.
func (s *URLAllowlistSection) DenyPatterns() []URLPattern {
	out := make([]URLPattern, len(s.deny))
	copy(out, s.deny)
	return out
}

// AddAllowPattern adds a pattern to the allow list.
func (s *URLAllowlistSection) AddAllowPattern(pattern, description string) error {
	p, err := s.appendPattern(s.allow, pattern, description)
	if err != nil {
		return err
	}
	s.allow = p
	return nil
}

// AddDenyPattern adds a pattern to the deny list.
func (s *URLAllowlistSection) AddDenyPattern(pattern, description string) error {
	p, err := s.appendPattern(s.deny, pattern, description)
	if err != nil {
		return err
	}
	s.deny = p
	return nil
}

func (s *URLAllowlistSection) appendPattern(list []URLPattern, pattern, description string) ([]URLPattern, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	for _, p := range list {
		if p.Pattern == pattern {
			return nil, fmt.Errorf("pattern '%s' already exists", pattern)
		}
	}

	return append(list, URLPattern{Pattern: pattern, Description: description}), nil
}

// RemoveAllowPattern removes an allow pattern by index.
func (s *URLAllowlistSection) RemoveAllowPattern(index int) error {
	if index < 0 || index >= len(s.allow) {
		return fmt.Errorf("invalid allow pattern index: %d", index)
	}
	s.allow = append(s.allow[:index], s.allow[index+1:]...)
	return nil
}

// RemoveDenyPattern removes a deny pattern by index.
func (s *URLAllowlistSection) RemoveDenyPattern(index int) error {
	if index < 0 || index >= len(s.deny) {
		return fmt.Errorf("invalid deny pattern index: %d", index)
	}
	s.deny = append(s.deny[:index], s.deny[index+1:]...)
	return nil
}
