// Package urlguard provides security mechanisms for restricting browser
// navigation to approved hosts. Every URL is checked against configurable
// allow and deny glob patterns before the browser is pointed at it, keeping
// the agent away from loopback, link-local, and internal services.
package urlguard

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/weavehq/loom/pkg/config"
)

// Guard enforces host-level navigation restrictions.
// A URL passes when its host matches at least one allow pattern and no
// deny pattern. Deny patterns always take precedence.
type Guard struct {
	allow []compiledPattern
	deny  []compiledPattern
}

// compiledPattern pairs a compiled glob with its source pattern and the
// human-readable reason recorded alongside it, so refusals can explain
// themselves.
type compiledPattern struct {
	glob    glob.Glob
	pattern string
	reason  string
}

// DeniedError reports why a URL was refused. Pattern carries the deny
// pattern that matched; it is empty when the refusal came from the host
// matching no allow pattern.
type DeniedError struct {
	URL     string
	Host    string
	Pattern string
	Reason  string
}

func (e *DeniedError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("navigation to '%s' blocked: host '%s' does not match any allowed pattern", e.URL, e.Host)
	}
	if e.Reason != "" {
		return fmt.Sprintf("navigation to '%s' blocked: host '%s' matches denied pattern '%s' (%s)", e.URL, e.Host, e.Pattern, e.Reason)
	}
	return fmt.Sprintf("navigation to '%s' blocked: host '%s' matches denied pattern '%s'", e.URL, e.Host, e.Pattern)
}

// New creates a guard from allow and deny pattern lists. Patterns are
// matched against the lowercased URL host, so 'docs.example.com' and
// '*.example.com' behave as expected while '127.*' covers the IPv4
// loopback range.
func New(allow, deny []config.URLPattern) (*Guard, error) {
	g := &Guard{}

	for _, p := range allow {
		compiled, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("invalid allow pattern '%s': %w", p.Pattern, err)
		}
		g.allow = append(g.allow, compiled)
	}

	for _, p := range deny {
		compiled, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern '%s': %w", p.Pattern, err)
		}
		g.deny = append(g.deny, compiled)
	}

	return g, nil
}

// FromConfig creates a guard from the URL allowlist configuration section.
func FromConfig(section *config.URLAllowlistSection) (*Guard, error) {
	if section == nil {
		return nil, fmt.Errorf("allowlist section cannot be nil")
	}
	return New(section.AllowPatterns(), section.DenyPatterns())
}

func compilePattern(p config.URLPattern) (compiledPattern, error) {
	pattern := strings.ToLower(strings.TrimSpace(p.Pattern))
	if pattern == "" {
		return compiledPattern{}, fmt.Errorf("pattern cannot be empty")
	}

	compiled, err := glob.Compile(pattern)
	if err != nil {
		return compiledPattern{}, err
	}

	return compiledPattern{
		glob:    compiled,
		pattern: p.Pattern,
		reason:  p.Description,
	}, nil
}

// Check validates that the given URL may be navigated to.
// It verifies the URL parses, uses an http or https scheme, and carries a
// host that passes the pattern rules. Refusals based on the pattern rules
// are returned as *DeniedError so callers can branch on them.
func (g *Guard) Check(rawURL string) error {
	host, err := g.hostOf(rawURL)
	if err != nil {
		return err
	}

	// Denied patterns take precedence
	for _, p := range g.deny {
		if p.glob.Match(host) {
			return &DeniedError{
				URL:     rawURL,
				Host:    host,
				Pattern: p.pattern,
				Reason:  p.reason,
			}
		}
	}

	for _, p := range g.allow {
		if p.glob.Match(host) {
			return nil
		}
	}

	return &DeniedError{URL: rawURL, Host: host}
}

// Allowed reports whether the URL passes all navigation rules.
func (g *Guard) Allowed(rawURL string) bool {
	return g.Check(rawURL) == nil
}

// hostOf parses the URL and extracts its lowercased host, rejecting
// malformed URLs and non-web schemes before any pattern matching runs.
func (g *Guard) hostOf(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL '%s': %w", rawURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme '%s': only http and https can be navigated", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("URL '%s' has no host", rawURL)
	}

	return host, nil
}
