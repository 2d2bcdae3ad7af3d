package urlguard

import (
	"errors"
	"strings"
	"testing"

	"github.com/weavehq/loom/pkg/config"
)

func newTestGuard(t *testing.T, allow, deny []config.URLPattern) *Guard {
	t.Helper()
	guard, err := New(allow, deny)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return guard
}

func TestGuard_Check(t *testing.T) {
	guard := newTestGuard(t,
		[]config.URLPattern{
			{Pattern: "*", Description: "Any public host"},
		},
		[]config.URLPattern{
			{Pattern: "localhost", Description: "Loopback hostname"},
			{Pattern: "127.*", Description: "IPv4 loopback range"},
			{Pattern: "::1", Description: "IPv6 loopback"},
			{Pattern: "169.254.*", Description: "Link-local range"},
			{Pattern: "*.internal", Description: "Private service domains"},
		},
	)

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "public host allowed",
			url:     "https://example.com/pricing",
			wantErr: false,
		},
		{
			name:    "public host with port allowed",
			url:     "https://example.com:8443/",
			wantErr: false,
		},
		{
			name:    "localhost denied",
			url:     "http://localhost:3000/admin",
			wantErr: true,
		},
		{
			name:    "uppercase localhost denied",
			url:     "http://LOCALHOST/",
			wantErr: true,
		},
		{
			name:    "ipv4 loopback denied",
			url:     "http://127.0.0.1:8080/",
			wantErr: true,
		},
		{
			name:    "ipv6 loopback denied",
			url:     "http://[::1]:8080/",
			wantErr: true,
		},
		{
			name:    "link-local metadata endpoint denied",
			url:     "http://169.254.169.254/latest/meta-data/",
			wantErr: true,
		},
		{
			name:    "internal domain denied",
			url:     "https://billing.corp.internal/invoices",
			wantErr: true,
		},
		{
			name:    "file scheme rejected",
			url:     "file:///etc/passwd",
			wantErr: true,
		},
		{
			name:    "javascript scheme rejected",
			url:     "javascript:alert(1)",
			wantErr: true,
		},
		{
			name:    "empty URL rejected",
			url:     "",
			wantErr: true,
		},
		{
			name:    "schemeless URL rejected",
			url:     "example.com/pricing",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if allowed := guard.Allowed(tt.url); allowed == tt.wantErr {
				t.Errorf("Allowed(%q) = %v, want %v", tt.url, allowed, !tt.wantErr)
			}
		})
	}
}

func TestGuard_DenyWinsOverAllow(t *testing.T) {
	guard := newTestGuard(t,
		[]config.URLPattern{
			{Pattern: "*.example.com", Description: "Example subdomains"},
		},
		[]config.URLPattern{
			{Pattern: "admin.example.com", Description: "Admin console"},
		},
	)

	if err := guard.Check("https://docs.example.com/"); err != nil {
		t.Errorf("allowed subdomain rejected: %v", err)
	}

	err := guard.Check("https://admin.example.com/users")
	if err == nil {
		t.Fatal("denied host was allowed")
	}

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error type = %T, want *DeniedError", err)
	}
	if denied.Pattern != "admin.example.com" {
		t.Errorf("Pattern = %q, want %q", denied.Pattern, "admin.example.com")
	}
	if denied.Host != "admin.example.com" {
		t.Errorf("Host = %q, want %q", denied.Host, "admin.example.com")
	}
	if !strings.Contains(denied.Error(), "Admin console") {
		t.Errorf("error message missing reason: %s", denied.Error())
	}
}

func TestGuard_NoAllowMatch(t *testing.T) {
	guard := newTestGuard(t,
		[]config.URLPattern{
			{Pattern: "*.example.com", Description: "Example subdomains"},
		},
		nil,
	)

	err := guard.Check("https://other.org/")
	if err == nil {
		t.Fatal("unlisted host was allowed")
	}

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error type = %T, want *DeniedError", err)
	}
	if denied.Pattern != "" {
		t.Errorf("Pattern = %q, want empty for allow-miss", denied.Pattern)
	}
	if !strings.Contains(denied.Error(), "does not match any allowed pattern") {
		t.Errorf("unexpected error message: %s", denied.Error())
	}
}

func TestGuard_SchemeErrorsAreNotDeniedErrors(t *testing.T) {
	guard := newTestGuard(t, []config.URLPattern{{Pattern: "*"}}, nil)

	err := guard.Check("ftp://example.com/archive")
	if err == nil {
		t.Fatal("ftp URL was allowed")
	}

	var denied *DeniedError
	if errors.As(err, &denied) {
		t.Error("scheme rejection should not be a *DeniedError")
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New([]config.URLPattern{{Pattern: "[unclosed"}}, nil)
	if err == nil {
		t.Fatal("expected error for malformed glob pattern")
	}
	if !strings.Contains(err.Error(), "invalid allow pattern") {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = New(nil, []config.URLPattern{{Pattern: "   "}})
	if err == nil {
		t.Fatal("expected error for blank deny pattern")
	}
	if !strings.Contains(err.Error(), "invalid deny pattern") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	guard, err := FromConfig(config.NewURLAllowlistSection())
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}

	if !guard.Allowed("https://example.com/") {
		t.Error("default rules should allow public hosts")
	}
	if guard.Allowed("http://localhost:9222/") {
		t.Error("default rules should deny localhost")
	}
	if guard.Allowed("http://169.254.169.254/") {
		t.Error("default rules should deny link-local hosts")
	}
	if guard.Allowed("https://queue.internal/") {
		t.Error("default rules should deny .internal domains")
	}
}

func TestFromConfig_NilSection(t *testing.T) {
	if _, err := FromConfig(nil); err == nil {
		t.Fatal("expected error for nil section")
	}
}
