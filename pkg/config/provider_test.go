package config

import (
	"testing"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name         string
		cliModel     string
		cliBaseURL   string
		cliAPIKey    string
		envAPIKey    string
		envBaseURL   string
		defaultModel string
		expectError  bool
	}{
		{
			name:         "CLI flag takes precedence over env",
			cliModel:     "gpt-4o",
			cliBaseURL:   "https://cli.example.com",
			cliAPIKey:    "cli-key",
			envAPIKey:    "env-key",
			envBaseURL:   "https://env.example.com",
			defaultModel: "gpt-4o-mini",
		},
		{
			name:         "Environment variable used when CLI empty",
			envAPIKey:    "env-key",
			envBaseURL:   "https://env.example.com",
			defaultModel: "gpt-4o-mini",
		},
		{
			name:         "Error when no API key provided",
			defaultModel: "gpt-4o-mini",
			expectError:  true,
		},
		{
			name:         "Default model used when CLI omits one",
			cliAPIKey:    "test-key",
			defaultModel: "gpt-4o-mini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// t.Setenv restores the prior values when the test ends; an
			// empty value reads back as unset for our purposes.
			t.Setenv("OPENAI_API_KEY", tt.envAPIKey)
			t.Setenv("OPENAI_BASE_URL", tt.envBaseURL)

			provider, err := BuildProvider(tt.cliModel, tt.cliBaseURL, tt.cliAPIKey, tt.defaultModel)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if provider == nil {
				t.Fatal("Expected provider but got nil")
			}
		})
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name        string
		cliModel    string
		configModel string
		want        string
	}{
		{"explicit CLI model wins", "gpt-4-turbo", "config-model", "gpt-4-turbo"},
		{"CLI carrying the default defers to config", "gpt-4o-mini", "config-model", "config-model"},
		{"empty CLI defers to config", "", "config-model", "config-model"},
		{"default when nothing else set", "", "", "gpt-4o-mini"},
		{"default when CLI carries it and config empty", "gpt-4o-mini", "", "gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveModel(tt.cliModel, tt.configModel, "gpt-4o-mini"); got != tt.want {
				t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.cliModel, tt.configModel, got, tt.want)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "second", "third"); got != "second" {
		t.Errorf("Expected %q, got %q", "second", got)
	}
	if got := firstNonEmpty("", "", ""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("Expected empty string for no arguments, got %q", got)
	}
}
