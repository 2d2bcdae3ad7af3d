//go:build testing
// +build testing

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultTestModel = "test-default-model"

func TestBuildProvider_ConfigFilePrecedence(t *testing.T) {
	testCases := []struct {
		name            string
		cliModel        string
		cliBaseURL      string
		cliAPIKey       string
		fileContent     string
		expectedModel   string
		expectedBaseURL string
		expectError     bool
	}{
		{
			name:            "CLI flags only",
			cliModel:        "cli-model",
			cliBaseURL:      "https://cli.url",
			cliAPIKey:       "cli-key",
			fileContent:     `{}`,
			expectedModel:   "cli-model",
			expectedBaseURL: "https://cli.url",
		},
		{
			name:            "Config file only",
			cliModel:        defaultTestModel,
			fileContent:     `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.url","api_key":"file-key"}}}`,
			expectedModel:   "file-model",
			expectedBaseURL: "https://file.url",
		},
		{
			name:            "CLI overrides config file",
			cliModel:        "cli-model",
			cliBaseURL:      "https://cli.url",
			cliAPIKey:       "cli-key",
			fileContent:     `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.url","api_key":"file-key"}}}`,
			expectedModel:   "cli-model",
			expectedBaseURL: "https://cli.url",
		},
		{
			name:            "Partial CLI override keeps file URL and key",
			cliModel:        "cli-model",
			fileContent:     `{"version":"1.0","sections":{"llm":{"model":"file-model","base_url":"https://file.url","api_key":"file-key"}}}`,
			expectedModel:   "cli-model",
			expectedBaseURL: "https://file.url",
		},
		{
			name:        "No key anywhere",
			cliModel:    defaultTestModel,
			fileContent: `{}`,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Keep ambient env vars out of the precedence chain.
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("OPENAI_BASE_URL", "")

			configPath := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.fileContent), 0600))
			require.NoError(t, Initialize(configPath))
			defer ResetGlobalManager()

			provider, err := BuildProvider(tc.cliModel, tc.cliBaseURL, tc.cliAPIKey, defaultTestModel)

			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, provider)
			assert.Equal(t, tc.expectedModel, provider.GetModel())
			assert.Equal(t, tc.expectedBaseURL, provider.GetBaseURL())
		})
	}
}
