package config

import (
	"fmt"
	"os"

	"github.com/weavehq/loom/pkg/llm/openai"
)

// BuildProvider resolves provider settings across the configuration
// sources and returns a ready LLM provider. Precedence per setting is
// CLI flag > environment variable > config file > built-in default.
func BuildProvider(cliModel, cliBaseURL, cliAPIKey, defaultModel string) (*openai.Provider, error) {
	// Config file values; all empty when the config is uninitialized.
	var fileModel, fileBaseURL, fileAPIKey string
	if section := GetLLM(); section != nil {
		fileModel = section.GetModel()
		fileBaseURL = section.GetBaseURL()
		fileAPIKey = section.GetAPIKey()
	}

	apiKey := firstNonEmpty(cliAPIKey, os.Getenv("OPENAI_API_KEY"), fileAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required. Set OPENAI_API_KEY environment variable, use -api-key flag, or configure in ~/.loom/config.json")
	}

	opts := []openai.ProviderOption{
		openai.WithModel(resolveModel(cliModel, fileModel, defaultModel)),
	}
	if baseURL := firstNonEmpty(cliBaseURL, os.Getenv("OPENAI_BASE_URL"), fileBaseURL); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}

// resolveModel picks the model name. The CLI flag always carries the
// built-in default, so it only wins when set to something else; the
// config file fills the gap before the default applies.
func resolveModel(cliModel, configModel, defaultModel string) string {
	if cliModel != "" && cliModel != defaultModel {
		return cliModel
	}
	if configModel != "" {
		return configModel
	}
	return defaultModel
}

// firstNonEmpty returns the first value that is set.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
