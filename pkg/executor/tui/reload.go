package tui

import (
	"fmt"

	"github.com/weavehq/loom/pkg/agent"
	"github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/llm/openai"
)

// reloadLLMProvider rebuilds the LLM provider from the current config
// section and swaps it into the agent. Bound to Ctrl+R so edits to the
// config file take effect without restarting the session.
func (m *model) reloadLLMProvider() error {
	section := config.GetLLM()
	if section == nil {
		return fmt.Errorf("LLM configuration not found")
	}

	provider, err := providerFromSection(section)
	if err != nil {
		return err
	}

	if err := m.agent.SetProvider(provider); err != nil {
		return fmt.Errorf("failed to update agent provider: %w", err)
	}

	// The planner model override rides along; empty reverts planning to
	// the main model.
	if defaultAgent, ok := m.agent.(*agent.DefaultAgent); ok {
		defaultAgent.SetPlannerModel(section.GetPlannerModel())
	}

	return nil
}

// providerFromSection builds a provider from config file values alone.
// CLI and environment overrides are resolved once at startup; a reload
// reflects exactly what the file says now.
func providerFromSection(section *config.LLMSection) (*openai.Provider, error) {
	model := section.GetModel()
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	apiKey := section.GetAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	opts := []openai.ProviderOption{openai.WithModel(model)}
	if baseURL := section.GetBaseURL(); baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}
