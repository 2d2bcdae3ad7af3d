package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/weavehq/loom/pkg/agent"
	appconfig "github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/executor/headless"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/security/urlguard"
	"github.com/weavehq/loom/pkg/store/file"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/tools/browser"
	"gopkg.in/yaml.v3"
)

// runHeadless executes the headless mode
func runHeadless(ctx context.Context, config *Config) error {
	// Load and validate configuration
	execConfig, err := loadAndValidateConfig(config)
	if err != nil {
		return err
	}

	// Initialize global configuration
	if initErr := appconfig.Initialize(config.ConfigPath); initErr != nil {
		return fmt.Errorf("failed to initialize configuration: %w", initErr)
	}

	// CI has no display; force a headless browser regardless of the
	// configured default
	appconfig.GetBrowser().SetHeadless(true)

	provider, err := appconfig.BuildProvider(config.Model, config.BaseURL, config.APIKey, defaultModel)
	if err != nil {
		return err
	}

	// Navigation guard from the url_allowlist config section
	guard, err := urlguard.FromConfig(appconfig.GetURLAllowlist())
	if err != nil {
		return fmt.Errorf("failed to build URL guard: %w", err)
	}

	// Launch the shared browser
	manager := browser.NewManager(appconfig.GetBrowser())
	if initErr := manager.Initialize(); initErr != nil {
		return fmt.Errorf("failed to initialize browser: %w", initErr)
	}
	defer func() {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			log.Printf("Warning: browser shutdown error: %v", shutdownErr)
		}
	}()

	tok, err := tokenizer.New()
	if err != nil {
		tok = nil // tools fall back to character estimates
	}

	registry := tools.NewRegistry()
	toolset := browser.Toolset{
		Manager:     manager,
		Provider:    extractionProvider(provider),
		Guard:       guard,
		Tokenizer:   tok,
		ArtifactDir: execConfig.Artifacts.OutputDir,
	}
	if regErr := toolset.Register(registry); regErr != nil {
		return fmt.Errorf("failed to register browser tools: %w", regErr)
	}

	// Template resolution and run history share one library
	library := templates.NewLibrary(file.New(historyPath()))

	ag := agent.NewDefaultAgent(provider, headlessAgentOptions(registry, library, execConfig)...)

	// Create and run executor
	return runExecutor(ctx, ag, library, execConfig)
}

// headlessAgentOptions maps the run config's engine overrides onto agent
// options, keeping agent defaults where the config is silent.
func headlessAgentOptions(registry *tools.Registry, library *templates.Library, execConfig *headless.Config) []agent.AgentOption {
	opts := []agent.AgentOption{
		agent.WithRegistry(registry),
		agent.WithHistory(library),
		agent.WithPlannerModel(plannerModel()),
		agent.WithExecContext(engine.ExecContext{
			Values: map[string]string{"artifact_dir": execConfig.Artifacts.OutputDir},
		}),
	}

	if execConfig.Engine.Concurrency > 0 {
		opts = append(opts, agent.WithConcurrency(execConfig.Engine.Concurrency))
	}
	if execConfig.Engine.FailFast {
		opts = append(opts, agent.WithFailFast(true))
	}
	if execConfig.Engine.ToolTimeout > 0 {
		opts = append(opts, agent.WithToolTimeout(execConfig.Engine.ToolTimeout))
	}
	if execConfig.Engine.MaxAttempts > 0 {
		opts = append(opts, agent.WithPlanOptions(engine.PlanOptions{
			Retry: &engine.RetryPolicySpec{
				MaxAttempts: execConfig.Engine.MaxAttempts,
				BackoffMs:   execConfig.Engine.Backoff.Milliseconds(),
			},
		}))
	}

	return opts
}

// loadAndValidateConfig loads and validates headless configuration
func loadAndValidateConfig(config *Config) (*headless.Config, error) {
	if config.HeadlessConfig == "" {
		return nil, fmt.Errorf("headless mode requires a configuration file (use -headless-config flag)")
	}

	execConfig, err := loadHeadlessConfigFromFile(config.HeadlessConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load headless config: %w", err)
	}

	// Validate configuration
	if validationErr := execConfig.Validate(); validationErr != nil {
		return nil, fmt.Errorf("invalid headless configuration: %w", validationErr)
	}

	return execConfig, nil
}

// loadHeadlessConfigFromFile loads headless configuration from a YAML file
func loadHeadlessConfigFromFile(path string) (*headless.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := headless.DefaultConfig()
	if unmarshalErr := yaml.Unmarshal(data, config); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	return config, nil
}

// runExecutor creates and runs the headless executor
func runExecutor(ctx context.Context, ag *agent.DefaultAgent, library *templates.Library, execConfig *headless.Config) error {
	executor, err := headless.NewExecutor(ag, execConfig, headless.WithLibrary(library))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	// Apply timeout if configured
	if execConfig.Constraints.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, execConfig.Constraints.Timeout)
		defer cancel()
	}

	// Run execution
	log.Printf("Starting headless execution...")
	log.Printf("Goal: %s", describeWork(execConfig))
	log.Printf("Mode: %s", execConfig.Mode)

	startTime := time.Now()
	if runErr := executor.Run(ctx); runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}

	duration := time.Since(startTime)
	log.Printf("Execution completed successfully in %s", duration)
	return nil
}

// describeWork names the unit of work a headless config carries.
func describeWork(execConfig *headless.Config) string {
	switch {
	case execConfig.Goal != "":
		return execConfig.Goal
	case execConfig.Template != "":
		return fmt.Sprintf("template %q", execConfig.Template)
	default:
		return fmt.Sprintf("%d inline node(s)", len(execConfig.Nodes))
	}
}
