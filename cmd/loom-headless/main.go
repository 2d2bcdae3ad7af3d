// Package main provides the Loom headless runner for CI/cron automation.
// It executes one goal, saved template or inline node list against a real
// browser without any interactive surface, enforcing navigation and
// budget constraints and writing run artifacts for the calling pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/weavehq/loom/pkg/agent"
	appconfig "github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/executor/headless"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/security/urlguard"
	"github.com/weavehq/loom/pkg/store/file"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/tools/browser"
)

const (
	version      = "0.1.0"
	defaultModel = "openai/gpt-4o"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigFile  string
	LoomConfig  string
	Goal        string
	Template    string
	Mode        string
	Timeout     time.Duration
	ArtifactDir string
	ShowVersion bool
}

func main() {
	// Load .env before flag parsing so env-derived defaults see it
	_ = godotenv.Load()

	// Parse command line flags
	config := parseFlags()

	// Show version if requested
	if config.ShowVersion {
		fmt.Printf("Loom Headless v%s\n", version)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Run the headless executor
	if err := run(ctx, config); err != nil {
		cancel() // Cancel context before exiting
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel() // Clean up context on success
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	flag.StringVar(&config.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL")
	flag.StringVar(&config.Model, "model", defaultModel, "LLM model to use")
	flag.StringVar(&config.ConfigFile, "config", "", "Path to run configuration file (YAML)")
	flag.StringVar(&config.LoomConfig, "loom-config", "", "Path to global Loom configuration (default: ~/.loom/config.json)")
	flag.StringVar(&config.Goal, "goal", "", "Goal description (required if no config file or template)")
	flag.StringVar(&config.Template, "template", "", "Saved graph template to run instead of planning a goal")
	flag.StringVar(&config.Mode, "mode", "observe", "Execution mode: observe or interact")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Minute, "Execution timeout")
	flag.StringVar(&config.ArtifactDir, "artifacts", "", "Artifact output directory (overrides config file)")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Loom Headless - Autonomous Browser Agent for CI\n\n")
		fmt.Fprintf(os.Stderr, "Usage: loom-headless [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run with an inline goal\n")
		fmt.Fprintf(os.Stderr, "  loom-headless -goal \"Collect the pricing tiers from example.com/pricing\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Run with a config file\n")
		fmt.Fprintf(os.Stderr, "  loom-headless -config scan.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # Run a saved template\n")
		fmt.Fprintf(os.Stderr, "  loom-headless -template nightly-pricing -mode observe\n\n")
	}

	flag.Parse()
	return config
}

// run executes the headless mode
func run(ctx context.Context, cliConfig *CLIConfig) error {
	// Load or create execution configuration
	execConfig, err := loadConfig(cliConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if validationErr := execConfig.Validate(); validationErr != nil {
		return fmt.Errorf("invalid configuration: %w", validationErr)
	}

	// Initialize global configuration
	if initErr := appconfig.Initialize(cliConfig.LoomConfig); initErr != nil {
		return fmt.Errorf("failed to initialize configuration: %w", initErr)
	}

	// CI has no display; the browser always runs headless here
	appconfig.GetBrowser().SetHeadless(true)

	// Create LLM provider (CLI flags > env > config file > defaults)
	provider, err := appconfig.BuildProvider(cliConfig.Model, cliConfig.BaseURL, cliConfig.APIKey, defaultModel)
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

	// Register the browser toolset
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

	// Build the agent, applying the run config's engine overrides
	agentOpts := []agent.AgentOption{
		agent.WithRegistry(registry),
		agent.WithHistory(library),
		agent.WithPlannerModel(plannerModel()),
		agent.WithExecContext(engine.ExecContext{
			Values: map[string]string{"artifact_dir": execConfig.Artifacts.OutputDir},
		}),
	}
	if execConfig.Engine.Concurrency > 0 {
		agentOpts = append(agentOpts, agent.WithConcurrency(execConfig.Engine.Concurrency))
	}
	if execConfig.Engine.FailFast {
		agentOpts = append(agentOpts, agent.WithFailFast(true))
	}
	if execConfig.Engine.ToolTimeout > 0 {
		agentOpts = append(agentOpts, agent.WithToolTimeout(execConfig.Engine.ToolTimeout))
	}
	if execConfig.Engine.MaxAttempts > 0 {
		agentOpts = append(agentOpts, agent.WithPlanOptions(engine.PlanOptions{
			Retry: &engine.RetryPolicySpec{
				MaxAttempts: execConfig.Engine.MaxAttempts,
				BackoffMs:   execConfig.Engine.Backoff.Milliseconds(),
			},
		}))
	}

	ag := agent.NewDefaultAgent(provider, agentOpts...)

	// Create headless executor with configured agent
	executor, err := headless.NewExecutor(ag, execConfig, headless.WithLibrary(library))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	// Apply timeout if specified
	if cliConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliConfig.Timeout)
		defer cancel()
	}

	// Run execution
	log.Printf("Starting headless execution...")
	log.Printf("Goal: %s", describeWork(execConfig))
	log.Printf("Mode: %s", execConfig.Mode)

	if err := executor.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	log.Printf("Execution completed successfully")
	return nil
}

// loadConfig loads execution configuration from file or CLI arguments
func loadConfig(cliConfig *CLIConfig) (*headless.Config, error) {
	var config *headless.Config

	// If config file is provided, load from file
	if cliConfig.ConfigFile != "" {
		loaded, err := loadConfigFromFile(cliConfig.ConfigFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	} else {
		// Otherwise, create config from CLI arguments
		if cliConfig.Goal == "" && cliConfig.Template == "" {
			return nil, fmt.Errorf("a goal or template is required when not using a config file")
		}

		config = headless.DefaultConfig()
		config.Goal = cliConfig.Goal
		config.Template = cliConfig.Template
		config.Constraints.Timeout = cliConfig.Timeout

		// Set execution mode
		switch cliConfig.Mode {
		case "observe":
			config.Mode = headless.ModeObserve
		case "interact":
			config.Mode = headless.ModeInteract
		default:
			return nil, fmt.Errorf("invalid mode: %s (must be 'observe' or 'interact')", cliConfig.Mode)
		}
	}

	// Artifact directory override applies to both sources
	if cliConfig.ArtifactDir != "" {
		config.Artifacts.OutputDir = cliConfig.ArtifactDir
	}

	return config, nil
}

// loadConfigFromFile loads configuration from a YAML file
func loadConfigFromFile(path string) (*headless.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := headless.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// plannerModel returns the configured planner model override, if any.
func plannerModel() string {
	if section := appconfig.GetLLM(); section != nil {
		return section.GetPlannerModel()
	}
	return ""
}

// extractionProvider returns the provider for the content extraction
// tools. A configured extraction_model takes effect when the provider
// supports per-call model overrides.
func extractionProvider(provider llm.Provider) llm.Provider {
	section := appconfig.GetLLM()
	if section == nil {
		return provider
	}
	model := section.GetExtractionModel()
	if model == "" {
		return provider
	}
	if cloner, ok := provider.(llm.ModelCloner); ok {
		return cloner.CloneWithModel(model)
	}
	return provider
}

// historyPath returns the run history store location, preferring the
// user's home directory and falling back to the working directory.
func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "" // file store defaults to .loom/store
	}
	return filepath.Join(home, ".loom", "store")
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
