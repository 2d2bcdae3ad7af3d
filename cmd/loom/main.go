// Package main provides the Loom browser automation agent application.
// Loom plans a natural-language goal into a dependency-aware task graph
// and executes it against a real browser, with a live TUI monitor by
// default and plain-terminal and headless modes for scripts and CI.
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

	"github.com/weavehq/loom/pkg/agent"
	appconfig "github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/engine"
	"github.com/weavehq/loom/pkg/executor/cli"
	"github.com/weavehq/loom/pkg/executor/tui"
	"github.com/weavehq/loom/pkg/llm"
	"github.com/weavehq/loom/pkg/llm/tokenizer"
	"github.com/weavehq/loom/pkg/security/urlguard"
	"github.com/weavehq/loom/pkg/store/file"
	"github.com/weavehq/loom/pkg/templates"
	"github.com/weavehq/loom/pkg/tools"
	"github.com/weavehq/loom/pkg/tools/browser"
)

const (
	version            = "0.1.0"         // Version of the Loom agent
	defaultModel       = "openai/gpt-4o" // Default model to use
	banner             = "LOOM"          // TUI header text
	defaultArtifactDir = ".loom/artifacts"
)

// Config holds the application configuration
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ConfigPath     string
	ArtifactDir    string
	Plain          bool
	ShowVersion    bool
	Headless       bool
	HeadlessConfig string
}

func main() {
	// Load .env before flag parsing so env-derived defaults see it.
	// A missing file is fine.
	_ = godotenv.Load()

	// Parse command line flags
	config := parseFlags()

	// Show version if requested
	if config.ShowVersion {
		fmt.Printf("Loom v%s\n", version)
		return
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Run the application
	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
}

// parseFlags parses command line flags and environment variables
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key (or set OPENAI_API_KEY env var)")
	flag.StringVar(&config.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL (or set OPENAI_BASE_URL env var)")
	flag.StringVar(&config.Model, "model", defaultModel, "LLM model to use")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to Loom configuration file (default: ~/.loom/config.json)")
	flag.StringVar(&config.ArtifactDir, "artifacts", defaultArtifactDir, "Directory for PDF captures and other run artifacts")
	flag.BoolVar(&config.Plain, "plain", false, "Run with plain terminal output instead of the TUI")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")
	flag.BoolVar(&config.Headless, "headless", false, "Run in headless mode (non-interactive)")
	flag.StringVar(&config.HeadlessConfig, "headless-config", "", "Path to headless mode configuration file (YAML)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Loom - A browser automation agent\n\n")
		fmt.Fprintf(os.Stderr, "Usage: loom [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL    OpenAI API base URL (for compatible APIs)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # TUI Mode (default)\n")
		fmt.Fprintf(os.Stderr, "  loom                                     # Start the run monitor\n")
		fmt.Fprintf(os.Stderr, "  loom -model gpt-4-turbo\n")
		fmt.Fprintf(os.Stderr, "  loom -base-url https://api.openrouter.ai/api/v1\n")
		fmt.Fprintf(os.Stderr, "\n  # Plain Mode (dumb terminals, piped sessions)\n")
		fmt.Fprintf(os.Stderr, "  loom -plain\n")
		fmt.Fprintf(os.Stderr, "\n  # Headless Mode (CI/cron)\n")
		fmt.Fprintf(os.Stderr, "  loom -headless -headless-config scan.yaml\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	// Headless mode requires config file
	if c.Headless && c.HeadlessConfig == "" {
		return fmt.Errorf("headless mode requires a configuration file (use -headless-config flag)")
	}

	// The API key is resolved later with config-file fallback, so it is
	// not required at the flag level.
	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	// Check if headless mode is requested
	if config.Headless {
		return runHeadless(ctx, config)
	}

	// Plain terminal mode
	if config.Plain {
		return runPlain(ctx, config)
	}

	// Run TUI mode (default)
	return runTUI(ctx, config)
}

// runTUI executes the TUI mode
func runTUI(ctx context.Context, config *Config) error {
	// Initialize global configuration (LLM, engine, browser, allowlist)
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ag, manager, err := buildAgent(config)
	if err != nil {
		return err
	}
	defer shutdownAgent(ag)
	defer func() {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			log.Printf("Warning: browser shutdown error: %v", shutdownErr)
		}
	}()

	// Create TUI executor with the banner header
	executor := tui.NewExecutor(ag, banner)

	// Display welcome message
	fmt.Printf("Loom v%s - Browser Automation Agent\n", version)
	fmt.Printf("Model: %s\n", config.Model)
	fmt.Println("\nStarting TUI...")
	fmt.Println()

	// Run the executor
	if err := executor.Run(ctx); err != nil {
		return fmt.Errorf("executor error: %w", err)
	}

	return nil
}

// runPlain executes the plain terminal mode
func runPlain(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ag, manager, err := buildAgent(config)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			log.Printf("Warning: browser shutdown error: %v", shutdownErr)
		}
	}()

	executor := cli.NewExecutor(ag)

	// The CLI executor shuts the agent down itself on exit
	if err := executor.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("executor error: %w", err)
	}

	return nil
}

// buildAgent wires the provider, browser toolset, run history and engine
// settings into an agent ready for interactive executors. Global
// configuration must be initialized first.
func buildAgent(config *Config) (*agent.DefaultAgent, *browser.Manager, error) {
	provider, err := appconfig.BuildProvider(config.Model, config.BaseURL, config.APIKey, defaultModel)
	if err != nil {
		return nil, nil, err
	}

	// Navigation guard from the url_allowlist config section
	guard, err := urlguard.FromConfig(appconfig.GetURLAllowlist())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build URL guard: %w", err)
	}

	// Launch the shared browser
	manager := browser.NewManager(appconfig.GetBrowser())
	if err := manager.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

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
		ArtifactDir: config.ArtifactDir,
	}
	if err := toolset.Register(registry); err != nil {
		if shutdownErr := manager.Shutdown(); shutdownErr != nil {
			log.Printf("Warning: browser shutdown error: %v", shutdownErr)
		}
		return nil, nil, fmt.Errorf("failed to register browser tools: %w", err)
	}

	// Run history lives next to the global config under ~/.loom
	library := templates.NewLibrary(file.New(historyPath()))

	engineCfg := appconfig.GetEngine()
	maxAttempts, backoff := engineCfg.GetRetryPolicy()

	ag := agent.NewDefaultAgent(
		provider,
		agent.WithRegistry(registry),
		agent.WithPlannerModel(plannerModel()),
		agent.WithConcurrency(engineCfg.GetConcurrency()),
		agent.WithFailFast(engineCfg.GetFailFast()),
		agent.WithToolTimeout(engineCfg.GetToolTimeout()),
		agent.WithPlanOptions(engine.PlanOptions{
			Retry: &engine.RetryPolicySpec{
				MaxAttempts: maxAttempts,
				BackoffMs:   backoff.Milliseconds(),
			},
		}),
		agent.WithExecContext(engine.ExecContext{
			Values: map[string]string{"artifact_dir": config.ArtifactDir},
		}),
		agent.WithHistory(library),
	)

	return ag, manager, nil
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

// shutdownAgent stops the agent, logging rather than failing on error.
func shutdownAgent(ag *agent.DefaultAgent) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ag.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: agent shutdown error: %v", err)
	}
}
