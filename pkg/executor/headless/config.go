package headless

import (
	"fmt"
	"time"

	"github.com/weavehq/loom/pkg/engine"
)

// Config represents the configuration for a headless run
type Config struct {
	// Goal is a natural-language goal the agent plans into a graph and
	// runs. Exactly one of Goal, Template and Nodes must be set.
	Goal string `yaml:"goal" json:"goal"`

	// Template names a saved graph template to run instead of planning.
	Template string `yaml:"template" json:"template"`

	// TemplateGoal overrides the template's stored goal text.
	TemplateGoal string `yaml:"template_goal" json:"template_goal"`

	// Nodes inlines a graph definition, bypassing planning entirely.
	Nodes []engine.NodeSpec `yaml:"nodes" json:"nodes"`

	// Browsing mode
	Mode ExecutionMode `yaml:"mode" json:"mode"`

	// Scheduler overrides
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Safety constraints
	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ExecutionMode defines what the browser is allowed to do during the run
type ExecutionMode string

const (
	// ModeObserve allows navigation and reading only
	ModeObserve ExecutionMode = "observe"
	// ModeInteract additionally allows page-mutating tools (clicking,
	// form filling)
	ModeInteract ExecutionMode = "interact"
)

// EngineConfig overrides the scheduler defaults for this run
type EngineConfig struct {
	// Concurrency is the dispatch limit for ready nodes. Zero keeps the
	// agent's default.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// FailFast stops dispatching new nodes after the first failure.
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`

	// ToolTimeout bounds a single tool attempt for nodes that do not
	// declare their own timeout.
	ToolTimeout time.Duration `yaml:"tool_timeout" json:"tool_timeout"`

	// MaxAttempts and Backoff are the retry policy stamped onto
	// planner-generated tool nodes.
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// ConstraintConfig defines safety constraints for a headless run
type ConstraintConfig struct {
	// Navigation limits: host globs a URL must match (allowed) or must
	// not match (denied). Deny wins; an empty allow list allows any host
	// the deny list does not block.
	AllowedHosts []string `yaml:"allowed_hosts" json:"allowed_hosts"`
	DeniedHosts  []string `yaml:"denied_hosts" json:"denied_hosts"`

	// Resource limits
	MaxToolCalls int           `yaml:"max_tool_calls" json:"max_tool_calls"`
	MaxTokens    int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`
	Metrics  bool `yaml:"metrics" json:"metrics"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	sources := 0
	if c.Goal != "" {
		sources++
	}
	if c.Template != "" {
		sources++
	}
	if len(c.Nodes) > 0 {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("a goal, template or nodes list is required")
	}
	if sources > 1 {
		return fmt.Errorf("goal, template and nodes are mutually exclusive")
	}

	if c.TemplateGoal != "" && c.Template == "" {
		return fmt.Errorf("template_goal requires a template")
	}

	// Default to the safe mode when unset
	if c.Mode == "" {
		c.Mode = ModeObserve
	}
	if c.Mode != ModeObserve && c.Mode != ModeInteract {
		return fmt.Errorf("invalid mode: %s (must be 'observe' or 'interact')", c.Mode)
	}

	// Validate engine overrides
	if c.Engine.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}
	if c.Engine.ToolTimeout < 0 {
		return fmt.Errorf("tool_timeout cannot be negative")
	}
	if c.Engine.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts cannot be negative")
	}
	if c.Engine.Backoff < 0 {
		return fmt.Errorf("backoff cannot be negative")
	}

	// Validate constraints
	if c.Constraints.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Constraints.MaxToolCalls < 0 {
		return fmt.Errorf("max_tool_calls cannot be negative")
	}
	if c.Constraints.MaxTokens < 0 {
		return fmt.Errorf("max_tokens cannot be negative")
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	// Validate log level
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeObserve,
		Engine: EngineConfig{
			Concurrency: engine.DefaultConcurrency,
			ToolTimeout: 30 * time.Second,
		},
		Constraints: ConstraintConfig{
			DeniedHosts: []string{
				"localhost",
				"127.*",
				"::1",
				"169.254.*",
				"*.internal",
			},
			MaxToolCalls: 100,
			MaxTokens:    50000,
			Timeout:      10 * time.Minute,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".loom/artifacts",
			JSON:      true,
			Markdown:  true,
			Metrics:   true,
		},
	}
}
