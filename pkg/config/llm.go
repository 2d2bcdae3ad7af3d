package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"

	// defaultMaxContextTokens bounds the prompt size sent to the provider
	defaultMaxContextTokens = 100000
)

// LLMSection manages LLM provider configuration settings.
type LLMSection struct {
	Model            string
	BaseURL          string
	APIKey           string
	PlannerModel     string // optional; if empty, goal planning uses Model
	ExtractionModel  string // optional; if empty, page extraction and analysis use Model
	MaxContextTokens int
	mu               sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{
		MaxContextTokens: defaultMaxContextTokens,
	}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Configure LLM provider settings. planner_model and extraction_model are optional — if set, those operations use the specified model instead of the main model."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"model":              s.Model,
		"base_url":           s.BaseURL,
		"api_key":            s.APIKey,
		"planner_model":      s.PlannerModel,
		"extraction_model":   s.ExtractionModel,
		"max_context_tokens": s.MaxContextTokens,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["model"].(string); ok {
		s.Model = model
	}

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	if apiKey, ok := data["api_key"].(string); ok {
		s.APIKey = apiKey
	}

	if plannerModel, ok := data["planner_model"].(string); ok {
		s.PlannerModel = plannerModel
	}

	if extractionModel, ok := data["extraction_model"].(string); ok {
		s.ExtractionModel = extractionModel
	}

	if raw, exists := data["max_context_tokens"]; exists {
		switch v := raw.(type) {
		case float64:
			// JSON numbers come as float64
			s.MaxContextTokens = int(v)
		case int:
			s.MaxContextTokens = v
		default:
			return fmt.Errorf("invalid value type for max_context_tokens: expected number, got %T", raw)
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxContextTokens < 1000 {
		return fmt.Errorf("max_context_tokens must be at least 1000, got %d", s.MaxContextTokens)
	}

	// Provider settings are otherwise optional - validation happens at
	// runtime when the LLM is used
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.APIKey = ""
	s.PlannerModel = ""
	s.ExtractionModel = ""
	s.MaxContextTokens = defaultMaxContextTokens
}

// GetModel returns the configured model name.
func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// SetModel sets the model name.
func (s *LLMSection) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = model
}

// GetBaseURL returns the configured base URL.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the base URL.
func (s *LLMSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetAPIKey returns the configured API key.
func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// SetAPIKey sets the API key.
func (s *LLMSection) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = apiKey
}

// GetPlannerModel returns the configured planner model name.
// An empty string means use the main model for planning.
func (s *LLMSection) GetPlannerModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PlannerModel
}

// SetPlannerModel sets the planner model name.
// Pass an empty string to revert to using the main model.
func (s *LLMSection) SetPlannerModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlannerModel = model
}

// GetExtractionModel returns the configured extraction model name.
// An empty string means use the main model for page extraction.
func (s *LLMSection) GetExtractionModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ExtractionModel
}

// SetExtractionModel sets the extraction model name.
// Pass an empty string to revert to using the main model.
func (s *LLMSection) SetExtractionModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExtractionModel = model
}

// GetMaxContextTokens returns the configured context token ceiling.
func (s *LLMSection) GetMaxContextTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxContextTokens
}

// SetMaxContextTokens sets the context token ceiling.
func (s *LLMSection) SetMaxContextTokens(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxContextTokens = limit
}
