package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMSection(t *testing.T) {
	section := NewLLMSection()
	assert.NotNil(t, section)
	assert.Equal(t, "", section.Model)
	assert.Equal(t, "", section.BaseURL)
	assert.Equal(t, "", section.APIKey)
	assert.Equal(t, "", section.PlannerModel)
	assert.Equal(t, "", section.ExtractionModel)
	assert.Equal(t, defaultMaxContextTokens, section.MaxContextTokens)
}

func TestLLMSection_ID(t *testing.T) {
	section := NewLLMSection()
	assert.Equal(t, SectionIDLLM, section.ID())
	assert.Equal(t, "llm", section.ID())
}

func TestLLMSection_Title(t *testing.T) {
	section := NewLLMSection()
	assert.Equal(t, "LLM Settings", section.Title())
}

func TestLLMSection_Description(t *testing.T) {
	section := NewLLMSection()
	desc := section.Description()
	assert.NotEmpty(t, desc)
	assert.Contains(t, desc, "LLM")
	assert.Contains(t, desc, "model")
}

func TestLLMSection_Data(t *testing.T) {
	section := NewLLMSection()
	section.SetModel("gpt-4o")
	section.SetBaseURL("https://api.openai.com/v1")
	section.SetAPIKey("sk-test123")
	section.SetPlannerModel("gpt-4o-mini")

	data := section.Data()
	assert.Equal(t, "gpt-4o", data["model"])
	assert.Equal(t, "https://api.openai.com/v1", data["base_url"])
	assert.Equal(t, "sk-test123", data["api_key"])
	assert.Equal(t, "gpt-4o-mini", data["planner_model"])
	assert.Equal(t, defaultMaxContextTokens, data["max_context_tokens"])
}

func TestLLMSection_SetData(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expectError bool
		check       func(t *testing.T, s *LLMSection)
	}{
		{
			name: "applies all known keys",
			data: map[string]any{
				"model":              "gpt-4o",
				"base_url":           "https://llm.example.com/v1",
				"api_key":            "sk-test",
				"planner_model":      "gpt-4o-mini",
				"extraction_model":   "gpt-4o-mini",
				"max_context_tokens": 64000.0, // JSON numbers decode as float64
			},
			check: func(t *testing.T, s *LLMSection) {
				assert.Equal(t, "gpt-4o", s.GetModel())
				assert.Equal(t, "https://llm.example.com/v1", s.GetBaseURL())
				assert.Equal(t, "sk-test", s.GetAPIKey())
				assert.Equal(t, "gpt-4o-mini", s.GetPlannerModel())
				assert.Equal(t, "gpt-4o-mini", s.GetExtractionModel())
				assert.Equal(t, 64000, s.GetMaxContextTokens())
			},
		},
		{
			name: "partial data keeps remaining fields",
			data: map[string]any{"base_url": "https://other.example.com"},
			check: func(t *testing.T, s *LLMSection) {
				assert.Equal(t, "https://other.example.com", s.GetBaseURL())
				assert.Equal(t, defaultMaxContextTokens, s.GetMaxContextTokens())
			},
		},
		{
			name:        "rejects non-numeric token limit",
			data:        map[string]any{"max_context_tokens": "lots"},
			expectError: true,
		},
		{
			name: "nil data is a no-op",
			data: nil,
			check: func(t *testing.T, s *LLMSection) {
				assert.Equal(t, "", s.GetModel())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewLLMSection()
			err := section.SetData(tt.data)

			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, section)
			}
		})
	}
}

func TestLLMSection_DataRoundTrip(t *testing.T) {
	section := NewLLMSection()
	section.SetModel("gpt-4o")
	section.SetPlannerModel("gpt-4o-mini")
	section.SetMaxContextTokens(32000)

	restored := NewLLMSection()
	require.NoError(t, restored.SetData(section.Data()))

	assert.Equal(t, "gpt-4o", restored.GetModel())
	assert.Equal(t, "gpt-4o-mini", restored.GetPlannerModel())
	assert.Equal(t, 32000, restored.GetMaxContextTokens())
}

func TestLLMSection_Validate(t *testing.T) {
	section := NewLLMSection()
	assert.NoError(t, section.Validate())

	section.SetMaxContextTokens(100)
	assert.Error(t, section.Validate(), "tiny context limits are rejected")
}

func TestLLMSection_Reset(t *testing.T) {
	section := NewLLMSection()
	section.SetModel("gpt-4o")
	section.SetAPIKey("sk-test")
	section.SetExtractionModel("gpt-4o-mini")
	section.SetMaxContextTokens(1)

	section.Reset()

	assert.Equal(t, "", section.GetModel())
	assert.Equal(t, "", section.GetAPIKey())
	assert.Equal(t, "", section.GetExtractionModel())
	assert.Equal(t, defaultMaxContextTokens, section.GetMaxContextTokens())
}
