package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineSection(t *testing.T) {
	section := NewEngineSection()
	assert.Equal(t, SectionIDEngine, section.ID())
	assert.Equal(t, defaultEngineConcurrency, section.GetConcurrency())
	assert.Equal(t, defaultToolTimeout, section.GetToolTimeout())
	assert.False(t, section.GetFailFast())

	attempts, backoff := section.GetRetryPolicy()
	assert.Equal(t, defaultMaxAttempts, attempts)
	assert.Equal(t, defaultRetryBackoff, backoff)
}

func TestEngineSection_SetData(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expectError bool
		check       func(t *testing.T, s *EngineSection)
	}{
		{
			name: "numbers and duration strings",
			data: map[string]any{
				"concurrency":   4.0,
				"tool_timeout":  "45s",
				"fail_fast":     true,
				"max_attempts":  3.0,
				"retry_backoff": "1s",
			},
			check: func(t *testing.T, s *EngineSection) {
				assert.Equal(t, 4, s.GetConcurrency())
				assert.Equal(t, 45*time.Second, s.GetToolTimeout())
				assert.True(t, s.GetFailFast())
				attempts, backoff := s.GetRetryPolicy()
				assert.Equal(t, 3, attempts)
				assert.Equal(t, time.Second, backoff)
			},
		},
		{
			name: "bare numeric durations are nanoseconds",
			data: map[string]any{"tool_timeout": float64(30 * time.Second)},
			check: func(t *testing.T, s *EngineSection) {
				assert.Equal(t, 30*time.Second, s.GetToolTimeout())
			},
		},
		{
			name: "unknown keys are ignored",
			data: map[string]any{"workers": 16.0},
			check: func(t *testing.T, s *EngineSection) {
				assert.Equal(t, defaultEngineConcurrency, s.GetConcurrency())
			},
		},
		{
			name:        "rejects string concurrency",
			data:        map[string]any{"concurrency": "many"},
			expectError: true,
		},
		{
			name:        "rejects malformed duration",
			data:        map[string]any{"retry_backoff": "soonish"},
			expectError: true,
		},
		{
			name:        "rejects non-bool fail_fast",
			data:        map[string]any{"fail_fast": "yes"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewEngineSection()
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

func TestEngineSection_Validate(t *testing.T) {
	section := NewEngineSection()
	assert.NoError(t, section.Validate())

	section.SetConcurrency(0)
	assert.Error(t, section.Validate(), "zero concurrency is rejected")
	section.SetConcurrency(2)

	section.SetToolTimeout(50 * time.Millisecond)
	assert.Error(t, section.Validate(), "sub-second timeouts are rejected")
	section.SetToolTimeout(30 * time.Second)

	section.SetRetryPolicy(0, time.Second)
	assert.Error(t, section.Validate(), "zero attempts are rejected")

	section.SetRetryPolicy(2, time.Minute)
	assert.Error(t, section.Validate(), "excessive backoff is rejected")
}

func TestEngineSection_Reset(t *testing.T) {
	section := NewEngineSection()
	section.SetConcurrency(8)
	section.SetFailFast(true)
	section.SetRetryPolicy(5, 2*time.Second)

	section.Reset()

	assert.Equal(t, defaultEngineConcurrency, section.GetConcurrency())
	assert.False(t, section.GetFailFast())
	attempts, backoff := section.GetRetryPolicy()
	assert.Equal(t, defaultMaxAttempts, attempts)
	assert.Equal(t, defaultRetryBackoff, backoff)
}

func TestEngineSection_DataRoundTrip(t *testing.T) {
	section := NewEngineSection()
	section.SetConcurrency(6)
	section.SetToolTimeout(90 * time.Second)
	section.SetFailFast(true)

	restored := NewEngineSection()
	require.NoError(t, restored.SetData(section.Data()))

	assert.Equal(t, 6, restored.GetConcurrency())
	assert.Equal(t, 90*time.Second, restored.GetToolTimeout())
	assert.True(t, restored.GetFailFast())
}
