package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBrowserSection(t *testing.T) {
	section := NewBrowserSection()
	assert.Equal(t, SectionIDBrowser, section.ID())
	assert.True(t, section.GetHeadless())
	assert.Equal(t, defaultNavigationTimeout, section.GetNavigationTimeout())
	assert.Equal(t, "", section.GetUserAgent())

	width, height := section.GetViewport()
	assert.Equal(t, defaultViewportWidth, width)
	assert.Equal(t, defaultViewportHeight, height)
	assert.Equal(t, defaultMaxTabs, section.GetMaxTabs())
}

func TestBrowserSection_SetData(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expectError bool
		check       func(t *testing.T, s *BrowserSection)
	}{
		{
			name: "applies all known keys",
			data: map[string]any{
				"headless":           false,
				"navigation_timeout": "20s",
				"user_agent":         "loom/1.0",
				"viewport_width":     1920.0,
				"viewport_height":    1080.0,
				"max_tabs":           8.0,
			},
			check: func(t *testing.T, s *BrowserSection) {
				assert.False(t, s.GetHeadless())
				assert.Equal(t, 20*time.Second, s.GetNavigationTimeout())
				assert.Equal(t, "loom/1.0", s.GetUserAgent())
				width, height := s.GetViewport()
				assert.Equal(t, 1920, width)
				assert.Equal(t, 1080, height)
				assert.Equal(t, 8, s.GetMaxTabs())
			},
		},
		{
			name: "unknown keys are ignored",
			data: map[string]any{"gpu": true},
			check: func(t *testing.T, s *BrowserSection) {
				assert.True(t, s.GetHeadless())
			},
		},
		{
			name:        "rejects non-bool headless",
			data:        map[string]any{"headless": "no"},
			expectError: true,
		},
		{
			name:        "rejects non-string user agent",
			data:        map[string]any{"user_agent": 7.0},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewBrowserSection()
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

func TestBrowserSection_Validate(t *testing.T) {
	section := NewBrowserSection()
	assert.NoError(t, section.Validate())

	section.SetNavigationTimeout(100 * time.Millisecond)
	assert.Error(t, section.Validate(), "sub-second navigation timeouts are rejected")
	section.SetNavigationTimeout(30 * time.Second)

	require.NoError(t, section.SetData(map[string]any{"viewport_width": 100.0}))
	assert.Error(t, section.Validate(), "tiny viewports are rejected")
	require.NoError(t, section.SetData(map[string]any{"viewport_width": 1280.0}))

	require.NoError(t, section.SetData(map[string]any{"max_tabs": 0.0}))
	assert.Error(t, section.Validate(), "zero tabs are rejected")
}

func TestBrowserSection_Reset(t *testing.T) {
	section := NewBrowserSection()
	require.NoError(t, section.SetData(map[string]any{
		"headless":   false,
		"user_agent": "loom/1.0",
		"max_tabs":   16.0,
	}))

	section.Reset()

	assert.True(t, section.GetHeadless())
	assert.Equal(t, "", section.GetUserAgent())
	assert.Equal(t, defaultMaxTabs, section.GetMaxTabs())
}

func TestBrowserSection_DataRoundTrip(t *testing.T) {
	section := NewBrowserSection()
	section.SetHeadless(false)
	section.SetNavigationTimeout(time.Minute)

	restored := NewBrowserSection()
	require.NoError(t, restored.SetData(section.Data()))

	assert.False(t, restored.GetHeadless())
	assert.Equal(t, time.Minute, restored.GetNavigationTimeout())
}
