package config

import (
	"path/filepath"
	"testing"
	"time"
)

func resetGlobal() {
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
}

func TestInitialize(t *testing.T) {
	t.Run("registers the default sections", func(t *testing.T) {
		resetGlobal()
		configPath := filepath.Join(t.TempDir(), "config.json")

		if err := Initialize(configPath); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if !IsInitialized() {
			t.Fatal("Global manager should be initialized")
		}

		manager := Global()
		for _, id := range []string{SectionIDLLM, SectionIDEngine, SectionIDBrowser, SectionIDURLAllowlist} {
			if _, ok := manager.GetSection(id); !ok {
				t.Errorf("Section %q not registered", id)
			}
		}
	})

	t.Run("round-trips configuration through disk", func(t *testing.T) {
		resetGlobal()
		configPath := filepath.Join(t.TempDir(), "config.json")

		if err := Initialize(configPath); err != nil {
			t.Fatalf("First initialize failed: %v", err)
		}

		GetLLM().SetModel("gpt-4o")
		GetEngine().SetConcurrency(4)
		GetEngine().SetToolTimeout(45 * time.Second)
		if err := Global().SaveAll(); err != nil {
			t.Fatalf("SaveAll failed: %v", err)
		}

		resetGlobal()
		if err := Initialize(configPath); err != nil {
			t.Fatalf("Re-initialize failed: %v", err)
		}

		if got := GetLLM().GetModel(); got != "gpt-4o" {
			t.Errorf("Model not reloaded, got %q", got)
		}
		if got := GetEngine().GetConcurrency(); got != 4 {
			t.Errorf("Concurrency not reloaded, got %d", got)
		}
		if got := GetEngine().GetToolTimeout(); got != 45*time.Second {
			t.Errorf("Tool timeout not reloaded, got %v", got)
		}
	})
}

func TestGlobal(t *testing.T) {
	t.Run("returns initialized manager", func(t *testing.T) {
		resetGlobal()
		if err := Initialize(filepath.Join(t.TempDir(), "config.json")); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if Global() == nil {
			t.Fatal("Global() returned nil")
		}
	})

	t.Run("panics if not initialized", func(t *testing.T) {
		resetGlobal()

		defer func() {
			if recover() == nil {
				t.Error("Global() should panic when uninitialized")
			}
		}()
		Global()
	})
}

func TestTypedGetters(t *testing.T) {
	t.Run("return nil when uninitialized", func(t *testing.T) {
		resetGlobal()

		if GetLLM() != nil {
			t.Error("GetLLM should be nil before Initialize")
		}
		if GetEngine() != nil {
			t.Error("GetEngine should be nil before Initialize")
		}
		if GetBrowser() != nil {
			t.Error("GetBrowser should be nil before Initialize")
		}
		if GetURLAllowlist() != nil {
			t.Error("GetURLAllowlist should be nil before Initialize")
		}
	})

	t.Run("return live sections after initialize", func(t *testing.T) {
		resetGlobal()
		if err := Initialize(filepath.Join(t.TempDir(), "config.json")); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}

		if GetLLM() == nil || GetEngine() == nil || GetBrowser() == nil || GetURLAllowlist() == nil {
			t.Fatal("Typed getters should return sections after Initialize")
		}

		// Defaults must be in effect on a fresh config.
		if got := GetEngine().GetConcurrency(); got != defaultEngineConcurrency {
			t.Errorf("Default concurrency = %d, want %d", got, defaultEngineConcurrency)
		}
		if !GetBrowser().GetHeadless() {
			t.Error("Browser should default to headless")
		}
		if len(GetURLAllowlist().DenyPatterns()) == 0 {
			t.Error("URL allowlist should ship default deny patterns")
		}
	})
}
