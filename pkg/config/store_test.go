package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, path string, sections map[string]map[string]interface{}) {
	t.Helper()
	raw, err := json.MarshalIndent(fileConfig{Version: storeVersion, Sections: sections}, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with custom path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		if store.Path() != configPath {
			t.Errorf("Expected path %s, got %s", configPath, store.Path())
		}
		if store.IsModified() {
			t.Error("New store should not be modified")
		}
	})

	t.Run("defaults to ~/.loom/config.json", func(t *testing.T) {
		store, err := NewFileStore("")
		if err != nil {
			t.Fatalf("NewFileStore with empty path failed: %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		expectedPath := filepath.Join(homeDir, ".loom", "config.json")
		if store.Path() != expectedPath {
			t.Errorf("Expected default path %s, got %s", expectedPath, store.Path())
		}
	})

	t.Run("loads existing config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		writeConfigFile(t, configPath, map[string]map[string]interface{}{
			"llm": {"model": "gpt-4o"},
		})

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		section, err := store.GetSection("llm")
		if err != nil {
			t.Fatalf("GetSection failed: %v", err)
		}
		if section["model"] != "gpt-4o" {
			t.Errorf("Expected model=gpt-4o, got %v", section["model"])
		}
	})

	t.Run("rejects malformed config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(configPath, []byte("{not json"), 0600); err != nil {
			t.Fatalf("Failed to write malformed config: %v", err)
		}

		if _, err := NewFileStore(configPath); err == nil {
			t.Error("Expected error for malformed config file")
		}
	})
}

func TestFileStore_Load(t *testing.T) {
	t.Run("missing file yields empty config", func(t *testing.T) {
		store := &FileStore{path: filepath.Join(t.TempDir(), "absent.json")}

		if err := store.Load(); err != nil {
			t.Fatalf("Load of missing file should not error, got: %v", err)
		}

		all, _ := store.GetAll()
		if len(all) != 0 {
			t.Error("Missing file should load as empty config")
		}
	})

	t.Run("loads all sections", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		writeConfigFile(t, configPath, map[string]map[string]interface{}{
			"engine":  {"concurrency": 4.0},
			"browser": {"headless": true},
		})

		store := &FileStore{path: configPath}
		if err := store.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		engine, _ := store.GetSection("engine")
		if engine["concurrency"] != 4.0 {
			t.Errorf("engine section not loaded, got %v", engine)
		}
		browser, _ := store.GetSection("browser")
		if browser["headless"] != true {
			t.Errorf("browser section not loaded, got %v", browser)
		}
	})
}

func TestFileStore_Save(t *testing.T) {
	t.Run("round-trips through disk", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}

		store.SetSection("llm", map[string]interface{}{"model": "gpt-4o-mini"})
		if !store.IsModified() {
			t.Error("SetSection should mark the store modified")
		}

		if err := store.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if store.IsModified() {
			t.Error("Save should clear the modified flag")
		}

		// A fresh store must see the persisted section.
		reloaded, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		section, _ := reloaded.GetSection("llm")
		if section["model"] != "gpt-4o-mini" {
			t.Errorf("Persisted section lost, got %v", section)
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "dir", "config.json")

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		if err := store.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Errorf("Config file not created: %v", err)
		}
	})

	t.Run("leaves no temp file behind", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.json")

		store, _ := NewFileStore(configPath)
		store.SetSection("llm", map[string]interface{}{"model": "gpt-4o"})
		if err := store.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
			t.Error("Temp file should be renamed away after save")
		}
	})
}

func TestFileStore_Sections(t *testing.T) {
	t.Run("unknown section yields empty map", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "config.json"))

		section, err := store.GetSection("missing")
		if err != nil {
			t.Fatalf("GetSection failed: %v", err)
		}
		if len(section) != 0 {
			t.Error("Unknown section should be empty, not nil or populated")
		}
	})

	t.Run("returned maps are copies", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
		store.SetSection("llm", map[string]interface{}{"model": "gpt-4o"})

		section, _ := store.GetSection("llm")
		section["model"] = "mutated"

		again, _ := store.GetSection("llm")
		if again["model"] != "gpt-4o" {
			t.Error("Mutating a returned section must not affect the store")
		}
	})

	t.Run("SetAll replaces everything", func(t *testing.T) {
		store, _ := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
		store.SetSection("old", map[string]interface{}{"gone": true})

		store.SetAll(map[string]map[string]interface{}{
			"new": {"kept": true},
		})

		all, _ := store.GetAll()
		if _, ok := all["old"]; ok {
			t.Error("SetAll should drop prior sections")
		}
		if all["new"]["kept"] != true {
			t.Error("SetAll should install the new sections")
		}
	})
}
