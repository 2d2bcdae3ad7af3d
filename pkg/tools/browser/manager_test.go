package browser

import (
	"strings"
	"testing"

	"github.com/weavehq/loom/pkg/config"
	"github.com/weavehq/loom/pkg/engine"
)

func TestNewManager_NilSettings(t *testing.T) {
	manager := NewManager(nil)
	if manager.settings == nil {
		t.Fatal("nil settings not replaced with defaults")
	}
	if manager.HasTabs() {
		t.Error("new manager reports open tabs")
	}
	if infos := manager.TabInfos(); len(infos) != 0 {
		t.Errorf("TabInfos() = %v, want empty", infos)
	}
}

func TestManager_AcquireRequiresInitialize(t *testing.T) {
	manager := NewManager(config.NewBrowserSection())

	_, err := manager.Acquire("run-1")
	if err == nil {
		t.Fatal("Acquire() succeeded without Initialize")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManager_AcquireForDefaultsTabID(t *testing.T) {
	manager := NewManager(nil)

	// The default tab id is used when the execution context names none;
	// the uninitialized manager still reports the initialization error.
	_, err := manager.AcquireFor(engine.ExecContext{})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestManager_TabNotFound(t *testing.T) {
	manager := NewManager(nil)

	if _, err := manager.Tab("missing"); err == nil {
		t.Error("Tab() found a tab that does not exist")
	}
	if err := manager.CloseTab("missing"); err == nil {
		t.Error("CloseTab() closed a tab that does not exist")
	}
}

func TestManager_CloseAllEmpty(t *testing.T) {
	manager := NewManager(nil)
	if err := manager.CloseAll(); err != nil {
		t.Errorf("CloseAll() on empty manager = %v", err)
	}
}

func TestManager_ShutdownWithoutInitialize(t *testing.T) {
	manager := NewManager(nil)
	if err := manager.Shutdown(); err != nil {
		t.Errorf("Shutdown() before Initialize = %v", err)
	}
}
