//go:build testing
// +build testing

package config

// ResetGlobalManager clears the global configuration manager so tests
// that call Initialize start from a clean state.
func ResetGlobalManager() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = nil
}
