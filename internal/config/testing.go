package config

import "testing"

// Override installs cfg as the global config for the duration of the test
// and points the state dir at a temp dir so settings writes stay isolated.
// The previous config is restored on cleanup.
func Override(t testing.TB, cfg Config) {
	t.Helper()
	t.Setenv("USAGEBAR_STATE_DIR", t.TempDir())
	t.Setenv("USAGEBAR_CACHE_DIR", t.TempDir())

	configMu.Lock()
	prev := globalConfig
	c := cfg.clone()
	globalConfig = &c
	configMu.Unlock()

	t.Cleanup(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig = prev
	})
}
