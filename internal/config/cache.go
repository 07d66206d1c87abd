package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
)

// FileCache keeps each provider's last known state in its own JSON file
// under Dir, or SnapshotsDir() when Dir is empty.
type FileCache struct {
	Dir string
}

func (c FileCache) dir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return SnapshotsDir()
}

// SnapshotPath returns the cache file for providerID.
func (c FileCache) SnapshotPath(providerID string) (string, error) {
	if providerID == "" || providerID != filepath.Base(providerID) || providerID == ".." {
		return "", fmt.Errorf("invalid provider id %q", providerID)
	}
	return filepath.Join(c.dir(), providerID+".json"), nil
}

func (c FileCache) Save(state fetch.CachedState) error {
	path, err := c.SnapshotPath(state.ProviderID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("caching state for %s: %w", state.ProviderID, err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("caching state for %s: %w", state.ProviderID, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("caching state for %s: %w", state.ProviderID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("caching state for %s: %w", state.ProviderID, err)
	}
	return nil
}

// Load returns the cached state, or false when there is none or it does
// not parse.
func (c FileCache) Load(providerID string) (fetch.CachedState, bool) {
	path, err := c.SnapshotPath(providerID)
	if err != nil {
		return fetch.CachedState{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fetch.CachedState{}, false
	}
	var state fetch.CachedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fetch.CachedState{}, false
	}
	return state, true
}

func (c FileCache) Delete(providerID string) error {
	path, err := c.SnapshotPath(providerID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing cached state for %s: %w", providerID, err)
	}
	return nil
}
