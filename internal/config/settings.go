package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

// Settings is a small durable key-value store backed by a JSON file. The
// file is read lazily on first access and rewritten on every Set. A file
// that does not parse is treated as empty and replaced by the next write.
type Settings struct {
	path string
	// Logger receives the warning for an unreadable file; nil discards it.
	Logger *log.Logger

	mu     sync.Mutex
	loaded bool
	values map[string]int64
}

// OpenSettings returns a store backed by path, or SettingsFile() when path
// is empty. Nothing is read until the first call.
func OpenSettings(path string) *Settings {
	if path == "" {
		path = SettingsFile()
	}
	return &Settings{path: path}
}

// Path returns the backing file path.
func (s *Settings) Path() string { return s.path }

// Int64 returns the value for key and whether it was present.
func (s *Settings) Int64(key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return 0, false, err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// SetInt64s stores all given values and persists them in one write.
func (s *Settings) SetInt64s(values map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	for k, v := range values {
		s.values[k] = v
	}
	return s.saveLocked()
}

// Delete removes keys and persists the result.
func (s *Settings) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	return s.saveLocked()
}

func (s *Settings) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.values = make(map[string]int64)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("settings file unreadable, starting empty", "path", s.path, "err", err)
		}
		s.values = make(map[string]int64)
	}
	s.loaded = true
	return nil
}

func (s *Settings) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
