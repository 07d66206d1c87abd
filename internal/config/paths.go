package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "usagebar"

func ConfigDir() string {
	if v := os.Getenv("USAGEBAR_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// StateDir holds durable runtime state such as cooldown timestamps.
func StateDir() string {
	if v := os.Getenv("USAGEBAR_STATE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.StateHome, appName)
}

// CacheDir holds data that can be rebuilt, such as last known snapshots.
func CacheDir() string {
	if v := os.Getenv("USAGEBAR_CACHE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.CacheHome, appName)
}

func SnapshotsDir() string { return filepath.Join(CacheDir(), "snapshots") }

func ConfigFile() string   { return filepath.Join(ConfigDir(), "config.toml") }
func SettingsFile() string { return filepath.Join(StateDir(), "settings.json") }
