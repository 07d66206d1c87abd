package testenv

import "path/filepath"

// Dirs contains isolated directories for usagebar config, state and cache
// in tests.
type Dirs struct {
	Base   string
	Config string
	State  string
	Cache  string
}

// UsagebarDirs returns conventional test directories rooted at base.
func UsagebarDirs(base string) Dirs {
	return Dirs{
		Base:   base,
		Config: filepath.Join(base, "config"),
		State:  filepath.Join(base, "state"),
		Cache:  filepath.Join(base, "cache"),
	}
}

// Apply sets USAGEBAR_* env vars to isolated test directories.
func Apply(setenv func(string, string), base string) Dirs {
	dirs := UsagebarDirs(base)
	setenv("USAGEBAR_CONFIG_DIR", dirs.Config)
	setenv("USAGEBAR_STATE_DIR", dirs.State)
	setenv("USAGEBAR_CACHE_DIR", dirs.Cache)
	return dirs
}
