package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

type FetchConfig struct {
	// Timeout is the per-strategy timeout in seconds. Zero disables it.
	Timeout       float64 `toml:"timeout" json:"timeout"`
	MaxConcurrent int     `toml:"max_concurrent" json:"max_concurrent"`
	MaxAccounts   int     `toml:"max_accounts" json:"max_accounts"`
	// RequestsPerSecond caps outgoing HTTP requests across all providers.
	// Zero means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// TimeoutDuration converts Timeout to a time.Duration.
func (f FetchConfig) TimeoutDuration() time.Duration {
	if f.Timeout <= 0 {
		return 0
	}
	return time.Duration(f.Timeout * float64(time.Second))
}

type CooldownConfig struct {
	LongSeconds  int `toml:"long_seconds,omitempty" json:"long_seconds,omitempty"`
	ShortSeconds int `toml:"short_seconds,omitempty" json:"short_seconds,omitempty"`
	// Binary and Args describe the CLI whose startup refreshes the
	// credential file at CredentialFile as a side effect.
	Binary         string   `toml:"binary,omitempty" json:"binary,omitempty"`
	Args           []string `toml:"args,omitempty" json:"args,omitempty"`
	CredentialFile string   `toml:"credential_file,omitempty" json:"credential_file,omitempty"`
	// TimeoutSeconds bounds the CLI run itself.
	TimeoutSeconds int `toml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// Merge returns c with every zero field taken from base.
func (c CooldownConfig) Merge(base CooldownConfig) CooldownConfig {
	if c.LongSeconds == 0 {
		c.LongSeconds = base.LongSeconds
	}
	if c.ShortSeconds == 0 {
		c.ShortSeconds = base.ShortSeconds
	}
	if c.Binary == "" {
		c.Binary = base.Binary
		if len(c.Args) == 0 {
			c.Args = base.Args
		}
	}
	if c.CredentialFile == "" {
		c.CredentialFile = base.CredentialFile
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = base.TimeoutSeconds
	}
	return c
}

type StrategyConfig struct {
	ID   string `toml:"id" json:"id"`
	Kind string `toml:"kind" json:"kind"`

	// cli
	Binary string   `toml:"binary,omitempty" json:"binary,omitempty"`
	Args   []string `toml:"args,omitempty" json:"args,omitempty"`

	// web, oauth, api
	URL string `toml:"url,omitempty" json:"url,omitempty"`

	// Format is the snapshot encoding, "json" (default) or "yaml".
	Format     string `toml:"format,omitempty" json:"format,omitempty"`
	EnvVar     string `toml:"env_var,omitempty" json:"env_var,omitempty"`
	TokenFile  string `toml:"token_file,omitempty" json:"token_file,omitempty"`
	CookieFile string `toml:"cookie_file,omitempty" json:"cookie_file,omitempty"`
	// KeychainService names a keychain entry holding the token, consulted
	// when no token file yields one.
	KeychainService string `toml:"keychain_service,omitempty" json:"keychain_service,omitempty"`
	KeychainAccount string `toml:"keychain_account,omitempty" json:"keychain_account,omitempty"`
}

type AccountConfig struct {
	ID    string `toml:"id" json:"id"`
	Label string `toml:"label,omitempty" json:"label,omitempty"`
	// TokenFile overrides the strategy token file for this account.
	TokenFile string            `toml:"token_file,omitempty" json:"token_file,omitempty"`
	Env       map[string]string `toml:"env,omitempty" json:"env,omitempty"`
}

type ProviderConfig struct {
	Disabled        bool             `toml:"disabled" json:"disabled"`
	SourceMode      string           `toml:"source_mode,omitempty" json:"source_mode,omitempty"`
	SelectedAccount string           `toml:"selected_account,omitempty" json:"selected_account,omitempty"`
	Accounts        []AccountConfig  `toml:"accounts,omitempty" json:"accounts,omitempty"`
	Strategies      []StrategyConfig `toml:"strategies" json:"strategies"`
	// Cooldown overrides the global [cooldown] section for this provider.
	Cooldown CooldownConfig `toml:"cooldown,omitempty" json:"cooldown,omitempty"`
}

type Config struct {
	EnabledProviders []string                  `toml:"enabled_providers" json:"enabled_providers"`
	Fetch            FetchConfig               `toml:"fetch" json:"fetch"`
	Cooldown         CooldownConfig            `toml:"cooldown" json:"cooldown"`
	Providers        map[string]ProviderConfig `toml:"providers" json:"providers"`
}

func DefaultConfig() Config {
	return Config{
		EnabledProviders: nil,
		Fetch: FetchConfig{
			Timeout:       30.0,
			MaxConcurrent: 5,
			MaxAccounts:   6,
		},
		Cooldown: CooldownConfig{
			LongSeconds:  300,
			ShortSeconds: 20,
		},
		Providers: make(map[string]ProviderConfig),
	}
}

func (c Config) clone() Config {
	out := c
	if c.EnabledProviders != nil {
		out.EnabledProviders = make([]string, len(c.EnabledProviders))
		copy(out.EnabledProviders, c.EnabledProviders)
	}
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for k, v := range c.Providers {
		out.Providers[k] = v
	}
	return out
}

func (c Config) IsProviderEnabled(providerID string) bool {
	if pc, ok := c.Providers[providerID]; ok && pc.Disabled {
		return false
	}
	if len(c.EnabledProviders) == 0 {
		return true
	}
	for _, id := range c.EnabledProviders {
		if id == providerID {
			return true
		}
	}
	return false
}

// ProviderIDs returns configured provider IDs in sorted order.
func (c Config) ProviderIDs() []string {
	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	globalConfig *Config
	configMu     sync.RWMutex
)

func Get() Config {
	configMu.RLock()
	if c := globalConfig; c != nil {
		configMu.RUnlock()
		return c.clone()
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig != nil {
		return globalConfig.clone()
	}
	c, _ := Load("")
	globalConfig = &c
	return c.clone()
}

// Init loads the config from disk into the global slot and returns any
// parse error so callers can warn about a malformed file.
func Init() (Config, error) {
	return Reload()
}

func Reload() (Config, error) {
	configMu.Lock()
	defer configMu.Unlock()
	c, err := Load("")
	globalConfig = &c
	return c.clone(), err
}

func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return applyEnvOverrides(cfg), nil
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return applyEnvOverrides(DefaultConfig()), fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return applyEnvOverrides(cfg), nil
}

// SetSelectedAccount rewrites the config file at path (ConfigFile() when
// empty) with providerID's selected account set to accountID. Environment
// overrides are not written back.
func SetSelectedAccount(path, providerID, accountID string) error {
	if path == "" {
		path = ConfigFile()
	}
	cfg := DefaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	pc, ok := cfg.Providers[providerID]
	if !ok {
		return fmt.Errorf("unknown provider: %s", providerID)
	}
	if accountID != "" && !slices.ContainsFunc(pc.Accounts, func(a AccountConfig) bool { return a.ID == accountID }) {
		return fmt.Errorf("provider %s has no account %q", providerID, accountID)
	}
	pc.SelectedAccount = accountID
	cfg.Providers[providerID] = pc
	return Save(cfg, path)
}

func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg Config) Config {
	if v := os.Getenv("USAGEBAR_ENABLED_PROVIDERS"); v != "" {
		parts := strings.Split(v, ",")
		var providers []string
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				providers = append(providers, p)
			}
		}
		cfg.EnabledProviders = providers
	}
	return cfg
}
