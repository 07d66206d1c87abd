package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/cooldown"
	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/strategy"
)

// recoveryWait is how long a 401 hook watches for a rotated credential.
const recoveryWait = 5 * time.Second

// Deps are the shared handles providers are built with.
type Deps struct {
	// Settings persists cooldown state; nil keeps it in memory only.
	Settings cooldown.Store
}

// Build constructs every configured provider. Strategies that fail
// validation are skipped and reported in the joined error; the rest of the
// registry is still usable.
func Build(cfg config.Config, deps Deps) (*Registry, error) {
	r := &Registry{providers: make(map[string]*Provider)}
	var errs []error
	for _, id := range cfg.ProviderIDs() {
		p, err := buildProvider(id, cfg.Providers[id], cfg.Cooldown, deps)
		if err != nil {
			errs = append(errs, err)
		}
		r.providers[id] = p
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, errors.Join(errs...)
}

func buildProvider(id string, pc config.ProviderConfig, globalCooldown config.CooldownConfig, deps Deps) (*Provider, error) {
	p := &Provider{
		ID:              id,
		SourceMode:      fetch.SourceMode(strings.ToLower(pc.SourceMode)),
		SelectedAccount: pc.SelectedAccount,
	}

	accountTokens := make(map[string]string)
	for _, a := range pc.Accounts {
		p.Accounts = append(p.Accounts, fetch.Account{ID: a.ID, Label: a.Label, Env: a.Env})
		if a.TokenFile != "" {
			accountTokens[a.ID] = a.TokenFile
		}
	}

	if cc := pc.Cooldown.Merge(globalCooldown); cc.Binary != "" && cc.CredentialFile != "" {
		p.Cooldown = &cooldown.Coordinator{
			Action: id + ".cli_refresh",
			Trigger: &cooldown.CLITrigger{
				Binary:  cc.Binary,
				Args:    cc.Args,
				Timeout: time.Duration(cc.TimeoutSeconds) * time.Second,
			},
			Fingerprint:   cooldown.FileFingerprint(cc.CredentialFile),
			Store:         deps.Settings,
			LongCooldown:  time.Duration(cc.LongSeconds) * time.Second,
			ShortCooldown: time.Duration(cc.ShortSeconds) * time.Second,
		}
	}

	var errs []error
	seen := make(map[string]bool, len(pc.Strategies))
	for i, sc := range pc.Strategies {
		name := strategyName(id, sc, i, seen)
		if seen[name] {
			errs = append(errs, fmt.Errorf("provider %s strategy %d: duplicate id %q", id, i, name))
			continue
		}
		s, err := newStrategy(p, name, sc, accountTokens)
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %s strategy %d: %w", id, i, err))
			continue
		}
		seen[name] = true
		p.Strategies = append(p.Strategies, s)
	}
	return p, errors.Join(errs...)
}

// strategyName returns the configured id, or "<provider>-<kind>" with the
// strategy's index appended when that name is already taken.
func strategyName(providerID string, sc config.StrategyConfig, index int, seen map[string]bool) string {
	if sc.ID != "" {
		return sc.ID
	}
	name := providerID + "-" + strings.ToLower(sc.Kind)
	if seen[name] {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	return name
}

func newStrategy(p *Provider, name string, sc config.StrategyConfig, accountTokens map[string]string) (fetch.Strategy, error) {
	format, err := strategy.ParseFormat(sc.Format)
	if err != nil {
		return nil, err
	}

	switch fetch.Kind(strings.ToLower(sc.Kind)) {
	case fetch.KindCLI:
		if sc.Binary == "" {
			return nil, errors.New("cli strategy requires binary")
		}
		return &strategy.CLI{Name: name, Binary: sc.Binary, Args: sc.Args, Format: format}, nil
	case fetch.KindProbe:
		return &strategy.Probe{Name: name, Format: format}, nil
	case fetch.KindWeb:
		if sc.URL == "" || sc.CookieFile == "" {
			return nil, errors.New("web strategy requires url and cookie_file")
		}
		return &strategy.Web{Name: name, URL: sc.URL, Cookies: strategy.FileCookies(sc.CookieFile)}, nil
	case fetch.KindOAuth:
		if sc.URL == "" || (sc.TokenFile == "" && sc.KeychainService == "" && len(accountTokens) == 0) {
			return nil, errors.New("oauth strategy requires url and token_file or keychain_service")
		}
		return &strategy.OAuth{
			Name:           name,
			URL:            sc.URL,
			Token:          accountToken(sc, accountTokens),
			OnUnauthorized: p.recoverCredentials(recoveryWait),
		}, nil
	case fetch.KindAPI:
		if sc.URL == "" || sc.EnvVar == "" {
			return nil, errors.New("api strategy requires url and env_var")
		}
		return &strategy.APIToken{Name: name, URL: sc.URL, EnvVar: sc.EnvVar}, nil
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", sc.Kind)
	}
}

// accountToken prefers the account's own token file over the strategy's,
// and falls back to the keychain when neither file yields a token.
func accountToken(sc config.StrategyConfig, accountTokens map[string]string) strategy.TokenSource {
	var fromKeychain strategy.TokenSource
	if sc.KeychainService != "" {
		fromKeychain = strategy.KeychainToken(sc.KeychainService, sc.KeychainAccount)
	}
	return func(ctx context.Context, fc fetch.Context) (string, error) {
		path := sc.TokenFile
		if p, ok := accountTokens[fc.AccountID]; ok {
			path = p
		}
		if path != "" {
			token, err := strategy.FileToken(path)(ctx, fc)
			if err != nil || token != "" || fromKeychain == nil {
				return token, err
			}
		}
		if fromKeychain == nil {
			return "", nil
		}
		return fromKeychain(ctx, fc)
	}
}
