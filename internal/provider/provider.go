// Package provider turns configured providers into fetch jobs: their
// accounts, their ordered strategy lists and the cooldown coordinator that
// recovers expired CLI credentials.
package provider

import (
	"context"
	"slices"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/cooldown"
	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// Provider is one configured usage source.
type Provider struct {
	ID              string
	SourceMode      fetch.SourceMode
	SelectedAccount string
	Accounts        []fetch.Account
	// Strategies are in priority order.
	Strategies []fetch.Strategy
	// Cooldown is nil when no refresh CLI is configured.
	Cooldown *cooldown.Coordinator
}

// Resolve returns the strategies allowed under the context's source mode,
// or the provider's configured mode when the context leaves it unset.
func (p *Provider) Resolve(fc fetch.Context) []fetch.Strategy {
	mode := fc.SourceMode
	if mode == "" {
		mode = p.SourceMode
	}
	var out []fetch.Strategy
	for _, s := range p.Strategies {
		if mode.Allows(s.Kind()) {
			out = append(out, s)
		}
	}
	return out
}

// Job builds the orchestrator job for p on top of base.
func (p *Provider) Job(base fetch.Context) fetch.ProviderJob {
	fc := base
	fc.ProviderID = p.ID
	return fetch.ProviderJob{
		ProviderID: p.ID,
		Context:    fc,
		Accounts:   slices.Clone(p.Accounts),
		SelectedID: p.SelectedAccount,
		Resolve:    p.Resolve,
	}
}

// recoverCredentials is the OAuth 401 hook. It runs the cooldown-gated CLI
// refresh inline so the next fetch can pick up the rotated token.
func (p *Provider) recoverCredentials(wait time.Duration) func(ctx context.Context) {
	return func(ctx context.Context) {
		if p.Cooldown == nil {
			return
		}
		res := p.Cooldown.Attempt(ctx, time.Now(), wait)
		logging.FromContext(ctx).Debug("credential recovery", "provider", p.ID, "status", res.Status, "reason", res.Reason)
	}
}

// Registry holds built providers in ID order.
type Registry struct {
	providers map[string]*Provider
	ids       []string
}

func (r *Registry) Get(id string) (*Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns provider IDs in sorted order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// All returns the providers in ID order.
func (r *Registry) All() []*Provider {
	out := make([]*Provider, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.providers[id])
	}
	return out
}

// Jobs returns a job for each of ids, skipping unknown ones. An empty ids
// means every provider.
func (r *Registry) Jobs(base fetch.Context, ids []string) []fetch.ProviderJob {
	if len(ids) == 0 {
		ids = r.ids
	}
	var jobs []fetch.ProviderJob
	for _, id := range ids {
		if p, ok := r.providers[id]; ok {
			jobs = append(jobs, p.Job(base))
		}
	}
	return jobs
}

// Coordinators returns the cooldown coordinators of every provider that
// has one, keyed by action name.
func (r *Registry) Coordinators() map[string]*cooldown.Coordinator {
	out := make(map[string]*cooldown.Coordinator)
	for _, p := range r.All() {
		if p.Cooldown != nil {
			out[p.Cooldown.Action] = p.Cooldown
		}
	}
	return out
}
