package fetch

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// ProviderJob describes one provider to refresh.
type ProviderJob struct {
	ProviderID string
	Context    Context
	Accounts   []Account
	SelectedID string
	Resolve    Resolver
}

// Orchestrator refreshes many providers under a global concurrency cap,
// starting with the stalest.
type Orchestrator struct {
	Fanout        *Fanout
	Store         *Store
	MaxConcurrent int
	// Cache, when set, seeds the store before a refresh and receives each
	// provider's state after it.
	Cache Cache
}

// RefreshAll refreshes every job. Jobs start in staleness order, so when
// the cap forces queuing the most overdue providers go first. onComplete,
// if set, is called once per provider as it finishes.
func (o *Orchestrator) RefreshAll(ctx context.Context, jobs []ProviderJob, onComplete func(Merged)) map[string]Merged {
	maxConcurrent := o.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	byID := make(map[string]ProviderJob, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if _, dup := byID[j.ProviderID]; dup {
			continue
		}
		byID[j.ProviderID] = j
		ids = append(ids, j.ProviderID)
	}
	o.seed(ids)
	order := SortByStaleness(ids, o.Store.LastFetchTimes(ids))

	results := make(map[string]Merged, len(order))
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(maxConcurrent)
	for _, id := range order {
		job := byID[id]
		p.Go(func() {
			m := o.Fanout.Refresh(ctx, o.Store, job.ProviderID, job.Context, job.Accounts, job.SelectedID, job.Resolve)
			o.save(ctx, job.ProviderID)
			mu.Lock()
			results[job.ProviderID] = m
			mu.Unlock()
			if onComplete != nil {
				onComplete(m)
			}
		})
	}
	p.Wait()
	return results
}

// RefreshEnabled refreshes the jobs isEnabled accepts and disables the
// rest in the store, resetting their failure gates.
func (o *Orchestrator) RefreshEnabled(ctx context.Context, jobs []ProviderJob, isEnabled func(string) bool, onComplete func(Merged)) map[string]Merged {
	var enabled []ProviderJob
	for _, j := range jobs {
		if isEnabled(j.ProviderID) {
			enabled = append(enabled, j)
			continue
		}
		o.Store.Disable(j.ProviderID)
		if o.Cache != nil {
			if err := o.Cache.Delete(j.ProviderID); err != nil {
				logging.FromContext(ctx).Warn("could not clear cached state", "provider", j.ProviderID, "err", err)
			}
		}
	}
	return o.RefreshAll(ctx, enabled, onComplete)
}

func (o *Orchestrator) seed(ids []string) {
	if o.Cache == nil {
		return
	}
	for _, id := range ids {
		if c, ok := o.Cache.Load(id); ok {
			c.ProviderID = id
			o.Store.Seed(c)
		}
	}
}

func (o *Orchestrator) save(ctx context.Context, providerID string) {
	if o.Cache == nil {
		return
	}
	c, ok := o.Store.Export(providerID)
	if !ok {
		return
	}
	if err := o.Cache.Save(c); err != nil {
		logging.FromContext(ctx).Warn("could not cache provider state", "provider", providerID, "err", err)
	}
}
