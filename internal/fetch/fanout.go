package fetch

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// DefaultMaxAccounts caps how many accounts of one provider are refreshed
// together.
const DefaultMaxAccounts = 6

// Account is one stored account of a provider.
type Account struct {
	ID    string
	Label string
	// Env is layered over the base context environment for this account.
	Env map[string]string
}

// Merged is the result of one fan-out: a row per retained account plus the
// effective outcome that drives the provider-wide state.
type Merged struct {
	ProviderID string
	// EffectiveID is the account whose outcome became Effective; "" for
	// providers without stored accounts.
	EffectiveID string
	Effective   Outcome
	Accounts    []AccountSnapshot
}

// Fanout refreshes every retained account of a provider concurrently.
type Fanout struct {
	Pipeline    *Pipeline
	MaxAccounts int
}

func (f *Fanout) maxAccounts() int {
	if f.MaxAccounts <= 0 {
		return DefaultMaxAccounts
	}
	return f.MaxAccounts
}

// Retain truncates accounts to the cap in stored order. The selected
// account is always kept: if truncation would drop it, it replaces the
// last retained entry.
func (f *Fanout) Retain(accounts []Account, selectedID string) []Account {
	limit := f.maxAccounts()
	if len(accounts) <= limit {
		return slices.Clone(accounts)
	}
	out := slices.Clone(accounts[:limit])
	if selectedID == "" || slices.ContainsFunc(out, func(a Account) bool { return a.ID == selectedID }) {
		return out
	}
	for _, a := range accounts[limit:] {
		if a.ID == selectedID {
			out[limit-1] = a
			break
		}
	}
	return out
}

// RefreshAccounts runs one pipeline per retained account in parallel and
// waits for all of them. Every retained account has an entry in the
// returned map; an account whose task never finished gets a synthetic
// failure wrapping ErrAccountCancelled.
func (f *Fanout) RefreshAccounts(ctx context.Context, providerID string, fc Context, accounts []Account, selectedID string, resolve Resolver) ([]Account, map[string]Outcome) {
	retained := f.Retain(accounts, selectedID)
	outcomes := make(map[string]Outcome, len(retained))
	var mu sync.Mutex

	var wg conc.WaitGroup
	for _, acct := range retained {
		wg.Go(func() {
			o := f.Pipeline.Fetch(ctx, providerID, fc.ForAccount(acct.ID, acct.Env), resolve)
			mu.Lock()
			outcomes[acct.ID] = o
			mu.Unlock()
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		logging.FromContext(ctx).Error("account fetch panicked", "provider", providerID, "panic", r.Value)
	}

	for _, acct := range retained {
		if _, ok := outcomes[acct.ID]; !ok {
			outcomes[acct.ID] = Outcome{
				ProviderID: providerID,
				AccountID:  acct.ID,
				Err:        fmt.Errorf("%w: %s", ErrAccountCancelled, acct.ID),
			}
		}
	}
	return retained, outcomes
}

// Merge builds per-account rows in retained order and picks the effective
// outcome: the selected account's, or the first retained account's when
// nothing is selected.
func Merge(providerID string, retained []Account, outcomes map[string]Outcome, selectedID string) Merged {
	m := Merged{ProviderID: providerID}
	for _, acct := range retained {
		o := outcomes[acct.ID]
		row := AccountSnapshot{
			AccountID: acct.ID,
			Label:     acct.Label,
			Attempts:  o.Attempts,
		}
		if o.Success() {
			snap := o.Result.Snapshot.WithAccountLabel(acct.Label)
			row.Snapshot = &snap
			row.Source = o.Source()
		} else {
			row.Error = o.ErrorMessage()
		}
		m.Accounts = append(m.Accounts, row)
	}

	if len(retained) == 0 {
		m.Effective = Outcome{ProviderID: providerID, Err: noStrategyError(providerID, nil)}
		return m
	}

	eff := retained[0]
	for _, acct := range retained {
		if acct.ID == selectedID {
			eff = acct
			break
		}
	}
	m.EffectiveID = eff.ID
	m.Effective = outcomes[eff.ID]
	if m.Effective.Success() {
		r := *m.Effective.Result
		r.Snapshot = r.Snapshot.WithAccountLabel(eff.Label)
		m.Effective.Result = &r
	}
	return m
}

// Refresh fans out across accounts, merges, and applies the effective
// outcome to store through the provider's failure gate. A provider with no
// stored accounts runs a single pipeline with fc as-is.
func (f *Fanout) Refresh(ctx context.Context, store *Store, providerID string, fc Context, accounts []Account, selectedID string, resolve Resolver) Merged {
	var m Merged
	if len(accounts) == 0 {
		m = Merged{ProviderID: providerID, Effective: f.Pipeline.Fetch(ctx, providerID, fc, resolve)}
	} else {
		retained, outcomes := f.RefreshAccounts(ctx, providerID, fc, accounts, selectedID, resolve)
		m = Merge(providerID, retained, outcomes, selectedID)
	}

	if store != nil {
		store.Apply(providerID, m.Effective)
		store.SetAccounts(providerID, m.Accounts)
	}
	return m
}
