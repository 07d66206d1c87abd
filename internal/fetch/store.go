package fetch

import (
	"slices"
	"sync"
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/models"
)

// AccountSnapshot is the per-account row produced by a fan-out.
type AccountSnapshot struct {
	AccountID string                `json:"account_id"`
	Label     string                `json:"label,omitempty"`
	Snapshot  *models.UsageSnapshot `json:"snapshot,omitempty"`
	Source    string                `json:"source,omitempty"`
	Error     string                `json:"error,omitempty"`
	Attempts  []Attempt             `json:"attempts"`
}

// ProviderState is what a driver shows for one provider.
type ProviderState struct {
	ProviderID  string                `json:"provider_id"`
	Snapshot    *models.UsageSnapshot `json:"snapshot,omitempty"`
	Source      string                `json:"source,omitempty"`
	Error       string                `json:"error,omitempty"`
	LastSuccess *time.Time            `json:"last_success,omitempty"`
	Attempts    []Attempt             `json:"attempts"`
	Accounts    []AccountSnapshot     `json:"accounts,omitempty"`
}

// Store holds the provider-wide primary state and one FailureGate per
// provider. All methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	states map[string]*ProviderState
	gates  map[string]*FailureGate
}

func NewStore() *Store {
	return &Store{
		now:    time.Now,
		states: make(map[string]*ProviderState),
		gates:  make(map[string]*FailureGate),
	}
}

// Apply folds an outcome into the provider state. A failure clears the
// previous snapshot only when the provider's gate says to surface it.
// Apply reports whether the state now shows an error.
func (s *Store) Apply(providerID string, o Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateLocked(providerID)
	gate := s.gateLocked(providerID)
	st.Attempts = slices.Clone(o.Attempts)

	if o.Success() {
		snap := o.Result.Snapshot
		now := s.now()
		st.Snapshot = &snap
		st.Source = o.Source()
		st.Error = ""
		st.LastSuccess = &now
		gate.RecordSuccess()
		return false
	}

	if !gate.ShouldSurfaceError(st.Snapshot != nil) {
		return false
	}
	st.Snapshot = nil
	st.Source = ""
	st.Error = o.ErrorMessage()
	return true
}

// Seed restores cached state for a provider the store has not seen yet,
// including its failure streak. It reports whether anything was restored.
func (s *Store) Seed(c CachedState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[c.ProviderID]; ok || c.ProviderID == "" {
		return false
	}
	st := s.stateLocked(c.ProviderID)
	if c.Snapshot != nil {
		snap := *c.Snapshot
		st.Snapshot = &snap
		st.Source = c.Source
	}
	if c.LastSuccess != nil {
		t := *c.LastSuccess
		st.LastSuccess = &t
	}
	s.gateLocked(c.ProviderID).restore(c.FailureStreak)
	return true
}

// Export returns the persistable part of a provider's state.
func (s *Store) Export(providerID string) (CachedState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[providerID]
	if !ok {
		return CachedState{}, false
	}
	c := CachedState{
		ProviderID:    providerID,
		Source:        st.Source,
		FailureStreak: s.gateLocked(providerID).Streak(),
	}
	if st.Snapshot != nil {
		snap := *st.Snapshot
		c.Snapshot = &snap
	}
	if st.LastSuccess != nil {
		t := *st.LastSuccess
		c.LastSuccess = &t
	}
	return c, true
}

// SetAccounts replaces the per-account rows for a provider.
func (s *Store) SetAccounts(providerID string, rows []AccountSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(providerID).Accounts = slices.Clone(rows)
}

// Disable drops a provider's state and resets its gate.
func (s *Store) Disable(providerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, providerID)
	if g, ok := s.gates[providerID]; ok {
		g.Reset()
	}
}

// Get returns a copy of the provider's state.
func (s *Store) Get(providerID string) (ProviderState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[providerID]
	if !ok {
		return ProviderState{ProviderID: providerID}, false
	}
	out := *st
	out.Attempts = slices.Clone(st.Attempts)
	out.Accounts = slices.Clone(st.Accounts)
	return out, true
}

// Gate returns the provider's failure gate, creating it if needed.
func (s *Store) Gate(providerID string) *FailureGate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateLocked(providerID)
}

// LastFetchTimes returns the last successful fetch time for each id; ids
// never fetched map to nil.
func (s *Store) LastFetchTimes(ids []string) map[string]*time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*time.Time, len(ids))
	for _, id := range ids {
		if st, ok := s.states[id]; ok && st.LastSuccess != nil {
			t := *st.LastSuccess
			out[id] = &t
			continue
		}
		out[id] = nil
	}
	return out
}

func (s *Store) stateLocked(providerID string) *ProviderState {
	st, ok := s.states[providerID]
	if !ok {
		st = &ProviderState{ProviderID: providerID}
		s.states[providerID] = st
	}
	return st
}

func (s *Store) gateLocked(providerID string) *FailureGate {
	g, ok := s.gates[providerID]
	if !ok {
		g = &FailureGate{}
		s.gates[providerID] = g
	}
	return g
}
