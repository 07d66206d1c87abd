package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func makeAccounts(n int) []Account {
	accounts := make([]Account, n)
	for i := range accounts {
		id := fmt.Sprintf("acct-%d", i+1)
		accounts[i] = Account{ID: id, Label: id + "@example.com"}
	}
	return accounts
}

// accountStrategy succeeds with a snapshot that has no identity, unless the
// account is listed in failures.
func accountStrategy(failures map[string]error) Resolver {
	s := &fakeStrategy{
		id:        "acct-oauth",
		kind:      KindOAuth,
		available: true,
		fetchFn: func(ctx context.Context, fc Context) (Result, error) {
			if err, ok := failures[fc.AccountID]; ok {
				return Result{}, err
			}
			return Result{Snapshot: testSnapshot("claude", "", 25)}, nil
		},
		fallbackFn: func(error) bool { return false },
	}
	return func(fc Context) []Strategy { return []Strategy{s} }
}

func TestRetain(t *testing.T) {
	f := &Fanout{}
	tests := []struct {
		name     string
		n        int
		selected string
		wantIDs  []string
	}{
		{"under cap", 3, "acct-2", []string{"acct-1", "acct-2", "acct-3"}},
		{"cap without selection", 8, "", []string{"acct-1", "acct-2", "acct-3", "acct-4", "acct-5", "acct-6"}},
		{"selected within cap", 8, "acct-4", []string{"acct-1", "acct-2", "acct-3", "acct-4", "acct-5", "acct-6"}},
		{"selected past cap", 8, "acct-8", []string{"acct-1", "acct-2", "acct-3", "acct-4", "acct-5", "acct-8"}},
		{"selected seventh", 7, "acct-7", []string{"acct-1", "acct-2", "acct-3", "acct-4", "acct-5", "acct-7"}},
		{"unknown selection", 7, "ghost", []string{"acct-1", "acct-2", "acct-3", "acct-4", "acct-5", "acct-6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Retain(makeAccounts(tt.n), tt.selected)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, a := range got {
				if a.ID != tt.wantIDs[i] {
					t.Errorf("got[%d] = %s, want %s", i, a.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestRetain_CustomCap(t *testing.T) {
	f := &Fanout{MaxAccounts: 2}
	got := f.Retain(makeAccounts(4), "acct-3")
	if len(got) != 2 || got[0].ID != "acct-1" || got[1].ID != "acct-3" {
		t.Errorf("Retain() = %+v", got)
	}
}

func TestRefreshAccounts_EveryRetainedAccountHasOutcome(t *testing.T) {
	f := &Fanout{Pipeline: &Pipeline{Timeout: time.Second}}
	retained, outcomes := f.RefreshAccounts(context.Background(), "claude", Context{}, makeAccounts(8), "acct-8", accountStrategy(nil))

	if len(retained) != 6 {
		t.Fatalf("len(retained) = %d, want 6", len(retained))
	}
	if len(outcomes) != 6 {
		t.Fatalf("len(outcomes) = %d, want 6", len(outcomes))
	}
	for _, a := range retained {
		o, ok := outcomes[a.ID]
		if !ok || !o.Success() {
			t.Errorf("account %s: outcome %+v", a.ID, o)
		}
		if o.AccountID != a.ID {
			t.Errorf("outcome AccountID = %q, want %q", o.AccountID, a.ID)
		}
	}
	if _, ok := outcomes["acct-8"]; !ok {
		t.Error("selected account was not refreshed")
	}
}

func TestRefreshAccounts_UsesAccountEnv(t *testing.T) {
	seen := make(chan string, 2)
	s := &fakeStrategy{
		id:        "env",
		kind:      KindAPI,
		available: true,
		fetchFn: func(ctx context.Context, fc Context) (Result, error) {
			seen <- fc.AccountID + "=" + fc.Getenv("API_TOKEN")
			return Result{}, nil
		},
	}
	accounts := []Account{
		{ID: "a", Env: map[string]string{"API_TOKEN": "tok-a"}},
		{ID: "b", Env: map[string]string{"API_TOKEN": "tok-b"}},
	}

	f := &Fanout{Pipeline: &Pipeline{}}
	f.RefreshAccounts(context.Background(), "p", Context{}, accounts, "", func(Context) []Strategy { return []Strategy{s} })
	close(seen)

	got := map[string]bool{}
	for v := range seen {
		got[v] = true
	}
	if !got["a=tok-a"] || !got["b=tok-b"] {
		t.Errorf("strategies saw %v", got)
	}
}

func TestRefreshAccounts_RunsInParallel(t *testing.T) {
	s := &fakeStrategy{
		id:        "slow",
		kind:      KindWeb,
		available: true,
		fetchFn: func(ctx context.Context, fc Context) (Result, error) {
			select {
			case <-time.After(200 * time.Millisecond):
				return Result{Snapshot: testSnapshot("p", "", 1)}, nil
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		},
	}

	f := &Fanout{Pipeline: &Pipeline{Timeout: 5 * time.Second}}
	start := time.Now()
	_, outcomes := f.RefreshAccounts(context.Background(), "p", Context{}, makeAccounts(3), "", func(Context) []Strategy { return []Strategy{s} })
	elapsed := time.Since(start)

	if elapsed >= 450*time.Millisecond {
		t.Errorf("three 200ms fetches took %v, want them to overlap", elapsed)
	}
	for id, o := range outcomes {
		if !o.Success() {
			t.Errorf("%s failed: %v", id, o.Err)
		}
	}
}

func TestRefreshAccounts_PanicBecomesSyntheticFailure(t *testing.T) {
	s := &fakeStrategy{
		id:        "flaky",
		kind:      KindCLI,
		available: true,
		fetchFn: func(ctx context.Context, fc Context) (Result, error) {
			if fc.AccountID == "acct-2" {
				panic("boom")
			}
			return Result{Snapshot: testSnapshot("p", "", 1)}, nil
		},
	}

	f := &Fanout{Pipeline: &Pipeline{}}
	_, outcomes := f.RefreshAccounts(context.Background(), "p", Context{}, makeAccounts(3), "", func(Context) []Strategy { return []Strategy{s} })

	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	bad := outcomes["acct-2"]
	if bad.Success() || !errors.Is(bad.Err, ErrAccountCancelled) {
		t.Errorf("acct-2 outcome = %+v, want ErrAccountCancelled", bad)
	}
	for _, id := range []string{"acct-1", "acct-3"} {
		if !outcomes[id].Success() {
			t.Errorf("%s should still succeed", id)
		}
	}
}

func TestRefreshAccounts_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &Fanout{Pipeline: &Pipeline{}}
	_, outcomes := f.RefreshAccounts(ctx, "p", Context{}, makeAccounts(3), "", accountStrategy(nil))

	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}
	for id, o := range outcomes {
		if o.Success() {
			t.Errorf("%s succeeded under a cancelled context", id)
		}
	}
}

func TestMerge_LabelsAndEffective(t *testing.T) {
	retained := []Account{
		{ID: "work", Label: "Work"},
		{ID: "home", Label: "Home"},
	}
	withEmail := testSnapshot("claude", "real@example.com", 50)
	outcomes := map[string]Outcome{
		"work": {AccountID: "work", Result: &Result{Snapshot: testSnapshot("claude", "", 10), StrategyID: "oauth"}},
		"home": {AccountID: "home", Result: &Result{Snapshot: withEmail, StrategyID: "oauth"}},
	}

	m := Merge("claude", retained, outcomes, "work")

	if m.EffectiveID != "work" {
		t.Errorf("EffectiveID = %q, want work", m.EffectiveID)
	}
	if got := m.Effective.Result.Snapshot.AccountEmail(); got != "Work" {
		t.Errorf("effective email = %q, want label Work", got)
	}
	if got := m.Accounts[0].Snapshot.AccountEmail(); got != "Work" {
		t.Errorf("work row email = %q, want Work", got)
	}
	if got := m.Accounts[1].Snapshot.AccountEmail(); got != "real@example.com" {
		t.Errorf("home row email = %q, resolved email must not be overwritten", got)
	}
	if outcomes["work"].Result.Snapshot.Identity != nil {
		t.Error("Merge mutated the input outcome")
	}
}

func TestMerge_DefaultsToFirstAccount(t *testing.T) {
	retained := []Account{{ID: "a"}, {ID: "b"}}
	outcomes := map[string]Outcome{
		"a": {AccountID: "a", Err: errors.New("a failed")},
		"b": {AccountID: "b", Result: &Result{Snapshot: testSnapshot("p", "", 1)}},
	}

	m := Merge("p", retained, outcomes, "")
	if m.EffectiveID != "a" {
		t.Errorf("EffectiveID = %q, want a", m.EffectiveID)
	}
	if m.Effective.Success() {
		t.Error("effective outcome should be a's failure")
	}
	if m.Accounts[0].Error != "a failed" {
		t.Errorf("row error = %q", m.Accounts[0].Error)
	}
}

func TestMerge_NoAccounts(t *testing.T) {
	m := Merge("p", nil, nil, "")
	if !errors.Is(m.Effective.Err, ErrNoStrategyAvailable) {
		t.Errorf("err = %v, want ErrNoStrategyAvailable", m.Effective.Err)
	}
}

func TestRefresh_NonSelectedFailureOnlyAffectsItsRow(t *testing.T) {
	store := NewStore()
	f := &Fanout{Pipeline: &Pipeline{}}
	accounts := makeAccounts(3)
	resolve := accountStrategy(map[string]error{"acct-3": errors.New("401 unauthorized")})

	m := f.Refresh(context.Background(), store, "claude", Context{}, accounts, "acct-1", resolve)

	if !m.Effective.Success() {
		t.Fatalf("effective outcome failed: %v", m.Effective.Err)
	}
	st, _ := store.Get("claude")
	if st.Error != "" || st.Snapshot == nil {
		t.Errorf("provider state should be healthy, got error %q", st.Error)
	}
	if len(st.Accounts) != 3 {
		t.Fatalf("len(Accounts) = %d, want 3", len(st.Accounts))
	}
	if !strings.Contains(st.Accounts[2].Error, "401") {
		t.Errorf("acct-3 row error = %q", st.Accounts[2].Error)
	}
	if st.Accounts[0].Error != "" || st.Accounts[1].Error != "" {
		t.Error("healthy rows should carry no error")
	}
}

func TestRefresh_SelectedFailureGoesThroughGate(t *testing.T) {
	store := NewStore()
	f := &Fanout{Pipeline: &Pipeline{}}
	accounts := makeAccounts(2)

	f.Refresh(context.Background(), store, "claude", Context{}, accounts, "acct-1", accountStrategy(nil))
	failing := accountStrategy(map[string]error{"acct-1": errors.New("timeout")})

	f.Refresh(context.Background(), store, "claude", Context{}, accounts, "acct-1", failing)
	st, _ := store.Get("claude")
	if st.Snapshot == nil || st.Error != "" {
		t.Error("first selected-account failure should be suppressed")
	}

	f.Refresh(context.Background(), store, "claude", Context{}, accounts, "acct-1", failing)
	st, _ = store.Get("claude")
	if st.Snapshot != nil || st.Error != "timeout" {
		t.Errorf("second failure should surface, got snapshot=%v error=%q", st.Snapshot, st.Error)
	}
}

func TestRefresh_NoAccountsRunsSinglePipeline(t *testing.T) {
	store := NewStore()
	s := okStrategy("api", KindAPI)
	f := &Fanout{Pipeline: &Pipeline{}}

	m := f.Refresh(context.Background(), store, "openrouter", Context{}, nil, "", func(Context) []Strategy { return []Strategy{s} })

	if !m.Effective.Success() {
		t.Fatalf("expected success, got %v", m.Effective.Err)
	}
	if m.EffectiveID != "" || len(m.Accounts) != 0 {
		t.Errorf("Merged = %+v, want no account rows", m)
	}
	if s.calls.Load() != 1 {
		t.Errorf("strategy ran %d times, want 1", s.calls.Load())
	}
	if _, ok := store.Get("openrouter"); !ok {
		t.Error("store was not updated")
	}
}

func TestRefresh_NilStore(t *testing.T) {
	f := &Fanout{Pipeline: &Pipeline{}}
	m := f.Refresh(context.Background(), nil, "p", Context{}, makeAccounts(1), "", accountStrategy(nil))
	if !m.Effective.Success() {
		t.Errorf("expected success, got %v", m.Effective.Err)
	}
}
