package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PeriodType string

const (
	PeriodSession PeriodType = "session"
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

func (p PeriodType) Hours() float64 {
	switch p {
	case PeriodSession:
		return 5.0
	case PeriodDaily:
		return 24.0
	case PeriodWeekly:
		return 7.0 * 24.0
	case PeriodMonthly:
		return 30.0 * 24.0
	default:
		return 24.0
	}
}

// UsagePeriod is one rate-limit window reported by a provider.
type UsagePeriod struct {
	Name        string     `json:"name" yaml:"name"`
	Utilization int        `json:"utilization" yaml:"utilization"`
	PeriodType  PeriodType `json:"period_type" yaml:"period_type"`
	ResetsAt    *time.Time `json:"resets_at,omitempty" yaml:"resets_at,omitempty"`
}

func (p UsagePeriod) Remaining() int {
	return 100 - p.Utilization
}

func (p UsagePeriod) TimeUntilReset(now time.Time) *time.Duration {
	if p.ResetsAt == nil {
		return nil
	}
	d := p.ResetsAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return &d
}

// Credits is a prepaid or metered balance. Amounts are decimals so that
// currency values survive round trips without float drift.
type Credits struct {
	Remaining decimal.Decimal  `json:"remaining"`
	Used      *decimal.Decimal `json:"used,omitempty"`
	Currency  string           `json:"currency,omitempty"`
}

// IsExhausted reports whether the remaining balance is zero or negative.
func (c Credits) IsExhausted() bool {
	return !c.Remaining.IsPositive()
}

type ProviderIdentity struct {
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	Plan         string `json:"plan,omitempty" yaml:"plan,omitempty"`
}

type UsageSnapshot struct {
	Provider  string            `json:"provider"`
	FetchedAt time.Time         `json:"fetched_at"`
	Periods   []UsagePeriod     `json:"periods"`
	Credits   *Credits          `json:"credits,omitempty"`
	Identity  *ProviderIdentity `json:"identity,omitempty"`
	Source    string            `json:"source,omitempty"`
}

func (s UsageSnapshot) PrimaryPeriod() *UsagePeriod {
	if len(s.Periods) == 0 {
		return nil
	}
	priority := map[PeriodType]int{
		PeriodSession: 0,
		PeriodDaily:   1,
		PeriodWeekly:  2,
		PeriodMonthly: 3,
	}
	best := 0
	bestPri := 99
	for i, p := range s.Periods {
		pri, ok := priority[p.PeriodType]
		if !ok {
			pri = 99
		}
		if pri < bestPri {
			bestPri = pri
			best = i
		}
	}
	return &s.Periods[best]
}

// BottleneckPeriod returns the period with the highest utilization.
func (s UsageSnapshot) BottleneckPeriod() *UsagePeriod {
	if len(s.Periods) == 0 {
		return nil
	}
	best := 0
	for i, p := range s.Periods {
		if p.Utilization > s.Periods[best].Utilization {
			best = i
		}
	}
	return &s.Periods[best]
}

// AccountEmail returns the resolved identity email, or "".
func (s UsageSnapshot) AccountEmail() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Email
}

// WithAccountLabel returns a copy whose identity email is set to label,
// unless the snapshot already carries a resolved email. The Identity
// pointer is copied so the original snapshot is left untouched.
func (s UsageSnapshot) WithAccountLabel(label string) UsageSnapshot {
	if label == "" || s.AccountEmail() != "" {
		return s
	}
	id := ProviderIdentity{}
	if s.Identity != nil {
		id = *s.Identity
	}
	id.Email = label
	s.Identity = &id
	return s
}

func (s UsageSnapshot) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.FetchedAt) > maxAge
}
