package fetch

import (
	"time"

	"github.com/joshuadavidthomas/usagebar/internal/models"
)

// CachedState is the part of a provider's state that outlives a process:
// the last good snapshot, when it was fetched, and the failure streak
// counted against it.
type CachedState struct {
	ProviderID    string                `json:"provider_id"`
	Snapshot      *models.UsageSnapshot `json:"snapshot,omitempty"`
	Source        string                `json:"source,omitempty"`
	LastSuccess   *time.Time            `json:"last_success,omitempty"`
	FailureStreak int                   `json:"failure_streak"`
}

// Cache persists provider state between runs.
type Cache interface {
	Load(providerID string) (CachedState, bool)
	Save(state CachedState) error
	Delete(providerID string) error
}
