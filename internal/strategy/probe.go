package strategy

import (
	"context"
	"fmt"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
)

// Probe scrapes usage through the context's local probe, typically a
// terminal session driving the provider CLI.
type Probe struct {
	Name   string
	Format Format
}

func (s *Probe) ID() string       { return s.Name }
func (s *Probe) Kind() fetch.Kind { return fetch.KindProbe }

func (s *Probe) IsAvailable(_ context.Context, fc fetch.Context) bool {
	return fc.Fetchers.Probe != nil
}

func (s *Probe) Fetch(ctx context.Context, fc fetch.Context) (fetch.Result, error) {
	if fc.Fetchers.Probe == nil {
		return fetch.Result{}, fmt.Errorf("no local probe for %s", fc.ProviderID)
	}
	data, err := fc.Fetchers.Probe(ctx, fc.ProviderID)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("probe failed: %w", err)
	}
	result, err := Decode(s.Format, fc.ProviderID, data)
	if err != nil {
		return fetch.Result{}, err
	}
	if result.SourceLabel == "" {
		result.SourceLabel = "probe"
	}
	return result, nil
}

func (s *Probe) ShouldFallback(err error, _ fetch.Context) bool {
	return !isCancelled(err)
}
