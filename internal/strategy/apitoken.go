package strategy

import (
	"context"
	"net/http"
	"strings"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
)

// APIToken fetches usage with a key taken from the context environment.
type APIToken struct {
	Name   string
	URL    string
	EnvVar string
}

func (s *APIToken) ID() string       { return s.Name }
func (s *APIToken) Kind() fetch.Kind { return fetch.KindAPI }

func (s *APIToken) IsAvailable(_ context.Context, fc fetch.Context) bool {
	return s.key(fc) != ""
}

func (s *APIToken) Fetch(ctx context.Context, fc fetch.Context) (fetch.Result, error) {
	result, err := getUsage(ctx, fc, s.URL, FormatJSON, httpclient.WithBearer(s.key(fc)))
	if err != nil {
		return fetch.Result{}, err
	}
	if result.SourceLabel == "" {
		result.SourceLabel = "api"
	}
	return result, nil
}

// ShouldFallback treats a rejected key as terminal.
func (s *APIToken) ShouldFallback(err error, _ fetch.Context) bool {
	if isCancelled(err) {
		return false
	}
	code := statusCode(err)
	return code != http.StatusUnauthorized && code != http.StatusForbidden
}

func (s *APIToken) key(fc fetch.Context) string {
	return strings.TrimSpace(fc.Getenv(s.EnvVar))
}
