package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// OAuth fetches usage with a bearer token that the provider CLI maintains.
type OAuth struct {
	Name  string
	URL   string
	Token TokenSource
	// OnUnauthorized runs after a 401, before the pipeline moves on. It is
	// usually wired to a cooldown coordinator that nudges the CLI into
	// refreshing its credentials.
	OnUnauthorized func(ctx context.Context)
}

func (s *OAuth) ID() string       { return s.Name }
func (s *OAuth) Kind() fetch.Kind { return fetch.KindOAuth }

func (s *OAuth) IsAvailable(ctx context.Context, fc fetch.Context) bool {
	token, err := s.token(ctx, fc)
	return err == nil && token != ""
}

func (s *OAuth) Fetch(ctx context.Context, fc fetch.Context) (fetch.Result, error) {
	token, err := s.token(ctx, fc)
	if err != nil {
		return fetch.Result{}, err
	}
	if token == "" {
		return fetch.Result{}, fmt.Errorf("no OAuth token for %s", fc.ProviderID)
	}

	result, err := getUsage(ctx, fc, s.URL, FormatJSON, httpclient.WithBearer(token))
	if statusCode(err) == http.StatusUnauthorized && s.OnUnauthorized != nil {
		logging.FromContext(ctx).Debug("oauth token rejected", "strategy", s.Name)
		s.OnUnauthorized(ctx)
	}
	if err != nil {
		return fetch.Result{}, err
	}
	if result.SourceLabel == "" {
		result.SourceLabel = "oauth"
	}
	return result, nil
}

// ShouldFallback gives up on a forbidden account or an unparseable payload.
// An expired token (401) still falls back.
func (s *OAuth) ShouldFallback(err error, _ fetch.Context) bool {
	if isCancelled(err) || errors.Is(err, ErrDecode) {
		return false
	}
	switch code := statusCode(err); {
	case code == 0, code == http.StatusUnauthorized:
		return true
	case code == http.StatusForbidden:
		return false
	default:
		return retryableStatus(code)
	}
}

func (s *OAuth) token(ctx context.Context, fc fetch.Context) (string, error) {
	if s.Token == nil {
		return "", nil
	}
	return s.Token(ctx, fc)
}
