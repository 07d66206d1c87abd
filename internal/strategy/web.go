package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
)

// Web fetches usage from a dashboard endpoint with browser session cookies.
type Web struct {
	Name    string
	URL     string
	Cookies CookieSource
}

func (s *Web) ID() string       { return s.Name }
func (s *Web) Kind() fetch.Kind { return fetch.KindWeb }

func (s *Web) IsAvailable(_ context.Context, fc fetch.Context) bool {
	cookies, err := s.cookies(fc)
	return err == nil && len(cookies) > 0
}

func (s *Web) Fetch(ctx context.Context, fc fetch.Context) (fetch.Result, error) {
	cookies, err := s.cookies(fc)
	if err != nil {
		return fetch.Result{}, err
	}
	if len(cookies) == 0 {
		return fetch.Result{}, fmt.Errorf("no session cookies for %s", fc.ProviderID)
	}
	result, err := getUsage(ctx, fc, s.URL, FormatJSON, httpclient.WithCookies(cookies))
	if err != nil {
		return fetch.Result{}, err
	}
	if result.SourceLabel == "" {
		result.SourceLabel = "web"
	}
	return result, nil
}

// ShouldFallback moves on for transport problems, server errors and stale
// sessions. A payload the endpoint served but we could not parse is final.
func (s *Web) ShouldFallback(err error, _ fetch.Context) bool {
	if isCancelled(err) || errors.Is(err, ErrDecode) {
		return false
	}
	switch code := statusCode(err); {
	case code == 0:
		return true
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return true
	default:
		return retryableStatus(code)
	}
}

func (s *Web) cookies(fc fetch.Context) (map[string]string, error) {
	if s.Cookies == nil {
		return nil, nil
	}
	return s.Cookies(fc)
}
