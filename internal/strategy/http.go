package strategy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
	"github.com/joshuadavidthomas/usagebar/internal/keychain"
)

// TokenSource returns the bearer token for a fetch context, or "" when none
// is configured. Lookups that block honor ctx.
type TokenSource func(ctx context.Context, fc fetch.Context) (string, error)

// CookieSource returns the session cookies for a fetch context.
type CookieSource func(fc fetch.Context) (map[string]string, error)

// FileToken reads the token from path on every call so rotated credentials
// are picked up.
func FileToken(path string) TokenSource {
	return func(context.Context, fetch.Context) (string, error) {
		return config.ReadToken(path)
	}
}

// KeychainToken reads the token from a keychain entry on every call. The
// entry may hold a raw token or a JSON object with "access_token".
func KeychainToken(service, account string) TokenSource {
	return func(ctx context.Context, _ fetch.Context) (string, error) {
		secret, err := keychain.ReadGenericPassword(ctx, service, account)
		if err != nil {
			return "", err
		}
		return config.ParseToken([]byte(secret))
	}
}

// FileCookies reads "name=value" cookie lines from path on every call.
func FileCookies(path string) CookieSource {
	return func(fetch.Context) (map[string]string, error) {
		return config.ReadCookies(path)
	}
}

func httpClient(fc fetch.Context) *httpclient.Client {
	if fc.Fetchers.HTTP != nil {
		return fc.Fetchers.HTTP
	}
	return httpclient.NewWithTimeout(0)
}

// getUsage requests url and decodes a 200 response body. Non-200 statuses
// become *HTTPStatusError.
func getUsage(ctx context.Context, fc fetch.Context, url string, format Format, opts ...httpclient.RequestOption) (fetch.Result, error) {
	opts = append([]httpclient.RequestOption{httpclient.WithHeader("Accept", "application/json")}, opts...)
	resp, err := httpClient(fc).GetCtx(ctx, url, opts...)
	if err != nil {
		return fetch.Result{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fetch.Result{}, statusError(resp)
	}
	return Decode(format, fc.ProviderID, resp.Body)
}
