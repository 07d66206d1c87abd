package httpclient

import (
	"net/http"
	"sort"
	"strings"
)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer sets the Authorization header to "Bearer <token>".
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithCookie adds a cookie to the request.
func WithCookie(name, value string) RequestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// WithCookies adds every cookie in the map, in name order so requests are
// reproducible.
func WithCookies(cookies map[string]string) RequestOption {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(r *http.Request) {
		for _, name := range names {
			r.AddCookie(&http.Cookie{Name: name, Value: cookies[name]})
		}
	}
}

// SummarizeBody returns a short summary of an HTTP response body suitable for
// error messages. Empty bodies return "empty body"; bodies longer than 120
// characters are truncated with "...".
func SummarizeBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty body"
	}
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
