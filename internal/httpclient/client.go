package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Client wraps net/http.Client with convenience methods for JSON APIs.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// Response wraps the status code, body bytes, and optional JSON decode error
// from a completed HTTP request. The underlying http.Response body is already
// closed; callers read from Body instead.
type Response struct {
	StatusCode int
	Body       []byte
	JSONErr    error
}

// New creates a Client with a 30-second timeout.
func New() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}}
}

// NewWithTimeout creates a Client with the given timeout. A zero timeout
// leaves the deadline entirely to the request context.
func NewWithTimeout(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewWithHTTPClient wraps an existing http.Client, e.g. one from httptest.
func NewWithHTTPClient(c *http.Client) *Client {
	return &Client{http: c}
}

// WithRateLimit returns c with outgoing requests capped at perSecond,
// allowing bursts of one. Clients sharing the returned value share the cap.
// A non-positive perSecond removes the limit.
func (c *Client) WithRateLimit(perSecond float64) *Client {
	out := &Client{http: c.http}
	if perSecond > 0 {
		out.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return out
}

// RequestOption configures an http.Request before it is sent.
type RequestOption func(*http.Request)

// DoCtx sends an HTTP request with the given context, method and URL, applies
// options, reads the full body, and returns a Response. A non-nil error
// indicates a network-level failure (DNS, connect, timeout) or context
// cancellation; HTTP error status codes are returned in Response.StatusCode.
func (c *Client) DoCtx(ctx context.Context, method, rawURL string, body io.Reader, opts ...RequestOption) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// GetCtx sends a context-aware GET request and returns the raw response.
func (c *Client) GetCtx(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.DoCtx(ctx, http.MethodGet, rawURL, nil, opts...)
}

// GetJSONCtx sends a context-aware GET request and decodes the response body as
// JSON into out. HTTP error status codes are returned in Response; JSON decode
// errors are captured in Response.JSONErr rather than returned as the
// function error.
func (c *Client) GetJSONCtx(ctx context.Context, rawURL string, out any, opts ...RequestOption) (*Response, error) {
	allOpts := append([]RequestOption{WithHeader("Accept", "application/json")}, opts...)
	resp, err := c.GetCtx(ctx, rawURL, allOpts...)
	if err != nil {
		return nil, err
	}
	if out != nil {
		resp.JSONErr = json.Unmarshal(resp.Body, out)
	}
	return resp, nil
}
