package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
)

// ErrDecode marks a payload that could not be turned into a snapshot.
var ErrDecode = errors.New("invalid usage payload")

// HTTPStatusError is returned when a usage endpoint answers with a non-200
// status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("usage request failed: %d (%s)", e.StatusCode, e.Body)
}

func statusError(resp *httpclient.Response) error {
	return &HTTPStatusError{StatusCode: resp.StatusCode, Body: httpclient.SummarizeBody(resp.Body)}
}

// statusCode returns the HTTP status carried by err, or 0.
func statusCode(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// retryableStatus reports whether a server-side status is worth handing to
// the next strategy.
func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}
