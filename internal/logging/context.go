package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type contextKey struct{}

// discard is returned by FromContext when no logger is attached.
var discard = NewLogger(io.Discard)

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext retrieves the logger from the context, or a logger that
// discards everything.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(contextKey{}).(*log.Logger); ok {
		return l
	}
	return discard
}

// WithFields attaches a child logger carrying keyvals to ctx, so code further
// down the call chain logs them without threading them by hand.
func WithFields(ctx context.Context, keyvals ...any) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(keyvals...))
}
