package logging

import (
	"bytes"
	"context"
	"testing"
)

// NewTestContext returns a context carrying a logger configured by flags
// and the buffer it writes to. The buffered log is replayed through t.Log
// when the test fails.
func NewTestContext(t testing.TB, flags Flags) (context.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	l := NewLogger(buf)
	Configure(l, flags)
	t.Cleanup(func() {
		if t.Failed() && buf.Len() > 0 {
			t.Logf("captured log:\n%s", buf.String())
		}
	})
	return WithLogger(context.Background(), l), buf
}
