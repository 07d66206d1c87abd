package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/joshuadavidthomas/usagebar/internal/testenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// captureOutput redirects command output to a buffer for the test. The
// buffer is not a terminal, so spinners and prompts stay off.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	outWriter = &buf
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		outWriter = os.Stdout
		isInteractive = isTerminal
	})
	return &buf
}

// isolate points config and state at a temp dir.
func isolate(t *testing.T) testenv.Dirs {
	t.Helper()
	return testenv.Apply(t.Setenv, t.TempDir())
}

// setFlag sets a package-level flag variable for the test.
func setFlag(t *testing.T, p *bool, v bool) {
	t.Helper()
	prev := *p
	*p = v
	t.Cleanup(func() { *p = prev })
}
