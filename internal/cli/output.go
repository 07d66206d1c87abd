package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// outWriter receives command output and errWriter receives logs and
// progress. Tests replace outWriter to capture output.
var (
	outWriter io.Writer = os.Stdout
	errWriter io.Writer = os.Stderr
)

func out(format string, a ...any) {
	_, _ = fmt.Fprintf(outWriter, format, a...)
}

func outln(a ...any) {
	_, _ = fmt.Fprintln(outWriter, a...)
}

// newConfiguredLogger creates the logger for w configured by the global
// output flags.
func newConfiguredLogger(w io.Writer) *log.Logger {
	l := logging.NewLogger(w)
	logging.Configure(l, logging.Flags{
		Verbose: verbose,
		Quiet:   quiet,
		NoColor: noColor,
		JSON:    jsonOutput,
	})
	return l
}
