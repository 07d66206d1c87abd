package display

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultWidth is used when f is not a terminal.
const DefaultWidth = 80

// TerminalWidth returns the column count of the terminal behind f.
func TerminalWidth(f *os.File) int {
	if f == nil {
		return DefaultWidth
	}
	w, _, err := term.GetSize(f.Fd())
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
