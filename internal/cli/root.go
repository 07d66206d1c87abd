package cli

import (
	"context"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// version is injected at build time via -ldflags.
var version = "dev"

var (
	jsonOutput bool
	noColor    bool
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:          "usagebar",
	Short:        "Refresh and show usage across AI coding providers",
	Long:         "Fetches rate-limit and credit usage for every configured provider, trying each provider's strategies in order until one succeeds.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && quiet {
			verbose = false
		}
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		l := newConfiguredLogger(errWriter)
		ctx := logging.WithLogger(cmd.Context(), l)
		cmd.SetContext(ctx)

		// Load config from disk so malformed files surface a warning.
		if _, err := config.Init(); err != nil {
			l.Warn("config file is malformed, using defaults", "err", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			out("usagebar %s\n", version)
			return nil
		}
		return runRefresh(cmd.Context(), config.Get(), nil, refreshOptions{})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.Flags().Bool("version", false, "Show version and exit")

	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(cooldownCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(accountCmd)
}

// ExecuteContext runs the root command with the given context.
// Commands access it via cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// isInteractive reports whether output goes to a terminal. Tests that
// capture output replace it.
var isInteractive = isTerminal

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
