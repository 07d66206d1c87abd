package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/display"
	"github.com/joshuadavidthomas/usagebar/internal/fetch"
	"github.com/joshuadavidthomas/usagebar/internal/httpclient"
	"github.com/joshuadavidthomas/usagebar/internal/logging"
	"github.com/joshuadavidthomas/usagebar/internal/provider"
	"github.com/joshuadavidthomas/usagebar/internal/spinner"
)

type refreshOptions struct {
	source  string
	timeout time.Duration
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [provider...]",
	Short: "Refresh usage for all enabled providers, or only the named ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return runRefresh(cmd.Context(), config.Get(), args, refreshOptions{source: source, timeout: timeout})
	},
}

func init() {
	refreshCmd.Flags().StringP("source", "s", "", "Restrict strategies to one source: auto, cli, web, oauth or api")
	refreshCmd.Flags().Duration("timeout", 0, "Per-strategy timeout, overriding fetch.timeout")
}

func parseSourceMode(s string) (fetch.SourceMode, error) {
	mode := fetch.SourceMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case "", fetch.SourceAuto, fetch.SourceCLI, fetch.SourceWeb, fetch.SourceOAuth, fetch.SourceAPI:
		return mode, nil
	}
	return "", fmt.Errorf("unknown source %q: want auto, cli, web, oauth or api", s)
}

// baseContext is the fetch context every provider job starts from.
func baseContext(cfg config.Config, mode fetch.SourceMode) fetch.Context {
	return fetch.Context{
		Runtime:    fetch.RuntimeCLI,
		SourceMode: mode,
		Env:        environMap(os.Environ()),
		Fetchers: fetch.Fetchers{
			HTTP: httpclient.New().WithRateLimit(cfg.Fetch.RequestsPerSecond),
		},
	}
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func newOrchestrator(cfg config.Config, timeout time.Duration, metrics *fetch.Metrics) *fetch.Orchestrator {
	if timeout <= 0 {
		timeout = cfg.Fetch.TimeoutDuration()
	}
	return &fetch.Orchestrator{
		Fanout: &fetch.Fanout{
			Pipeline:    &fetch.Pipeline{Timeout: timeout, Metrics: metrics},
			MaxAccounts: cfg.Fetch.MaxAccounts,
		},
		Store:         fetch.NewStore(),
		MaxConcurrent: cfg.Fetch.MaxConcurrent,
		Cache:         config.FileCache{},
	}
}

func runRefresh(ctx context.Context, cfg config.Config, ids []string, opts refreshOptions) error {
	logger := logging.FromContext(ctx)

	mode, err := parseSourceMode(opts.source)
	if err != nil {
		return err
	}

	reg, err := provider.Build(cfg, provider.Deps{Settings: openSettings(ctx)})
	if err != nil {
		logger.Warn("some strategies were skipped", "err", err)
	}
	for _, id := range ids {
		if _, ok := reg.Get(id); !ok {
			return fmt.Errorf("unknown provider: %s. Configured: %s", id, strings.Join(reg.IDs(), ", "))
		}
	}
	if len(reg.IDs()) == 0 {
		if !jsonOutput && !quiet {
			showFirstRunMessage()
		}
		return nil
	}

	// Naming a provider refreshes it even when it is not enabled.
	isEnabled := cfg.IsProviderEnabled
	if len(ids) > 0 {
		isEnabled = func(string) bool { return true }
	}

	metrics, err := fetch.NewMetrics(nil)
	if err != nil {
		logger.Warn("metrics disabled", "err", err)
	}
	orch := newOrchestrator(cfg, opts.timeout, metrics)

	start := time.Now()
	jobs := reg.Jobs(baseContext(cfg, mode), ids)
	refresh := func(onComplete func(spinner.Completion)) {
		orch.RefreshEnabled(ctx, jobs, isEnabled, func(m fetch.Merged) {
			logger.Debug("provider refreshed", "provider", m.ProviderID, "success", m.Effective.Success(), "source", m.Effective.Source(), "accounts", len(m.Accounts))
			onComplete(spinner.Completion{
				ProviderID: m.ProviderID,
				Success:    m.Effective.Success(),
				Source:     m.Effective.Source(),
				Accounts:   len(m.Accounts),
			})
		})
	}
	if spinner.ShouldShow(quiet, jsonOutput, !isInteractive()) {
		var pending []string
		for _, j := range jobs {
			if isEnabled(j.ProviderID) {
				pending = append(pending, j.ProviderID)
			}
		}
		if err := spinner.Run(ctx, errWriter, pending, refresh); err != nil {
			return err
		}
	} else {
		refresh(func(spinner.Completion) {})
	}
	logger.Debug("fetch complete", "total_duration_ms", time.Since(start).Milliseconds())

	states := make(map[string]fetch.ProviderState, len(jobs))
	for _, j := range jobs {
		if st, ok := orch.Store.Get(j.ProviderID); ok && isEnabled(j.ProviderID) {
			states[j.ProviderID] = st
		}
	}

	if jsonOutput {
		return display.OutputJSON(outWriter, states)
	}
	hasData := renderStates(states, time.Now())
	if !hasData && len(ids) > 0 {
		return fmt.Errorf("no usage data for %s", strings.Join(ids, ", "))
	}
	return nil
}

// renderStates prints panels for providers with data and an error line for
// the rest. It reports whether any provider had data.
func renderStates(states map[string]fetch.ProviderState, now time.Time) bool {
	width := 0
	if isInteractive() {
		width = display.TerminalWidth(os.Stdout)
	}

	hasData := false
	var errLines []string
	for _, id := range display.SortedIDs(states) {
		st := states[id]
		if st.Error != "" {
			errLines = append(errLines, display.RenderProviderError(id, st.Error, width))
		}
		if st.Snapshot == nil {
			continue
		}
		hasData = true
		if quiet {
			for _, line := range display.RenderQuiet(st) {
				outln(line)
			}
			continue
		}
		outln(display.RenderProviderPanel(st, now))
	}

	if quiet {
		return hasData
	}
	if !hasData {
		outln("No usage data available")
		if len(errLines) > 0 {
			outln()
		}
	}
	for _, line := range errLines {
		outln(line)
	}
	return hasData
}

func showFirstRunMessage() {
	outln()
	outln("Welcome to usagebar!")
	outln("No providers are configured yet.")
	outln()
	out("Add a [providers.<id>] section to %s\n", config.ConfigFile())
	outln()
}
