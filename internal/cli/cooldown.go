package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/cooldown"
	"github.com/joshuadavidthomas/usagebar/internal/display"
	"github.com/joshuadavidthomas/usagebar/internal/logging"
	"github.com/joshuadavidthomas/usagebar/internal/provider"
)

var cooldownCmd = &cobra.Command{
	Use:   "cooldown",
	Short: "Inspect and run credential refresh actions",
}

type cooldownStatus struct {
	Action           string `json:"action"`
	InCooldown       bool   `json:"in_cooldown"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
}

var cooldownStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cooldown state of every refresh action",
	RunE: func(cmd *cobra.Command, args []string) error {
		coords := loadCoordinators(cmd.Context(), config.Get())
		return showCooldownStatus(coords, time.Now())
	},
}

var cooldownTouchCmd = &cobra.Command{
	Use:   "touch <action>",
	Short: "Run a refresh action now, unless it is cooling down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coords := loadCoordinators(cmd.Context(), config.Get())
		wait, _ := cmd.Flags().GetDuration("wait")
		return touchCooldown(cmd.Context(), coords, args[0], wait)
	},
}

func init() {
	cooldownTouchCmd.Flags().Duration("wait", cooldown.DefaultMaxWait, "How long to watch for a credential change")

	cooldownCmd.AddCommand(cooldownStatusCmd)
	cooldownCmd.AddCommand(cooldownTouchCmd)
}

func loadCoordinators(ctx context.Context, cfg config.Config) map[string]*cooldown.Coordinator {
	reg, err := provider.Build(cfg, provider.Deps{Settings: openSettings(ctx)})
	if err != nil {
		logging.FromContext(ctx).Warn("some strategies were skipped", "err", err)
	}
	return reg.Coordinators()
}

// openSettings opens the default settings file, logging through ctx.
func openSettings(ctx context.Context) *config.Settings {
	s := config.OpenSettings("")
	s.Logger = logging.FromContext(ctx)
	return s
}

func sortedActions(coords map[string]*cooldown.Coordinator) []string {
	actions := make([]string, 0, len(coords))
	for a := range coords {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

func showCooldownStatus(coords map[string]*cooldown.Coordinator, now time.Time) error {
	rows := make([]cooldownStatus, 0, len(coords))
	for _, action := range sortedActions(coords) {
		row := cooldownStatus{Action: action}
		if secs, ok := coords[action].CooldownRemainingSeconds(now); ok {
			row.InCooldown = true
			row.RemainingSeconds = secs
		}
		rows = append(rows, row)
	}

	if jsonOutput {
		return display.OutputJSON(outWriter, rows)
	}
	if len(rows) == 0 {
		if !quiet {
			outln("No refresh actions configured")
		}
		return nil
	}
	for _, r := range rows {
		if r.InCooldown {
			out("%s: cooling down, %ds left\n", r.Action, r.RemainingSeconds)
			continue
		}
		out("%s: ready\n", r.Action)
	}
	return nil
}

func touchCooldown(ctx context.Context, coords map[string]*cooldown.Coordinator, action string, wait time.Duration) error {
	c, ok := coords[action]
	if !ok {
		return fmt.Errorf("unknown action: %s", action)
	}
	res := c.Attempt(ctx, time.Now(), wait)

	if jsonOutput {
		return display.OutputJSON(outWriter, res)
	}
	if res.Reason != "" {
		out("%s: %s (%s)\n", action, res.Status, res.Reason)
	} else {
		out("%s: %s\n", action, res.Status)
	}
	if res.Status == cooldown.AttemptedFailed {
		return fmt.Errorf("%s did not refresh credentials", action)
	}
	return nil
}
