package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/display"
	"github.com/joshuadavidthomas/usagebar/internal/prompt"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "List and select stored provider accounts",
}

type accountRow struct {
	ID       string `json:"id"`
	Label    string `json:"label,omitempty"`
	Selected bool   `json:"selected"`
}

var accountListCmd = &cobra.Command{
	Use:   "list <provider>",
	Short: "List a provider's accounts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listAccounts(config.Get(), args[0])
	},
}

var accountSelectCmd = &cobra.Command{
	Use:   "select <provider> [account]",
	Short: "Choose the account whose data drives the provider summary",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		accountID := ""
		if len(args) == 2 {
			accountID = args[1]
		}
		return selectAccount(config.Get(), args[0], accountID)
	},
}

func init() {
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountSelectCmd)
}

func accountRows(pc config.ProviderConfig) []accountRow {
	rows := make([]accountRow, 0, len(pc.Accounts))
	for i, a := range pc.Accounts {
		selected := a.ID == pc.SelectedAccount || (pc.SelectedAccount == "" && i == 0)
		rows = append(rows, accountRow{ID: a.ID, Label: a.Label, Selected: selected})
	}
	return rows
}

func listAccounts(cfg config.Config, providerID string) error {
	pc, ok := cfg.Providers[providerID]
	if !ok {
		return fmt.Errorf("unknown provider: %s", providerID)
	}
	rows := accountRows(pc)
	if jsonOutput {
		return display.OutputJSON(outWriter, rows)
	}
	if len(rows) == 0 {
		if !quiet {
			out("%s has no stored accounts\n", providerID)
		}
		return nil
	}
	for _, r := range rows {
		mark := " "
		if r.Selected {
			mark = "*"
		}
		if r.Label != "" {
			out("%s %s (%s)\n", mark, r.ID, r.Label)
			continue
		}
		out("%s %s\n", mark, r.ID)
	}
	return nil
}

// selectAccount stores accountID as the provider's selected account,
// prompting for it when accountID is empty.
func selectAccount(cfg config.Config, providerID, accountID string) error {
	pc, ok := cfg.Providers[providerID]
	if !ok {
		return fmt.Errorf("unknown provider: %s", providerID)
	}
	if len(pc.Accounts) == 0 {
		return fmt.Errorf("%s has no stored accounts", providerID)
	}

	if accountID == "" {
		if jsonOutput || !isInteractive() {
			return fmt.Errorf("account is required when not running interactively")
		}
		options := make([]prompt.Option, 0, len(pc.Accounts))
		for _, a := range pc.Accounts {
			label := a.ID
			if a.Label != "" {
				label = a.ID + " (" + a.Label + ")"
			}
			options = append(options, prompt.Option{Label: label, Value: a.ID})
		}
		picked, err := prompt.Default.Select(prompt.SelectConfig{
			Title:   "Select " + providerID + " account",
			Options: options,
			Default: pc.SelectedAccount,
		})
		if err != nil {
			return err
		}
		accountID = picked
	}

	if err := config.SetSelectedAccount("", providerID, accountID); err != nil {
		return err
	}
	if _, err := config.Reload(); err != nil {
		return err
	}

	if jsonOutput {
		return display.OutputJSON(outWriter, map[string]string{"provider": providerID, "selected_account": accountID})
	}
	if !quiet {
		out("✓ %s will show %s\n", providerID, accountID)
	}
	return nil
}
