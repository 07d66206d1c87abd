package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/usagebar/internal/config"
	"github.com/joshuadavidthomas/usagebar/internal/display"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		cfgPath := config.ConfigFile()

		if jsonOutput {
			return display.OutputJSON(outWriter, cfg)
		}
		if quiet {
			outln(cfgPath)
			return nil
		}

		out("Config: %s\n\n", cfgPath)
		return toml.NewEncoder(outWriter).Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config and state paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput {
			return display.OutputJSON(outWriter, map[string]string{
				"config_dir":    config.ConfigDir(),
				"config_file":   config.ConfigFile(),
				"state_dir":     config.StateDir(),
				"settings_file": config.SettingsFile(),
			})
		}
		if quiet {
			outln(config.ConfigDir())
			return nil
		}
		out("Config dir:    %s\n", config.ConfigDir())
		out("Config file:   %s\n", config.ConfigFile())
		out("State dir:     %s\n", config.StateDir())
		out("Settings:      %s\n", config.SettingsFile())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
