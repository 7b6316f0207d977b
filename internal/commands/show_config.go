package commands

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/panchakarma/internal/appconfig"
)

// configCmd groups configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

// showConfigCmd prints the merged configuration.
var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged configuration (defaults, file and flags)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("%w: configuration not loaded", appconfig.ErrConfiguration)
		}
		out := cmd.OutOrStdout()
		appconfig.ShowConfig(out, cfg.ConfigPath, *cfg)
		if cfg.Debug {
			fmt.Fprintln(out)
			pp.ColoringEnabled = false
			_, _ = pp.Fprintln(out, *cfg)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\nConfiguration problems: %v\n", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(configCmd)
}
