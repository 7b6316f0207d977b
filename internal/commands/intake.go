package commands

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/panchakarma/internal/logging"
	"github.com/mwiater/panchakarma/internal/tui"
)

var intakeExample bool

// intakeCmd opens the interactive patient intake form.
var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Open the interactive patient intake form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()
		logging.FileOnly()
		return tui.Run(cmd.Context(), engine, intakeExample)
	},
}

func init() {
	intakeCmd.Flags().BoolVar(&intakeExample, "example", false, "start with the example case loaded")
	rootCmd.AddCommand(intakeCmd)
}
