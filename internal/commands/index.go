package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/panchakarma/internal/providerfactory"
	"github.com/mwiater/panchakarma/internal/rag"
)

// indexCmd builds the vector index from the corpus directory.
var indexCmd = &cobra.Command{
	Use:     "index",
	Aliases: []string{"build"},
	Short:   "Build the vector index from the corpus directory",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		embedder, err := providerfactory.NewEmbedder(cfg)
		if err != nil {
			return err
		}
		defer embedder.Close()

		ix, report, err := rag.Build(cmd.Context(), rag.BuildOptionsFromConfig(cfg), embedder)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", color.GreenString("Index built:"), cfg.IndexPath)
		fmt.Fprintf(out, "  Files loaded:  %d\n", report.Files)
		fmt.Fprintf(out, "  Pages loaded:  %d\n", report.Pages)
		fmt.Fprintf(out, "  Chunks:        %d (%d dimensions)\n", report.Chunks, ix.Manifest().Dimensions)
		fmt.Fprintf(out, "  Build ID:      %s\n", report.BuildID)
		fmt.Fprintf(out, "  Duration:      %s\n", report.Duration)
		if len(report.Failures) > 0 {
			fmt.Fprintf(out, "  %s %d\n", color.YellowString("Failed files:"), len(report.Failures))
			for _, failure := range report.Failures {
				fmt.Fprintf(out, "    - %s: %v\n", failure.File, failure.Err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
