package commands

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/panchakarma/internal/document"
	"github.com/mwiater/panchakarma/internal/rag"
)

// previewCmd shows retrieval and prompt assembly for a query without calling the model.
var previewCmd = &cobra.Command{
	Use:   "preview <query>",
	Short: "Preview retrieval and prompt assembly without generation",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query is required")
		}
		cfg, err := requireConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		status := func(format string, args ...any) {
			msg := fmt.Sprintf(format, args...)
			log.Print(msg)
			fmt.Fprintln(out, msg)
		}

		status("[PREVIEW] query: %s", query)
		status("[PREVIEW] index: %s (%s)", cfg.IndexPath, cfg.IndexFormat)
		status("[PREVIEW] embedding model: %s", cfg.EmbeddingModel)
		status("[PREVIEW] k: %d, similarity threshold: %.2f", cfg.RetrievalK, cfg.SimilarityThreshold)

		ix, embedder, err := openIndex(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer embedder.Close()

		result, err := rag.Preview(cmd.Context(), ix, embedder, query, rag.EngineOptionsFromConfig(cfg))
		if err != nil {
			return err
		}

		status("[PREVIEW] retrieval: %s", result.Retrieval)
		status("[PREVIEW] chunks: %d of %d", len(result.Matches), ix.Len())
		if len(result.Matches) == 0 {
			status("[PREVIEW] %s", rag.NoEvidenceAnswer)
			return nil
		}
		for i, m := range result.Matches {
			status("[PREVIEW] chunk %d score=%.6f source=%s page=%s id=%s", i+1, m.Score, m.Entry.Metadata[document.MetadataSource], m.Entry.Metadata[document.MetadataPage], m.Entry.ChunkID)
		}
		if cfg.Debug {
			status("[PREVIEW] prompt:\n%s", result.Prompt)
		} else {
			status("[PREVIEW] context:\n%s", result.Context)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
