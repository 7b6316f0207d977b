package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	threshold := "disabled"
	if cfg.SimilarityThreshold > 0 {
		threshold = fmt.Sprintf("%.2f", cfg.SimilarityThreshold)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Corpus Path:          %s\n", cfg.CorpusPath)
	fmt.Fprintf(out, "  Index Path:           %s (%s)\n", cfg.IndexPath, cfg.IndexFormat)
	fmt.Fprintf(out, "  Chunk Size/Overlap:   %d/%d\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Fprintf(out, "  Retrieval K:          %d\n", cfg.RetrievalK)
	fmt.Fprintf(out, "  Similarity Threshold: %s\n", threshold)
	fmt.Fprintf(out, "  Embedding:            %s %s\n", cfg.EmbeddingProvider, cfg.EmbeddingModel)
	if cfg.EmbeddingHost != "" {
		fmt.Fprintf(out, "  Embedding Host:       %s\n", cfg.EmbeddingHost)
	}
	fmt.Fprintf(out, "  Generation:           %s %s (temperature %.2f)\n", cfg.GenerationProvider, cfg.GenerationModel, cfg.Temperature)
	if cfg.GenerationBaseURL != "" {
		fmt.Fprintf(out, "  Generation Base URL:  %s\n", cfg.GenerationBaseURL)
	}
	if cfg.RequiresAPIKey() {
		state := "missing"
		if _, err := cfg.APIKey(); err == nil {
			state = "set"
		}
		fmt.Fprintf(out, "  API Key:              $%s (%s)\n", cfg.APIKeyEnv, state)
	}
	fmt.Fprintf(out, "  Timeout:              %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Retry Attempts:       %d\n", cfg.RetryAttempts)
	fmt.Fprintf(out, "  Listen Address:       %s\n", cfg.ListenAddr)
	fmt.Fprintf(out, "  Log File:             %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:                %v\n", cfg.Debug)
}
