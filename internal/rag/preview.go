package rag

import (
	"context"
	"time"

	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/index"
)

// PreviewResult is what would be sent to the model for a query.
type PreviewResult struct {
	Matches   []index.Match
	Context   string
	Prompt    string
	Retrieval time.Duration
}

// Preview runs retrieval and prompt assembly without calling a model.
func Preview(ctx context.Context, ix *index.Index, embedder embedding.Embedder, query string, opts EngineOptions) (PreviewResult, error) {
	start := time.Now()
	matches, err := Retrieve(ctx, ix, embedder, query, opts.K, opts.MinScore)
	if err != nil {
		return PreviewResult{}, err
	}
	result := PreviewResult{Matches: matches, Retrieval: time.Since(start)}
	if len(matches) > 0 {
		result.Context = FormatContext(matches)
		result.Prompt = BuildPrompt(result.Context, query)
	}
	return result, nil
}

// Preview runs retrieval and prompt assembly with the engine's settings.
func (e *Engine) Preview(ctx context.Context, query string) (PreviewResult, error) {
	return Preview(ctx, e.index, e.embedder, query, e.opts)
}
