// Package embedding defines the text-to-vector contract shared by the build
// and serve phases, plus adapters for local and remote embedding models.
package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultModel is the sentence-embedding model used when none is configured.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Embedder maps text to a vector. The same text and model must always produce
// the same vector, and an index must only be queried with the model it was
// built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// ModelName identifies the model; it is persisted with every index.
	ModelName() string
	Close() error
}

// EmbedAll embeds texts using up to workers concurrent calls. The result is
// index-aligned with texts. progress, when non-nil, is called after each
// completed embedding.
func EmbedAll(ctx context.Context, e Embedder, texts []string, workers int, progress func(done, total int)) ([][]float32, error) {
	if workers <= 0 {
		workers = 1
	}
	vectors := make([][]float32, len(texts))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			if progress != nil {
				progress(int(done.Add(1)), len(texts))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
