package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/index"
)

// DefaultK is the number of chunks retrieved per query.
const DefaultK = 4

// Retrieve embeds query with the index's embedding model and returns up to k
// chunks, nearest first. An empty result is a valid outcome, not an error.
// minScore > 0 drops neighbours below that cosine similarity.
func Retrieve(ctx context.Context, ix *index.Index, embedder embedding.Embedder, query string, k int, minScore float64) ([]index.Match, error) {
	if ix == nil {
		return nil, fmt.Errorf("index is nil")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if k <= 0 {
		k = DefaultK
	}
	if ix.Len() == 0 {
		return nil, nil
	}

	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(vec, k, minScore)
}
