// Package index holds embedded chunks in memory for exact nearest-neighbour
// search and persists them, with a manifest, to an index directory.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mwiater/panchakarma/internal/document"
)

var (
	// ErrMissingIndex is returned when an index directory is absent or structurally invalid.
	ErrMissingIndex = errors.New("index not found or invalid")
	// ErrEmbeddingMismatch is returned when an index is opened with a different embedding model than it was built with.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")
)

// Entry is one embedded chunk.
type Entry struct {
	ChunkID   string            `json:"chunk_id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding"`
}

// Chunk returns the entry's chunk view.
func (e Entry) Chunk() document.Chunk {
	return document.Chunk{Content: e.Content, Metadata: e.Metadata}
}

// Manifest describes a persisted index and binds it to its embedding model.
type Manifest struct {
	Version        int       `json:"version"`
	BuildID        string    `json:"build_id"`
	Format         string    `json:"format"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	ChunkCount     int       `json:"chunk_count"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	CreatedAt      time.Time `json:"created_at"`
}

// Match is an entry with its cosine similarity to a query.
type Match struct {
	Entry Entry
	Score float64
}

// Index is an immutable set of entries sharing one vector dimension. It is
// safe for concurrent searches.
type Index struct {
	manifest Manifest
	entries  []Entry
	norms    []float64
}

// New builds an in-memory index. Dimensions and ChunkCount in the manifest are
// derived from entries.
func New(entries []Entry, manifest Manifest) (*Index, error) {
	dims := 0
	norms := make([]float64, len(entries))
	for i, entry := range entries {
		if len(entry.Embedding) == 0 {
			return nil, fmt.Errorf("entry %q has no embedding", entry.ChunkID)
		}
		if dims == 0 {
			dims = len(entry.Embedding)
		} else if len(entry.Embedding) != dims {
			return nil, fmt.Errorf("entry %q has %d dimensions, expected %d", entry.ChunkID, len(entry.Embedding), dims)
		}
		norms[i] = vectorNorm(entry.Embedding)
	}
	if manifest.Dimensions != 0 && dims != 0 && manifest.Dimensions != dims {
		return nil, fmt.Errorf("manifest declares %d dimensions but entries have %d", manifest.Dimensions, dims)
	}
	if dims != 0 {
		manifest.Dimensions = dims
	}
	manifest.ChunkCount = len(entries)

	return &Index{
		manifest: manifest,
		entries:  entries,
		norms:    norms,
	}, nil
}

// Manifest returns the index metadata.
func (ix *Index) Manifest() Manifest {
	return ix.manifest
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns a copy of the entry list in insertion order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Search returns up to k entries ordered by decreasing cosine similarity to
// query. Entries scoring below minScore are dropped when minScore > 0. Ties
// keep insertion order, so repeated searches return identical results.
func (ix *Index) Search(query []float32, k int, minScore float64) ([]Match, error) {
	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}
	if len(query) != ix.manifest.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrEmbeddingMismatch, len(query), ix.manifest.Dimensions)
	}

	queryNorm := vectorNorm(query)
	matches := make([]Match, 0, len(ix.entries))
	for i, entry := range ix.entries {
		score := cosineSimilarity(query, entry.Embedding, queryNorm, ix.norms[i])
		if minScore > 0 && score < minScore {
			continue
		}
		matches = append(matches, Match{Entry: entry, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func cosineSimilarity(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	dot := 0.0
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	sum := 0.0
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}
