package rag

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/mwiater/panchakarma/internal/providers"
)

const bowDimensions = 64

// bowEmbedder hashes lower-cased words into a fixed number of buckets.
type bowEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (b *bowEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	vec := make([]float32, bowDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%bowDimensions]++
	}
	return vec, nil
}

func (b *bowEmbedder) ModelName() string { return "bag-of-words" }
func (b *bowEmbedder) Close() error      { return nil }

// recordingGenerator remembers every request and returns a fixed reply.
type recordingGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []providers.GenerateRequest
}

func (r *recordingGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return providers.GenerateResult{}, r.err
	}
	return providers.GenerateResult{Text: r.reply, Model: req.Model}, nil
}

func (r *recordingGenerator) Name() string { return "recording" }
func (r *recordingGenerator) Close() error { return nil }

func (r *recordingGenerator) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
