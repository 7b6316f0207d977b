package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/panchakarma/internal/appconfig"
	"github.com/mwiater/panchakarma/internal/document"
	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/index"
	"github.com/mwiater/panchakarma/internal/logging"
	"github.com/mwiater/panchakarma/internal/providers"
)

// Source is one retrieved passage returned with an answer.
type Source struct {
	Rank    int     `json:"rank" yaml:"rank"`
	Source  string  `json:"source" yaml:"source"`
	Page    string  `json:"page,omitempty" yaml:"page,omitempty"`
	Score   float64 `json:"score" yaml:"score"`
	Content string  `json:"content" yaml:"content"`
}

// Answer is the model output plus the chunks that grounded it.
type Answer struct {
	Text       string        `json:"answer" yaml:"answer"`
	Sources    []Source      `json:"sources" yaml:"sources"`
	NoEvidence bool          `json:"no_evidence" yaml:"no_evidence"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed"`
}

// EngineOptions tunes retrieval and generation.
type EngineOptions struct {
	K           int
	MinScore    float64
	Model       string
	Temperature float64
	// Timeout bounds one Answer call; zero means no bound beyond ctx.
	Timeout time.Duration
}

// EngineOptionsFromConfig extracts the serve-phase settings from cfg.
func EngineOptionsFromConfig(cfg *appconfig.Config) EngineOptions {
	return EngineOptions{
		K:           cfg.RetrievalK,
		MinScore:    cfg.SimilarityThreshold,
		Model:       cfg.GenerationModel,
		Temperature: cfg.Temperature,
		Timeout:     cfg.RequestTimeout(),
	}
}

// Engine answers patient cases from a loaded index. The index is read-only,
// so one Engine may serve concurrent requests.
type Engine struct {
	index     *index.Index
	embedder  embedding.Embedder
	generator providers.Generator
	opts      EngineOptions
}

// NewEngine binds an index to the embedder it was built with and a generator.
func NewEngine(ix *index.Index, embedder embedding.Embedder, generator providers.Generator, opts EngineOptions) (*Engine, error) {
	if ix == nil {
		return nil, fmt.Errorf("index is nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is nil")
	}
	if built := ix.Manifest().EmbeddingModel; built != "" && built != embedder.ModelName() {
		return nil, fmt.Errorf("%w: index built with %q, embedder is %q", index.ErrEmbeddingMismatch, built, embedder.ModelName())
	}
	if opts.K <= 0 {
		opts.K = DefaultK
	}
	return &Engine{index: ix, embedder: embedder, generator: generator, opts: opts}, nil
}

// Index returns the engine's index.
func (e *Engine) Index() *index.Index {
	return e.index
}

// AnswerQuery validates q and answers it.
func (e *Engine) AnswerQuery(ctx context.Context, q Query) (Answer, error) {
	if err := q.Validate(); err != nil {
		return Answer{}, err
	}
	return e.Answer(ctx, q.String())
}

// Answer retrieves evidence for query and asks the model for a grounded
// recommendation. When nothing is retrieved it returns NoEvidenceAnswer with
// no sources and makes no generation call. Generation failures wrap
// providers.ErrGeneration.
func (e *Engine) Answer(ctx context.Context, query string) (Answer, error) {
	start := time.Now()
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	matches, err := Retrieve(ctx, e.index, e.embedder, query, e.opts.K, e.opts.MinScore)
	if err != nil {
		return Answer{}, err
	}
	if len(matches) == 0 {
		logging.LogEvent("[ANSWER] no evidence retrieved; skipping generation")
		return Answer{Text: NoEvidenceAnswer, Sources: []Source{}, NoEvidence: true, Elapsed: time.Since(start)}, nil
	}

	prompt := BuildPrompt(FormatContext(matches), query)
	res, err := e.generator.Generate(ctx, providers.GenerateRequest{
		Model:       e.opts.Model,
		Prompt:      prompt,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		if !errors.Is(err, providers.ErrGeneration) {
			err = fmt.Errorf("%w: %w", providers.ErrGeneration, err)
		}
		return Answer{}, err
	}

	logging.LogEvent("[ANSWER] %s answered from %d sources in %s", e.generator.Name(), len(matches), time.Since(start).Truncate(time.Millisecond))
	return Answer{
		Text:    res.Text,
		Sources: sourcesFrom(matches),
		Model:   res.Model,
		Elapsed: time.Since(start),
	}, nil
}

// Close releases the embedder and generator.
func (e *Engine) Close() error {
	return errors.Join(e.embedder.Close(), e.generator.Close())
}

func sourcesFrom(matches []index.Match) []Source {
	sources := make([]Source, len(matches))
	for i, m := range matches {
		sources[i] = Source{
			Rank:    i + 1,
			Source:  m.Entry.Metadata[document.MetadataSource],
			Page:    m.Entry.Metadata[document.MetadataPage],
			Score:   m.Score,
			Content: m.Entry.Content,
		}
	}
	return sources
}
