package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/panchakarma/internal/appconfig"
	"github.com/mwiater/panchakarma/internal/document"
	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/index"
	"github.com/mwiater/panchakarma/internal/logging"
)

// BuildOptions controls one run of the indexer.
type BuildOptions struct {
	CorpusPath   string
	IndexPath    string
	Format       string
	ChunkSize    int
	ChunkOverlap int
	Workers      int
}

// BuildOptionsFromConfig extracts the indexer settings from cfg.
func BuildOptionsFromConfig(cfg *appconfig.Config) BuildOptions {
	return BuildOptions{
		CorpusPath:   cfg.CorpusPath,
		IndexPath:    cfg.IndexPath,
		Format:       cfg.IndexFormat,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Workers:      cfg.EmbedWorkers,
	}
}

// BuildReport summarises a completed build.
type BuildReport struct {
	document.LoadReport
	Chunks   int
	BuildID  string
	Duration time.Duration
}

// Build loads every supported file in opts.CorpusPath, splits the pages into
// overlapping chunks, embeds them in order and persists the index to
// opts.IndexPath. Files that fail to parse are skipped and listed in the
// report. A corpus with no usable text fails with ErrEmptyCorpus.
func Build(ctx context.Context, opts BuildOptions, embedder embedding.Embedder) (*index.Index, BuildReport, error) {
	var report BuildReport
	if embedder == nil {
		return nil, report, fmt.Errorf("embedder is nil")
	}
	if strings.TrimSpace(opts.CorpusPath) == "" {
		return nil, report, fmt.Errorf("corpus path is required")
	}
	if strings.TrimSpace(opts.IndexPath) == "" {
		return nil, report, fmt.Errorf("index path is required")
	}
	format, err := index.NormalizeFormat(opts.Format)
	if err != nil {
		return nil, report, err
	}
	splitter, err := document.NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, report, err
	}

	status := logging.NewReporter()
	status.Status("[INDEX] Loading documents from: %s", opts.CorpusPath)

	docs, loadReport, err := document.LoadDirectory(opts.CorpusPath)
	report.LoadReport = loadReport
	if err != nil {
		return nil, report, err
	}
	for _, failure := range loadReport.Failures {
		status.Warn("[INDEX] Skipped %s: %v", failure.File, failure.Err)
	}
	status.Status("[INDEX] Files loaded: %d, failed: %d", loadReport.Files, len(loadReport.Failures))
	status.Status("[INDEX] Total pages loaded: %d", loadReport.Pages)
	if len(docs) == 0 {
		return nil, report, fmt.Errorf("%w: no extractable text in %s (%d files failed)", ErrEmptyCorpus, opts.CorpusPath, len(loadReport.Failures))
	}

	chunks := splitter.SplitDocuments(docs)
	report.Chunks = len(chunks)
	status.Status("[INDEX] Total chunks created: %d", len(chunks))
	if len(chunks) == 0 {
		return nil, report, fmt.Errorf("%w: splitting %s produced no chunks", ErrEmptyCorpus, opts.CorpusPath)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	status.Status("[INDEX] Embedding %d chunks with %s", len(texts), embedder.ModelName())
	step := max(len(texts)/10, 1)
	vectors, err := embedding.EmbedAll(ctx, embedder, texts, opts.Workers, func(done, total int) {
		if done%step == 0 || done == total {
			status.Status("[INDEX] Embedded %d/%d chunks", done, total)
		}
	})
	if err != nil {
		return nil, report, fmt.Errorf("embed corpus: %w", err)
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{
			ChunkID:   chunkID(c, i),
			Content:   c.Content,
			Metadata:  c.Metadata,
			Embedding: vectors[i],
		}
	}

	report.BuildID = uuid.NewString()
	ix, err := index.New(entries, index.Manifest{
		BuildID:        report.BuildID,
		Format:         format,
		EmbeddingModel: embedder.ModelName(),
		ChunkSize:      opts.ChunkSize,
		ChunkOverlap:   opts.ChunkOverlap,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return nil, report, err
	}

	if err := os.MkdirAll(filepath.Dir(opts.IndexPath), 0o755); err != nil {
		return nil, report, fmt.Errorf("create index parent directory: %w", err)
	}
	if err := index.Save(ix, opts.IndexPath); err != nil {
		return nil, report, fmt.Errorf("save index: %w", err)
	}

	report.Duration = status.Elapsed()
	status.Status("[INDEX] Index saved to: %s (%s, %d dimensions)", opts.IndexPath, format, ix.Manifest().Dimensions)
	return ix, report, nil
}

// EnsureIndex loads the index at opts.IndexPath, building it from the corpus
// first when no index exists there yet.
func EnsureIndex(ctx context.Context, opts BuildOptions, embedder embedding.Embedder) (*index.Index, error) {
	if !index.Exists(opts.IndexPath) {
		logging.LogEvent("[INDEX] No index at %s; building from %s", opts.IndexPath, opts.CorpusPath)
		if _, _, err := Build(ctx, opts, embedder); err != nil {
			return nil, err
		}
	}
	return index.Load(opts.IndexPath, embedder.ModelName())
}

func chunkID(c document.Chunk, position int) string {
	page := c.Metadata[document.MetadataPage]
	if page == "" {
		return fmt.Sprintf("%s:%d", c.Source(), position)
	}
	return fmt.Sprintf("%s:p%s:%d", c.Source(), page, position)
}
