package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/panchakarma/internal/appconfig"
	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/index"
	"github.com/mwiater/panchakarma/internal/providerfactory"
	"github.com/mwiater/panchakarma/internal/rag"
)

// requireConfig returns the validated configuration.
func requireConfig() (*appconfig.Config, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", appconfig.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openIndex loads the configured index, building it first when absent.
func openIndex(ctx context.Context, cfg *appconfig.Config) (*index.Index, embedding.Embedder, error) {
	embedder, err := providerfactory.NewEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	ix, err := rag.EnsureIndex(ctx, rag.BuildOptionsFromConfig(cfg), embedder)
	if err != nil {
		_ = embedder.Close()
		return nil, nil, err
	}
	return ix, embedder, nil
}

// openEngine validates configuration and credentials, then loads or builds
// the index and binds it to the configured models. Credentials are checked
// before any index work.
func openEngine(ctx context.Context) (*rag.Engine, *index.Index, error) {
	cfg, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	generator, err := providerfactory.NewGenerator(cfg)
	if err != nil {
		return nil, nil, err
	}
	ix, embedder, err := openIndex(ctx, cfg)
	if err != nil {
		_ = generator.Close()
		return nil, nil, err
	}
	engine, err := rag.NewEngine(ix, embedder, generator, rag.EngineOptionsFromConfig(cfg))
	if err != nil {
		return nil, nil, errors.Join(err, embedder.Close(), generator.Close())
	}
	return engine, ix, nil
}
