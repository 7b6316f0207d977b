// internal/providerfactory/factory.go
package providerfactory

import (
	"fmt"
	"strings"

	"github.com/mwiater/panchakarma/internal/appconfig"
	"github.com/mwiater/panchakarma/internal/embedding"
	"github.com/mwiater/panchakarma/internal/logging"
	"github.com/mwiater/panchakarma/internal/providers"
	"github.com/mwiater/panchakarma/internal/providers/ollama"
	"github.com/mwiater/panchakarma/internal/providers/openai"
)

// NewGenerator selects and configures the generation backend named by the
// configuration and wraps it with bounded retry. Keyed providers fail with
// appconfig.ErrConfiguration when their credential is absent.
func NewGenerator(cfg *appconfig.Config) (providers.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var generator providers.Generator
	switch name := strings.ToLower(strings.TrimSpace(cfg.GenerationProvider)); name {
	case appconfig.ProviderGroq, appconfig.ProviderOpenAI:
		key, err := cfg.APIKey()
		if err != nil {
			return nil, err
		}
		generator = openai.New(openai.Options{
			Name:    name,
			BaseURL: generationBaseURL(name, cfg.GenerationBaseURL),
			APIKey:  key,
			Timeout: cfg.RequestTimeout(),
		})
	case appconfig.ProviderOllama:
		generator = ollama.New(generationBaseURL(name, cfg.GenerationBaseURL), cfg.RequestTimeout())
	default:
		return nil, fmt.Errorf("%w: unsupported generationProvider %q", appconfig.ErrConfiguration, cfg.GenerationProvider)
	}

	logging.LogEvent("generation provider ready: %s (%s)", generator.Name(), cfg.GenerationModel)
	return providers.WithRetry(generator, cfg.RetryAttempts), nil
}

// NewEmbedder selects the embedding backend named by the configuration.
func NewEmbedder(cfg *appconfig.Config) (embedding.Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider)) {
	case "", appconfig.ProviderHugot:
		return embedding.NewHugot(cfg.EmbeddingModel, cfg.ModelDir), nil
	case appconfig.ProviderOllama:
		return embedding.NewOllama(cfg.EmbeddingHost, cfg.EmbeddingModel, cfg.RequestTimeout()), nil
	default:
		return nil, fmt.Errorf("%w: unsupported embeddingProvider %q", appconfig.ErrConfiguration, cfg.EmbeddingProvider)
	}
}

// generationBaseURL returns the configured base URL, or the default endpoint
// of the named provider when none is set.
func generationBaseURL(provider, configured string) string {
	if url := strings.TrimSpace(configured); url != "" {
		return url
	}
	switch provider {
	case appconfig.ProviderGroq:
		return openai.DefaultGroqBaseURL
	case appconfig.ProviderOpenAI:
		return openai.DefaultOpenAIBaseURL
	case appconfig.ProviderOllama:
		return ollama.DefaultHost
	default:
		return ""
	}
}
