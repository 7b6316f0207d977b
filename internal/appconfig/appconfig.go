// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for model requests.
	defaultRequestTimeout = 120 * time.Second
	defaultLogFile        = "panchakarma.log"
)

// Provider names accepted in configuration.
const (
	ProviderHugot  = "hugot"
	ProviderOllama = "ollama"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

// ErrConfiguration marks a missing or invalid setting detected at startup.
var ErrConfiguration = errors.New("configuration error")

// Config represents the top-level application configuration.
type Config struct {
	CorpusPath          string  `json:"corpusPath" mapstructure:"corpusPath"`
	IndexPath           string  `json:"indexPath" mapstructure:"indexPath"`
	IndexFormat         string  `json:"indexFormat" mapstructure:"indexFormat"`
	ChunkSize           int     `json:"chunkSize" mapstructure:"chunkSize"`
	ChunkOverlap        int     `json:"chunkOverlap" mapstructure:"chunkOverlap"`
	RetrievalK          int     `json:"retrievalK" mapstructure:"retrievalK"`
	SimilarityThreshold float64 `json:"similarityThreshold" mapstructure:"similarityThreshold"`

	EmbeddingProvider string `json:"embeddingProvider" mapstructure:"embeddingProvider"`
	EmbeddingModel    string `json:"embeddingModel" mapstructure:"embeddingModel"`
	EmbeddingHost     string `json:"embeddingHost,omitempty" mapstructure:"embeddingHost"`
	ModelDir          string `json:"modelDir" mapstructure:"modelDir"`
	EmbedWorkers      int    `json:"embedWorkers" mapstructure:"embedWorkers"`

	GenerationProvider string  `json:"generationProvider" mapstructure:"generationProvider"`
	GenerationModel    string  `json:"generationModel" mapstructure:"generationModel"`
	GenerationBaseURL  string  `json:"generationBaseURL,omitempty" mapstructure:"generationBaseURL"`
	Temperature        float64 `json:"temperature" mapstructure:"temperature"`
	APIKeyEnv          string  `json:"apiKeyEnv" mapstructure:"apiKeyEnv"`
	TimeoutSeconds     int     `json:"timeout,omitempty" mapstructure:"timeout"`
	RetryAttempts      int     `json:"retryAttempts" mapstructure:"retryAttempts"`

	ListenAddr string `json:"listenAddr" mapstructure:"listenAddr"`
	LogFile    string `json:"logFile,omitempty" mapstructure:"logFile"`
	Debug      bool   `json:"debug" mapstructure:"debug"`
	ConfigPath string `json:"-" mapstructure:"-"`
}

// Default returns the configuration used when neither a file nor flags
// override a setting.
func Default() Config {
	return Config{
		CorpusPath:         "data/classical",
		IndexPath:          "vector_db/classical_db",
		IndexFormat:        "jsonl",
		ChunkSize:          800,
		ChunkOverlap:       100,
		RetrievalK:         4,
		EmbeddingProvider:  ProviderHugot,
		EmbeddingModel:     "sentence-transformers/all-MiniLM-L6-v2",
		ModelDir:           "./models",
		EmbedWorkers:       4,
		GenerationProvider: ProviderGroq,
		GenerationModel:    "llama-3.1-8b-instant",
		Temperature:        0.2,
		APIKeyEnv:          "GROQ_API_KEY",
		TimeoutSeconds:     int(defaultRequestTimeout.Seconds()),
		RetryAttempts:      3,
		ListenAddr:         ":8080",
	}
}

// Validate checks the settings that must hold before any document is
// indexed or any query is served.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.CorpusPath) == "" {
		problems = append(problems, "corpusPath must be set")
	}
	if strings.TrimSpace(c.IndexPath) == "" {
		problems = append(problems, "indexPath must be set")
	}
	if c.ChunkSize <= 0 {
		problems = append(problems, "chunkSize must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		problems = append(problems, fmt.Sprintf("chunkOverlap (%d) must be in [0, chunkSize)", c.ChunkOverlap))
	}
	if c.RetrievalK <= 0 {
		problems = append(problems, "retrievalK must be positive")
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		problems = append(problems, "similarityThreshold must be within [-1, 1]")
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		problems = append(problems, "embeddingModel must be set")
	}
	if strings.TrimSpace(c.GenerationModel) == "" {
		problems = append(problems, "generationModel must be set")
	}
	switch strings.ToLower(c.EmbeddingProvider) {
	case ProviderHugot, ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown embeddingProvider %q", c.EmbeddingProvider))
	}
	switch strings.ToLower(c.GenerationProvider) {
	case ProviderGroq, ProviderOpenAI, ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown generationProvider %q", c.GenerationProvider))
	}
	switch strings.ToLower(c.IndexFormat) {
	case "", "jsonl", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unknown indexFormat %q", c.IndexFormat))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		problems = append(problems, "temperature must be within [0, 2]")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// RequiresAPIKey reports whether the generation provider needs a credential.
func (c Config) RequiresAPIKey() bool {
	switch strings.ToLower(c.GenerationProvider) {
	case ProviderGroq, ProviderOpenAI:
		return true
	}
	return false
}

// APIKey resolves the generation credential from the environment variable
// named by APIKeyEnv.
func (c Config) APIKey() (string, error) {
	if !c.RequiresAPIKey() {
		return "", nil
	}
	name := strings.TrimSpace(c.APIKeyEnv)
	if name == "" {
		return "", fmt.Errorf("%w: apiKeyEnv must name the environment variable holding the %s API key", ErrConfiguration, c.GenerationProvider)
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrConfiguration, name)
	}
	return key, nil
}

// RequestTimeout returns the timeout duration for model requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}
