// internal/commands/root.go
// Package commands wires the cobra command tree for the panchakarma binary.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/panchakarma/internal/appconfig"
	"github.com/mwiater/panchakarma/internal/logging"
)

var (
	cfgFile       string
	envFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "panchakarma",
	Short: "panchakarma: evidence-grounded Panchakarma decision support from classical texts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	err := rootCmd.ExecuteContext(context.Background())
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(appconfig.Default())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")
	flags.StringVar(&envFile, "envFile", ".env", "dotenv file holding credentials such as GROQ_API_KEY")

	def := appconfig.Default()
	flags.Bool("debug", false, "enable debug logging")
	flags.String("logFile", "", "path to the log file")
	flags.String("corpusPath", def.CorpusPath, "directory of source documents (PDF, text, markdown)")
	flags.String("indexPath", def.IndexPath, "directory holding the persisted index")
	flags.String("indexFormat", def.IndexFormat, "index storage format: jsonl or sqlite")
	flags.Int("retrievalK", def.RetrievalK, "number of passages retrieved per query")
	flags.Float64("similarityThreshold", def.SimilarityThreshold, "drop passages below this cosine similarity (0 disables)")
	flags.String("embeddingProvider", def.EmbeddingProvider, "embedding backend: hugot or ollama")
	flags.String("embeddingModel", def.EmbeddingModel, "sentence embedding model")
	flags.String("embeddingHost", "", "Ollama URL for the ollama embedding backend")
	flags.String("generationProvider", def.GenerationProvider, "generation backend: groq, openai or ollama")
	flags.String("generationModel", def.GenerationModel, "generation model")
	flags.String("generationBaseURL", "", "base URL of the generation API (empty uses the provider default)")
	flags.Float64("temperature", def.Temperature, "generation temperature")
	flags.Int("timeout", def.TimeoutSeconds, "per-request timeout in seconds")

	for _, name := range []string{
		"debug", "logFile", "corpusPath", "indexPath", "indexFormat", "retrievalK",
		"similarityThreshold", "embeddingProvider", "embeddingModel", "embeddingHost",
		"generationProvider", "generationModel", "generationBaseURL", "temperature", "timeout",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// setDefaults registers every configuration key with viper so that values
// from the config file and flags merge over them.
func setDefaults(def appconfig.Config) {
	viper.SetDefault("corpusPath", def.CorpusPath)
	viper.SetDefault("indexPath", def.IndexPath)
	viper.SetDefault("indexFormat", def.IndexFormat)
	viper.SetDefault("chunkSize", def.ChunkSize)
	viper.SetDefault("chunkOverlap", def.ChunkOverlap)
	viper.SetDefault("retrievalK", def.RetrievalK)
	viper.SetDefault("similarityThreshold", def.SimilarityThreshold)
	viper.SetDefault("embeddingProvider", def.EmbeddingProvider)
	viper.SetDefault("embeddingModel", def.EmbeddingModel)
	viper.SetDefault("embeddingHost", def.EmbeddingHost)
	viper.SetDefault("modelDir", def.ModelDir)
	viper.SetDefault("embedWorkers", def.EmbedWorkers)
	viper.SetDefault("generationProvider", def.GenerationProvider)
	viper.SetDefault("generationModel", def.GenerationModel)
	viper.SetDefault("generationBaseURL", def.GenerationBaseURL)
	viper.SetDefault("temperature", def.Temperature)
	viper.SetDefault("apiKeyEnv", def.APIKeyEnv)
	viper.SetDefault("timeout", def.TimeoutSeconds)
	viper.SetDefault("retryAttempts", def.RetryAttempts)
	viper.SetDefault("listenAddr", def.ListenAddr)
}

// initConfig reads in config file if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file leaves defaults in place.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// loadEnvFile loads credentials from a dotenv file without overriding the
// process environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// GetConfig returns the loaded application configuration.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
