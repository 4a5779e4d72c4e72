package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

var ErrInvalidValue = errors.New("invalid configuration value")

type Config struct {
	// Postgres is optional; when DB_HOST is empty, batch progress is
	// kept in process memory instead.
	DBHost string `envconfig:"DB_HOST" default:""`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"finsight"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"finsight"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	LLMProvider string `envconfig:"LLM_PROVIDER" default:"openai"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-ada-002"`

	GeminiAPIKey         string `envconfig:"GEMINI_API_KEY"`
	GeminiChatModel      string `envconfig:"GEMINI_CHAT_MODEL" default:"gemini-1.5-flash"`
	GeminiEmbeddingModel string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`

	VectorClass      string `envconfig:"VECTOR_CLASS" default:"FinancialChunk"`
	VectorDimensions int    `envconfig:"VECTOR_DIMENSIONS" default:"1536"`

	IngestConcurrency int     `envconfig:"INGEST_CONCURRENCY" default:"10"`
	SearchTopK        int     `envconfig:"SEARCH_TOP_K" default:"10"`
	SearchCertainty   float32 `envconfig:"SEARCH_CERTAINTY" default:"0.6"`

	// ProgressTTLMinutes evicts finished batch progress from the in-memory
	// store after the given number of minutes. 0 disables eviction.
	ProgressTTLMinutes int `envconfig:"PROGRESS_TTL_MINUTES" default:"0"`

	ServerPort    int    `envconfig:"SERVER_PORT" default:"8080"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; a missing .env is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: LLM_PROVIDER must be openai or gemini, got %q", ErrInvalidValue, c.LLMProvider)
	}

	if c.IngestConcurrency < 1 {
		return fmt.Errorf("%w: INGEST_CONCURRENCY must be at least 1", ErrInvalidValue)
	}
	if c.SearchTopK < 1 {
		return fmt.Errorf("%w: SEARCH_TOP_K must be at least 1", ErrInvalidValue)
	}
	if c.SearchCertainty < 0 || c.SearchCertainty > 1 {
		return fmt.Errorf("%w: SEARCH_CERTAINTY must be between 0 and 1", ErrInvalidValue)
	}
	if c.VectorDimensions < 1 {
		return fmt.Errorf("%w: VECTOR_DIMENSIONS must be at least 1", ErrInvalidValue)
	}
	return nil
}

// DatabaseConfigured reports whether a Postgres connection is configured.
func (c *Config) DatabaseConfigured() bool {
	return c.DBHost != ""
}
