package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"finsight/features/batch"
	"finsight/internal/adapter/gemini"
	"finsight/internal/adapter/openai"
	wstore "finsight/internal/adapter/weaviate"
	"finsight/internal/config"
	"finsight/internal/llm"
	"finsight/internal/vector"
)

type Dependencies struct {
	DB          *sql.DB
	Progress    batch.Store
	VectorStore VectorStore
	LLM         llm.Client
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// Database is optional. Without it, batch progress lives in process
	// memory and is lost on restart.
	var db *sql.DB
	var progress batch.Store
	if cfg.DatabaseConfigured() {
		var err error
		db, err = openDatabase(cfg, retryDelay)
		if err != nil {
			return nil, err
		}
		progress = batch.NewPostgresRepo(db)
	} else {
		slog.Info("no database configured, using in-memory progress store")
		progress = batch.NewMemoryStore()
	}

	// Weaviate
	wCfg := weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme}
	wClient, err := weaviate.NewClient(wCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}

	schemaClient := vector.NewWeaviateClientAdapter(wClient)
	if err := ensureSchemaWithRetry(ctx, schemaClient, cfg.VectorClass, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}

	// LLM provider
	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		DB:          db,
		Progress:    progress,
		VectorStore: wstore.NewStore(wClient, cfg.VectorClass),
		LLM:         llmClient,
	}, nil
}

func openDatabase(cfg *config.Config, retryDelay time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, fmt.Errorf("migration up error: %w", err)
	}

	return db, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.New(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.OpenAIChatModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("openai client error: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			ChatModel:      cfg.GeminiChatModel,
			EmbeddingModel: cfg.GeminiEmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client error: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

func ensureSchemaWithRetry(ctx context.Context, client vector.SchemaClient, className string, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = vector.EnsureSchema(ctx, client, className); err == nil {
			return nil
		}
		slog.Warn("failed to ensure weaviate schema, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
