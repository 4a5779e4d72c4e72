package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/panjf2000/ants/v2"

	"finsight/features/batch"
	"finsight/features/chat"
	"finsight/features/ingest"
	"finsight/internal/config"
	"finsight/internal/llm"
	"finsight/internal/middleware"
)

// VectorStore combines the vector-index capabilities the features need.
type VectorStore interface {
	ingest.PointStore
	chat.Searcher
}

type App struct {
	Handler     http.Handler
	Coordinator *ingest.Coordinator
	port        int
	pool        *ants.Pool
}

func New(cfg *config.Config, llmClient llm.Client, vecStore VectorStore, progress batch.Store) (*App, error) {
	// The pool caps concurrent document ingestion; Submit blocks once
	// the cap is reached, so a large batch never floods the providers.
	pool, err := ants.NewPool(cfg.IngestConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	// Feature: Ingest
	synthesizer := ingest.NewSynthesizer(llmClient)
	pipeline := ingest.NewPipeline(synthesizer, llmClient, vecStore)
	coordinator := ingest.NewCoordinator(pipeline, progress, pool)
	ingestHandler := ingest.NewHandler(coordinator, progress)

	// Feature: Chat
	chatService := chat.NewService(llmClient, vecStore, llmClient, cfg.SearchTopK, float64(cfg.SearchCertainty))
	chatHandler := chat.NewHandler(chatService)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("GET /api/ingest/{id}/progress", middleware.CorrelationID(enableCORS(ingestHandler.Progress)))
	mux.Handle("POST /api/chat", middleware.CorrelationID(enableCORS(chatHandler.Chat)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:     mux,
		Coordinator: coordinator,
		port:        cfg.ServerPort,
		pool:        pool,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	a.pool.Release()
	return nil
}
