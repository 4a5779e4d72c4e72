package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finsight/features/batch"
	"finsight/internal/middleware"
)

// ProgressReader is the read side of batch progress used by the
// handler.
type ProgressReader interface {
	Get(ctx context.Context, batchID string) (*batch.Progress, error)
}

// BatchSubmitter accepts a batch of documents for background
// processing.
type BatchSubmitter interface {
	Submit(ctx context.Context, docs []FinancialDocument) (string, error)
}

type Handler struct {
	submitter BatchSubmitter
	progress  ProgressReader
}

func NewHandler(submitter BatchSubmitter, progress ProgressReader) *Handler {
	return &Handler{submitter: submitter, progress: progress}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var docs []FinancialDocument
	if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	batchID, err := h.submitter.Submit(r.Context(), docs)
	if err != nil {
		if errors.Is(err, ErrEmptyBatch) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "at least one document is required", http.StatusBadRequest)
			return
		}
		slog.Error("batch submit failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"batch_id": batchID,
		"message":  "Batch ingestion started",
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	progress, err := h.progress.Get(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, batch.ErrNotFound) {
			h.writeError(r.Context(), w, "UNKNOWN_BATCH", "Batch not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": progress}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
