package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finsight/internal/middleware"
)

// Answerer produces a completion for a chat request.
type Answerer interface {
	Answer(ctx context.Context, req Request) (*Response, error)
}

type Handler struct {
	service Answerer
}

func NewHandler(service Answerer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.service.Answer(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrNoMessages) {
			h.writeError(r.Context(), w, "VALIDATION_ERROR", "at least one message is required", http.StatusBadRequest)
			return
		}
		slog.Error("chat request failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
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
