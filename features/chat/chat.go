package chat

import (
	"context"
	"errors"

	"finsight/internal/llm"
)

var ErrNoMessages = errors.New("chat request has no messages")

// Request mirrors the OpenAI chat-completion request shape. Stream is
// accepted for client compatibility but responses are always returned
// whole.
type Request struct {
	Messages    []llm.Message `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	return nil
}

type Choice struct {
	Index        int         `json:"index"`
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Response mirrors the OpenAI chat-completion response shape.
type Response struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   llm.Usage `json:"usage"`
}

// SearchHit is one retrieved context chunk with its similarity score.
type SearchHit struct {
	Text  string
	Score float64
}

// Searcher is the vector-index read capability consumed by the chat
// service.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, certainty float64) ([]SearchHit, error)
}
