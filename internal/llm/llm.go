// Package llm defines the contract consumed by the ingestion and chat
// features for language-model capabilities: embeddings, chat completion,
// table verbalization and chunk synthesis. Provider adapters live under
// internal/adapter.
package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the provider-neutral result of a chat completion call.
type Completion struct {
	ID           string
	Model        string
	Created      int64
	Role         string
	Content      string
	FinishReason string
	Usage        Usage
}

type Embedder interface {
	// Embed returns the embedding vector for a single text. It must fail
	// when the provider errors or returns no data.
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Completer interface {
	ChatCompletion(ctx context.Context, messages []Message, temperature float64) (*Completion, error)
}

type Verbalizer interface {
	// VerbalizeTable rewrites tabular data into self-contained sentences,
	// one per returned element. tableContext is the narrative text
	// surrounding the table.
	VerbalizeTable(ctx context.Context, tableContext string, table [][]string) ([]string, error)

	// SynthesizeChunks rewrites combined document content into
	// self-contained single-subject sentences, one per returned element.
	SynthesizeChunks(ctx context.Context, content string) ([]string, error)
}

// Client aggregates all capabilities a provider adapter must offer.
type Client interface {
	Embedder
	Completer
	Verbalizer
}
