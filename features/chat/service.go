package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finsight/internal/llm"
)

const defaultTemperature = 0.7

const systemPromptFormat = `You are a helpful assistant that answers questions based on the provided context.
Only use the information from the context to answer questions.
If you cannot find the answer in the context, say so.
<context>
%s
</context>`

type Service struct {
	embedder  llm.Embedder
	searcher  Searcher
	completer llm.Completer
	topK      int
	certainty float64
}

func NewService(embedder llm.Embedder, searcher Searcher, completer llm.Completer, topK int, certainty float64) *Service {
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		topK:      topK,
		certainty: certainty,
	}
}

// Answer retrieves context for the last user message, prepends it as a
// system message, and completes the full conversation. Any stage error
// fails the request whole.
func (s *Service) Answer(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := req.Messages[len(req.Messages)-1].Content

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.searcher.Search(ctx, vector, s.topK, s.certainty)
	if err != nil {
		return nil, fmt.Errorf("search context: %w", err)
	}

	chunks := dedupeTexts(hits)
	slog.InfoContext(ctx, "context retrieved", "hits", len(hits), "unique_chunks", len(chunks))

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(systemPromptFormat, strings.Join(chunks, "\n")),
	})
	messages = append(messages, req.Messages...)

	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	completion, err := s.completer.ChatCompletion(ctx, messages, temperature)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	return &Response{
		ID:      completion.ID,
		Object:  "chat.completion",
		Created: completion.Created,
		Model:   completion.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      llm.Message{Role: completion.Role, Content: completion.Content},
			FinishReason: completion.FinishReason,
		}},
		Usage: completion.Usage,
	}, nil
}

// dedupeTexts drops hits whose text already appeared, keeping first
// occurrence order.
func dedupeTexts(hits []SearchHit) []string {
	seen := make(map[string]struct{}, len(hits))
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.Text]; ok {
			continue
		}
		seen[hit.Text] = struct{}{}
		texts = append(texts, hit.Text)
	}
	return texts
}
