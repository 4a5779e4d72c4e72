package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"finsight/internal/llm"
)

// Lower temperature for the structured rewrite tasks (verbalization and
// chunk synthesis) than for free-form chat.
const rewriteTemperature = 0.3

type Config struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

// Client implements llm.Client against an OpenAI-compatible API.
type Client struct {
	model     llms.Model
	embedder  embeddings.Embedder
	chatModel string
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.ChatModel),
		lcopenai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	return &Client{
		model:     client,
		embedder:  embedder,
		chatModel: cfg.ChatModel,
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding request returned no data")
	}
	return vec, nil
}

func (c *Client) ChatCompletion(ctx context.Context, messages []llm.Message, temperature float64) (*llm.Completion, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.MessageContent{
			Role:  toRole(m.Role),
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(temperature))
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.Completion{
		ID:           "chatcmpl-" + uuid.NewString(),
		Model:        c.chatModel,
		Created:      time.Now().Unix(),
		Role:         llm.RoleAssistant,
		Content:      choice.Content,
		FinishReason: choice.StopReason,
		Usage: llm.Usage{
			PromptTokens:     intFromInfo(choice.GenerationInfo, "PromptTokens"),
			CompletionTokens: intFromInfo(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:      intFromInfo(choice.GenerationInfo, "TotalTokens"),
		},
	}, nil
}

func (c *Client) VerbalizeTable(ctx context.Context, tableContext string, table [][]string) ([]string, error) {
	rows := make([]string, 0, len(table))
	for _, row := range table {
		rows = append(rows, strings.Join(row, ","))
	}

	user := fmt.Sprintf("Context: %s\nTable:\n%s", tableContext, strings.Join(rows, "\n"))
	return c.rewrite(ctx, llm.TableSystemPrompt, user)
}

func (c *Client) SynthesizeChunks(ctx context.Context, content string) ([]string, error) {
	return c.rewrite(ctx, llm.ChunkSystemPrompt, content)
}

// rewrite runs a system+user prompt and returns the response split into
// lines. Blank-line filtering is left to the caller.
func (c *Client) rewrite(ctx context.Context, systemPrompt, userPrompt string) ([]string, error) {
	content := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(systemPrompt)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(userPrompt)}},
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(rewriteTemperature))
	if err != nil {
		return nil, fmt.Errorf("rewrite request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("rewrite returned no choices")
	}

	return strings.Split(resp.Choices[0].Content, "\n"), nil
}

func toRole(role string) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func intFromInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	if v, ok := info[key].(int); ok {
		return v
	}
	if v, ok := info[key].(float64); ok {
		return int(v)
	}
	return 0
}
