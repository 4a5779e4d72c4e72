package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"finsight/internal/llm"
)

const rewriteTemperature = 0.3

type Config struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
}

// Client implements llm.Client against the Gemini API.
type Client struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	opts = append(opts, option.WithAPIKey(cfg.APIKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding request returned no data")
	}
	return res.Embedding.Values, nil
}

func (c *Client) ChatCompletion(ctx context.Context, messages []llm.Message, temperature float64) (*llm.Completion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat completion requires at least one message")
	}

	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(float32(temperature))

	// Gemini carries system messages separately from the conversation.
	var systemParts []genai.Part
	var history []*genai.Content
	for _, m := range messages[:len(messages)-1] {
		if m.Role == llm.RoleSystem {
			systemParts = append(systemParts, genai.Text(m.Content))
			continue
		}
		history = append(history, &genai.Content{
			Role:  toRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	if len(systemParts) > 0 {
		model.SystemInstruction = &genai.Content{Parts: systemParts}
	}

	last := messages[len(messages)-1]

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("chat completion returned no candidates")
	}

	cand := resp.Candidates[0]
	completion := &llm.Completion{
		ID:           "chatcmpl-" + uuid.NewString(),
		Model:        c.chatModel,
		Created:      time.Now().Unix(),
		Role:         llm.RoleAssistant,
		Content:      flattenParts(cand.Content.Parts),
		FinishReason: strings.ToLower(cand.FinishReason.String()),
	}
	if resp.UsageMetadata != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
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

func (c *Client) rewrite(ctx context.Context, systemPrompt, userPrompt string) ([]string, error) {
	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(rewriteTemperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return nil, fmt.Errorf("rewrite request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("rewrite returned no candidates")
	}

	return strings.Split(flattenParts(resp.Candidates[0].Content.Parts), "\n"), nil
}

func toRole(role string) string {
	if role == llm.RoleAssistant {
		return "model"
	}
	return "user"
}

func flattenParts(parts []genai.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if text, ok := p.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
