package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/features/batch"
	"finsight/features/chat"
	"finsight/features/ingest"
	"finsight/internal/app"
	"finsight/internal/config"
	"finsight/internal/llm"
)

// stubLLM implements llm.Client with canned responses.
type stubLLM struct{}

func (s *stubLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (s *stubLLM) ChatCompletion(ctx context.Context, messages []llm.Message, temperature float64) (*llm.Completion, error) {
	return &llm.Completion{
		ID:           "chatcmpl-1",
		Model:        "gpt-4o-mini",
		Created:      time.Now().Unix(),
		Role:         llm.RoleAssistant,
		Content:      "answer",
		FinishReason: "stop",
	}, nil
}

func (s *stubLLM) VerbalizeTable(ctx context.Context, tableContext string, table [][]string) ([]string, error) {
	return []string{"verbalized row"}, nil
}

func (s *stubLLM) SynthesizeChunks(ctx context.Context, content string) ([]string, error) {
	return []string{content}, nil
}

// stubVectorStore implements app.VectorStore.
type stubVectorStore struct{}

func (s *stubVectorStore) UpsertPoints(ctx context.Context, points []ingest.Point) error {
	return nil
}

func (s *stubVectorStore) Search(ctx context.Context, vector []float32, limit int, certainty float64) ([]chat.SearchHit, error) {
	return []chat.SearchHit{{Text: "context chunk", Score: 0.9}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		IngestConcurrency: 10,
		SearchTopK:        10,
		SearchCertainty:   0.6,
		ServerPort:        8080,
	}
}

func newTestApp(t *testing.T) (*app.App, batch.Store) {
	t.Helper()
	store := batch.NewMemoryStore()
	application, err := app.New(testConfig(), &stubLLM{}, &stubVectorStore{}, store)
	require.NoError(t, err)
	return application, store
}

func TestHealthEndpoint(t *testing.T) {
	application, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIngestRoundTrip(t *testing.T) {
	application, store := newTestApp(t)

	body := `[{"id": "doc-1", "pre_text": ["Revenue grew."]}]`
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	batchID := accepted["batch_id"]
	require.NotEmpty(t, batchID)

	// Poll the progress endpoint until the batch completes.
	deadline := time.Now().Add(5 * time.Second)
	for {
		progress, err := store.Get(context.Background(), batchID)
		require.NoError(t, err)
		if progress.Status == batch.StatusCompleted {
			break
		}
		require.True(t, time.Now().Before(deadline), "batch never completed")
		time.Sleep(10 * time.Millisecond)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ingest/"+batchID+"/progress", nil)
	rec = httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data batch.Progress `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, batch.StatusCompleted, resp.Data.Status)
	assert.Equal(t, float64(100), resp.Data.PercentComplete)
}

func TestChatEndpoint(t *testing.T) {
	application, _ := newTestApp(t)

	body := `{"messages": [{"role": "user", "content": "what was revenue?"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat.completion", resp.Object)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "answer", resp.Choices[0].Message.Content)
}

func TestUnknownBatchProgress(t *testing.T) {
	application, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/nope/progress", nil)
	rec := httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNKNOWN_BATCH")
}

func TestCORSPreflight(t *testing.T) {
	application, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec := httptest.NewRecorder()
	application.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
