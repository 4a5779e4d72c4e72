package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/features/chat"
	"finsight/internal/llm"
)

// MockAnswerer implements chat.Answerer
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, req chat.Request) (*chat.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Response), args.Error(1)
}

func TestChatOK(t *testing.T) {
	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, mock.MatchedBy(func(req chat.Request) bool {
		return len(req.Messages) == 1 && req.Messages[0].Content == "what was 2020 revenue?"
	})).Return(&chat.Response{
		ID:     "chatcmpl-1",
		Object: "chat.completion",
		Model:  "gpt-4o-mini",
		Choices: []chat.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, Content: "500"},
			FinishReason: "stop",
		}},
	}, nil)

	handler := chat.NewHandler(answerer)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages": [{"role": "user", "content": "what was 2020 revenue?"}]}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp chat.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chatcmpl-1", resp.ID)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "500", resp.Choices[0].Message.Content)
}

func TestChatMalformedBody(t *testing.T) {
	handler := chat.NewHandler(new(MockAnswerer))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestChatNoMessages(t *testing.T) {
	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, mock.Anything).Return(nil, chat.ErrNoMessages)

	handler := chat.NewHandler(answerer)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages": []}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestChatServiceError(t *testing.T) {
	answerer := new(MockAnswerer)
	answerer.On("Answer", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	handler := chat.NewHandler(answerer)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"messages": [{"role": "user", "content": "q"}]}`))
	rec := httptest.NewRecorder()

	handler.Chat(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
