package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
)

// stubAssistant implements driving.Assistant for handler tests.
type stubAssistant struct {
	answer   domain.Answer
	err      error
	question string
	history  []domain.ChatTurn
}

func (s *stubAssistant) Answer(_ context.Context, question string, history []domain.ChatTurn) (domain.Answer, error) {
	s.question = question
	s.history = history
	if s.err != nil {
		return domain.Answer{}, s.err
	}
	if strings.TrimSpace(question) == "" {
		return domain.Answer{}, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	return s.answer, nil
}

func doChat(t *testing.T, assistant *stubAssistant, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(assistant)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChat_OK(t *testing.T) {
	assistant := &stubAssistant{answer: domain.Answer{
		Text: "Sensors measure the world.",
		Citations: []domain.Citation{
			{Title: "Sensors", LessonID: "l1"},
		},
	}}

	rec := doChat(t, assistant, `{"question":"What do sensors do?","history":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What do sensors do?", assistant.question)
	require.Len(t, assistant.history, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Sensors measure the world.", got["message"])
	assert.Equal(t, false, got["degraded"])
	sources, ok := got["sources"].([]any)
	require.True(t, ok)
	require.Len(t, sources, 1)
	first := sources[0].(map[string]any)
	assert.Equal(t, "Sensors", first["title"])
	assert.Equal(t, "l1", first["lessonId"])
}

func TestChat_DegradedIsStill200(t *testing.T) {
	assistant := &stubAssistant{answer: domain.Answer{
		Text:     "The assistant is offline, try later.",
		Degraded: true,
	}}

	rec := doChat(t, assistant, `{"question":"anything"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Degraded)
	assert.NotEmpty(t, got.Text)
}

func TestChat_EmptyQuestionIs400(t *testing.T) {
	rec := doChat(t, &stubAssistant{}, `{"question":"  "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var got errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Error)
}

func TestChat_MalformedBodyIs400(t *testing.T) {
	rec := doChat(t, &stubAssistant{}, `{"question":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_RequestIDEchoedAndGenerated(t *testing.T) {
	assistant := &stubAssistant{answer: domain.Answer{Text: "ok"}}
	srv := New(assistant)

	// Caller-provided ID is echoed.
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	// Otherwise one is generated.
	req = httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthz(t *testing.T) {
	srv := New(&stubAssistant{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
