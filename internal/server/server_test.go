package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/engine"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/llm"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/store"
	"github.com/manwithoutsleep/basic-ai-chatbot/internal/types"
)

func newTestServer(t *testing.T, scripted *llm.ScriptedClient) *Server {
	t.Helper()
	n := 0
	eng := engine.New(store.NewMemory(), scripted,
		engine.WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
		engine.WithIDGenerator(func() string { n++; return fmt.Sprintf("sess-%d", n) }),
	)
	return New(eng, Config{Port: 0})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestCreateAndGetSession(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "sess-1", created.ID)
	assert.Equal(t, types.StageIntroduction, created.CurrentStage)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/sessions/sess-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessions(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []sessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "sess-1", summaries[0].ID)
	assert.Equal(t, types.StatusActive, summaries[0].Status)
	assert.Zero(t, summaries[0].Turns)
	assert.Zero(t, summaries[0].Progress)
}

func TestTurn(t *testing.T) {
	scripted := llm.NewScriptedClient(
		`{"reply": "Welcome aboard!", "themes": [{"tag": "passion_learning", "confidence": 0.6}]}`,
	)
	srv := newTestServer(t, scripted)
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/turns", map[string]string{"input": "Hi there"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var turn turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, "Welcome aboard!", turn.Reply)
	assert.True(t, turn.Advanced)
	assert.Equal(t, types.StageSkills, turn.Stage)
	assert.NotEmpty(t, turn.NextQuestion)
	assert.Nil(t, turn.Profile)
}

func TestTurn_Validation(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/turns", map[string]string{"input": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess-1/turns", bytes.NewBufferString("{broken"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurn_ProviderOutage(t *testing.T) {
	scripted := llm.NewScriptedClient()
	scripted.QueueError(&llm.TransientError{Op: "generate", Cause: fmt.Errorf("overloaded")})
	srv := newTestServer(t, scripted)
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/turns", map[string]string{"input": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAbandonAndConflict(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/abandon", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session types.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, types.StatusAbandoned, session.Status)

	// Abandoning again and taking turns both conflict with the closed state.
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/abandon", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/sessions/sess-1/turns", map[string]string{"input": "hi"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetProfile(t *testing.T) {
	srv := newTestServer(t, llm.NewScriptedClient())
	doJSON(t, srv.Handler(), http.MethodPost, "/sessions", nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/sessions/sess-1/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no profile before completion")

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/sessions/unknown/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&store.NotFoundError{ID: "x"}, http.StatusNotFound},
		{&store.StaleWriteError{ID: "x"}, http.StatusConflict},
		{&engine.SessionClosedError{ID: "x", Status: types.StatusCompleted}, http.StatusConflict},
		{&engine.InvalidTransitionError{ID: "x"}, http.StatusUnprocessableEntity},
		{&llm.TransientError{Op: "generate"}, http.StatusServiceUnavailable},
		{&llm.FatalError{Op: "generate"}, http.StatusBadGateway},
		{&ErrValidation{Field: "input"}, http.StatusBadRequest},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%T", tt.err)
	}
}
