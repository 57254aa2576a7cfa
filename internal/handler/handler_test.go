package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livepoll/internal/config"
	"livepoll/internal/container"
	"livepoll/internal/domain"
	"livepoll/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Environment:         "test",
		RetainDepartedVotes: true,
		IntentRatePerSecond: 1000,
		IntentBurst:         1000,
		SendQueueSize:       64,
		PingInterval:        30 * time.Second,
		RoundQueueSize:      4,
	}
}

func newTestContainer(t *testing.T, cfg *config.Config) *container.Container {
	t.Helper()
	c, err := container.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error struct {
		Type      string                 `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPollHandler_QuestionLifecycle(t *testing.T) {
	c := newTestContainer(t, testConfig())
	router := NewRouter(c)

	rec := doRequest(t, router, http.MethodGet, "/api/poll/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status domain.SessionStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.StateIdle, status.State)

	ask := domain.AskQuestionRequest{Text: "Red planet?", Options: []string{"Mars", "Venus"}, TimeLimitSeconds: 30}
	rec = doRequest(t, router, http.MethodPost, "/api/poll/questions", ask)
	require.Equal(t, http.StatusCreated, rec.Code)
	var q domain.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, int64(1), q.ID)
	assert.Equal(t, []string{"Mars", "Venus"}, q.Options)

	rec = doRequest(t, router, http.MethodPost, "/api/poll/questions", ask)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "question_already_active", decodeError(t, rec).Error.Details["kind"])

	rec = doRequest(t, router, http.MethodGet, "/api/poll/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, domain.StateActive, status.State)
	assert.Equal(t, 30, status.RemainingSeconds)

	rec = doRequest(t, router, http.MethodPost, "/api/poll/end", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/poll/end", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_active_question", decodeError(t, rec).Error.Details["kind"])

	rec = doRequest(t, router, http.MethodGet, "/api/poll/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Entries, 1)
	assert.Equal(t, domain.ResolvedByPresenter, history.Entries[0].Reason)
}

func TestPollHandler_AskQuestionValidation(t *testing.T) {
	router := NewRouter(newTestContainer(t, testConfig()))

	tests := []struct {
		name string
		body interface{}
		kind interface{}
	}{
		{
			name: "single option",
			body: domain.AskQuestionRequest{Text: "Q", Options: []string{"only"}, TimeLimitSeconds: 10},
			kind: "invalid_question",
		},
		{
			name: "time limit out of range",
			body: domain.AskQuestionRequest{Text: "Q", Options: []string{"A", "B"}, TimeLimitSeconds: 5},
			kind: "invalid_question",
		},
		{
			name: "malformed body",
			body: "not an object",
			kind: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/poll/questions", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "validation", body.Error.Type)
			assert.Equal(t, tt.kind, body.Error.Details["kind"])
			assert.NotEmpty(t, body.Error.RequestID)
		})
	}
}

func TestPollHandler_RemoveUnknownParticipant(t *testing.T) {
	router := NewRouter(newTestContainer(t, testConfig()))

	rec := doRequest(t, router, http.MethodDelete, "/api/poll/participants/ghost", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_participant", decodeError(t, rec).Error.Details["kind"])
}

func TestPollHandler_HistoryETag(t *testing.T) {
	router := NewRouter(newTestContainer(t, testConfig()))

	rec := doRequest(t, router, http.MethodGet, "/api/poll/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/poll/history", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	router.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
}

func TestHealthHandler(t *testing.T) {
	router := NewRouter(newTestContainer(t, testConfig()))

	rec := doRequest(t, router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "livepoll", resp.Service)
	assert.Equal(t, "disabled", resp.Components["redis"])
	assert.Equal(t, "disabled", resp.Components["postgres"])
	assert.Equal(t, domain.StateIdle, resp.Session.State)
	assert.Zero(t, resp.Session.Connections)
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	router := NewRouter(newTestContainer(t, testConfig()))

	rec := doRequest(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Type)

	rec = doRequest(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "livepoll_http_requests_total")
}
