package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livepoll/internal/metrics"
	"livepoll/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"http://localhost:5173"}
	handler := CORS(config, logger.NewNop())(okHandler())

	tests := []struct {
		name         string
		method       string
		origin       string
		expectOrigin string
		expectStatus int
	}{
		{"allowed origin", http.MethodGet, "http://localhost:5173", "http://localhost:5173", http.StatusOK},
		{"unknown origin", http.MethodGet, "http://evil.example", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://localhost:5173", "http://localhost:5173", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/poll/status", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, tt.expectOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
		})
	}
}

func TestCORSConfig_OriginAllowed(t *testing.T) {
	assert.True(t, (&CORSConfig{}).OriginAllowed("http://any.example"))
	assert.True(t, (&CORSConfig{AllowedOrigins: []string{"*"}}).OriginAllowed("http://any.example"))
	assert.False(t, (&CORSConfig{AllowedOrigins: []string{"http://a.example"}}).OriginAllowed("http://b.example"))
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", supplied)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, supplied, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not a uuid")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not a uuid", seen)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	metrics.Register()
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Delete("/api/poll/participants/{participantId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/poll/participants/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
