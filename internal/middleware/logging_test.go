package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/strugal/inventory-platform/pkg/logger"
)

func TestLogging_CorrelationIDAndFlush(t *testing.T) {
	var corr string
	var flushable bool
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr = GetCorrelationID(r.Context())
		f, ok := w.(http.Flusher)
		flushable = ok
		w.Write([]byte("data: {}\n\n"))
		f.Flush()
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	h.ServeHTTP(rec, req)

	require.True(t, flushable)
	require.True(t, rec.Flushed)
	require.Equal(t, "corr-123", corr)
	require.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))
}

func TestLogging_GeneratesCorrelationID(t *testing.T) {
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Len(t, rec.Header().Get("X-Correlation-ID"), 36)
}

func TestRequestLevel(t *testing.T) {
	cases := []struct {
		route  string
		status int
		want   zapcore.Level
	}{
		{"/api/chat", http.StatusOK, zapcore.InfoLevel},
		{"/api/chat", http.StatusInternalServerError, zapcore.ErrorLevel},
		{"/api/v1/inventory/{id}", http.StatusNotFound, zapcore.WarnLevel},
		{"/health", http.StatusOK, zapcore.DebugLevel},
		{"/ready", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/metrics", http.StatusOK, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, requestLevel(tc.route, tc.status), "%s %d", tc.route, tc.status)
	}
}
