package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strugal/inventory-platform/internal/model"
)

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	h := RateLimit(1, 90*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000").Code)

	rec := send("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body.Error)

	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000").Code)
}

func TestRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	req.RemoteAddr = "192.0.2.7:4000"

	key, err := rateLimitKey(req)
	require.NoError(t, err)
	assert.Equal(t, "ip:192.0.2.7", key)

	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "7"))
	key, err = rateLimitKey(req)
	require.NoError(t, err)
	assert.Equal(t, "user:7", key)
}
