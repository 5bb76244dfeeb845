package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMistralClient_RequiresKey(t *testing.T) {
	c, err := NewMistralClient("")
	require.Nil(t, c)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenStream_SendsStreamingRequest(t *testing.T) {
	var got struct {
		Model       string            `json:"model"`
		Messages    []json.RawMessage `json:"messages"`
		Stream      bool              `json:"stream"`
		MaxTokens   int               `json:"max_tokens"`
		Temperature float64           `json:"temperature"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewMistralClient("sk-test", WithEndpoint(srv.URL))
	require.NoError(t, err)

	body, err := c.OpenStream(context.Background(), &StreamRequest{
		Messages: []json.RawMessage{
			json.RawMessage(`{"role":"system","content":"sys"}`),
			json.RawMessage(`{"role":"user","content":"Bonjour","extra":1}`),
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "data: [DONE]\n\n", string(raw))

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, DefaultMistralModel, got.Model)
	require.True(t, got.Stream)
	require.Equal(t, 1000, got.MaxTokens)
	require.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	require.JSONEq(t, `{"role":"user","content":"Bonjour","extra":1}`, string(got.Messages[1]))
}

func TestOpenStream_NilMessagesEncodeAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	c, err := NewMistralClient("sk-test", WithEndpoint(srv.URL))
	require.NoError(t, err)

	body, err := c.OpenStream(context.Background(), &StreamRequest{Model: "mistral-small-latest"})
	require.NoError(t, err)
	body.Close()

	require.Equal(t, "[]", string(raw["messages"]))
	require.Equal(t, `"mistral-small-latest"`, string(raw["model"]))
}

func TestOpenStream_UpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Unauthorized"}`)
	}))
	defer srv.Close()

	c, err := NewMistralClient("sk-bad", WithEndpoint(srv.URL))
	require.NoError(t, err)

	body, err := c.OpenStream(context.Background(), &StreamRequest{})
	require.Nil(t, body)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, http.StatusUnauthorized, upErr.Status)
	require.Equal(t, `{"message":"Unauthorized"}`, upErr.Body)
	require.Equal(t, `Mistral API error: 401 {"message":"Unauthorized"}`, err.Error())
}

func TestOpenStream_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewMistralClient("sk-test", WithEndpoint(url))
	require.NoError(t, err)

	_, err = c.OpenStream(context.Background(), &StreamRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Mistral request failed")
}
