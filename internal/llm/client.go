// Package llm provides the upstream chat-completion provider client.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingAPIKey is returned when the provider credential is not configured.
var ErrMissingAPIKey = errors.New("provider API key is required")

// StreamRequest is a streaming chat-completion request. Messages are forwarded
// to the provider verbatim.
type StreamRequest struct {
	Model       string
	Messages    []json.RawMessage
	MaxTokens   int
	Temperature float64
}

// Client is the interface for upstream chat providers.
type Client interface {
	// OpenStream issues a streaming completion and returns the provider's raw
	// SSE body. The caller owns the body and must close it.
	OpenStream(ctx context.Context, req *StreamRequest) (io.ReadCloser, error)

	// Name returns the provider name.
	Name() string
}

// UpstreamError is returned when the provider rejects a request before
// streaming begins.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Provider, e.Status, e.Body)
}
