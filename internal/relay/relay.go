// Package relay forwards a conversation to the upstream provider and re-frames
// its token stream as RelayEvents.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/llm"
	"github.com/strugal/inventory-platform/internal/sse"
	"github.com/strugal/inventory-platform/pkg/logger"
	"github.com/strugal/inventory-platform/pkg/metrics"
)

// ErrUpstreamStream wraps failures reading the provider body after streaming began.
var ErrUpstreamStream = errors.New("upstream stream failed")

// Outcome describes how a forwarded stream ended.
type Outcome string

const (
	// OutcomeSentinel means the provider sent its end-of-stream marker.
	OutcomeSentinel Outcome = "sentinel"
	// OutcomeEOF means the provider closed the body without a marker.
	OutcomeEOF Outcome = "eof"
	// OutcomeFailed means reading or writing failed mid-stream.
	OutcomeFailed Outcome = "failed"
)

// Sink receives each content delta as soon as it is parsed.
type Sink interface {
	Send(content string) error
}

// Result summarizes one forwarded stream.
type Result struct {
	Outcome   Outcome
	Deltas    int
	Malformed int
}

// Params are the fixed generation settings sent with every request.
type Params struct {
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Relay forwards conversations to an upstream provider.
type Relay struct {
	client llm.Client
	params Params
	logger *logger.Logger
}

// New creates a relay. client may be nil when no provider credential is
// configured; Open then fails with llm.ErrMissingAPIKey.
func New(client llm.Client, params Params, log *logger.Logger) *Relay {
	return &Relay{
		client: client,
		params: params,
		logger: log,
	}
}

// Configured reports whether an upstream client is available.
func (r *Relay) Configured() bool {
	return r.client != nil
}

// Provider returns the upstream provider name, or "" when unconfigured.
func (r *Relay) Provider() string {
	if r.client == nil {
		return ""
	}
	return r.client.Name()
}

// Augment returns a new slice with the system message first, followed by
// messages unchanged. messages itself is not modified.
func Augment(systemPrompt string, messages []json.RawMessage) ([]json.RawMessage, error) {
	system, err := json.Marshal(openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode system message: %w", err)
	}

	out := make([]json.RawMessage, 0, len(messages)+1)
	out = append(out, system)
	out = append(out, messages...)
	return out, nil
}

// Open injects the system prompt and starts the upstream stream.
func (r *Relay) Open(ctx context.Context, messages []json.RawMessage) (io.ReadCloser, error) {
	if r.client == nil {
		return nil, llm.ErrMissingAPIKey
	}

	augmented, err := Augment(r.params.SystemPrompt, messages)
	if err != nil {
		return nil, err
	}

	return r.client.OpenStream(ctx, &llm.StreamRequest{
		Model:       r.params.Model,
		Messages:    augmented,
		MaxTokens:   r.params.MaxTokens,
		Temperature: r.params.Temperature,
	})
}

// Forward reads the provider's SSE body and sends every non-empty content delta
// to sink, in arrival order. Lines that are not events are ignored and events
// that fail to parse are skipped. Forward returns at the end-of-stream marker,
// discarding anything still buffered, or when body is exhausted.
func (r *Relay) Forward(ctx context.Context, body io.Reader, sink Sink) (Result, error) {
	var res Result
	lines := sse.NewLineReader(body)

	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			res.Outcome = OutcomeEOF
			return res, nil
		}
		if err != nil {
			res.Outcome = OutcomeFailed
			return res, fmt.Errorf("%w: %w", ErrUpstreamStream, err)
		}

		payload, ok := sse.Payload(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if payload == sse.DoneSentinel {
			if tail := lines.Buffered(); tail != "" {
				r.logger.Debug("discarding bytes after end-of-stream marker", zap.Int("bytes", len(tail)))
			}
			res.Outcome = OutcomeSentinel
			return res, nil
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			res.Malformed++
			metrics.RelayMalformedEventsTotal.Inc()
			r.logger.Warn("skipping malformed upstream event", zap.Error(err))
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			res.Outcome = OutcomeFailed
			return res, fmt.Errorf("%w: %w", ErrUpstreamStream, err)
		}
		if err := sink.Send(chunk.Choices[0].Delta.Content); err != nil {
			res.Outcome = OutcomeFailed
			return res, fmt.Errorf("failed to write relay event: %w", err)
		}
		res.Deltas++
		metrics.RelayDeltasTotal.Inc()
	}
}
