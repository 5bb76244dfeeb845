package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMistralEndpoint is Mistral's chat completion endpoint.
	DefaultMistralEndpoint = "https://api.mistral.ai/v1/chat/completions"

	// DefaultMistralModel is the model used when a request names none.
	DefaultMistralModel = "mistral-large-latest"
)

var tracer trace.Tracer = otel.Tracer("github.com/strugal/inventory-platform/internal/llm")

// MistralClient talks to Mistral's OpenAI-compatible chat completion API.
type MistralClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Option configures a MistralClient.
type Option func(*MistralClient)

// WithEndpoint overrides the completion endpoint URL.
func WithEndpoint(url string) Option {
	return func(c *MistralClient) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *MistralClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewMistralClient creates a new Mistral client.
func NewMistralClient(apiKey string, opts ...Option) (*MistralClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &MistralClient{
		apiKey:   apiKey,
		endpoint: DefaultMistralEndpoint,
		// No client timeout: the stream lifetime is bounded by the request context.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name.
func (c *MistralClient) Name() string {
	return "Mistral"
}

type completionBody struct {
	Model       string            `json:"model"`
	Messages    []json.RawMessage `json:"messages"`
	Stream      bool              `json:"stream"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
}

// OpenStream sends a streaming completion request.
func (c *MistralClient) OpenStream(ctx context.Context, req *StreamRequest) (io.ReadCloser, error) {
	model := req.Model
	if model == "" {
		model = DefaultMistralModel
	}

	messages := req.Messages
	if messages == nil {
		messages = []json.RawMessage{}
	}

	ctx, span := tracer.Start(ctx, "llm.OpenStream")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.Name()),
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(messages)),
	)

	payload, err := json.Marshal(completionBody{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%s request failed: %w", c.Name(), err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			body = append(body, []byte(" (body truncated: "+readErr.Error()+")")...)
		}
		upErr := &UpstreamError{Provider: c.Name(), Status: resp.StatusCode, Body: string(body)}
		span.SetStatus(codes.Error, upErr.Error())
		return nil, upErr
	}

	return resp.Body, nil
}
