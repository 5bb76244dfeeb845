package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/llm"
	"github.com/strugal/inventory-platform/internal/middleware"
	"github.com/strugal/inventory-platform/internal/model"
	"github.com/strugal/inventory-platform/internal/relay"
	"github.com/strugal/inventory-platform/internal/sse"
	"github.com/strugal/inventory-platform/pkg/logger"
	"github.com/strugal/inventory-platform/pkg/metrics"
)

// ChatHandler relays chat conversations to the upstream provider.
type ChatHandler struct {
	relay       *relay.Relay
	maxDuration time.Duration
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler. maxDuration bounds the whole
// request, including the streamed response.
func NewChatHandler(r *relay.Relay, maxDuration time.Duration, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		relay:       r,
		maxDuration: maxDuration,
		logger:      log,
	}
}

// chatRequest keeps messages raw so client input reaches the provider untouched.
type chatRequest struct {
	Messages []json.RawMessage `json:"messages"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.relay.Configured() {
		writeErrorDetails(w, http.StatusInternalServerError, "API key not configured", "MISTRAL_API_KEY is not set")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.maxDuration)
	defer cancel()

	log := h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUsername(ctx))
	start := time.Now()

	body, err := h.relay.Open(ctx, req.Messages)
	if err != nil {
		status := 0
		var upErr *llm.UpstreamError
		if errors.As(err, &upErr) {
			status = upErr.Status
		}
		metrics.RecordUpstreamError(h.relay.Provider(), status)
		log.Error("chat request failed", zap.Error(err), zap.Int("messages", len(req.Messages)))
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to process chat request", err.Error())
		return
	}
	defer body.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.IncrementStreams()
	defer metrics.DecrementStreams()

	out := newOutStream(w, flusher)
	res, err := h.relay.Forward(ctx, body, out)
	metrics.RecordRelayStream(string(res.Outcome), time.Since(start).Seconds())

	if err != nil {
		out.Fail(err)
		log.Warn("chat stream aborted",
			zap.Error(err),
			zap.Int("deltas", res.Deltas),
			zap.Int("malformed", res.Malformed),
			zap.Duration("duration", time.Since(start)),
		)
		// Abort so the client sees a broken body rather than a clean end.
		panic(http.ErrAbortHandler)
	}

	out.Close()
	log.Info("chat stream completed",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("deltas", res.Deltas),
		zap.Int("malformed", res.Malformed),
		zap.Duration("duration", time.Since(start)),
	)
}

var errStreamClosed = errors.New("stream already closed")

// outStream writes RelayEvent frames and is closed exactly once, either
// cleanly or with an error.
type outStream struct {
	w       http.ResponseWriter
	flusher http.Flusher

	once   sync.Once
	closed bool
	err    error
}

func newOutStream(w http.ResponseWriter, flusher http.Flusher) *outStream {
	return &outStream{w: w, flusher: flusher}
}

// Send writes one frame and flushes it.
func (s *outStream) Send(content string) error {
	if s.closed {
		return errStreamClosed
	}
	frame, err := sse.EncodeEvent(model.RelayEvent{Content: content})
	if err != nil {
		return err
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close ends the stream cleanly. Later calls to Close or Fail do nothing.
func (s *outStream) Close() {
	s.finish(nil)
}

// Fail ends the stream with err. Later calls to Close or Fail do nothing.
func (s *outStream) Fail(err error) {
	s.finish(err)
}

func (s *outStream) finish(err error) {
	s.once.Do(func() {
		s.closed = true
		s.err = err
	})
}

// Err returns the error the stream was failed with, if any.
func (s *outStream) Err() error {
	return s.err
}
