// Package chat implements the client side of the assistant: it keeps the
// visible conversation, posts it to the relay and applies streamed deltas to
// the in-flight assistant message.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/locale"
	"github.com/strugal/inventory-platform/internal/model"
	"github.com/strugal/inventory-platform/internal/sse"
	"github.com/strugal/inventory-platform/pkg/logger"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("chat consumer closed")

// Option configures a Consumer.
type Option func(*Consumer)

// WithHTTPClient sets the HTTP client used to reach the relay.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Consumer) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for skipped events and failed turns.
func WithLogger(log *logger.Logger) Option {
	return func(c *Consumer) {
		c.logger = log
	}
}

// Consumer holds one conversation with the relay. Turns are serialized: Send
// returns OutcomeBusy while another turn is in flight.
type Consumer struct {
	endpoint   string
	httpClient *http.Client
	strings    locale.Strings
	logger     *logger.Logger
	now        func() time.Time

	mu       sync.Mutex
	messages []Message
	loading  bool
	typing   bool
	errText  string
	phase    Phase
	subs     map[int]func(Snapshot)
	nextSub  int

	// notifyMu is held while subscribers run so Close can wait them out.
	notifyMu sync.Mutex
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a consumer posting to endpoint. The history starts with the
// localized greeting.
func New(endpoint string, s locale.Strings, opts ...Option) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		strings:    s,
		logger:     logger.NewNop(),
		now:        time.Now,
		phase:      PhaseIdle,
		subs:       make(map[int]func(Snapshot)),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.messages = []Message{{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   s.Greeting,
		Timestamp: c.now(),
	}}
	return c
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. fn must not call Close.
func (c *Consumer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current state.
func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close aborts any in-flight turn and stops all notifications. When Close
// returns no subscriber is running and none will run again.
func (c *Consumer) Close() {
	c.closed.Store(true)
	c.cancel()
	c.notifyMu.Lock()
	c.notifyMu.Unlock()
}

// Send submits one user turn and blocks until the relay stream ends. The
// returned error describes the failure for rejected and failed turns.
func (c *Consumer) Send(ctx context.Context, input string) (Outcome, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return OutcomeIgnored, nil
	}
	if c.closed.Load() {
		return OutcomeIgnored, ErrClosed
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return OutcomeBusy, nil
	}
	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: c.now(),
	})
	c.loading = true
	c.typing = true
	c.errText = ""
	c.phase = PhaseRequesting
	history := c.historyLocked()
	c.mu.Unlock()
	c.notify()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	outcome, err := c.run(ctx, history)

	c.update(func() {
		c.loading = false
		c.typing = false
		c.phase = PhaseIdle
	})
	return outcome, err
}

func (c *Consumer) run(ctx context.Context, history []model.ConversationMessage) (Outcome, error) {
	resp, err := c.post(ctx, history)
	if err != nil {
		c.logger.Warn("chat request failed", zap.Error(err))
		c.setError(err.Error(), c.strings.SendFailed)
		return OutcomeFailedEmpty, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		details := rejectionDetails(resp.Body)
		c.logger.Warn("chat request rejected", zap.Int("status", resp.StatusCode), zap.String("details", details))
		c.setError(details, c.strings.ResponseError)
		return OutcomeRejected, fmt.Errorf("relay returned %d: %s", resp.StatusCode, details)
	}

	assistantID := uuid.NewString()
	c.update(func() {
		c.messages = append(c.messages, Message{
			ID:        assistantID,
			Role:      model.RoleAssistant,
			Timestamp: c.now(),
		})
		c.phase = PhaseStreaming
	})

	body := &firstByteReader{r: resp.Body, onFirst: func() {
		c.update(func() { c.typing = false })
	}}

	received, err := c.consume(body, assistantID)
	if err == nil {
		return OutcomeCompleted, nil
	}

	c.logger.Warn("chat stream failed", zap.Error(err), zap.Bool("partial", received))
	outcome := OutcomeFailedPartial
	c.update(func() {
		if !received {
			c.removeLocked(assistantID)
			outcome = OutcomeFailedEmpty
		}
		c.errText = orDefault(err.Error(), c.strings.SendFailed)
	})
	return outcome, err
}

func (c *Consumer) post(ctx context.Context, history []model.ConversationMessage) (*http.Response, error) {
	payload, err := json.Marshal(model.ChatRequest{Messages: history})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// consume applies every RelayEvent in body to the assistant message. It
// reports whether any content was applied. EOF ends the turn cleanly.
func (c *Consumer) consume(body io.Reader, assistantID string) (bool, error) {
	lines := sse.NewLineReader(body)
	received := false

	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return received, nil
		}
		if err != nil {
			return received, err
		}

		payload, ok := sse.Payload(line)
		if !ok {
			continue
		}

		var event model.RelayEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			c.logger.Warn("skipping malformed relay event", zap.Error(err))
			continue
		}
		if event.Content == "" {
			continue
		}

		received = true
		c.update(func() { c.appendLocked(assistantID, event.Content) })
	}
}

func (c *Consumer) setError(text, fallback string) {
	c.update(func() { c.errText = orDefault(text, fallback) })
}

// update applies fn under the state lock and notifies subscribers.
func (c *Consumer) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	c.notify()
}

func (c *Consumer) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Consumer) snapshotLocked() Snapshot {
	messages := make([]Message, len(c.messages))
	copy(messages, c.messages)
	return Snapshot{
		Messages: messages,
		Loading:  c.loading,
		Typing:   c.typing,
		Error:    c.errText,
		Phase:    c.phase,
	}
}

// historyLocked returns the wire form of the conversation: role and content only.
func (c *Consumer) historyLocked() []model.ConversationMessage {
	history := make([]model.ConversationMessage, len(c.messages))
	for i, m := range c.messages {
		history[i] = model.ConversationMessage{Role: m.Role, Content: m.Content}
	}
	return history
}

func (c *Consumer) appendLocked(id, content string) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Content += content
			return
		}
	}
}

func (c *Consumer) removeLocked(id string) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// rejectionDetails extracts the details field of a relay error body.
func rejectionDetails(body io.Reader) string {
	var resp model.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&resp); err != nil {
		return ""
	}
	return resp.Details
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// firstByteReader calls onFirst once, when the first byte is read.
type firstByteReader struct {
	r       io.Reader
	onFirst func()
	seen    bool
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 && !f.seen {
		f.seen = true
		f.onFirst()
	}
	return n, err
}
