package chat

import (
	"time"

	"github.com/strugal/inventory-platform/internal/model"
)

// Message is one entry of the visible conversation.
type Message struct {
	ID        string
	Role      model.Role
	Content   string
	Timestamp time.Time
}

// Phase is the consumer's position within a turn.
type Phase string

const (
	// PhaseIdle means no turn is in flight.
	PhaseIdle Phase = "idle"
	// PhaseRequesting means the request is sent and no response has arrived.
	PhaseRequesting Phase = "requesting"
	// PhaseStreaming means the assistant message is receiving deltas.
	PhaseStreaming Phase = "streaming"
)

// Outcome describes how a call to Send ended.
type Outcome string

const (
	// OutcomeIgnored means the input was blank or the consumer is closed.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeBusy means another turn was in flight and no request was made.
	OutcomeBusy Outcome = "busy"
	// OutcomeRejected means the relay answered with a non-2xx status.
	OutcomeRejected Outcome = "rejected"
	// OutcomeCompleted means the stream ended cleanly.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailedEmpty means the turn failed before any content arrived.
	OutcomeFailedEmpty Outcome = "failed_empty"
	// OutcomeFailedPartial means the turn failed after content arrived; the
	// partial assistant message is kept.
	OutcomeFailedPartial Outcome = "failed_partial"
)

// Snapshot is an immutable view of consumer state.
type Snapshot struct {
	Messages []Message
	Loading  bool
	Typing   bool
	Error    string
	Phase    Phase
}

// Last returns the most recent message, or false when there is none.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
