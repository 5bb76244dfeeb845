// Package model defines data structures for the STRUGAL inventory platform.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ConversationMessage is one role-tagged entry of a conversation.
type ConversationMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the chat relay.
type ChatRequest struct {
	Messages []ConversationMessage `json:"messages"`
}

// RelayEvent is one frame of the relay's outward stream.
type RelayEvent struct {
	Content string `json:"content"`
}

// ErrorResponse is the JSON body returned when a request fails before streaming.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
