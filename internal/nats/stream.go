package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/strugal/inventory-platform/internal/model"
)

const (
	// StreamName is the name of the inventory events stream.
	StreamName = "INVENTORY"

	// SubjectPrefix is the prefix for all inventory subjects.
	SubjectPrefix = "inventory"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream creates the inventory stream, or brings an existing one in
// line with streamConfig.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	if _, err := m.client.JetStream().CreateOrUpdateStream(ctx, streamConfig()); err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", StreamName, err)
	}
	return nil
}

func streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Inventory change events",
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		// Publishes carry the event ID as message ID; retries inside this
		// window are stored once.
		Duplicates: 10 * time.Minute,
	}
}

// EventSubject returns the subject for an inventory event.
func EventSubject(eventType model.EventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

// EncodeEvent serializes an event for publishing.
func EncodeEvent(event *model.InventoryEvent) (string, []byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return EventSubject(event.Type), data, nil
}

// PublishEvent publishes an inventory event to JetStream. The event ID is used
// as the message ID so redelivered publishes are deduplicated.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.InventoryEvent) error {
	subject, data, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	if _, err := m.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
