package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strugal/inventory-platform/internal/model"
)

func TestEventSubject(t *testing.T) {
	require.Equal(t, "inventory.created", EventSubject(model.EventTypeCreated))
	require.Equal(t, "inventory.deleted", EventSubject(model.EventTypeDeleted))
}

func TestEncodeEvent(t *testing.T) {
	event := &model.InventoryEvent{
		ID:        "evt-1",
		Type:      model.EventTypeUpdated,
		ItemID:    3,
		Item:      &model.InventoryItem{ID: 3, Type: model.MaterialGlass, Quantity: 8},
		Actor:     "admin",
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	subject, data, err := EncodeEvent(event)
	require.NoError(t, err)
	require.Equal(t, "inventory.updated", subject)

	var decoded model.InventoryEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, *event.Item, *decoded.Item)
	require.Equal(t, "admin", decoded.Actor)
}

func TestStreamConfig(t *testing.T) {
	cfg := streamConfig()
	require.Equal(t, StreamName, cfg.Name)
	require.Equal(t, []string{"inventory.>"}, cfg.Subjects)
	require.NotZero(t, cfg.Duplicates)
}
