package model

import (
	"time"
)

// EventType represents the type of inventory change.
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// InventoryEvent records one mutation of the inventory table.
type InventoryEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	ItemID    int64          `json:"item_id"`
	Item      *InventoryItem `json:"item,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
