package model

import (
	"time"
)

// Seeded material types. Other types may be added by users.
const (
	MaterialAluminum = "aluminum"
	MaterialGlass    = "glass"
)

// InventoryItem is one inventory row.
type InventoryItem struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInventoryRequest is the request to add an inventory item.
type CreateInventoryRequest struct {
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

// UpdateInventoryRequest is a partial update; nil fields are left unchanged.
type UpdateInventoryRequest struct {
	Type        *string `json:"type,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ListInventoryResponse is the response for listing inventory items.
type ListInventoryResponse struct {
	Items []InventoryItem `json:"items"`
	Total int             `json:"total"`
}

// MaterialStock aggregates the quantity held for one material type.
type MaterialStock struct {
	Type       string  `json:"type"`
	Items      int     `json:"items"`
	Quantity   int     `json:"quantity"`
	Percentage float64 `json:"percentage"`
}

// InventoryStats backs the dashboard counters.
type InventoryStats struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int             `json:"total_quantity"`
	ByType        []MaterialStock `json:"by_type"`
}
