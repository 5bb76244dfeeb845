package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/strugal/inventory-platform/internal/model"
)

// OrderBy names a sortable inventory column.
type OrderBy string

const (
	OrderByCreatedAt OrderBy = "created_at"
	OrderByUpdatedAt OrderBy = "updated_at"
	OrderByQuantity  OrderBy = "quantity"
	OrderByType      OrderBy = "type"
)

func (o OrderBy) valid() bool {
	switch o {
	case OrderByCreatedAt, OrderByUpdatedAt, OrderByQuantity, OrderByType:
		return true
	}
	return false
}

// ListOptions controls inventory listing.
type ListOptions struct {
	OrderBy   OrderBy
	Ascending bool
}

// InventoryRepository reads and writes inventory rows.
type InventoryRepository struct {
	db  *DB
	now func() time.Time
}

// NewInventoryRepository creates a repository over db.
func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const inventoryColumns = "id, type, quantity, description, created_at, updated_at"

func scanItem(row interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := row.Scan(&item.ID, &item.Type, &item.Quantity, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new row and returns it.
func (r *InventoryRepository) Create(ctx context.Context, req *model.CreateInventoryRequest) (*model.InventoryItem, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO inventory (type, quantity, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		req.Type, req.Quantity, req.Description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns the row with id.
func (r *InventoryRepository) Get(ctx context.Context, id int64) (*model.InventoryItem, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+inventoryColumns+" FROM inventory WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// List returns all rows, newest first unless opts say otherwise.
func (r *InventoryRepository) List(ctx context.Context, opts ListOptions) ([]model.InventoryItem, error) {
	order := opts.OrderBy
	if !order.valid() {
		order = OrderByCreatedAt
	}
	direction := "DESC"
	if opts.Ascending {
		direction = "ASC"
	}

	// order is one of the whitelisted column names above.
	query := "SELECT " + inventoryColumns + " FROM inventory ORDER BY " + string(order) + " " + direction + ", id " + direction
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// Update applies the non-nil fields of req and refreshes updated_at.
func (r *InventoryRepository) Update(ctx context.Context, id int64, req *model.UpdateInventoryRequest) (*model.InventoryItem, error) {
	sets := []string{"updated_at = ?"}
	args := []any{r.now()}
	if req.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *req.Type)
	}
	if req.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *req.Quantity)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE inventory SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes the row with id.
func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM inventory WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates item counts and quantities per material type.
func (r *InventoryRepository) Stats(ctx context.Context) (*model.InventoryStats, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT type, COUNT(*), COALESCE(SUM(quantity), 0) FROM inventory GROUP BY type ORDER BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate inventory: %w", err)
	}
	defer rows.Close()

	stats := &model.InventoryStats{ByType: []model.MaterialStock{}}
	for rows.Next() {
		var s model.MaterialStock
		if err := rows.Scan(&s.Type, &s.Items, &s.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		stats.TotalItems += s.Items
		stats.TotalQuantity += s.Quantity
		stats.ByType = append(stats.ByType, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalQuantity > 0 {
		for i := range stats.ByType {
			stats.ByType[i].Percentage = float64(stats.ByType[i].Quantity) / float64(stats.TotalQuantity) * 100
		}
	}
	return stats, nil
}
