// Package service provides business logic for the inventory platform.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/model"
	"github.com/strugal/inventory-platform/internal/store"
	"github.com/strugal/inventory-platform/pkg/logger"
	"github.com/strugal/inventory-platform/pkg/metrics"
)

// Publisher delivers inventory events to subscribers.
type Publisher interface {
	PublishEvent(ctx context.Context, event *model.InventoryEvent) error
}

// InventoryRepository is the row store the service operates on.
type InventoryRepository interface {
	Create(ctx context.Context, req *model.CreateInventoryRequest) (*model.InventoryItem, error)
	Get(ctx context.Context, id int64) (*model.InventoryItem, error)
	List(ctx context.Context, opts store.ListOptions) ([]model.InventoryItem, error)
	Update(ctx context.Context, id int64, req *model.UpdateInventoryRequest) (*model.InventoryItem, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*model.InventoryStats, error)
}

// InventoryService handles inventory operations.
type InventoryService struct {
	repo      InventoryRepository
	publisher Publisher
	logger    *logger.Logger
}

// NewInventoryService creates a new inventory service. publisher may be nil.
func NewInventoryService(repo InventoryRepository, publisher Publisher, log *logger.Logger) *InventoryService {
	return &InventoryService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// List returns inventory items ordered by opts.
func (s *InventoryService) List(ctx context.Context, opts store.ListOptions) (*model.ListInventoryResponse, error) {
	items, err := s.repo.List(ctx, opts)
	metrics.RecordInventoryOperation("list", err)
	if err != nil {
		return nil, err
	}
	return &model.ListInventoryResponse{Items: items, Total: len(items)}, nil
}

// Get retrieves an inventory item by ID.
func (s *InventoryService) Get(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := s.repo.Get(ctx, id)
	metrics.RecordInventoryOperation("get", err)
	return item, err
}

// Stats returns dashboard aggregates.
func (s *InventoryService) Stats(ctx context.Context) (*model.InventoryStats, error) {
	stats, err := s.repo.Stats(ctx)
	metrics.RecordInventoryOperation("stats", err)
	return stats, err
}

// Create adds an inventory item.
func (s *InventoryService) Create(ctx context.Context, actor string, req *model.CreateInventoryRequest) (*model.InventoryItem, error) {
	item, err := s.repo.Create(ctx, req)
	metrics.RecordInventoryOperation("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory item created",
		zap.Int64("item_id", item.ID),
		zap.String("type", item.Type),
		zap.Int("quantity", item.Quantity),
		zap.String("actor", actor),
	)
	s.publish(ctx, model.EventTypeCreated, item.ID, item, actor)

	return item, nil
}

// Update applies a partial update to an inventory item.
func (s *InventoryService) Update(ctx context.Context, actor string, id int64, req *model.UpdateInventoryRequest) (*model.InventoryItem, error) {
	item, err := s.repo.Update(ctx, id, req)
	metrics.RecordInventoryOperation("update", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory item updated", zap.Int64("item_id", id), zap.String("actor", actor))
	s.publish(ctx, model.EventTypeUpdated, id, item, actor)

	return item, nil
}

// Delete removes an inventory item.
func (s *InventoryService) Delete(ctx context.Context, actor string, id int64) error {
	err := s.repo.Delete(ctx, id)
	metrics.RecordInventoryOperation("delete", err)
	if err != nil {
		return err
	}

	s.logger.Info("inventory item deleted", zap.Int64("item_id", id), zap.String("actor", actor))
	s.publish(ctx, model.EventTypeDeleted, id, nil, actor)

	return nil
}

// publish never fails the mutation that triggered it.
func (s *InventoryService) publish(ctx context.Context, eventType model.EventType, id int64, item *model.InventoryItem, actor string) {
	if s.publisher == nil {
		return
	}

	event := &model.InventoryEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		ItemID:    id,
		Item:      item,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish inventory event",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
			zap.Int64("item_id", id),
		)
	}
}
