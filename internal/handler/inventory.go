package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/strugal/inventory-platform/internal/middleware"
	"github.com/strugal/inventory-platform/internal/model"
	"github.com/strugal/inventory-platform/internal/service"
	"github.com/strugal/inventory-platform/internal/store"
	"github.com/strugal/inventory-platform/pkg/logger"
)

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(svc *service.InventoryService, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/inventory
// Supports ?order_by=created_at|updated_at|quantity|type and ?order=asc|desc
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		OrderBy:   store.OrderBy(r.URL.Query().Get("order_by")),
		Ascending: r.URL.Query().Get("order") == "asc",
	}

	resp, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list inventory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/v1/inventory/stats
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute inventory stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute inventory stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Get handles GET /api/v1/inventory/:id
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to get inventory item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Create handles POST /api/v1/inventory
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateCreateInventory(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.Create(r.Context(), middleware.GetUsername(r.Context()), &req)
	if err != nil {
		h.writeServiceError(w, err, "failed to create inventory item")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/v1/inventory/:id
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUpdateInventory(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.Update(r.Context(), middleware.GetUsername(r.Context()), id, &req)
	if err != nil {
		h.writeServiceError(w, err, "failed to update inventory item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/inventory/:id
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseItemID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUsername(r.Context()), id); err != nil {
		h.writeServiceError(w, err, "failed to delete inventory item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	h.logger.Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message)
}
