package handlers

import (
	"context"
	"net/http"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderHandler serves the purchase order intake flow
type PurchaseOrderHandler struct {
	repo    repository.InventoryRepositoryInterface
	service *services.PurchaseOrders
}

func NewPurchaseOrderHandler(repo repository.InventoryRepositoryInterface, service *services.PurchaseOrders) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{repo: repo, service: service}
}

// CreatePurchaseOrder books a new draft order
func (h *PurchaseOrderHandler) CreatePurchaseOrder(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	po, err := h.service.Create(c.Request.Context(), tenantID, req, userFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.PurchaseOrderResponse{
		Success: true,
		Data:    po,
		Message: stringPtr("Purchase order created successfully"),
	})
}

// GetPurchaseOrder retrieves one order with its lines
func (h *PurchaseOrderHandler) GetPurchaseOrder(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	po, err := h.repo.GetPurchaseOrderByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    po,
	})
}

// ListPurchaseOrders lists orders, optionally filtered by status
func (h *PurchaseOrderHandler) ListPurchaseOrders(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	var status *models.PurchaseOrderStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.PurchaseOrderStatus(statusStr)
		status = &s
	}

	orders, total, err := h.repo.ListPurchaseOrders(c.Request.Context(), tenantID, status, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: paginationMeta(page, limit, total),
	})
}

// SubmitPurchaseOrder moves a draft to submitted
func (h *PurchaseOrderHandler) SubmitPurchaseOrder(c *gin.Context) {
	h.statusChange(c, h.service.Submit, "Purchase order submitted")
}

// CancelPurchaseOrder voids an unreceived order
func (h *PurchaseOrderHandler) CancelPurchaseOrder(c *gin.Context) {
	h.statusChange(c, h.service.Cancel, "Purchase order cancelled")
}

// ReceivePurchaseOrder books every line into stock and marks the order received
func (h *PurchaseOrderHandler) ReceivePurchaseOrder(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	po, err := h.service.Receive(c.Request.Context(), tenantID, id, userFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    po,
		Message: stringPtr("Purchase order received"),
	})
}

func (h *PurchaseOrderHandler) statusChange(c *gin.Context, fn func(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error), message string) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	po, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PurchaseOrderResponse{
		Success: true,
		Data:    po,
		Message: stringPtr(message),
	})
}
