package handlers

import (
	"net/http"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
)

// StockHandler serves ledger mutations and ledger views
type StockHandler struct {
	repo   repository.InventoryRepositoryInterface
	ledger *services.StockLedger
}

func NewStockHandler(repo repository.InventoryRepositoryInterface, ledger *services.StockLedger) *StockHandler {
	return &StockHandler{repo: repo, ledger: ledger}
}

// StockIn receives material directly, outside the purchase order flow
func (h *StockHandler) StockIn(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.StockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	batch, err := h.ledger.StockIn(c.Request.Context(), tenantID, services.StockInInput{
		RawMaterialID:   req.RawMaterialID,
		BranchID:        req.BranchID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		ExpiryDate:      req.ExpiryDate,
		ReferenceNumber: req.ReferenceNumber,
		PerformedBy:     userFromContext(c),
		Notes:           req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    batch,
		Message: stringPtr("Stock received successfully"),
	})
}

// StockOut deducts stock in expiry-first order. A short allocation returns 400
// with the expired batches the caller may choose to dispose of via
// forceExpired.
func (h *StockHandler) StockOut(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.StockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.ledger.StockOut(c.Request.Context(), tenantID, req, userFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: stringPtr("Stock deducted successfully"),
	})
}

// AdjustStock applies a signed manual correction with a mandatory reason
func (h *StockHandler) AdjustStock(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	level, err := h.ledger.Adjust(c.Request.Context(), tenantID, req, userFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    level,
		Message: stringPtr("Stock adjusted successfully"),
	})
}

// GetStockLevels lists per-branch aggregate quantities
func (h *StockHandler) GetStockLevels(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}

	levels, total, err := h.repo.ListStockLevels(c.Request.Context(), tenantID, branchID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockLevelListResponse{
		Success:    true,
		Data:       levels,
		Pagination: paginationMeta(page, limit, total),
	})
}

// ListTransactions pages through the append-only transaction log
func (h *StockHandler) ListTransactions(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	materialID, ok := parseUUIDQuery(c, "rawMaterialId")
	if !ok {
		return
	}
	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}

	txns, total, err := h.repo.ListTransactions(c.Request.Context(), tenantID, materialID, branchID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockTransactionListResponse{
		Success:    true,
		Data:       txns,
		Pagination: paginationMeta(page, limit, total),
	})
}

// ListBatches lists non-empty batches, optionally filtered by material and branch
func (h *StockHandler) ListBatches(c *gin.Context) {
	tenantID := tenantFromContext(c)

	materialID, ok := parseUUIDQuery(c, "rawMaterialId")
	if !ok {
		return
	}
	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}

	batches, err := h.repo.ListBatches(c.Request.Context(), tenantID, materialID, branchID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockBatchListResponse{
		Success: true,
		Data:    batches,
	})
}
