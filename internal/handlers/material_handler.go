package handlers

import (
	"net/http"
	"strconv"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
)

// MaterialHandler serves the raw material catalog and its derived views
type MaterialHandler struct {
	repo    repository.InventoryRepositoryInterface
	tracker *services.BatchTracker
	ledger  *services.StockLedger
}

func NewMaterialHandler(repo repository.InventoryRepositoryInterface, tracker *services.BatchTracker, ledger *services.StockLedger) *MaterialHandler {
	return &MaterialHandler{
		repo:    repo,
		tracker: tracker,
		ledger:  ledger,
	}
}

// CreateRawMaterial creates a new raw material
func (h *MaterialHandler) CreateRawMaterial(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.CreateRawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	material, err := h.tracker.CreateRawMaterial(c.Request.Context(), tenantID, req, userFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.RawMaterialResponse{
		Success: true,
		Data:    material,
		Message: stringPtr("Raw material created successfully"),
	})
}

// GetRawMaterial retrieves a raw material by ID
func (h *MaterialHandler) GetRawMaterial(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	material, err := h.repo.GetRawMaterialByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RawMaterialResponse{
		Success: true,
		Data:    material,
	})
}

// ListRawMaterials lists raw materials, optionally filtered by type
func (h *MaterialHandler) ListRawMaterials(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	var materialType *models.MaterialType
	if typeStr := c.Query("type"); typeStr != "" {
		mt := models.MaterialType(typeStr)
		if !models.ValidMaterialType(mt) {
			respondError(c, http.StatusBadRequest, "INVALID_TYPE", "Unknown material type")
			return
		}
		materialType = &mt
	}

	materials, total, err := h.repo.ListRawMaterials(c.Request.Context(), tenantID, materialType, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RawMaterialListResponse{
		Success:    true,
		Data:       materials,
		Pagination: paginationMeta(page, limit, total),
	})
}

// UpdateRawMaterial applies a partial update to a raw material
func (h *MaterialHandler) UpdateRawMaterial(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	material, err := h.tracker.UpdateRawMaterial(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RawMaterialResponse{
		Success: true,
		Data:    material,
		Message: stringPtr("Raw material updated successfully"),
	})
}

// GetLowStock lists aggregates at or below their minimum threshold
func (h *MaterialHandler) GetLowStock(c *gin.Context) {
	tenantID := tenantFromContext(c)

	levels, err := h.tracker.LowStockLevels(c.Request.Context(), tenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockLevelListResponse{
		Success: true,
		Data:    levels,
	})
}

// GetExpiringSoon lists batches expiring within the requested number of days
func (h *MaterialHandler) GetExpiringSoon(c *gin.Context) {
	tenantID := tenantFromContext(c)

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		days = services.DefaultExpiryLookaheadDays
	}

	batches, err := h.tracker.ExpiringSoonBatches(c.Request.Context(), tenantID, days)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockBatchListResponse{
		Success: true,
		Data:    batches,
	})
}

// GetExpired lists batches already past their expiry date
func (h *MaterialHandler) GetExpired(c *gin.Context) {
	tenantID := tenantFromContext(c)

	batches, err := h.tracker.ExpiredBatches(c.Request.Context(), tenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StockBatchListResponse{
		Success: true,
		Data:    batches,
	})
}

// ClearAll wipes the tenant's entire inventory dataset. Requires the admin
// role and the exact confirmation phrase in the request body.
func (h *MaterialHandler) ClearAll(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.ClearAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	summary, err := h.ledger.ClearAll(c.Request.Context(), tenantID, req.Confirm, roleFromContext(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    summary,
		Message: stringPtr("All inventory data cleared"),
	})
}
