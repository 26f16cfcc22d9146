package handlers

import (
	"net/http"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AlertHandler serves the stock alert lifecycle
type AlertHandler struct {
	repo   repository.InventoryRepositoryInterface
	engine *services.AlertEngine
}

func NewAlertHandler(repo repository.InventoryRepositoryInterface, engine *services.AlertEngine) *AlertHandler {
	return &AlertHandler{repo: repo, engine: engine}
}

// ListAlerts lists alerts filtered by status, type and branch
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	var status *models.AlertStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.AlertStatus(statusStr)
		status = &s
	}

	var alertType *models.AlertType
	if typeStr := c.Query("type"); typeStr != "" {
		t := models.AlertType(typeStr)
		alertType = &t
	}

	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}

	alerts, total, err := h.repo.ListAlerts(c.Request.Context(), tenantID, status, alertType, branchID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AlertListResponse{
		Success:    true,
		Data:       alerts,
		Pagination: paginationMeta(page, limit, total),
	})
}

// GetAlert retrieves one alert by ID
func (h *AlertHandler) GetAlert(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	alert, err := h.repo.GetAlertByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AlertResponse{
		Success: true,
		Data:    alert,
	})
}

// GetSummary returns alert counts grouped by status, type and branch
func (h *AlertHandler) GetSummary(c *gin.Context) {
	tenantID := tenantFromContext(c)

	summary, err := h.repo.GetAlertSummary(c.Request.Context(), tenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AlertSummaryResponse{
		Success: true,
		Data:    summary,
	})
}

// CheckAlerts runs an alert sweep. With rawMaterialId and branchId it checks
// one pair; without them it sweeps every aggregate for the tenant.
func (h *AlertHandler) CheckAlerts(c *gin.Context) {
	tenantID := tenantFromContext(c)

	materialID, ok := parseUUIDQuery(c, "rawMaterialId")
	if !ok {
		return
	}
	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}

	if (materialID == nil) != (branchID == nil) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "rawMaterialId and branchId must be provided together")
		return
	}

	if materialID != nil {
		created, err := h.engine.CheckMaterial(c.Request.Context(), tenantID, *materialID, *branchID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.AlertListResponse{
			Success: true,
			Data:    created,
		})
		return
	}

	raised, err := h.engine.AutoCheckAll(c.Request.Context(), tenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"raised": raised},
	})
}

// AcknowledgeAlert moves an active alert to acknowledged
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	h.transition(c, func(tenantID string, id uuid.UUID, by string) (*models.StockAlert, error) {
		return h.engine.Acknowledge(c.Request.Context(), tenantID, id, by)
	}, "Alert acknowledged")
}

// ResolveAlert closes an alert permanently
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	h.transition(c, func(tenantID string, id uuid.UUID, by string) (*models.StockAlert, error) {
		return h.engine.Resolve(c.Request.Context(), tenantID, id, by)
	}, "Alert resolved")
}

func (h *AlertHandler) transition(c *gin.Context, fn func(tenantID string, id uuid.UUID, by string) (*models.StockAlert, error), message string) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	by := "anonymous"
	if user := userFromContext(c); user != nil {
		by = *user
	}

	alert, err := fn(tenantID, id, by)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AlertResponse{
		Success: true,
		Data:    alert,
		Message: stringPtr(message),
	})
}

// ClearAllAlerts bulk-resolves every open alert for the tenant
func (h *AlertHandler) ClearAllAlerts(c *gin.Context) {
	tenantID := tenantFromContext(c)

	by := "anonymous"
	if user := userFromContext(c); user != nil {
		by = *user
	}

	count, err := h.engine.ClearAll(c.Request.Context(), tenantID, by)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"resolved": count},
		Message: stringPtr("All open alerts resolved"),
	})
}
