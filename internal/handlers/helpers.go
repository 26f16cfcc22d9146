package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func stringPtr(s string) *string {
	return &s
}

// tenantFromContext returns the tenant set by the tenant middleware
func tenantFromContext(c *gin.Context) string {
	tenantID, _ := c.Get("tenant_id")
	if s, ok := tenantID.(string); ok {
		return s
	}
	return ""
}

// userFromContext returns the authenticated user, or nil when anonymous
func userFromContext(c *gin.Context) *string {
	userID, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	if s, ok := userID.(string); ok && s != "" {
		return &s
	}
	return nil
}

// roleFromContext returns the caller's role as set by the auth middleware
func roleFromContext(c *gin.Context) string {
	role, _ := c.Get("user_role")
	if s, ok := role.(string); ok {
		return s
	}
	return ""
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    code,
			Message: message,
		},
	})
}

// respondServiceError maps service and repository errors onto the response
// envelope. Insufficient stock gets its dedicated body carrying the expired
// batches the caller may dispose of.
func respondServiceError(c *gin.Context, err error) {
	var insufficientErr *services.InsufficientStockError
	if errors.As(err, &insufficientErr) {
		resp := models.InsufficientStockResponse{
			Success: false,
			Error: models.Error{
				Code:    "INSUFFICIENT_STOCK",
				Message: insufficientErr.Error(),
			},
			ExpiredBatches: insufficientErr.ExpiredBatches,
		}
		if insufficientErr.Suggestion != "" {
			resp.Suggestion = &insufficientErr.Suggestion
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Record not found")
	case errors.Is(err, services.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, "INVALID_QUANTITY", err.Error())
	case errors.Is(err, services.ErrDuplicateMaterial):
		respondError(c, http.StatusConflict, "DUPLICATE_NAME", err.Error())
	case errors.Is(err, services.ErrShelfLifeRequired):
		respondError(c, http.StatusBadRequest, "SHELF_LIFE_REQUIRED", err.Error())
	case errors.Is(err, services.ErrInvalidConfirmation):
		respondError(c, http.StatusBadRequest, "INVALID_CONFIRMATION", err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, services.ErrAlertResolved):
		respondError(c, http.StatusConflict, "ALERT_RESOLVED", err.Error())
	case errors.Is(err, services.ErrBranchNotActive):
		respondError(c, http.StatusBadRequest, "BRANCH_NOT_ACTIVE", err.Error())
	case errors.Is(err, services.ErrInvalidTimeWindow):
		respondError(c, http.StatusBadRequest, "INVALID_TIME_WINDOW", err.Error())
	case errors.Is(err, services.ErrOrderNotReceivable):
		respondError(c, http.StatusConflict, "ORDER_NOT_RECEIVABLE", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// parsePagination reads page and limit query params with sane bounds
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) *models.PaginationMeta {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// parseUUIDParam parses a path parameter as a UUID
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseUUIDQuery parses an optional UUID query parameter
func parseUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return nil, false
	}
	return &id, true
}
