package handlers

import (
	"net/http"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/gin-gonic/gin"
)

// BranchHandler serves the branch directory
type BranchHandler struct {
	repo repository.InventoryRepositoryInterface
}

func NewBranchHandler(repo repository.InventoryRepositoryInterface) *BranchHandler {
	return &BranchHandler{repo: repo}
}

// CreateBranch registers a new branch
func (h *BranchHandler) CreateBranch(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	branch := &models.Branch{
		Code:     req.Code,
		Name:     req.Name,
		Status:   models.BranchStatusActive,
		Address:  req.Address,
		City:     req.City,
		Phone:    req.Phone,
		Timezone: "UTC",
		Metadata: req.Metadata,
	}
	if req.Status != nil {
		branch.Status = *req.Status
	}
	if req.Timezone != nil {
		branch.Timezone = *req.Timezone
	}

	if err := h.repo.CreateBranch(c.Request.Context(), tenantID, branch); err != nil {
		respondError(c, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create branch")
		return
	}

	c.JSON(http.StatusCreated, models.BranchResponse{
		Success: true,
		Data:    branch,
		Message: stringPtr("Branch created successfully"),
	})
}

// GetBranch retrieves a branch by ID
func (h *BranchHandler) GetBranch(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	branch, err := h.repo.GetBranchByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BranchResponse{
		Success: true,
		Data:    branch,
	})
}

// ListBranches lists branches, optionally filtered by status
func (h *BranchHandler) ListBranches(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	var status *models.BranchStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.BranchStatus(statusStr)
		status = &s
	}

	branches, total, err := h.repo.ListBranches(c.Request.Context(), tenantID, status, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BranchListResponse{
		Success:    true,
		Data:       branches,
		Pagination: paginationMeta(page, limit, total),
	})
}
