package handlers

import (
	"errors"
	"net/http"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"branch-inventory-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MenuHandler serves the menu catalog and availability checks
type MenuHandler struct {
	repo     repository.InventoryRepositoryInterface
	resolver *services.AvailabilityResolver
}

func NewMenuHandler(repo repository.InventoryRepositoryInterface, resolver *services.AvailabilityResolver) *MenuHandler {
	return &MenuHandler{repo: repo, resolver: resolver}
}

// CreateMenuItem creates a new menu item
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	tenantID := tenantFromContext(c)

	var req models.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	item := &models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if req.BasePrice != nil {
		item.BasePrice = *req.BasePrice
	}

	if err := h.repo.CreateMenuItem(c.Request.Context(), tenantID, item); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MenuItemResponse{
		Success: true,
		Data:    item,
		Message: stringPtr("Menu item created successfully"),
	})
}

// GetMenuItem retrieves a menu item with its recipe and branch windows
func (h *MenuHandler) GetMenuItem(c *gin.Context) {
	tenantID := tenantFromContext(c)
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.repo.GetMenuItemByID(c.Request.Context(), tenantID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MenuItemResponse{
		Success: true,
		Data:    item,
	})
}

// ListMenuItems lists menu items
func (h *MenuHandler) ListMenuItems(c *gin.Context) {
	tenantID := tenantFromContext(c)
	page, limit := parsePagination(c)

	items, total, err := h.repo.ListMenuItems(c.Request.Context(), tenantID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MenuItemListResponse{
		Success:    true,
		Data:       items,
		Pagination: paginationMeta(page, limit, total),
	})
}

// UpsertAvailability creates or updates the branch selling window for an item.
// Windows that cross midnight are rejected.
func (h *MenuHandler) UpsertAvailability(c *gin.Context) {
	tenantID := tenantFromContext(c)
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpsertBranchAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := services.ValidateTimeWindow(req.AvailableFrom, req.AvailableTo); err != nil {
		respondServiceError(c, err)
		return
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidFrom.After(*req.ValidUntil) {
		respondError(c, http.StatusBadRequest, "INVALID_DATE_WINDOW", "validFrom must not be after validUntil")
		return
	}

	if _, err := h.repo.GetMenuItemByID(c.Request.Context(), tenantID, itemID); err != nil {
		respondServiceError(c, err)
		return
	}

	availability, err := h.repo.GetBranchAvailability(c.Request.Context(), tenantID, itemID, req.BranchID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			respondServiceError(c, err)
			return
		}
		availability = &models.BranchAvailability{
			MenuItemID: itemID,
			BranchID:   req.BranchID,
			IsActive:   true,
			Price:      decimal.Zero,
		}
	}

	if req.IsActive != nil {
		availability.IsActive = *req.IsActive
	}
	if req.Price != nil {
		availability.Price = *req.Price
	}
	availability.ValidFrom = req.ValidFrom
	availability.ValidUntil = req.ValidUntil
	availability.AvailableFrom = req.AvailableFrom
	availability.AvailableTo = req.AvailableTo

	if err := h.repo.UpsertBranchAvailability(c.Request.Context(), tenantID, availability); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    availability,
		Message: stringPtr("Branch availability updated"),
	})
}

// UpsertRecipe replaces the recipe for a menu item
func (h *MenuHandler) UpsertRecipe(c *gin.Context) {
	tenantID := tenantFromContext(c)
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpsertRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.YieldQuantity.LessThanOrEqual(decimal.Zero) {
		respondError(c, http.StatusBadRequest, "INVALID_YIELD", "Yield quantity must be positive")
		return
	}

	if _, err := h.repo.GetMenuItemByID(c.Request.Context(), tenantID, itemID); err != nil {
		respondServiceError(c, err)
		return
	}

	recipe := &models.Recipe{
		MenuItemID:    itemID,
		YieldQuantity: req.YieldQuantity,
	}
	for _, line := range req.Items {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			respondError(c, http.StatusBadRequest, "INVALID_QUANTITY", "Recipe line quantities must be positive")
			return
		}
		if _, err := h.repo.GetRawMaterialByID(c.Request.Context(), tenantID, line.RawMaterialID); err != nil {
			respondServiceError(c, err)
			return
		}
		recipe.Items = append(recipe.Items, models.RecipeItem{
			RawMaterialID: line.RawMaterialID,
			Quantity:      line.Quantity,
		})
	}

	if err := h.repo.UpsertRecipe(c.Request.Context(), tenantID, recipe); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    recipe,
		Message: stringPtr("Recipe updated"),
	})
}

// CheckAvailability resolves whether the item is sellable at a branch,
// optionally at a specific RFC 3339 time instead of now
func (h *MenuHandler) CheckAvailability(c *gin.Context) {
	tenantID := tenantFromContext(c)
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	branchID, ok := parseUUIDQuery(c, "branchId")
	if !ok {
		return
	}
	if branchID == nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "branchId is required")
		return
	}

	var at *time.Time
	if atStr := c.Query("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_TIME", "at must be RFC 3339")
			return
		}
		at = &parsed
	}

	availability, err := h.resolver.Resolve(c.Request.Context(), tenantID, itemID, *branchID, at)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MenuItemAvailabilityResponse{
		Success: true,
		Data:    availability,
	})
}
