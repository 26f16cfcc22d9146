package services

import (
	"context"
	"testing"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

type availabilityFixture struct {
	mockRepo *MockInventoryRepository
	resolver *AvailabilityResolver
	itemID   uuid.UUID
	branchID uuid.UUID
	item     *models.MenuItem
}

func newAvailabilityFixture() *availabilityFixture {
	mockRepo := new(MockInventoryRepository)
	itemID := uuid.New()
	return &availabilityFixture{
		mockRepo: mockRepo,
		resolver: NewAvailabilityResolver(mockRepo, nil),
		itemID:   itemID,
		branchID: uuid.New(),
		item:     &models.MenuItem{ID: itemID, Name: "Margherita"},
	}
}

func TestAvailabilityResolver_NotOfferedAtBranch(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(nil, repository.ErrNotFound)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonNotOffered, result.Reason)
}

func TestAvailabilityResolver_InactiveRecord(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: false}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonInactive, result.Reason)
}

func TestAvailabilityResolver_OutsideValidityDates(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	starts := at.AddDate(0, 0, 7)

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true, ValidFrom: &starts}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, &at)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonOutsideValidityDates, result.Reason)
}

func TestAvailabilityResolver_SellableThroughLastValidityDay(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	// ValidUntil stored as a date (midnight); mid-day on that date is still in
	// the window, the next morning is not
	until := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	midDay := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true, ValidUntil: &until}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(nil, repository.ErrNotFound)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, &midDay)
	assert.NoError(t, err)
	assert.True(t, result.Available)

	result, err = f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, &nextDay)
	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonOutsideValidityDates, result.Reason)
}

func TestAvailabilityResolver_OutsideServingHours(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	// 09:30 branch-local, lunch window starts at 11:00
	at := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{
			IsActive:      true,
			AvailableFrom: strPtr("11:00"),
			AvailableTo:   strPtr("22:00"),
		}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(&models.Branch{ID: f.branchID, Timezone: "UTC"}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, &at)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonOutsideServingHours, result.Reason)
}

func TestAvailabilityResolver_ServingHoursUseBranchTimezone(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	// 20:00 UTC is 05:00 the next day in Tokyo, outside an evening window
	at := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{
			IsActive:      true,
			AvailableFrom: strPtr("17:00"),
			AvailableTo:   strPtr("23:00"),
		}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(&models.Branch{ID: f.branchID, Timezone: "Asia/Tokyo"}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, &at)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonOutsideServingHours, result.Reason)
}

func TestAvailabilityResolver_InsufficientIngredients(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	materialID := uuid.New()
	f.item.Recipe = &models.Recipe{
		ID:            uuid.New(),
		MenuItemID:    f.itemID,
		YieldQuantity: decimal.NewFromInt(4),
		Items: []models.RecipeItem{
			{RawMaterialID: materialID, Quantity: decimal.NewFromInt(2)},
		},
	}

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(nil, repository.ErrNotFound)
	// Requires 2/4 = 0.5 per serving, only 0.3 on hand
	f.mockRepo.On("GetStockLevel", ctx, "tenant-1", materialID, f.branchID).
		Return(&models.StockLevel{Quantity: decimal.NewFromFloat(0.3)}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonInsufficientIngredient, result.Reason)
}

func TestAvailabilityResolver_MissingStockLevelCountsAsZero(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	materialID := uuid.New()
	f.item.Recipe = &models.Recipe{
		ID:            uuid.New(),
		MenuItemID:    f.itemID,
		YieldQuantity: decimal.NewFromInt(1),
		Items: []models.RecipeItem{
			{RawMaterialID: materialID, Quantity: decimal.NewFromInt(1)},
		},
	}

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(nil, repository.ErrNotFound)
	f.mockRepo.On("GetStockLevel", ctx, "tenant-1", materialID, f.branchID).
		Return(nil, repository.ErrNotFound)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, ReasonInsufficientIngredient, result.Reason)
}

func TestAvailabilityResolver_AvailableWithSufficientStock(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	materialID := uuid.New()
	f.item.Recipe = &models.Recipe{
		ID:            uuid.New(),
		MenuItemID:    f.itemID,
		YieldQuantity: decimal.NewFromInt(1),
		Items: []models.RecipeItem{
			{RawMaterialID: materialID, Quantity: decimal.NewFromInt(2)},
		},
	}

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(nil, repository.ErrNotFound)
	f.mockRepo.On("GetStockLevel", ctx, "tenant-1", materialID, f.branchID).
		Return(&models.StockLevel{Quantity: decimal.NewFromInt(5)}, nil)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Reason)
}

func TestAvailabilityResolver_ItemWithoutRecipeIsAvailable(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	f.mockRepo.On("GetMenuItemByID", ctx, "tenant-1", f.itemID).Return(f.item, nil)
	f.mockRepo.On("GetBranchAvailability", ctx, "tenant-1", f.itemID, f.branchID).
		Return(&models.BranchAvailability{IsActive: true}, nil)
	f.mockRepo.On("GetBranchByID", ctx, "tenant-1", f.branchID).
		Return(nil, repository.ErrNotFound)

	result, err := f.resolver.Resolve(ctx, "tenant-1", f.itemID, f.branchID, nil)

	assert.NoError(t, err)
	assert.True(t, result.Available)
}

func TestValidateTimeWindow(t *testing.T) {
	assert.NoError(t, ValidateTimeWindow(strPtr("08:00"), strPtr("22:00")))
	assert.NoError(t, ValidateTimeWindow(nil, strPtr("22:00")))
	assert.NoError(t, ValidateTimeWindow(nil, nil))

	assert.ErrorIs(t, ValidateTimeWindow(strPtr("25:00"), nil), ErrInvalidTimeWindow)
	assert.ErrorIs(t, ValidateTimeWindow(strPtr("8am"), nil), ErrInvalidTimeWindow)
	assert.ErrorIs(t, ValidateTimeWindow(nil, strPtr("12:60")), ErrInvalidTimeWindow)

	// Windows crossing midnight are rejected
	assert.ErrorIs(t, ValidateTimeWindow(strPtr("22:00"), strPtr("06:00")), ErrInvalidTimeWindow)
}
