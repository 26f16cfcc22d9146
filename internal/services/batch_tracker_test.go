package services

import (
	"context"
	"testing"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBatchTracker_CreateRawMaterial(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	tracker := NewBatchTracker(mockRepo, nil)
	ctx := context.Background()

	mockRepo.On("FindRawMaterialByName", ctx, "tenant-1", "Tomatoes").
		Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateRawMaterial", ctx, "tenant-1", mock.AnythingOfType("*models.RawMaterial")).
		Return(nil)

	material, err := tracker.CreateRawMaterial(ctx, "tenant-1", models.CreateRawMaterialRequest{
		Name:             "Tomatoes",
		Unit:             "kg",
		Type:             models.MaterialTypeRaw,
		MinimumThreshold: decimal.NewFromInt(10),
		ReorderLevel:     decimal.NewFromInt(20),
		ShelfLifeDays:    intPtr(5),
	}, strPtr("user-1"))

	assert.NoError(t, err)
	assert.Equal(t, "Tomatoes", material.Name)
	assert.Equal(t, models.MaterialTypeRaw, material.Type)
	mockRepo.AssertExpectations(t)
}

func TestBatchTracker_CreateRejectsDuplicateName(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	tracker := NewBatchTracker(mockRepo, nil)
	ctx := context.Background()

	existing := &models.RawMaterial{ID: uuid.New(), Name: "Tomatoes"}
	mockRepo.On("FindRawMaterialByName", ctx, "tenant-1", "Tomatoes").Return(existing, nil)

	_, err := tracker.CreateRawMaterial(ctx, "tenant-1", models.CreateRawMaterialRequest{
		Name:          "Tomatoes",
		Unit:          "kg",
		Type:          models.MaterialTypeRaw,
		ShelfLifeDays: intPtr(5),
	}, nil)

	assert.ErrorIs(t, err, ErrDuplicateMaterial)
	mockRepo.AssertNotCalled(t, "CreateRawMaterial", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchTracker_PerishableTypesRequireShelfLife(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	tracker := NewBatchTracker(mockRepo, nil)
	ctx := context.Background()

	_, err := tracker.CreateRawMaterial(ctx, "tenant-1", models.CreateRawMaterialRequest{
		Name: "Chicken",
		Unit: "kg",
		Type: models.MaterialTypeRaw,
	}, nil)
	assert.ErrorIs(t, err, ErrShelfLifeRequired)

	// SUPPLIES never expire, no shelf life needed
	mockRepo.On("FindRawMaterialByName", ctx, "tenant-1", "Napkins").
		Return(nil, repository.ErrNotFound)
	mockRepo.On("CreateRawMaterial", ctx, "tenant-1", mock.AnythingOfType("*models.RawMaterial")).
		Return(nil)

	material, err := tracker.CreateRawMaterial(ctx, "tenant-1", models.CreateRawMaterialRequest{
		Name: "Napkins",
		Unit: "pcs",
		Type: models.MaterialTypeSupplies,
	}, nil)
	assert.NoError(t, err)
	assert.Nil(t, material.ShelfLifeDays)
}

func TestBatchTracker_CreateRejectsUnknownType(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	tracker := NewBatchTracker(mockRepo, nil)

	_, err := tracker.CreateRawMaterial(context.Background(), "tenant-1", models.CreateRawMaterialRequest{
		Name: "Mystery",
		Unit: "kg",
		Type: models.MaterialType("FROZEN"),
	}, nil)

	assert.Error(t, err)
}

func TestBatchTracker_LowStockLevels(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	tracker := NewBatchTracker(mockRepo, nil)
	ctx := context.Background()

	lowMaterial := &models.RawMaterial{Name: "Flour", MinimumThreshold: decimal.NewFromInt(10)}
	okMaterial := &models.RawMaterial{Name: "Salt", MinimumThreshold: decimal.NewFromInt(2)}

	mockRepo.On("ListStockLevelsWithMaterial", ctx, "tenant-1").Return([]models.StockLevel{
		{Quantity: decimal.NewFromInt(8), RawMaterial: lowMaterial},
		{Quantity: decimal.NewFromInt(40), RawMaterial: okMaterial},
	}, nil)

	low, err := tracker.LowStockLevels(ctx, "tenant-1")

	assert.NoError(t, err)
	assert.Len(t, low, 1)
	assert.Equal(t, "Flour", low[0].RawMaterial.Name)
}
