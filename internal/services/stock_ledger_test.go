package services

import (
	"context"
	"errors"
	"testing"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func intPtr(v int) *int {
	return &v
}

func TestStockLedger_StockInRaisesAggregate(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	material := &models.RawMaterial{
		ID:            materialID,
		Name:          "Flour",
		Unit:          "kg",
		Type:          models.MaterialTypeRaw,
		ShelfLifeDays: intPtr(7),
	}
	level := &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(10),
	}

	var createdBatch *models.StockBatch
	var createdTxn *models.StockTransaction

	mockRepo.On("GetRawMaterialByID", ctx, "tenant-1", materialID).Return(material, nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(level, nil)
	mockRepo.On("CreateBatch", ctx, "tenant-1", mock.AnythingOfType("*models.StockBatch")).
		Run(func(args mock.Arguments) {
			createdBatch = args.Get(2).(*models.StockBatch)
		}).Return(nil)
	mockRepo.On("CreateTransaction", ctx, "tenant-1", mock.AnythingOfType("*models.StockTransaction")).
		Run(func(args mock.Arguments) {
			createdTxn = args.Get(2).(*models.StockTransaction)
		}).Return(nil)
	mockRepo.On("UpsertStockLevel", ctx, "tenant-1", level).Return(nil)
	mockRepo.On("SumBatchQuantities", ctx, "tenant-1", materialID, branchID).
		Return(decimal.NewFromInt(35), nil)

	batch, err := ledger.StockIn(ctx, "tenant-1", StockInInput{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(25),
		UnitCost:      decimal.NewFromFloat(1.5),
	})

	assert.NoError(t, err)
	assert.NotNil(t, batch)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(35)))
	assert.NotNil(t, level.LastRestockedAt)

	// Expiry defaults to receipt time plus the material's shelf life
	assert.NotNil(t, createdBatch.ExpiryDate)
	assert.Equal(t, createdBatch.ReceivedDate.AddDate(0, 0, 7), *createdBatch.ExpiryDate)

	assert.Equal(t, models.TransactionTypeStockIn, createdTxn.Type)
	assert.True(t, createdTxn.Quantity.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, &createdBatch.ID, createdTxn.BatchID)
	mockRepo.AssertExpectations(t)
}

func TestStockLedger_StockInRejectsNonPositiveQuantity(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)

	_, err := ledger.StockIn(context.Background(), "tenant-1", StockInInput{
		RawMaterialID: uuid.New(),
		BranchID:      uuid.New(),
		Quantity:      decimal.Zero,
	})

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	mockRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockLedger_StockOutKeepsAggregateEqualToBatchSum(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	material := &models.RawMaterial{ID: materialID, Name: "Tomatoes", Unit: "kg"}
	level := &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(10),
	}

	batchA := models.StockBatch{ID: uuid.New(), QuantityRemaining: decimal.NewFromInt(5)}
	batchB := models.StockBatch{ID: uuid.New(), QuantityRemaining: decimal.NewFromInt(5)}

	var txns []*models.StockTransaction

	mockRepo.On("GetRawMaterialByID", ctx, "tenant-1", materialID).Return(material, nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(level, nil)
	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, mock.Anything, false, true).
		Return([]models.StockBatch{batchA, batchB}, nil)
	mockRepo.On("UpdateBatchQuantity", ctx, "tenant-1", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("CreateTransaction", ctx, "tenant-1", mock.AnythingOfType("*models.StockTransaction")).
		Run(func(args mock.Arguments) {
			txns = append(txns, args.Get(2).(*models.StockTransaction))
		}).Return(nil)
	mockRepo.On("UpsertStockLevel", ctx, "tenant-1", level).Return(nil)
	mockRepo.On("SumBatchQuantities", ctx, "tenant-1", materialID, branchID).
		Return(decimal.NewFromInt(3), nil)

	result, err := ledger.StockOut(ctx, "tenant-1", models.StockOutRequest{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(7),
	}, nil)

	assert.NoError(t, err)
	assert.True(t, result.Quantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, result.NewLevel.Equal(decimal.NewFromInt(3)))

	// One ledger entry per drained batch, quantities negative
	assert.Len(t, txns, 2)
	assert.True(t, txns[0].Quantity.Equal(decimal.NewFromInt(-5)))
	assert.True(t, txns[1].Quantity.Equal(decimal.NewFromInt(-2)))
	for _, txn := range txns {
		assert.Equal(t, models.TransactionTypeStockOut, txn.Type)
		assert.NotNil(t, txn.BatchID)
	}
}

func TestStockLedger_StockOutInitializesMissingLevel(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	material := &models.RawMaterial{ID: materialID, Name: "Basil", Unit: "kg"}
	level := &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.Zero,
	}

	// First lock attempt misses, the zero row is created, second attempt locks it
	mockRepo.On("GetRawMaterialByID", ctx, "tenant-1", materialID).Return(material, nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(nil, repository.ErrNotFound).Once()
	mockRepo.On("UpsertStockLevel", ctx, "tenant-1", mock.AnythingOfType("*models.StockLevel")).Return(nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(level, nil)
	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, mock.Anything, false, true).
		Return([]models.StockBatch{}, nil)
	mockRepo.On("ListExpiredBatches", ctx, "tenant-1", materialID, branchID, mock.Anything, false).
		Return([]models.StockBatch{}, nil)

	_, err := ledger.StockOut(ctx, "tenant-1", models.StockOutRequest{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(1),
	}, nil)

	var insErr *InsufficientStockError
	assert.True(t, errors.As(err, &insErr))
	assert.True(t, insErr.Available.IsZero())
	assert.Empty(t, insErr.ExpiredBatches)
}

func TestStockLedger_StockOutAbortsOnAggregateDrift(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	material := &models.RawMaterial{ID: materialID, Name: "Tomatoes", Unit: "kg"}
	level := &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(10),
	}

	mockRepo.On("GetRawMaterialByID", ctx, "tenant-1", materialID).Return(material, nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(level, nil)
	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, mock.Anything, false, true).
		Return([]models.StockBatch{{ID: uuid.New(), QuantityRemaining: decimal.NewFromInt(10)}}, nil)
	mockRepo.On("UpdateBatchQuantity", ctx, "tenant-1", mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("CreateTransaction", ctx, "tenant-1", mock.AnythingOfType("*models.StockTransaction")).
		Return(nil)
	mockRepo.On("UpsertStockLevel", ctx, "tenant-1", level).Return(nil)
	// Batch remainders no longer match the aggregate row
	mockRepo.On("SumBatchQuantities", ctx, "tenant-1", materialID, branchID).
		Return(decimal.NewFromInt(5), nil)

	_, err := ledger.StockOut(ctx, "tenant-1", models.StockOutRequest{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(7),
	}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate drift")
}

func TestStockLedger_AdjustNegativeBeyondStockFails(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	material := &models.RawMaterial{ID: materialID, Name: "Cheese", Unit: "kg"}
	level := &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.NewFromInt(2),
	}

	mockRepo.On("GetRawMaterialByID", ctx, "tenant-1", materialID).Return(material, nil)
	mockRepo.On("GetStockLevelForUpdate", ctx, "tenant-1", materialID, branchID).Return(level, nil)
	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, mock.Anything, true, true).
		Return([]models.StockBatch{{ID: uuid.New(), QuantityRemaining: decimal.NewFromInt(2)}}, nil)

	_, err := ledger.Adjust(ctx, "tenant-1", models.StockAdjustRequest{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Delta:         decimal.NewFromInt(-5),
		Reason:        "spoilage recount",
	}, nil)

	var insErr *InsufficientStockError
	assert.True(t, errors.As(err, &insErr))
	assert.True(t, insErr.Requested.Equal(decimal.NewFromInt(5)))
	assert.True(t, insErr.Available.Equal(decimal.NewFromInt(2)))
}

func TestStockLedger_AdjustRejectsZeroDelta(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)

	_, err := ledger.Adjust(context.Background(), "tenant-1", models.StockAdjustRequest{
		RawMaterialID: uuid.New(),
		BranchID:      uuid.New(),
		Delta:         decimal.Zero,
		Reason:        "noop",
	}, nil)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStockLedger_ClearAllRequiresAdminRole(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)

	_, err := ledger.ClearAll(context.Background(), "tenant-1", ClearAllConfirmationPhrase, "MANAGER")

	assert.ErrorIs(t, err, ErrPermissionDenied)
	mockRepo.AssertNotCalled(t, "ClearTenantData", mock.Anything, mock.Anything)
}

func TestStockLedger_ClearAllRequiresExactPhrase(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)

	_, err := ledger.ClearAll(context.Background(), "tenant-1", "delete all inventory data", AdminRole)

	assert.ErrorIs(t, err, ErrInvalidConfirmation)
	mockRepo.AssertNotCalled(t, "ClearTenantData", mock.Anything, mock.Anything)
}

func TestStockLedger_ClearAllDeletesTenantData(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	ledger := NewStockLedger(mockRepo, nil, nil)
	ctx := context.Background()

	summary := &models.ClearAllSummary{RawMaterials: 4, Batches: 9, Transactions: 31}
	mockRepo.On("ClearTenantData", ctx, "tenant-1").Return(summary, nil)

	got, err := ledger.ClearAll(ctx, "tenant-1", ClearAllConfirmationPhrase, AdminRole)

	assert.NoError(t, err)
	assert.Equal(t, summary, got)
	mockRepo.AssertExpectations(t)
}
