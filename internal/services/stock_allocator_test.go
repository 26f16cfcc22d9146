package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"branch-inventory-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestStockAllocator_DrainsEarliestExpiryFirst(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	asOf := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	batchA := models.StockBatch{
		ID:                uuid.New(),
		RawMaterialID:     materialID,
		BranchID:          branchID,
		QuantityRemaining: qty(5),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, 2)),
	}
	batchB := models.StockBatch{
		ID:                uuid.New(),
		RawMaterialID:     materialID,
		BranchID:          branchID,
		QuantityRemaining: qty(5),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, 30)),
	}

	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, asOf, false, true).
		Return([]models.StockBatch{batchA, batchB}, nil)
	mockRepo.On("UpdateBatchQuantity", ctx, "tenant-1", batchA.ID, mock.MatchedBy(func(q decimal.Decimal) bool {
		return q.IsZero()
	})).Return(nil)
	mockRepo.On("UpdateBatchQuantity", ctx, "tenant-1", batchB.ID, mock.MatchedBy(func(q decimal.Decimal) bool {
		return q.Equal(qty(3))
	})).Return(nil)

	result, err := allocator.Allocate(ctx, mockRepo, "tenant-1", materialID, branchID, qty(7), false, asOf)

	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 2)
	assert.Equal(t, batchA.ID, result.Allocations[0].BatchID)
	assert.True(t, result.Allocations[0].Quantity.Equal(qty(5)))
	assert.Equal(t, batchB.ID, result.Allocations[1].BatchID)
	assert.True(t, result.Allocations[1].Quantity.Equal(qty(2)))
	assert.True(t, result.Total.Equal(qty(7)))
	mockRepo.AssertExpectations(t)
}

func TestStockAllocator_ShortfallReportsExpiredBatches(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	asOf := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	eligible := models.StockBatch{
		ID:                uuid.New(),
		QuantityRemaining: qty(3),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, 5)),
	}
	expired := models.StockBatch{
		ID:                uuid.New(),
		QuantityRemaining: qty(4),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, -1)),
	}

	mockRepo.On("ListEligibleBatches", ctx, "tenant-1", materialID, branchID, asOf, false, true).
		Return([]models.StockBatch{eligible}, nil)
	mockRepo.On("ListExpiredBatches", ctx, "tenant-1", materialID, branchID, asOf, false).
		Return([]models.StockBatch{expired}, nil)

	result, err := allocator.Allocate(ctx, mockRepo, "tenant-1", materialID, branchID, qty(10), false, asOf)

	assert.Nil(t, result)
	var insErr *InsufficientStockError
	assert.True(t, errors.As(err, &insErr))
	assert.True(t, insErr.Requested.Equal(qty(10)))
	assert.True(t, insErr.Available.Equal(qty(3)))
	assert.Len(t, insErr.ExpiredBatches, 1)
	assert.Equal(t, expired.ID, insErr.ExpiredBatches[0].BatchID)
	assert.NotEmpty(t, insErr.Suggestion)
	// No batch may be touched on a rejected allocation
	mockRepo.AssertNotCalled(t, "UpdateBatchQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStockAllocator_ForceExpiredTakesOnlyExpiredStock(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	asOf := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	expired := models.StockBatch{
		ID:                uuid.New(),
		QuantityRemaining: qty(4),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, -2)),
	}

	mockRepo.On("ListExpiredBatches", ctx, "tenant-1", materialID, branchID, asOf, true).
		Return([]models.StockBatch{expired}, nil)
	mockRepo.On("UpdateBatchQuantity", ctx, "tenant-1", expired.ID, mock.MatchedBy(func(q decimal.Decimal) bool {
		return q.Equal(qty(1))
	})).Return(nil)

	result, err := allocator.Allocate(ctx, mockRepo, "tenant-1", materialID, branchID, qty(3), true, asOf)

	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 1)
	assert.True(t, result.Total.Equal(qty(3)))
	mockRepo.AssertNotCalled(t, "ListEligibleBatches", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStockAllocator_ForceExpiredShortfallFails(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	asOf := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	expired := models.StockBatch{
		ID:                uuid.New(),
		QuantityRemaining: qty(4),
		ExpiryDate:        timePtr(asOf.AddDate(0, 0, -2)),
	}

	mockRepo.On("ListExpiredBatches", ctx, "tenant-1", materialID, branchID, asOf, true).
		Return([]models.StockBatch{expired}, nil)

	// Disposal of 10 against 4 expired units fails like any other shortfall
	result, err := allocator.Allocate(ctx, mockRepo, "tenant-1", materialID, branchID, qty(10), true, asOf)

	assert.Nil(t, result)
	var insErr *InsufficientStockError
	assert.True(t, errors.As(err, &insErr))
	assert.True(t, insErr.Requested.Equal(qty(10)))
	assert.True(t, insErr.Available.Equal(qty(4)))
	assert.Len(t, insErr.ExpiredBatches, 1)
	assert.Equal(t, expired.ID, insErr.ExpiredBatches[0].BatchID)
	mockRepo.AssertNotCalled(t, "UpdateBatchQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStockAllocator_ForceExpiredWithNothingExpired(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()
	ctx := context.Background()

	materialID := uuid.New()
	branchID := uuid.New()
	asOf := time.Now()

	mockRepo.On("ListExpiredBatches", ctx, "tenant-1", materialID, branchID, asOf, true).
		Return([]models.StockBatch{}, nil)

	result, err := allocator.Allocate(ctx, mockRepo, "tenant-1", materialID, branchID, qty(1), true, asOf)

	assert.Nil(t, result)
	var insErr *InsufficientStockError
	assert.True(t, errors.As(err, &insErr))
	assert.True(t, insErr.Available.IsZero())
	assert.Empty(t, insErr.ExpiredBatches)
}

func TestStockAllocator_RejectsNonPositiveQuantity(t *testing.T) {
	mockRepo := new(MockInventoryRepository)
	allocator := NewStockAllocator()

	_, err := allocator.Allocate(context.Background(), mockRepo, "tenant-1", uuid.New(), uuid.New(), decimal.Zero, false, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = allocator.Allocate(context.Background(), mockRepo, "tenant-1", uuid.New(), uuid.New(), qty(-5), false, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
