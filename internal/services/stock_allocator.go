package services

import (
	"context"
	"fmt"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchAllocation records how much of a stock-out was taken from one batch
type BatchAllocation struct {
	BatchID    uuid.UUID       `json:"batchId"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`
}

// AllocationResult is the outcome of a batch allocation pass
type AllocationResult struct {
	Allocations []BatchAllocation `json:"allocations"`
	Total       decimal.Decimal   `json:"total"`
}

// StockAllocator drains batches for a stock-out in deterministic order:
// earliest expiry first, never-expiring batches last, oldest receipt first on
// equal expiry. All methods must run inside a ledger transaction so batch rows
// are locked for the duration of the mutation.
type StockAllocator struct{}

func NewStockAllocator() *StockAllocator {
	return &StockAllocator{}
}

// Allocate drains up to quantity from eligible batches, writing each batch's
// reduced remaining quantity back through txRepo. With forceExpired the pass
// considers only already expired batches. Either way a candidate set that
// cannot cover the full quantity fails the whole operation; nothing is
// deducted on failure.
func (a *StockAllocator) Allocate(ctx context.Context, txRepo repository.InventoryRepositoryInterface, tenantID string, materialID, branchID uuid.UUID, quantity decimal.Decimal, forceExpired bool, asOf time.Time) (*AllocationResult, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	var batches []models.StockBatch
	var err error
	if forceExpired {
		batches, err = txRepo.ListExpiredBatches(ctx, tenantID, materialID, branchID, asOf, true)
	} else {
		batches, err = txRepo.ListEligibleBatches(ctx, tenantID, materialID, branchID, asOf, false, true)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batches: %w", err)
	}

	available := decimal.Zero
	for _, b := range batches {
		available = available.Add(b.QuantityRemaining)
	}

	if available.LessThan(quantity) {
		insErr := &InsufficientStockError{
			Requested: quantity,
			Available: available,
		}
		if forceExpired {
			// The candidates already are the expired batches
			for _, b := range batches {
				insErr.ExpiredBatches = append(insErr.ExpiredBatches, models.ExpiredBatchDetail{
					BatchID:    b.ID,
					Quantity:   b.QuantityRemaining,
					ExpiryDate: *b.ExpiryDate,
				})
			}
			return nil, insErr
		}

		expired, expErr := txRepo.ListExpiredBatches(ctx, tenantID, materialID, branchID, asOf, false)
		if expErr != nil {
			return nil, fmt.Errorf("failed to load expired batches: %w", expErr)
		}
		for _, b := range expired {
			insErr.ExpiredBatches = append(insErr.ExpiredBatches, models.ExpiredBatchDetail{
				BatchID:    b.ID,
				Quantity:   b.QuantityRemaining,
				ExpiryDate: *b.ExpiryDate,
			})
		}
		if len(insErr.ExpiredBatches) > 0 {
			insErr.Suggestion = fmt.Sprintf("%s units are held in expired batches; retry with forceExpired to dispose of them", insErr.ExpiredQuantity())
		}
		return nil, insErr
	}

	result := &AllocationResult{}
	remaining := quantity
	for _, batch := range batches {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		take := batch.QuantityRemaining
		if take.GreaterThan(remaining) {
			take = remaining
		}

		newQty := batch.QuantityRemaining.Sub(take)
		if err := txRepo.UpdateBatchQuantity(ctx, tenantID, batch.ID, newQty); err != nil {
			return nil, fmt.Errorf("failed to update batch %s: %w", batch.ID, err)
		}

		result.Allocations = append(result.Allocations, BatchAllocation{
			BatchID:    batch.ID,
			Quantity:   take,
			ExpiryDate: batch.ExpiryDate,
		})
		result.Total = result.Total.Add(take)
		remaining = remaining.Sub(take)
	}

	return result, nil
}
