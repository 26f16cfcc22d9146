package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"branch-inventory-service/internal/events"
	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ClearAllConfirmationPhrase must be sent verbatim to authorize the
// tenant-wide inventory reset
const ClearAllConfirmationPhrase = "DELETE ALL INVENTORY DATA"

// AdminRole is the role allowed to run destructive operations
const AdminRole = "ADMIN"

// StockInInput describes one receipt of material at a branch
type StockInInput struct {
	RawMaterialID   uuid.UUID
	BranchID        uuid.UUID
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	ExpiryDate      *time.Time
	SourceReference *uuid.UUID
	ReferenceNumber *string
	PerformedBy     *string
	Notes           *string
}

// StockOutResult reports a completed stock-out
type StockOutResult struct {
	Allocations []BatchAllocation `json:"allocations"`
	Quantity    decimal.Decimal   `json:"quantity"`
	NewLevel    decimal.Decimal   `json:"newLevel"`
}

// StockLedger owns every quantity mutation. All writes run in a single
// database transaction with the (material, branch) aggregate row locked, so
// concurrent mutations on the same pair serialize and the aggregate always
// equals the sum of batch remainders.
type StockLedger struct {
	repo      repository.InventoryRepositoryInterface
	allocator *StockAllocator
	publisher *events.StockEventPublisher
	logger    *logrus.Logger
}

func NewStockLedger(repo repository.InventoryRepositoryInterface, publisher *events.StockEventPublisher, logger *logrus.Logger) *StockLedger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StockLedger{
		repo:      repo,
		allocator: NewStockAllocator(),
		publisher: publisher,
		logger:    logger,
	}
}

// lockOrInitLevel locks the aggregate row, creating a zero row first if the
// pair has never held stock
func lockOrInitLevel(ctx context.Context, txRepo repository.InventoryRepositoryInterface, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error) {
	level, err := txRepo.GetStockLevelForUpdate(ctx, tenantID, materialID, branchID)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	level = &models.StockLevel{
		RawMaterialID: materialID,
		BranchID:      branchID,
		Quantity:      decimal.Zero,
	}
	if err := txRepo.UpsertStockLevel(ctx, tenantID, level); err != nil {
		return nil, err
	}
	return txRepo.GetStockLevelForUpdate(ctx, tenantID, materialID, branchID)
}

// verifyAggregate re-sums the batch remainders before commit; a mismatch with
// the aggregate row aborts the transaction instead of persisting drift
func verifyAggregate(ctx context.Context, txRepo repository.InventoryRepositoryInterface, tenantID string, materialID, branchID uuid.UUID, want decimal.Decimal) error {
	sum, err := txRepo.SumBatchQuantities(ctx, tenantID, materialID, branchID)
	if err != nil {
		return err
	}
	if !sum.Equal(want) {
		return fmt.Errorf("aggregate drift for material %s at branch %s: level %s, batches %s", materialID, branchID, want, sum)
	}
	return nil
}

// StockIn receives material into a new batch and raises the aggregate.
// The expiry date defaults to the receipt time plus the material's shelf life;
// SUPPLIES batches never expire.
func (s *StockLedger) StockIn(ctx context.Context, tenantID string, input StockInInput) (*models.StockBatch, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	material, err := s.repo.GetRawMaterialByID(ctx, tenantID, input.RawMaterialID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiry := input.ExpiryDate
	if expiry == nil && material.ShelfLifeDays != nil {
		e := now.AddDate(0, 0, *material.ShelfLifeDays)
		expiry = &e
	}

	batch := &models.StockBatch{
		RawMaterialID:     input.RawMaterialID,
		BranchID:          input.BranchID,
		QuantityRemaining: input.Quantity,
		UnitCost:          input.UnitCost,
		ReceivedDate:      now,
		ExpiryDate:        expiry,
		SourceReference:   input.SourceReference,
	}

	var previous decimal.Decimal
	err = s.repo.WithTransaction(ctx, func(txRepo repository.InventoryRepositoryInterface) error {
		level, err := lockOrInitLevel(ctx, txRepo, tenantID, input.RawMaterialID, input.BranchID)
		if err != nil {
			return err
		}
		previous = level.Quantity

		if err := txRepo.CreateBatch(ctx, tenantID, batch); err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		txn := &models.StockTransaction{
			RawMaterialID:   input.RawMaterialID,
			BranchID:        input.BranchID,
			Type:            models.TransactionTypeStockIn,
			Quantity:        input.Quantity,
			BatchID:         &batch.ID,
			ReferenceNumber: input.ReferenceNumber,
			PerformedBy:     input.PerformedBy,
			Notes:           input.Notes,
		}
		if err := txRepo.CreateTransaction(ctx, tenantID, txn); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		level.Quantity = level.Quantity.Add(input.Quantity)
		level.LastRestockedAt = &now
		if err := txRepo.UpsertStockLevel(ctx, tenantID, level); err != nil {
			return err
		}
		return verifyAggregate(ctx, txRepo, tenantID, input.RawMaterialID, input.BranchID, level.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":      tenantID,
		"rawMaterialId": input.RawMaterialID,
		"branchId":      input.BranchID,
		"quantity":      input.Quantity,
		"batchId":       batch.ID,
	}).Info("Stock received")

	s.publishChange(ctx, tenantID, material, input.BranchID, previous, previous.Add(input.Quantity), "stock in", input.PerformedBy)
	return batch, nil
}

// StockOut deducts stock by draining batches in allocation order. With
// ForceExpired it disposes of expired batches only; a candidate set that
// cannot cover the quantity fails in either mode.
func (s *StockLedger) StockOut(ctx context.Context, tenantID string, req models.StockOutRequest, performedBy *string) (*StockOutResult, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidQuantity
	}

	material, err := s.repo.GetRawMaterialByID(ctx, tenantID, req.RawMaterialID)
	if err != nil {
		return nil, err
	}

	result := &StockOutResult{}
	var previous decimal.Decimal
	now := time.Now()

	err = s.repo.WithTransaction(ctx, func(txRepo repository.InventoryRepositoryInterface) error {
		level, err := lockOrInitLevel(ctx, txRepo, tenantID, req.RawMaterialID, req.BranchID)
		if err != nil {
			return err
		}
		previous = level.Quantity

		allocation, err := s.allocator.Allocate(ctx, txRepo, tenantID, req.RawMaterialID, req.BranchID, req.Quantity, req.ForceExpired, now)
		if err != nil {
			return err
		}

		for _, alloc := range allocation.Allocations {
			batchID := alloc.BatchID
			txn := &models.StockTransaction{
				RawMaterialID: req.RawMaterialID,
				BranchID:      req.BranchID,
				Type:          models.TransactionTypeStockOut,
				Quantity:      alloc.Quantity.Neg(),
				BatchID:       &batchID,
				PerformedBy:   performedBy,
				Notes:         req.Notes,
			}
			if err := txRepo.CreateTransaction(ctx, tenantID, txn); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}
		}

		level.Quantity = level.Quantity.Sub(allocation.Total)
		if err := txRepo.UpsertStockLevel(ctx, tenantID, level); err != nil {
			return err
		}

		result.Allocations = allocation.Allocations
		result.Quantity = allocation.Total
		result.NewLevel = level.Quantity
		return verifyAggregate(ctx, txRepo, tenantID, req.RawMaterialID, req.BranchID, level.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":      tenantID,
		"rawMaterialId": req.RawMaterialID,
		"branchId":      req.BranchID,
		"quantity":      result.Quantity,
		"forceExpired":  req.ForceExpired,
		"batches":       len(result.Allocations),
	}).Info("Stock deducted")

	reason := "stock out"
	if req.ForceExpired {
		reason = "expired stock disposal"
	}
	s.publishChange(ctx, tenantID, material, req.BranchID, previous, result.NewLevel, reason, performedBy)
	return result, nil
}

// Adjust applies a signed correction. Positive deltas create a correction
// batch; negative deltas drain batches in allocation order, expired included,
// and fail if the branch does not hold enough stock.
func (s *StockLedger) Adjust(ctx context.Context, tenantID string, req models.StockAdjustRequest, performedBy *string) (*models.StockLevel, error) {
	if req.Delta.IsZero() {
		return nil, ErrInvalidQuantity
	}

	material, err := s.repo.GetRawMaterialByID(ctx, tenantID, req.RawMaterialID)
	if err != nil {
		return nil, err
	}

	var updated *models.StockLevel
	var previous decimal.Decimal
	now := time.Now()

	err = s.repo.WithTransaction(ctx, func(txRepo repository.InventoryRepositoryInterface) error {
		level, err := lockOrInitLevel(ctx, txRepo, tenantID, req.RawMaterialID, req.BranchID)
		if err != nil {
			return err
		}
		previous = level.Quantity

		if req.Delta.GreaterThan(decimal.Zero) {
			var expiry *time.Time
			if material.ShelfLifeDays != nil {
				e := now.AddDate(0, 0, *material.ShelfLifeDays)
				expiry = &e
			}
			batch := &models.StockBatch{
				RawMaterialID:     req.RawMaterialID,
				BranchID:          req.BranchID,
				QuantityRemaining: req.Delta,
				UnitCost:          decimal.Zero,
				ReceivedDate:      now,
				ExpiryDate:        expiry,
			}
			if err := txRepo.CreateBatch(ctx, tenantID, batch); err != nil {
				return fmt.Errorf("failed to create adjustment batch: %w", err)
			}

			txn := &models.StockTransaction{
				RawMaterialID: req.RawMaterialID,
				BranchID:      req.BranchID,
				Type:          models.TransactionTypeAdjustment,
				Quantity:      req.Delta,
				BatchID:       &batch.ID,
				PerformedBy:   performedBy,
				Notes:         &req.Reason,
			}
			if err := txRepo.CreateTransaction(ctx, tenantID, txn); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			level.Quantity = level.Quantity.Add(req.Delta)
		} else {
			deduct := req.Delta.Neg()
			batches, err := txRepo.ListEligibleBatches(ctx, tenantID, req.RawMaterialID, req.BranchID, now, true, true)
			if err != nil {
				return fmt.Errorf("failed to load batches: %w", err)
			}

			available := decimal.Zero
			for _, b := range batches {
				available = available.Add(b.QuantityRemaining)
			}
			if available.LessThan(deduct) {
				return &InsufficientStockError{Requested: deduct, Available: available}
			}

			remaining := deduct
			for _, batch := range batches {
				if remaining.LessThanOrEqual(decimal.Zero) {
					break
				}
				take := batch.QuantityRemaining
				if take.GreaterThan(remaining) {
					take = remaining
				}
				if err := txRepo.UpdateBatchQuantity(ctx, tenantID, batch.ID, batch.QuantityRemaining.Sub(take)); err != nil {
					return fmt.Errorf("failed to update batch %s: %w", batch.ID, err)
				}

				batchID := batch.ID
				txn := &models.StockTransaction{
					RawMaterialID: req.RawMaterialID,
					BranchID:      req.BranchID,
					Type:          models.TransactionTypeAdjustment,
					Quantity:      take.Neg(),
					BatchID:       &batchID,
					PerformedBy:   performedBy,
					Notes:         &req.Reason,
				}
				if err := txRepo.CreateTransaction(ctx, tenantID, txn); err != nil {
					return fmt.Errorf("failed to record transaction: %w", err)
				}
				remaining = remaining.Sub(take)
			}

			level.Quantity = level.Quantity.Sub(deduct)
		}

		if err := txRepo.UpsertStockLevel(ctx, tenantID, level); err != nil {
			return err
		}
		updated = level
		return verifyAggregate(ctx, txRepo, tenantID, req.RawMaterialID, req.BranchID, level.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":      tenantID,
		"rawMaterialId": req.RawMaterialID,
		"branchId":      req.BranchID,
		"delta":         req.Delta,
		"reason":        req.Reason,
	}).Info("Stock adjusted")

	s.publishChange(ctx, tenantID, material, req.BranchID, previous, updated.Quantity, req.Reason, performedBy)
	return updated, nil
}

// ClearAll wipes every inventory record for the tenant. It requires the admin
// role and the exact confirmation phrase, and deletes everything atomically.
func (s *StockLedger) ClearAll(ctx context.Context, tenantID, confirm, role string) (*models.ClearAllSummary, error) {
	if role != AdminRole {
		return nil, ErrPermissionDenied
	}
	if confirm != ClearAllConfirmationPhrase {
		return nil, ErrInvalidConfirmation
	}

	summary, err := s.repo.ClearTenantData(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":     tenantID,
		"rawMaterials": summary.RawMaterials,
		"batches":      summary.Batches,
		"transactions": summary.Transactions,
	}).Warn("Tenant inventory data cleared")
	return summary, nil
}

func (s *StockLedger) publishChange(ctx context.Context, tenantID string, material *models.RawMaterial, branchID uuid.UUID, previous, current decimal.Decimal, reason string, performedBy *string) {
	if s.publisher == nil {
		return
	}

	by := "system"
	if performedBy != nil {
		by = *performedBy
	}
	branchName := ""
	if branch, err := s.repo.GetBranchByID(ctx, tenantID, branchID); err == nil {
		branchName = branch.Name
	}

	if err := s.publisher.PublishStockChanged(ctx, tenantID, material.ID.String(), material.Name, material.Unit, previous, current, reason, by, branchID.String(), branchName); err != nil {
		s.logger.WithError(err).Warn("Failed to publish stock change event")
	}
}
