package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchTracker manages the raw material catalog and answers batch-granular
// questions: what is low, what expires soon, what is already expired.
type BatchTracker struct {
	repo   repository.InventoryRepositoryInterface
	logger *logrus.Logger
}

func NewBatchTracker(repo repository.InventoryRepositoryInterface, logger *logrus.Logger) *BatchTracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BatchTracker{repo: repo, logger: logger}
}

// CreateRawMaterial validates and registers a material. Names are unique
// case-insensitively per tenant, and every type except SUPPLIES needs a shelf
// life so received batches get an expiry date.
func (t *BatchTracker) CreateRawMaterial(ctx context.Context, tenantID string, req models.CreateRawMaterialRequest, createdBy *string) (*models.RawMaterial, error) {
	if !models.ValidMaterialType(req.Type) {
		return nil, fmt.Errorf("unknown material type %q", req.Type)
	}
	if req.Type != models.MaterialTypeSupplies && req.ShelfLifeDays == nil {
		return nil, ErrShelfLifeRequired
	}
	if req.ShelfLifeDays != nil && *req.ShelfLifeDays <= 0 {
		return nil, fmt.Errorf("shelf life must be positive")
	}
	if req.MinimumThreshold.IsNegative() || req.ReorderLevel.IsNegative() {
		return nil, fmt.Errorf("thresholds must not be negative")
	}

	existing, err := t.repo.FindRawMaterialByName(ctx, tenantID, req.Name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateMaterial
	}

	material := &models.RawMaterial{
		Name:             req.Name,
		Unit:             req.Unit,
		Type:             req.Type,
		MinimumThreshold: req.MinimumThreshold,
		ReorderLevel:     req.ReorderLevel,
		ShelfLifeDays:    req.ShelfLifeDays,
		Metadata:         req.Metadata,
		CreatedBy:        createdBy,
	}
	if err := t.repo.CreateRawMaterial(ctx, tenantID, material); err != nil {
		return nil, err
	}

	t.logger.WithFields(logrus.Fields{
		"tenantId":      tenantID,
		"rawMaterialId": material.ID,
		"name":          material.Name,
		"type":          material.Type,
	}).Info("Raw material created")
	return material, nil
}

// UpdateRawMaterial applies a partial update, re-checking name uniqueness on
// rename
func (t *BatchTracker) UpdateRawMaterial(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateRawMaterialRequest) (*models.RawMaterial, error) {
	material, err := t.repo.GetRawMaterialByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil && *req.Name != material.Name {
		existing, err := t.repo.FindRawMaterialByName(ctx, tenantID, *req.Name)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrDuplicateMaterial
		}
		updates["name"] = *req.Name
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.MinimumThreshold != nil {
		if req.MinimumThreshold.IsNegative() {
			return nil, fmt.Errorf("thresholds must not be negative")
		}
		updates["minimum_threshold"] = *req.MinimumThreshold
	}
	if req.ReorderLevel != nil {
		if req.ReorderLevel.IsNegative() {
			return nil, fmt.Errorf("thresholds must not be negative")
		}
		updates["reorder_level"] = *req.ReorderLevel
	}
	if req.ShelfLifeDays != nil {
		if *req.ShelfLifeDays <= 0 {
			return nil, fmt.Errorf("shelf life must be positive")
		}
		updates["shelf_life_days"] = *req.ShelfLifeDays
	}

	if len(updates) > 0 {
		if err := t.repo.UpdateRawMaterial(ctx, tenantID, id, updates); err != nil {
			return nil, err
		}
	}
	return t.repo.GetRawMaterialByID(ctx, tenantID, id)
}

// LowStockLevels returns aggregates at or below their material's minimum
// threshold
func (t *BatchTracker) LowStockLevels(ctx context.Context, tenantID string) ([]models.StockLevel, error) {
	levels, err := t.repo.ListStockLevelsWithMaterial(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var low []models.StockLevel
	for _, level := range levels {
		if level.RawMaterial == nil {
			continue
		}
		if level.Quantity.LessThanOrEqual(level.RawMaterial.MinimumThreshold) {
			low = append(low, level)
		}
	}
	return low, nil
}

// ExpiringSoonBatches returns non-empty batches whose expiry falls within the
// next withinDays days
func (t *BatchTracker) ExpiringSoonBatches(ctx context.Context, tenantID string, withinDays int) ([]models.StockBatch, error) {
	if withinDays <= 0 {
		withinDays = DefaultExpiryLookaheadDays
	}

	levels, err := t.repo.ListStockLevelsWithMaterial(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	until := now.AddDate(0, 0, withinDays)

	var expiring []models.StockBatch
	for _, level := range levels {
		batches, err := t.repo.ListBatchesExpiringBetween(ctx, tenantID, level.RawMaterialID, level.BranchID, now, until)
		if err != nil {
			return nil, err
		}
		expiring = append(expiring, batches...)
	}
	return expiring, nil
}

// ExpiredBatches returns non-empty batches already past their expiry date
func (t *BatchTracker) ExpiredBatches(ctx context.Context, tenantID string) ([]models.StockBatch, error) {
	levels, err := t.repo.ListStockLevelsWithMaterial(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var expired []models.StockBatch
	for _, level := range levels {
		batches, err := t.repo.ListExpiredBatches(ctx, tenantID, level.RawMaterialID, level.BranchID, now, false)
		if err != nil {
			return nil, err
		}
		expired = append(expired, batches...)
	}
	return expired, nil
}
