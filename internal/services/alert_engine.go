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

// DefaultExpiryLookaheadDays is how far ahead the engine looks for
// expiring-soon conditions when not configured
const DefaultExpiryLookaheadDays = 7

// AlertEngine detects threshold and expiry conditions against the ledger and
// manages the alert lifecycle. Detection is idempotent: re-checking an
// unchanged condition updates the open alert instead of creating another, so
// at most one non-resolved alert exists per (material, branch, type).
type AlertEngine struct {
	repo          repository.InventoryRepositoryInterface
	publisher     *events.StockEventPublisher
	logger        *logrus.Logger
	lookaheadDays int
}

func NewAlertEngine(repo repository.InventoryRepositoryInterface, publisher *events.StockEventPublisher, logger *logrus.Logger, lookaheadDays int) *AlertEngine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultExpiryLookaheadDays
	}
	return &AlertEngine{
		repo:          repo,
		publisher:     publisher,
		logger:        logger,
		lookaheadDays: lookaheadDays,
	}
}

// alertCondition is one detected condition for a (material, branch) pair
type alertCondition struct {
	alertType models.AlertType
	threshold decimal.Decimal
	current   decimal.Decimal
	message   string
}

// detectConditions computes which alert types currently hold for the pair.
// Out-of-stock supersedes low-stock; the reorder condition is independent.
func (e *AlertEngine) detectConditions(ctx context.Context, txRepo repository.InventoryRepositoryInterface, tenantID string, level *models.StockLevel, now time.Time) ([]alertCondition, error) {
	material := level.RawMaterial
	if material == nil {
		return nil, fmt.Errorf("stock level %s has no material loaded", level.ID)
	}

	var conditions []alertCondition

	if level.Quantity.LessThanOrEqual(decimal.Zero) {
		conditions = append(conditions, alertCondition{
			alertType: models.AlertTypeOutOfStock,
			threshold: decimal.Zero,
			current:   level.Quantity,
			message:   fmt.Sprintf("%s is out of stock", material.Name),
		})
	} else if level.Quantity.LessThanOrEqual(material.MinimumThreshold) && material.MinimumThreshold.GreaterThan(decimal.Zero) {
		conditions = append(conditions, alertCondition{
			alertType: models.AlertTypeLowStock,
			threshold: material.MinimumThreshold,
			current:   level.Quantity,
			message:   fmt.Sprintf("%s is low: %s %s remaining (minimum %s)", material.Name, level.Quantity, material.Unit, material.MinimumThreshold),
		})
	}

	if material.ReorderLevel.GreaterThan(decimal.Zero) && level.Quantity.LessThanOrEqual(material.ReorderLevel) {
		conditions = append(conditions, alertCondition{
			alertType: models.AlertTypeReorder,
			threshold: material.ReorderLevel,
			current:   level.Quantity,
			message:   fmt.Sprintf("%s is below reorder level: %s %s remaining (reorder at %s)", material.Name, level.Quantity, material.Unit, material.ReorderLevel),
		})
	}

	expired, err := txRepo.ListExpiredBatches(ctx, tenantID, level.RawMaterialID, level.BranchID, now, false)
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		total := decimal.Zero
		for _, b := range expired {
			total = total.Add(b.QuantityRemaining)
		}
		conditions = append(conditions, alertCondition{
			alertType: models.AlertTypeExpired,
			threshold: decimal.Zero,
			current:   total,
			message:   fmt.Sprintf("%s has %s %s expired across %d batch(es)", material.Name, total, material.Unit, len(expired)),
		})
	}

	expiring, err := txRepo.ListBatchesExpiringBetween(ctx, tenantID, level.RawMaterialID, level.BranchID, now, now.AddDate(0, 0, e.lookaheadDays))
	if err != nil {
		return nil, err
	}
	if len(expiring) > 0 {
		total := decimal.Zero
		for _, b := range expiring {
			total = total.Add(b.QuantityRemaining)
		}
		conditions = append(conditions, alertCondition{
			alertType: models.AlertTypeExpiringSoon,
			threshold: decimal.NewFromInt(int64(e.lookaheadDays)),
			current:   total,
			message:   fmt.Sprintf("%s has %s %s expiring within %d days", material.Name, total, material.Unit, e.lookaheadDays),
		})
	}

	return conditions, nil
}

// evaluateLevel reconciles open alerts for one pair against the detected
// conditions: missing alerts are created, stale open alerts whose condition
// cleared are resolved by the system, and matching open alerts get their
// current quantity refreshed. Returns the alerts newly created.
func (e *AlertEngine) evaluateLevel(ctx context.Context, txRepo repository.InventoryRepositoryInterface, tenantID string, level *models.StockLevel, branchName *string, now time.Time) ([]models.StockAlert, error) {
	conditions, err := e.detectConditions(ctx, txRepo, tenantID, level, now)
	if err != nil {
		return nil, err
	}

	detected := make(map[models.AlertType]alertCondition, len(conditions))
	for _, c := range conditions {
		detected[c.alertType] = c
	}

	var created []models.StockAlert
	system := "system"

	for _, alertType := range models.AlertTypesBySeverity {
		open, err := txRepo.GetOpenAlert(ctx, tenantID, level.RawMaterialID, level.BranchID, alertType)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		condition, active := detected[alertType]
		switch {
		case active && open == nil:
			alert := models.StockAlert{
				RawMaterialID:   level.RawMaterialID,
				BranchID:        level.BranchID,
				Type:            alertType,
				Status:          models.AlertStatusActive,
				ThresholdValue:  condition.threshold,
				CurrentQuantity: condition.current,
				Message:         condition.message,
				BranchName:      branchName,
			}
			if level.RawMaterial != nil {
				alert.MaterialName = &level.RawMaterial.Name
			}
			if err := txRepo.CreateAlert(ctx, tenantID, &alert); err != nil {
				return nil, err
			}
			created = append(created, alert)

		case active && open != nil:
			if !open.CurrentQuantity.Equal(condition.current) || open.Message != condition.message {
				err := txRepo.UpdateAlert(ctx, tenantID, open.ID, map[string]interface{}{
					"current_quantity": condition.current,
					"message":          condition.message,
				})
				if err != nil {
					return nil, err
				}
			}

		case !active && open != nil:
			err := txRepo.UpdateAlert(ctx, tenantID, open.ID, map[string]interface{}{
				"status":      models.AlertStatusResolved,
				"resolved_by": &system,
				"resolved_at": now,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return created, nil
}

// CheckMaterial evaluates one (material, branch) pair on demand
func (e *AlertEngine) CheckMaterial(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) ([]models.StockAlert, error) {
	material, err := e.repo.GetRawMaterialByID(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}

	var branchName *string
	if branch, err := e.repo.GetBranchByID(ctx, tenantID, branchID); err == nil {
		branchName = &branch.Name
	}

	var created []models.StockAlert
	now := time.Now()
	err = e.repo.WithTransaction(ctx, func(txRepo repository.InventoryRepositoryInterface) error {
		level, err := txRepo.GetStockLevel(ctx, tenantID, materialID, branchID)
		if errors.Is(err, repository.ErrNotFound) {
			level = &models.StockLevel{
				RawMaterialID: materialID,
				BranchID:      branchID,
				Quantity:      decimal.Zero,
			}
		} else if err != nil {
			return err
		}
		level.RawMaterial = material

		created, err = e.evaluateLevel(ctx, txRepo, tenantID, level, branchName, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.publishCreated(ctx, tenantID, material.Unit, created)
	return created, nil
}

// AutoCheckAll sweeps every aggregate for the tenant and reconciles alerts.
// Safe to run repeatedly; a condition that persists never duplicates its
// alert. Returns how many alerts were newly raised.
func (e *AlertEngine) AutoCheckAll(ctx context.Context, tenantID string) (int, error) {
	branchNames := make(map[uuid.UUID]*string)
	var allCreated []models.StockAlert
	now := time.Now()

	err := e.repo.WithTransaction(ctx, func(txRepo repository.InventoryRepositoryInterface) error {
		levels, err := txRepo.ListStockLevelsWithMaterial(ctx, tenantID)
		if err != nil {
			return err
		}

		for i := range levels {
			level := &levels[i]

			branchName, ok := branchNames[level.BranchID]
			if !ok {
				if branch, err := txRepo.GetBranchByID(ctx, tenantID, level.BranchID); err == nil {
					branchName = &branch.Name
				}
				branchNames[level.BranchID] = branchName
			}

			created, err := e.evaluateLevel(ctx, txRepo, tenantID, level, branchName, now)
			if err != nil {
				return err
			}
			allCreated = append(allCreated, created...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(allCreated) > 0 {
		e.logger.WithFields(logrus.Fields{
			"tenantId": tenantID,
			"raised":   len(allCreated),
		}).Info("Alert sweep raised new alerts")
	}

	if e.publisher != nil {
		for _, alert := range allCreated {
			unit := ""
			if material, err := e.repo.GetRawMaterialByID(ctx, tenantID, alert.RawMaterialID); err == nil {
				unit = material.Unit
			}
			e.publishAlert(ctx, tenantID, unit, alert)
		}
	}
	return len(allCreated), nil
}

// Acknowledge moves an active alert to acknowledged. Acknowledging a resolved
// alert fails; re-acknowledging is rejected as an invalid transition. The
// status predicate lives in the UPDATE itself so a concurrent resolve cannot
// be overwritten between read and write.
func (e *AlertEngine) Acknowledge(ctx context.Context, tenantID string, alertID uuid.UUID, acknowledgedBy string) (*models.StockAlert, error) {
	alert, err := e.repo.GetAlertByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status == models.AlertStatusResolved {
		return nil, ErrAlertResolved
	}
	if alert.Status != models.AlertStatusActive {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	rows, err := e.repo.UpdateAlertIfStatus(ctx, tenantID, alertID,
		[]models.AlertStatus{models.AlertStatusActive},
		map[string]interface{}{
			"status":          models.AlertStatusAcknowledged,
			"acknowledged_by": acknowledgedBy,
			"acknowledged_at": now,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Someone else moved the alert first; re-read to report the right
		// conflict
		current, err := e.repo.GetAlertByID(ctx, tenantID, alertID)
		if err != nil {
			return nil, err
		}
		if current.Status == models.AlertStatusResolved {
			return nil, ErrAlertResolved
		}
		return nil, ErrInvalidTransition
	}
	return e.repo.GetAlertByID(ctx, tenantID, alertID)
}

// Resolve closes an alert from either open state. Resolution is terminal; if
// the condition recurs a fresh alert is raised.
func (e *AlertEngine) Resolve(ctx context.Context, tenantID string, alertID uuid.UUID, resolvedBy string) (*models.StockAlert, error) {
	alert, err := e.repo.GetAlertByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}

	if alert.Status == models.AlertStatusResolved {
		return nil, ErrAlertResolved
	}

	now := time.Now()
	rows, err := e.repo.UpdateAlertIfStatus(ctx, tenantID, alertID,
		[]models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged},
		map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlertResolved
	}
	return e.repo.GetAlertByID(ctx, tenantID, alertID)
}

// ClearAll bulk-resolves every open alert for the tenant
func (e *AlertEngine) ClearAll(ctx context.Context, tenantID, resolvedBy string) (int64, error) {
	count, err := e.repo.ResolveOpenAlerts(ctx, tenantID, resolvedBy)
	if err != nil {
		return 0, err
	}

	e.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"resolved": count,
	}).Info("Bulk resolved open alerts")
	return count, nil
}

func (e *AlertEngine) publishCreated(ctx context.Context, tenantID, unit string, created []models.StockAlert) {
	for _, alert := range created {
		e.publishAlert(ctx, tenantID, unit, alert)
	}
}

func (e *AlertEngine) publishAlert(ctx context.Context, tenantID, unit string, alert models.StockAlert) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishStockAlert(ctx, tenantID, &alert, unit); err != nil {
		e.logger.WithError(err).Warn("Failed to publish stock alert event")
	}
}
