package services

import (
	"errors"
	"fmt"

	"branch-inventory-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a quantity or delta fails validation
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrDuplicateMaterial is returned when a material name already exists for the tenant
	ErrDuplicateMaterial = errors.New("raw material with this name already exists")

	// ErrShelfLifeRequired is returned when a perishable material is created without a shelf life
	ErrShelfLifeRequired = errors.New("shelf life is required for perishable material types")

	// ErrInvalidConfirmation is returned when the clear-all confirmation phrase does not match
	ErrInvalidConfirmation = errors.New("confirmation phrase does not match")

	// ErrPermissionDenied is returned when the caller's role does not allow the operation
	ErrPermissionDenied = errors.New("operation requires admin role")

	// ErrInvalidTransition is returned for a disallowed alert status change
	ErrInvalidTransition = errors.New("invalid alert status transition")

	// ErrAlertResolved is returned when acting on an already resolved alert
	ErrAlertResolved = errors.New("alert is already resolved")

	// ErrBranchNotActive is returned when writing stock against a non-active branch
	ErrBranchNotActive = errors.New("branch is not active")

	// ErrInvalidTimeWindow is returned when an availability window is malformed
	// or crosses midnight
	ErrInvalidTimeWindow = errors.New("invalid availability time window")
)

// InsufficientStockError rejects a stock-out that cannot be covered by
// non-expired batches. It carries the expired batches at the branch so the
// caller can decide whether to dispose of them with forceExpired.
type InsufficientStockError struct {
	Requested      decimal.Decimal
	Available      decimal.Decimal
	ExpiredBatches []models.ExpiredBatchDetail
	Suggestion     string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %s, available %s", e.Requested, e.Available)
}

// ExpiredQuantity totals the quantity held in expired batches
func (e *InsufficientStockError) ExpiredQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, b := range e.ExpiredBatches {
		total = total.Add(b.Quantity)
	}
	return total
}
