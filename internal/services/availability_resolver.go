package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Availability reasons returned when an item is not sellable
const (
	ReasonNotOffered             = "NOT_OFFERED_AT_BRANCH"
	ReasonInactive               = "INACTIVE"
	ReasonOutsideValidityDates   = "OUTSIDE_VALIDITY_DATES"
	ReasonOutsideServingHours    = "OUTSIDE_SERVING_HOURS"
	ReasonInsufficientIngredient = "INSUFFICIENT_INGREDIENTS"
)

// AvailabilityResolver decides whether a menu item is sellable at a branch
// right now. Checks run cheapest first and short-circuit: branch record,
// active flag, date window, serving hours, then ingredient sufficiency
// against the stock aggregates.
type AvailabilityResolver struct {
	repo   repository.InventoryRepositoryInterface
	logger *logrus.Logger
}

func NewAvailabilityResolver(repo repository.InventoryRepositoryInterface, logger *logrus.Logger) *AvailabilityResolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AvailabilityResolver{repo: repo, logger: logger}
}

// parseClock parses an "HH:MM" string into minutes since midnight
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("malformed time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("malformed time %q", value)
	}
	return hours*60 + minutes, nil
}

// ValidateTimeWindow rejects malformed bounds and windows that cross midnight
func ValidateTimeWindow(from, to *string) error {
	var fromMin, toMin int
	var err error
	if from != nil {
		if fromMin, err = parseClock(*from); err != nil {
			return ErrInvalidTimeWindow
		}
	}
	if to != nil {
		if toMin, err = parseClock(*to); err != nil {
			return ErrInvalidTimeWindow
		}
	}
	if from != nil && to != nil && fromMin > toMin {
		return ErrInvalidTimeWindow
	}
	return nil
}

// dateOnly truncates a timestamp to its calendar date. Validity bounds are
// date-granular: an item stays sellable through the whole of its last day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// withinServingHours checks the branch-local clock against the window.
// A malformed stored bound closes the window rather than failing the request.
func withinServingHours(availability *models.BranchAvailability, localTime time.Time) bool {
	nowMin := localTime.Hour()*60 + localTime.Minute()

	if availability.AvailableFrom != nil {
		fromMin, err := parseClock(*availability.AvailableFrom)
		if err != nil || nowMin < fromMin {
			return false
		}
	}
	if availability.AvailableTo != nil {
		toMin, err := parseClock(*availability.AvailableTo)
		if err != nil || nowMin > toMin {
			return false
		}
	}
	return true
}

// Resolve evaluates all availability checks for one item at one branch as of
// the given time (defaulting to now)
func (r *AvailabilityResolver) Resolve(ctx context.Context, tenantID string, menuItemID, branchID uuid.UUID, at *time.Time) (*models.MenuItemAvailability, error) {
	now := time.Now()
	if at != nil {
		now = *at
	}

	result := &models.MenuItemAvailability{
		MenuItemID: menuItemID,
		BranchID:   branchID,
		CheckedAt:  now,
	}

	item, err := r.repo.GetMenuItemByID(ctx, tenantID, menuItemID)
	if err != nil {
		return nil, err
	}

	availability, err := r.repo.GetBranchAvailability(ctx, tenantID, menuItemID, branchID)
	if errors.Is(err, repository.ErrNotFound) {
		result.Reason = ReasonNotOffered
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if !availability.IsActive {
		result.Reason = ReasonInactive
		return result, nil
	}

	today := dateOnly(now)
	if availability.ValidFrom != nil && today.Before(dateOnly(*availability.ValidFrom)) {
		result.Reason = ReasonOutsideValidityDates
		return result, nil
	}
	if availability.ValidUntil != nil && today.After(dateOnly(*availability.ValidUntil)) {
		result.Reason = ReasonOutsideValidityDates
		return result, nil
	}

	localTime := now
	if branch, err := r.repo.GetBranchByID(ctx, tenantID, branchID); err == nil {
		if loc, locErr := time.LoadLocation(branch.Timezone); locErr == nil {
			localTime = now.In(loc)
		}
	}
	if !withinServingHours(availability, localTime) {
		result.Reason = ReasonOutsideServingHours
		return result, nil
	}

	if item.Recipe != nil && len(item.Recipe.Items) > 0 {
		if item.Recipe.YieldQuantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("recipe %s has non-positive yield", item.Recipe.ID)
		}

		for _, line := range item.Recipe.Items {
			required := line.Quantity.Div(item.Recipe.YieldQuantity)

			available := decimal.Zero
			level, err := r.repo.GetStockLevel(ctx, tenantID, line.RawMaterialID, branchID)
			if err == nil {
				available = level.Quantity
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}

			if available.LessThan(required) {
				result.Reason = ReasonInsufficientIngredient
				return result, nil
			}
		}
	}

	result.Available = true
	return result, nil
}
