// Package events provides NATS event publishing for branch-inventory-service
package events

import (
	"context"
	"fmt"
	"time"

	"branch-inventory-service/internal/models"
	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StockEventPublisher publishes stock ledger and alert events to NATS.
// Out-of-stock conditions map to inventory.out_of_stock; every other alert
// type maps to inventory.low_stock with a type-specific message, and ledger
// mutations map to inventory.adjusted.
type StockEventPublisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(natsURL string, logger *logrus.Logger) (*StockEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "branch-inventory-service-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream exists")
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log.WithField("component", "stock-events"),
	}, nil
}

// toUnits truncates a decimal quantity for the integer event payload
func toUnits(q decimal.Decimal) int {
	return int(q.IntPart())
}

// PublishStockAlert publishes an alert raised by the alert engine
func (p *StockEventPublisher) PublishStockAlert(ctx context.Context, tenantID string, alert *models.StockAlert, unit string) error {
	materialName := ""
	if alert.MaterialName != nil {
		materialName = *alert.MaterialName
	}
	branchName := ""
	if alert.BranchName != nil {
		branchName = *alert.BranchName
	}

	eventType := events.InventoryLowStock
	alertLevel := "warning"
	switch alert.Type {
	case models.AlertTypeOutOfStock:
		eventType = events.InventoryOutOfStock
		alertLevel = "critical"
	case models.AlertTypeExpired:
		alertLevel = "critical"
	}

	event := events.NewInventoryEvent(eventType, tenantID)
	event.AlertLevel = alertLevel

	event.Items = []events.InventoryItem{
		{
			ProductID:     alert.RawMaterialID.String(),
			Name:          materialName,
			SKU:           unit,
			CurrentStock:  toUnits(alert.CurrentQuantity),
			ReorderPoint:  toUnits(alert.ThresholdValue),
			WarehouseID:   alert.BranchID.String(),
			WarehouseName: branchName,
		},
	}
	event.AlertMessage = alert.Message
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"rawMaterialId": alert.RawMaterialID,
			"branchId":      alert.BranchID,
			"alertType":     alert.Type,
		}).WithError(err).Error("Failed to publish stock alert event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"rawMaterialId": alert.RawMaterialID,
		"branchId":      alert.BranchID,
		"alertType":     alert.Type,
	}).Info("Published stock alert event")
	return nil
}

// PublishStockChanged publishes an inventory.adjusted event for any ledger
// mutation (stock-in, stock-out or manual adjustment)
func (p *StockEventPublisher) PublishStockChanged(ctx context.Context, tenantID string, materialID, materialName, unit string, previous, current decimal.Decimal, reason, performedBy, branchID, branchName string) error {
	event := events.NewInventoryEvent(events.InventoryAdjusted, tenantID)
	event.Items = []events.InventoryItem{
		{
			ProductID:     materialID,
			Name:          materialName,
			SKU:           unit,
			CurrentStock:  toUnits(current),
			PreviousStock: toUnits(previous),
			WarehouseID:   branchID,
			WarehouseName: branchName,
		},
	}
	event.AdjustmentReason = reason
	event.AdjustedBy = performedBy
	if current.GreaterThan(previous) {
		event.AdjustmentType = "add"
	} else if current.LessThan(previous) {
		event.AdjustmentType = "remove"
	} else {
		event.AdjustmentType = "set"
	}
	event.AlertLevel = "info"
	event.AlertMessage = fmt.Sprintf("Stock changed: %s moved from %s to %s %s", materialName, previous, current, unit)

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"rawMaterialId": materialID,
			"branchId":      branchID,
		}).WithError(err).Error("Failed to publish inventory.adjusted event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"rawMaterialId":  materialID,
		"branchId":       branchID,
		"adjustmentType": event.AdjustmentType,
	}).Info("Published inventory.adjusted event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *StockEventPublisher) IsConnected() bool {
	return p.publisher.IsConnected()
}

// Close closes the NATS connection
func (p *StockEventPublisher) Close() {
	p.publisher.Close()
}
