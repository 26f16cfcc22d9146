package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrOrderNotReceivable is returned when receiving an order that is already
// received or cancelled
var ErrOrderNotReceivable = errors.New("purchase order cannot be received in its current status")

// PurchaseOrders manages the intake documents that feed stock-in. Receiving
// an order books one batch per line item through the ledger.
type PurchaseOrders struct {
	repo   repository.InventoryRepositoryInterface
	ledger *StockLedger
	logger *logrus.Logger
}

func NewPurchaseOrders(repo repository.InventoryRepositoryInterface, ledger *StockLedger, logger *logrus.Logger) *PurchaseOrders {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PurchaseOrders{repo: repo, ledger: ledger, logger: logger}
}

// Create validates the lines and books a draft order with a generated number
func (p *PurchaseOrders) Create(ctx context.Context, tenantID string, req models.CreatePurchaseOrderRequest, createdBy *string) (*models.PurchaseOrder, error) {
	branch, err := p.repo.GetBranchByID(ctx, tenantID, req.BranchID)
	if err != nil {
		return nil, err
	}
	if branch.Status != models.BranchStatusActive {
		return nil, ErrBranchNotActive
	}

	total := decimal.Zero
	items := make([]models.PurchaseOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidQuantity
		}
		if _, err := p.repo.GetRawMaterialByID(ctx, tenantID, line.RawMaterialID); err != nil {
			return nil, fmt.Errorf("raw material %s: %w", line.RawMaterialID, err)
		}

		items = append(items, models.PurchaseOrderItem{
			RawMaterialID: line.RawMaterialID,
			Quantity:      line.Quantity,
			Unit:          line.Unit,
			UnitPrice:     line.UnitPrice,
			ExpiryDate:    line.ExpiryDate,
		})
		total = total.Add(line.Quantity.Mul(line.UnitPrice))
	}

	poNumber, err := p.repo.GeneratePONumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	po := &models.PurchaseOrder{
		BranchID:     req.BranchID,
		PONumber:     poNumber,
		Status:       models.PurchaseOrderStatusDraft,
		SupplierName: req.SupplierName,
		OrderDate:    time.Now(),
		Total:        total,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
		Items:        items,
	}
	if err := p.repo.CreatePurchaseOrder(ctx, tenantID, po); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"poNumber": po.PONumber,
		"branchId": po.BranchID,
		"items":    len(po.Items),
	}).Info("Purchase order created")
	return po, nil
}

// Submit moves a draft order to submitted
func (p *PurchaseOrders) Submit(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if po.Status != models.PurchaseOrderStatusDraft {
		return nil, fmt.Errorf("purchase order %s is %s, only drafts can be submitted", po.PONumber, po.Status)
	}

	updates := map[string]interface{}{"status": models.PurchaseOrderStatusSubmitted}
	if err := p.repo.UpdatePurchaseOrder(ctx, tenantID, id, updates); err != nil {
		return nil, err
	}
	return p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
}

// Cancel voids an order that has not been received yet
func (p *PurchaseOrders) Cancel(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if po.Status == models.PurchaseOrderStatusReceived || po.Status == models.PurchaseOrderStatusCancelled {
		return nil, fmt.Errorf("purchase order %s is %s and cannot be cancelled", po.PONumber, po.Status)
	}

	updates := map[string]interface{}{"status": models.PurchaseOrderStatusCancelled}
	if err := p.repo.UpdatePurchaseOrder(ctx, tenantID, id, updates); err != nil {
		return nil, err
	}
	return p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
}

// Receive books every line of a draft or submitted order into stock. Each
// line becomes its own batch referencing the order item, with the line's
// expiry date when given.
func (p *PurchaseOrders) Receive(ctx context.Context, tenantID string, id uuid.UUID, receivedBy *string) (*models.PurchaseOrder, error) {
	po, err := p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if po.Status != models.PurchaseOrderStatusDraft && po.Status != models.PurchaseOrderStatusSubmitted {
		return nil, ErrOrderNotReceivable
	}

	for _, item := range po.Items {
		sourceRef := item.ID
		_, err := p.ledger.StockIn(ctx, tenantID, StockInInput{
			RawMaterialID:   item.RawMaterialID,
			BranchID:        po.BranchID,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitPrice,
			ExpiryDate:      item.ExpiryDate,
			SourceReference: &sourceRef,
			ReferenceNumber: &po.PONumber,
			PerformedBy:     receivedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to receive line %s: %w", item.ID, err)
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.PurchaseOrderStatusReceived,
		"received_date": now,
		"received_by":   receivedBy,
	}
	if err := p.repo.UpdatePurchaseOrder(ctx, tenantID, id, updates); err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"poNumber": po.PONumber,
		"items":    len(po.Items),
	}).Info("Purchase order received")
	return p.repo.GetPurchaseOrderByID(ctx, tenantID, id)
}
