package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusSubmitted PurchaseOrderStatus = "SUBMITTED"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// PurchaseOrder is the intake document that feeds stock-in. Receiving an order
// creates one batch per item with the item's expiry date.
type PurchaseOrder struct {
	ID       uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string              `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	BranchID uuid.UUID           `json:"branchId" gorm:"type:uuid;not null;index"`
	PONumber string              `json:"poNumber" gorm:"type:varchar(50);not null;uniqueIndex"`
	Status   PurchaseOrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`

	SupplierName *string `json:"supplierName,omitempty" gorm:"type:varchar(255)"`

	OrderDate    time.Time  `json:"orderDate"`
	ReceivedDate *time.Time `json:"receivedDate,omitempty"`

	Total decimal.Decimal `json:"total" gorm:"type:decimal(14,2);not null;default:0"`

	Notes      *string `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy  *string `json:"createdBy,omitempty"`
	ReceivedBy *string `json:"receivedBy,omitempty"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`

	Items []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

// PurchaseOrderItem is one material line of a purchase order
type PurchaseOrderItem struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	PurchaseOrderID uuid.UUID `json:"purchaseOrderId" gorm:"type:uuid;not null;index"`
	RawMaterialID   uuid.UUID `json:"rawMaterialId" gorm:"type:uuid;not null;index"`

	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
	Unit       string          `json:"unit" gorm:"type:varchar(50);not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,4);not null"`
	ExpiryDate *time.Time      `json:"expiryDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// Request models

type CreatePurchaseOrderRequest struct {
	BranchID     uuid.UUID                        `json:"branchId" binding:"required"`
	SupplierName *string                          `json:"supplierName,omitempty"`
	Notes        *string                          `json:"notes,omitempty"`
	Items        []CreatePurchaseOrderItemRequest `json:"items" binding:"required,min=1"`
}

type CreatePurchaseOrderItemRequest struct {
	RawMaterialID uuid.UUID       `json:"rawMaterialId" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unitPrice" binding:"required"`
	ExpiryDate    *time.Time      `json:"expiryDate,omitempty"`
}

// Response models

type PurchaseOrderResponse struct {
	Success bool           `json:"success"`
	Data    *PurchaseOrder `json:"data,omitempty"`
	Message *string        `json:"message,omitempty"`
}

type PurchaseOrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []PurchaseOrder `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
