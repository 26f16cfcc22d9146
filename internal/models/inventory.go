package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JSON type for PostgreSQL JSONB
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// MaterialType classifies a raw material
type MaterialType string

const (
	MaterialTypeRaw           MaterialType = "RAW"
	MaterialTypeProcessed     MaterialType = "PROCESSED"
	MaterialTypeSemiProcessed MaterialType = "SEMI_PROCESSED"
	MaterialTypeSupplies      MaterialType = "SUPPLIES"
)

// ValidMaterialType reports whether t is a known material type
func ValidMaterialType(t MaterialType) bool {
	switch t {
	case MaterialTypeRaw, MaterialTypeProcessed, MaterialTypeSemiProcessed, MaterialTypeSupplies:
		return true
	}
	return false
}

// RawMaterial represents an ingredient or supply tracked by the stock ledger.
// Name is unique case-insensitively within a tenant. ShelfLifeDays is nil only
// for SUPPLIES, which never expire.
type RawMaterial struct {
	ID       uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string       `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name     string       `json:"name" gorm:"type:varchar(255);not null;index"`
	Unit     string       `json:"unit" gorm:"type:varchar(50);not null"`
	Type     MaterialType `json:"materialType" gorm:"type:varchar(20);not null;default:'RAW'"`

	// Alert boundaries: low stock fires at <= MinimumThreshold, reorder at <= ReorderLevel
	MinimumThreshold decimal.Decimal `json:"minimumThreshold" gorm:"type:decimal(14,3);not null;default:0"`
	ReorderLevel     decimal.Decimal `json:"reorderLevel" gorm:"type:decimal(14,3);not null;default:0"`
	ShelfLifeDays    *int            `json:"shelfLifeDays,omitempty"`

	Metadata *JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
	CreatedBy *string         `json:"createdBy,omitempty"`
}

// StockBatch is one receipt of a raw material at a branch. Created only by
// stock-in, shrunk only by stock-out allocation, never resurrected.
type StockBatch struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RawMaterialID uuid.UUID `json:"rawMaterialId" gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID `json:"branchId" gorm:"type:uuid;not null;index"`

	QuantityRemaining decimal.Decimal `json:"quantityRemaining" gorm:"type:decimal(14,3);not null"`
	UnitCost          decimal.Decimal `json:"unitCost" gorm:"type:decimal(12,4);not null"`
	ReceivedDate      time.Time       `json:"receivedDate" gorm:"not null;index"`
	ExpiryDate        *time.Time      `json:"expiryDate,omitempty" gorm:"index"`

	// Purchase order item that produced this batch; nil for adjustments
	SourceReference *uuid.UUID `json:"sourceReference,omitempty" gorm:"type:uuid;index"`

	RawMaterial *RawMaterial `json:"rawMaterial,omitempty" gorm:"foreignKey:RawMaterialID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsExpired reports whether the batch is expired as of the given time
func (b *StockBatch) IsExpired(asOf time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(asOf)
}

// TransactionType represents the kind of stock transaction
type TransactionType string

const (
	TransactionTypeStockIn    TransactionType = "STOCK_IN"
	TransactionTypeStockOut   TransactionType = "STOCK_OUT"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// StockTransaction is the append-only audit log of every quantity change.
// Rows are never updated or deleted outside the tenant-wide clear-all reset.
type StockTransaction struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string          `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RawMaterialID uuid.UUID       `json:"rawMaterialId" gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID       `json:"branchId" gorm:"type:uuid;not null;index"`
	Type          TransactionType `json:"type" gorm:"type:varchar(20);not null;index"`

	// Signed: positive for stock-in and upward adjustments, negative otherwise
	Quantity decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
	BatchID  *uuid.UUID      `json:"batchId,omitempty" gorm:"type:uuid;index"`

	ReferenceNumber *string `json:"referenceNumber,omitempty" gorm:"type:varchar(100)"`
	PerformedBy     *string `json:"performedBy,omitempty" gorm:"type:varchar(255)"`
	Notes           *string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
}

// StockLevel is the per-material, per-branch aggregate quantity. Invariant:
// Quantity always equals the sum of the branch's batch remaining quantities
// for the material.
type StockLevel struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RawMaterialID uuid.UUID `json:"rawMaterialId" gorm:"type:uuid;not null;index:idx_stock_levels_material_branch,unique"`
	BranchID      uuid.UUID `json:"branchId" gorm:"type:uuid;not null;index:idx_stock_levels_material_branch,unique"`

	Quantity decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null;default:0"`

	LastRestockedAt *time.Time `json:"lastRestockedAt,omitempty"`

	RawMaterial *RawMaterial `json:"rawMaterial,omitempty" gorm:"foreignKey:RawMaterialID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AlertType represents the type of stock alert
type AlertType string

const (
	AlertTypeOutOfStock   AlertType = "OUT_OF_STOCK"
	AlertTypeLowStock     AlertType = "LOW_STOCK"
	AlertTypeReorder      AlertType = "REORDER"
	AlertTypeExpired      AlertType = "EXPIRED"
	AlertTypeExpiringSoon AlertType = "EXPIRING_SOON"
)

// AlertTypesBySeverity lists alert types in display precedence order
var AlertTypesBySeverity = []AlertType{
	AlertTypeOutOfStock,
	AlertTypeLowStock,
	AlertTypeReorder,
	AlertTypeExpired,
	AlertTypeExpiringSoon,
}

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "ACTIVE"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
)

// StockAlert represents a threshold or expiry condition detected against the
// ledger. At most one non-resolved alert exists per (material, branch, type);
// RESOLVED is terminal and a recurring condition creates a new row.
type StockAlert struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RawMaterialID uuid.UUID `json:"rawMaterialId" gorm:"type:uuid;not null;index"`
	BranchID      uuid.UUID `json:"branchId" gorm:"type:uuid;not null;index"`

	Type   AlertType   `json:"type" gorm:"type:varchar(50);not null;index"`
	Status AlertStatus `json:"status" gorm:"type:varchar(50);not null;default:'ACTIVE';index"`

	ThresholdValue  decimal.Decimal `json:"thresholdValue" gorm:"type:decimal(14,3);not null;default:0"`
	CurrentQuantity decimal.Decimal `json:"currentQuantity" gorm:"type:decimal(14,3);not null;default:0"`
	Message         string          `json:"message" gorm:"type:text;not null"`

	// Denormalized for display
	MaterialName *string `json:"materialName,omitempty" gorm:"type:varchar(255)"`
	BranchName   *string `json:"branchName,omitempty" gorm:"type:varchar(255)"`

	AcknowledgedBy *string    `json:"acknowledgedBy,omitempty" gorm:"type:varchar(255)"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
	ResolvedBy     *string    `json:"resolvedBy,omitempty" gorm:"type:varchar(255)"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

// Open reports whether the alert is still in a non-resolved state
func (a *StockAlert) Open() bool {
	return a.Status == AlertStatusActive || a.Status == AlertStatusAcknowledged
}

// TableName implementations
func (RawMaterial) TableName() string {
	return "raw_materials"
}

func (StockBatch) TableName() string {
	return "stock_batches"
}

func (StockTransaction) TableName() string {
	return "stock_transactions"
}

func (StockLevel) TableName() string {
	return "stock_levels"
}

func (StockAlert) TableName() string {
	return "stock_alerts"
}

// Request models

type CreateRawMaterialRequest struct {
	Name             string          `json:"name" binding:"required,min=1,max=255"`
	Unit             string          `json:"unit" binding:"required,min=1,max=50"`
	Type             MaterialType    `json:"materialType" binding:"required"`
	MinimumThreshold decimal.Decimal `json:"minimumThreshold"`
	ReorderLevel     decimal.Decimal `json:"reorderLevel"`
	ShelfLifeDays    *int            `json:"shelfLifeDays,omitempty"`
	Metadata         *JSON           `json:"metadata,omitempty"`
}

type UpdateRawMaterialRequest struct {
	Name             *string          `json:"name,omitempty"`
	Unit             *string          `json:"unit,omitempty"`
	MinimumThreshold *decimal.Decimal `json:"minimumThreshold,omitempty"`
	ReorderLevel     *decimal.Decimal `json:"reorderLevel,omitempty"`
	ShelfLifeDays    *int             `json:"shelfLifeDays,omitempty"`
}

type StockInRequest struct {
	RawMaterialID   uuid.UUID       `json:"rawMaterialId" binding:"required"`
	BranchID        uuid.UUID       `json:"branchId" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	ExpiryDate      *time.Time      `json:"expiryDate,omitempty"`
	ReferenceNumber *string         `json:"referenceNumber,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type StockOutRequest struct {
	RawMaterialID uuid.UUID       `json:"rawMaterialId" binding:"required"`
	BranchID      uuid.UUID       `json:"branchId" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Notes         *string         `json:"notes,omitempty"`
	ForceExpired  bool            `json:"forceExpired"`
}

type StockAdjustRequest struct {
	RawMaterialID uuid.UUID       `json:"rawMaterialId" binding:"required"`
	BranchID      uuid.UUID       `json:"branchId" binding:"required"`
	Delta         decimal.Decimal `json:"delta" binding:"required"`
	Reason        string          `json:"reason" binding:"required,min=1"`
}

type ClearAllRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// ExpiredBatchDetail describes an expired batch reported alongside an
// insufficient-stock rejection so the caller can decide on forced disposal
type ExpiredBatchDetail struct {
	BatchID    uuid.UUID       `json:"batchId"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExpiryDate time.Time       `json:"expiryDate"`
}

// ClearAllSummary reports what the tenant-wide reset deleted
type ClearAllSummary struct {
	RawMaterials      int64 `json:"rawMaterials"`
	Batches           int64 `json:"batches"`
	Transactions      int64 `json:"transactions"`
	Alerts            int64 `json:"alerts"`
	StockLevels       int64 `json:"stockLevels"`
	MenuItems         int64 `json:"menuItems"`
	Recipes           int64 `json:"recipes"`
	PurchaseOrders    int64 `json:"purchaseOrders"`
}

// Response models

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type RawMaterialResponse struct {
	Success bool         `json:"success"`
	Data    *RawMaterial `json:"data,omitempty"`
	Message *string      `json:"message,omitempty"`
}

type RawMaterialListResponse struct {
	Success    bool            `json:"success"`
	Data       []RawMaterial   `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type StockLevelListResponse struct {
	Success    bool            `json:"success"`
	Data       []StockLevel    `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type StockBatchListResponse struct {
	Success bool         `json:"success"`
	Data    []StockBatch `json:"data"`
}

type StockTransactionListResponse struct {
	Success    bool               `json:"success"`
	Data       []StockTransaction `json:"data"`
	Pagination *PaginationMeta    `json:"pagination,omitempty"`
}

// InsufficientStockResponse is the 400 body for a short allocation, carrying
// the expired batches the caller may choose to dispose of
type InsufficientStockResponse struct {
	Success        bool                 `json:"success"`
	Error          Error                `json:"error"`
	ExpiredBatches []ExpiredBatchDetail `json:"expiredBatches,omitempty"`
	Suggestion     *string              `json:"suggestion,omitempty"`
}

type AlertResponse struct {
	Success bool        `json:"success"`
	Data    *StockAlert `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type AlertListResponse struct {
	Success    bool            `json:"success"`
	Data       []StockAlert    `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// AlertSummary represents counts of alerts by status and type
type AlertSummary struct {
	TotalActive       int            `json:"totalActive"`
	TotalAcknowledged int            `json:"totalAcknowledged"`
	TotalResolved     int            `json:"totalResolved"`
	ByType            map[string]int `json:"byType"`
	ByBranch          map[string]int `json:"byBranch,omitempty"`
}

type AlertSummaryResponse struct {
	Success bool          `json:"success"`
	Data    *AlertSummary `json:"data,omitempty"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}
