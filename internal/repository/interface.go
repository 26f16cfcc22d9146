package repository

import (
	"context"
	"errors"
	"time"

	"branch-inventory-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// TenantLister enumerates tenants that hold stock, for background sweeps
type TenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// InventoryRepositoryInterface defines data access for the stock ledger,
// alert engine and availability resolver. Services depend on this interface
// so business logic can be tested against a mock.
type InventoryRepositoryInterface interface {
	// WithTransaction runs fn with a repository bound to a single database
	// transaction; fn returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(txRepo InventoryRepositoryInterface) error) error

	// Raw materials
	CreateRawMaterial(ctx context.Context, tenantID string, material *models.RawMaterial) error
	GetRawMaterialByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.RawMaterial, error)
	FindRawMaterialByName(ctx context.Context, tenantID, name string) (*models.RawMaterial, error)
	ListRawMaterials(ctx context.Context, tenantID string, materialType *models.MaterialType, page, limit int) ([]models.RawMaterial, int64, error)
	UpdateRawMaterial(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error

	// Branches
	CreateBranch(ctx context.Context, tenantID string, branch *models.Branch) error
	GetBranchByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Branch, error)
	ListBranches(ctx context.Context, tenantID string, status *models.BranchStatus, page, limit int) ([]models.Branch, int64, error)

	// Stock batches
	CreateBatch(ctx context.Context, tenantID string, batch *models.StockBatch) error
	ListBatches(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID) ([]models.StockBatch, error)
	ListEligibleBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, includeExpired, lock bool) ([]models.StockBatch, error)
	ListExpiredBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, lock bool) ([]models.StockBatch, error)
	ListBatchesExpiringBetween(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, from, until time.Time) ([]models.StockBatch, error)
	UpdateBatchQuantity(ctx context.Context, tenantID string, batchID uuid.UUID, quantity decimal.Decimal) error
	SumBatchQuantities(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (decimal.Decimal, error)

	// Stock levels
	GetStockLevel(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error)
	GetStockLevelForUpdate(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error)
	UpsertStockLevel(ctx context.Context, tenantID string, level *models.StockLevel) error
	ListStockLevels(ctx context.Context, tenantID string, branchID *uuid.UUID, page, limit int) ([]models.StockLevel, int64, error)
	ListStockLevelsWithMaterial(ctx context.Context, tenantID string) ([]models.StockLevel, error)

	// Stock transactions (append-only)
	CreateTransaction(ctx context.Context, tenantID string, txn *models.StockTransaction) error
	ListTransactions(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID, page, limit int) ([]models.StockTransaction, int64, error)

	// Alerts
	CreateAlert(ctx context.Context, tenantID string, alert *models.StockAlert) error
	GetAlertByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.StockAlert, error)
	GetOpenAlert(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, alertType models.AlertType) (*models.StockAlert, error)
	ListAlerts(ctx context.Context, tenantID string, status *models.AlertStatus, alertType *models.AlertType, branchID *uuid.UUID, page, limit int) ([]models.StockAlert, int64, error)
	UpdateAlert(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error
	UpdateAlertIfStatus(ctx context.Context, tenantID string, id uuid.UUID, allowed []models.AlertStatus, updates map[string]interface{}) (int64, error)
	ResolveOpenAlerts(ctx context.Context, tenantID, resolvedBy string) (int64, error)
	GetAlertSummary(ctx context.Context, tenantID string) (*models.AlertSummary, error)

	// Menu catalog
	CreateMenuItem(ctx context.Context, tenantID string, item *models.MenuItem) error
	GetMenuItemByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, tenantID string, page, limit int) ([]models.MenuItem, int64, error)
	GetBranchAvailability(ctx context.Context, tenantID string, menuItemID, branchID uuid.UUID) (*models.BranchAvailability, error)
	UpsertBranchAvailability(ctx context.Context, tenantID string, availability *models.BranchAvailability) error
	UpsertRecipe(ctx context.Context, tenantID string, recipe *models.Recipe) error

	// Purchase orders
	GeneratePONumber(ctx context.Context, tenantID string) (string, error)
	CreatePurchaseOrder(ctx context.Context, tenantID string, po *models.PurchaseOrder) error
	GetPurchaseOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, page, limit int) ([]models.PurchaseOrder, int64, error)
	UpdatePurchaseOrder(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error

	// Destructive tenant-wide reset; caller is responsible for gating
	ClearTenantData(ctx context.Context, tenantID string) (*models.ClearAllSummary, error)
}
