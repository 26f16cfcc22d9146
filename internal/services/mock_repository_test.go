package services

import (
	"context"
	"time"

	"branch-inventory-service/internal/models"
	"branch-inventory-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInventoryRepository is a mock implementation of InventoryRepositoryInterface
type MockInventoryRepository struct {
	mock.Mock
}

// Ensure MockInventoryRepository implements the interface
var _ repository.InventoryRepositoryInterface = (*MockInventoryRepository)(nil)

// WithTransaction executes the callback with the mock itself, simulating a
// transaction so business logic can be tested without a database
func (m *MockInventoryRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.InventoryRepositoryInterface) error) error {
	return fn(m)
}

func (m *MockInventoryRepository) CreateRawMaterial(ctx context.Context, tenantID string, material *models.RawMaterial) error {
	args := m.Called(ctx, tenantID, material)
	if args.Error(0) == nil && material.ID == uuid.Nil {
		material.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockInventoryRepository) GetRawMaterialByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.RawMaterial, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawMaterial), args.Error(1)
}

func (m *MockInventoryRepository) FindRawMaterialByName(ctx context.Context, tenantID, name string) (*models.RawMaterial, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RawMaterial), args.Error(1)
}

func (m *MockInventoryRepository) ListRawMaterials(ctx context.Context, tenantID string, materialType *models.MaterialType, page, limit int) ([]models.RawMaterial, int64, error) {
	args := m.Called(ctx, tenantID, materialType, page, limit)
	return args.Get(0).([]models.RawMaterial), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) UpdateRawMaterial(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, tenantID, id, updates)
	return args.Error(0)
}

func (m *MockInventoryRepository) CreateBranch(ctx context.Context, tenantID string, branch *models.Branch) error {
	args := m.Called(ctx, tenantID, branch)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetBranchByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Branch, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Branch), args.Error(1)
}

func (m *MockInventoryRepository) ListBranches(ctx context.Context, tenantID string, status *models.BranchStatus, page, limit int) ([]models.Branch, int64, error) {
	args := m.Called(ctx, tenantID, status, page, limit)
	return args.Get(0).([]models.Branch), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) CreateBatch(ctx context.Context, tenantID string, batch *models.StockBatch) error {
	args := m.Called(ctx, tenantID, batch)
	if args.Error(0) == nil && batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockInventoryRepository) ListBatches(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID) ([]models.StockBatch, error) {
	args := m.Called(ctx, tenantID, materialID, branchID)
	return args.Get(0).([]models.StockBatch), args.Error(1)
}

func (m *MockInventoryRepository) ListEligibleBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, includeExpired, lock bool) ([]models.StockBatch, error) {
	args := m.Called(ctx, tenantID, materialID, branchID, asOf, includeExpired, lock)
	return args.Get(0).([]models.StockBatch), args.Error(1)
}

func (m *MockInventoryRepository) ListExpiredBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, lock bool) ([]models.StockBatch, error) {
	args := m.Called(ctx, tenantID, materialID, branchID, asOf, lock)
	return args.Get(0).([]models.StockBatch), args.Error(1)
}

func (m *MockInventoryRepository) ListBatchesExpiringBetween(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, from, until time.Time) ([]models.StockBatch, error) {
	args := m.Called(ctx, tenantID, materialID, branchID, from, until)
	return args.Get(0).([]models.StockBatch), args.Error(1)
}

func (m *MockInventoryRepository) UpdateBatchQuantity(ctx context.Context, tenantID string, batchID uuid.UUID, quantity decimal.Decimal) error {
	args := m.Called(ctx, tenantID, batchID, quantity)
	return args.Error(0)
}

func (m *MockInventoryRepository) SumBatchQuantities(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, materialID, branchID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInventoryRepository) GetStockLevel(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error) {
	args := m.Called(ctx, tenantID, materialID, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockLevel), args.Error(1)
}

func (m *MockInventoryRepository) GetStockLevelForUpdate(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error) {
	args := m.Called(ctx, tenantID, materialID, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockLevel), args.Error(1)
}

func (m *MockInventoryRepository) UpsertStockLevel(ctx context.Context, tenantID string, level *models.StockLevel) error {
	args := m.Called(ctx, tenantID, level)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListStockLevels(ctx context.Context, tenantID string, branchID *uuid.UUID, page, limit int) ([]models.StockLevel, int64, error) {
	args := m.Called(ctx, tenantID, branchID, page, limit)
	return args.Get(0).([]models.StockLevel), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) ListStockLevelsWithMaterial(ctx context.Context, tenantID string) ([]models.StockLevel, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.StockLevel), args.Error(1)
}

func (m *MockInventoryRepository) CreateTransaction(ctx context.Context, tenantID string, txn *models.StockTransaction) error {
	args := m.Called(ctx, tenantID, txn)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListTransactions(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID, page, limit int) ([]models.StockTransaction, int64, error) {
	args := m.Called(ctx, tenantID, materialID, branchID, page, limit)
	return args.Get(0).([]models.StockTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) CreateAlert(ctx context.Context, tenantID string, alert *models.StockAlert) error {
	args := m.Called(ctx, tenantID, alert)
	if args.Error(0) == nil && alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockInventoryRepository) GetAlertByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.StockAlert, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockAlert), args.Error(1)
}

func (m *MockInventoryRepository) GetOpenAlert(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, alertType models.AlertType) (*models.StockAlert, error) {
	args := m.Called(ctx, tenantID, materialID, branchID, alertType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockAlert), args.Error(1)
}

func (m *MockInventoryRepository) ListAlerts(ctx context.Context, tenantID string, status *models.AlertStatus, alertType *models.AlertType, branchID *uuid.UUID, page, limit int) ([]models.StockAlert, int64, error) {
	args := m.Called(ctx, tenantID, status, alertType, branchID, page, limit)
	return args.Get(0).([]models.StockAlert), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) UpdateAlert(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, tenantID, id, updates)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateAlertIfStatus(ctx context.Context, tenantID string, id uuid.UUID, allowed []models.AlertStatus, updates map[string]interface{}) (int64, error) {
	args := m.Called(ctx, tenantID, id, allowed, updates)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryRepository) ResolveOpenAlerts(ctx context.Context, tenantID, resolvedBy string) (int64, error) {
	args := m.Called(ctx, tenantID, resolvedBy)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryRepository) GetAlertSummary(ctx context.Context, tenantID string) (*models.AlertSummary, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertSummary), args.Error(1)
}

func (m *MockInventoryRepository) CreateMenuItem(ctx context.Context, tenantID string, item *models.MenuItem) error {
	args := m.Called(ctx, tenantID, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetMenuItemByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.MenuItem, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}

func (m *MockInventoryRepository) ListMenuItems(ctx context.Context, tenantID string, page, limit int) ([]models.MenuItem, int64, error) {
	args := m.Called(ctx, tenantID, page, limit)
	return args.Get(0).([]models.MenuItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) GetBranchAvailability(ctx context.Context, tenantID string, menuItemID, branchID uuid.UUID) (*models.BranchAvailability, error) {
	args := m.Called(ctx, tenantID, menuItemID, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BranchAvailability), args.Error(1)
}

func (m *MockInventoryRepository) UpsertBranchAvailability(ctx context.Context, tenantID string, availability *models.BranchAvailability) error {
	args := m.Called(ctx, tenantID, availability)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpsertRecipe(ctx context.Context, tenantID string, recipe *models.Recipe) error {
	args := m.Called(ctx, tenantID, recipe)
	return args.Error(0)
}

func (m *MockInventoryRepository) GeneratePONumber(ctx context.Context, tenantID string) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockInventoryRepository) CreatePurchaseOrder(ctx context.Context, tenantID string, po *models.PurchaseOrder) error {
	args := m.Called(ctx, tenantID, po)
	if args.Error(0) == nil && po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockInventoryRepository) GetPurchaseOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseOrder), args.Error(1)
}

func (m *MockInventoryRepository) ListPurchaseOrders(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, page, limit int) ([]models.PurchaseOrder, int64, error) {
	args := m.Called(ctx, tenantID, status, page, limit)
	return args.Get(0).([]models.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) UpdatePurchaseOrder(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, tenantID, id, updates)
	return args.Error(0)
}

func (m *MockInventoryRepository) ClearTenantData(ctx context.Context, tenantID string) (*models.ClearAllSummary, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClearAllSummary), args.Error(1)
}
