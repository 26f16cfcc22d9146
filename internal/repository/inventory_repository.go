package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"branch-inventory-service/internal/models"
	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache TTL constants
const (
	StockLevelCacheTTL = 2 * time.Minute  // aggregates change on every ledger mutation
	MenuItemCacheTTL   = 10 * time.Minute // catalog changes are rare
	BranchCacheTTL     = 30 * time.Minute // branches rarely change
)

// Ensure the gorm implementation satisfies the interface
var _ InventoryRepositoryInterface = (*InventoryRepository)(nil)

type InventoryRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

func NewInventoryRepository(db *gorm.DB, redisClient *redis.Client) *InventoryRepository {
	repo := &InventoryRepository{
		db:    db,
		redis: redisClient,
	}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: StockLevelCacheTTL,
			KeyPrefix:  "tesseract:branch-inventory:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// WithTransaction runs fn against a repository bound to one transaction.
// The tx-bound repository shares the cache layer so invalidations still apply.
func (r *InventoryRepository) WithTransaction(ctx context.Context, fn func(txRepo InventoryRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &InventoryRepository{db: tx, redis: r.redis, cache: r.cache}
		return fn(txRepo)
	})
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func stockCacheKey(tenantID string, materialID, branchID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s:%s", tenantID, materialID.String(), branchID.String())
}

// invalidateStockCaches drops cached aggregates after a ledger mutation
func (r *InventoryRepository) invalidateStockCaches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, stockCacheKey(tenantID, materialID, branchID))
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("stock:list:%s:*", tenantID))
}

func (r *InventoryRepository) invalidateTenantCaches(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("stock:%s:*", tenantID))
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("stock:list:%s:*", tenantID))
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("menu:%s:*", tenantID))
}

// RedisHealth returns the health status of the Redis connection
func (r *InventoryRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics
func (r *InventoryRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// ========== Raw Material Operations ==========

func (r *InventoryRepository) CreateRawMaterial(ctx context.Context, tenantID string, material *models.RawMaterial) error {
	material.TenantID = tenantID
	material.CreatedAt = time.Now()
	material.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *InventoryRepository) GetRawMaterialByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.RawMaterial, error) {
	var material models.RawMaterial
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&material).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &material, nil
}

// FindRawMaterialByName matches case-insensitively; names are unique per tenant
func (r *InventoryRepository) FindRawMaterialByName(ctx context.Context, tenantID, name string) (*models.RawMaterial, error) {
	var material models.RawMaterial
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).
		First(&material).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &material, nil
}

func (r *InventoryRepository) ListRawMaterials(ctx context.Context, tenantID string, materialType *models.MaterialType, page, limit int) ([]models.RawMaterial, int64, error) {
	var materials []models.RawMaterial
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if materialType != nil {
		query = query.Where("type = ?", *materialType)
	}

	if err := query.Model(&models.RawMaterial{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("name ASC").Find(&materials).Error
	return materials, total, err
}

func (r *InventoryRepository) UpdateRawMaterial(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.RawMaterial{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Branch Operations ==========

func (r *InventoryRepository) CreateBranch(ctx context.Context, tenantID string, branch *models.Branch) error {
	branch.TenantID = tenantID
	branch.CreatedAt = time.Now()
	branch.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *InventoryRepository) GetBranchByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&branch).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &branch, nil
}

func (r *InventoryRepository) ListBranches(ctx context.Context, tenantID string, status *models.BranchStatus, page, limit int) ([]models.Branch, int64, error) {
	var branches []models.Branch
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Model(&models.Branch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("code ASC").Find(&branches).Error
	return branches, total, err
}

// ========== Stock Batch Operations ==========

func (r *InventoryRepository) CreateBatch(ctx context.Context, tenantID string, batch *models.StockBatch) error {
	batch.TenantID = tenantID
	batch.CreatedAt = time.Now()
	batch.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *InventoryRepository) ListBatches(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND quantity_remaining > 0", tenantID)
	if materialID != nil {
		query = query.Where("raw_material_id = ?", *materialID)
	}
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	err := query.
		Order("expiry_date ASC NULLS LAST").
		Order("received_date ASC").
		Find(&batches).Error
	return batches, err
}

// ListEligibleBatches returns non-empty batches in allocation order: expiry
// ascending with never-expiring batches last, oldest receipt first on ties.
// includeExpired=false filters out batches whose expiry precedes asOf.
func (r *InventoryRepository) ListEligibleBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, includeExpired, lock bool) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ? AND quantity_remaining > 0",
			tenantID, materialID, branchID)

	if !includeExpired {
		query = query.Where("expiry_date IS NULL OR expiry_date >= ?", asOf)
	}
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	err := query.
		Order("expiry_date ASC NULLS LAST").
		Order("received_date ASC").
		Find(&batches).Error
	return batches, err
}

// ListExpiredBatches returns only batches already expired as of asOf, in the
// same allocation order. Used by the explicit disposal mode.
func (r *InventoryRepository) ListExpiredBatches(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, asOf time.Time, lock bool) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ? AND quantity_remaining > 0 AND expiry_date IS NOT NULL AND expiry_date < ?",
			tenantID, materialID, branchID, asOf)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.
		Order("expiry_date ASC").
		Order("received_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *InventoryRepository) ListBatchesExpiringBetween(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, from, until time.Time) ([]models.StockBatch, error) {
	var batches []models.StockBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ? AND quantity_remaining > 0 AND expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?",
			tenantID, materialID, branchID, from, until).
		Order("expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *InventoryRepository) UpdateBatchQuantity(ctx context.Context, tenantID string, batchID uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.StockBatch{}).
		Where("tenant_id = ? AND id = ?", tenantID, batchID).
		Updates(map[string]interface{}{
			"quantity_remaining": quantity,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SumBatchQuantities totals remaining batch quantities; the ledger uses it to
// verify the aggregate invariant
func (r *InventoryRepository) SumBatchQuantities(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.StockBatch{}).
		Select("COALESCE(SUM(quantity_remaining), 0)").
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ?", tenantID, materialID, branchID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// ========== Stock Level Operations ==========

func (r *InventoryRepository) GetStockLevel(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error) {
	if r.cache != nil {
		var cached models.StockLevel
		if err := r.cache.GetJSON(ctx, stockCacheKey(tenantID, materialID, branchID), &cached); err == nil {
			return &cached, nil
		}
	}

	var level models.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ?", tenantID, materialID, branchID).
		First(&level).Error
	if err != nil {
		return nil, translateNotFound(err)
	}

	if r.cache != nil {
		_ = r.cache.SetJSON(ctx, stockCacheKey(tenantID, materialID, branchID), &level, StockLevelCacheTTL)
	}
	return &level, nil
}

// GetStockLevelForUpdate locks the aggregate row (SELECT ... FOR UPDATE) so
// concurrent ledger mutations on the same (material, branch) serialize.
// Must be called inside WithTransaction.
func (r *InventoryRepository) GetStockLevelForUpdate(ctx context.Context, tenantID string, materialID, branchID uuid.UUID) (*models.StockLevel, error) {
	var level models.StockLevel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ?", tenantID, materialID, branchID).
		First(&level).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &level, nil
}

func (r *InventoryRepository) UpsertStockLevel(ctx context.Context, tenantID string, level *models.StockLevel) error {
	level.TenantID = tenantID
	level.UpdatedAt = time.Now()

	var err error
	if level.ID == uuid.Nil {
		level.CreatedAt = time.Now()
		err = r.db.WithContext(ctx).Create(level).Error
	} else {
		err = r.db.WithContext(ctx).Save(level).Error
	}

	if err == nil {
		r.invalidateStockCaches(ctx, tenantID, level.RawMaterialID, level.BranchID)
	}
	return err
}

func (r *InventoryRepository) ListStockLevels(ctx context.Context, tenantID string, branchID *uuid.UUID, page, limit int) ([]models.StockLevel, int64, error) {
	var levels []models.StockLevel
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	if err := query.Model(&models.StockLevel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Preload("RawMaterial").Order("updated_at DESC").Find(&levels).Error
	return levels, total, err
}

// ListStockLevelsWithMaterial returns every aggregate row with its material
// preloaded; the alert sweep walks this to evaluate all (material, branch) pairs
func (r *InventoryRepository) ListStockLevelsWithMaterial(ctx context.Context, tenantID string) ([]models.StockLevel, error) {
	var levels []models.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("RawMaterial").
		Find(&levels).Error
	return levels, err
}

// ========== Stock Transaction Operations ==========

func (r *InventoryRepository) CreateTransaction(ctx context.Context, tenantID string, txn *models.StockTransaction) error {
	txn.TenantID = tenantID
	txn.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *InventoryRepository) ListTransactions(ctx context.Context, tenantID string, materialID, branchID *uuid.UUID, page, limit int) ([]models.StockTransaction, int64, error) {
	var txns []models.StockTransaction
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if materialID != nil {
		query = query.Where("raw_material_id = ?", *materialID)
	}
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	if err := query.Model(&models.StockTransaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&txns).Error
	return txns, total, err
}

// ========== Alert Operations ==========

func (r *InventoryRepository) CreateAlert(ctx context.Context, tenantID string, alert *models.StockAlert) error {
	alert.TenantID = tenantID
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()
	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *InventoryRepository) GetAlertByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&alert).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &alert, nil
}

// GetOpenAlert finds the single non-resolved alert for a (material, branch,
// type) tuple, if one exists
func (r *InventoryRepository) GetOpenAlert(ctx context.Context, tenantID string, materialID, branchID uuid.UUID, alertType models.AlertType) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ? AND branch_id = ? AND type = ? AND status IN ?",
			tenantID, materialID, branchID, alertType,
			[]models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		First(&alert).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &alert, nil
}

func (r *InventoryRepository) ListAlerts(ctx context.Context, tenantID string, status *models.AlertStatus, alertType *models.AlertType, branchID *uuid.UUID, page, limit int) ([]models.StockAlert, int64, error) {
	var alerts []models.StockAlert
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if alertType != nil {
		query = query.Where("type = ?", *alertType)
	}
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	if err := query.Model(&models.StockAlert{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&alerts).Error
	return alerts, total, err
}

func (r *InventoryRepository) UpdateAlert(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAlertIfStatus applies updates only while the alert is in one of the
// allowed statuses. Zero affected rows means the row is gone or already moved
// past the allowed set; callers treat that as a conflict.
func (r *InventoryRepository) UpdateAlertIfStatus(ctx context.Context, tenantID string, id uuid.UUID, allowed []models.AlertStatus, updates map[string]interface{}) (int64, error) {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND id = ? AND status IN ?", tenantID, id, allowed).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// ResolveOpenAlerts bulk-resolves every non-resolved alert for the tenant
func (r *InventoryRepository) ResolveOpenAlerts(ctx context.Context, tenantID, resolvedBy string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		Updates(map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"resolved_by": resolvedBy,
			"resolved_at": &now,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

func (r *InventoryRepository) GetAlertSummary(ctx context.Context, tenantID string) (*models.AlertSummary, error) {
	summary := &models.AlertSummary{
		ByType:   make(map[string]int),
		ByBranch: make(map[string]int),
	}

	var active, acknowledged, resolved int64
	r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.AlertStatusActive).
		Count(&active)
	r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.AlertStatusAcknowledged).
		Count(&acknowledged)
	r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.AlertStatusResolved).
		Count(&resolved)

	summary.TotalActive = int(active)
	summary.TotalAcknowledged = int(acknowledged)
	summary.TotalResolved = int(resolved)

	var typeCounts []struct {
		Type  models.AlertType
		Count int
	}
	r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Select("type, COUNT(*) as count").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		Group("type").
		Scan(&typeCounts)
	for _, tc := range typeCounts {
		summary.ByType[string(tc.Type)] = tc.Count
	}

	var branchCounts []struct {
		BranchName string
		Count      int
	}
	r.db.WithContext(ctx).Model(&models.StockAlert{}).
		Select("COALESCE(branch_name, 'unknown') as branch_name, COUNT(*) as count").
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		Group("branch_name").
		Scan(&branchCounts)
	for _, bc := range branchCounts {
		summary.ByBranch[bc.BranchName] = bc.Count
	}

	return summary, nil
}

// ========== Menu Catalog Operations ==========

func (r *InventoryRepository) CreateMenuItem(ctx context.Context, tenantID string, item *models.MenuItem) error {
	item.TenantID = tenantID
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *InventoryRepository) GetMenuItemByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("BranchAvailability").
		Preload("Recipe").
		Preload("Recipe.Items").
		First(&item).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

func (r *InventoryRepository) ListMenuItems(ctx context.Context, tenantID string, page, limit int) ([]models.MenuItem, int64, error) {
	var items []models.MenuItem
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if err := query.Model(&models.MenuItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.
		Preload("BranchAvailability").
		Preload("Recipe").
		Preload("Recipe.Items").
		Order("name ASC").
		Find(&items).Error
	return items, total, err
}

func (r *InventoryRepository) GetBranchAvailability(ctx context.Context, tenantID string, menuItemID, branchID uuid.UUID) (*models.BranchAvailability, error) {
	var availability models.BranchAvailability
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND menu_item_id = ? AND branch_id = ?", tenantID, menuItemID, branchID).
		First(&availability).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &availability, nil
}

func (r *InventoryRepository) UpsertBranchAvailability(ctx context.Context, tenantID string, availability *models.BranchAvailability) error {
	availability.TenantID = tenantID
	availability.UpdatedAt = time.Now()
	if availability.ID == uuid.Nil {
		availability.CreatedAt = time.Now()
		return r.db.WithContext(ctx).Create(availability).Error
	}
	return r.db.WithContext(ctx).Save(availability).Error
}

// UpsertRecipe replaces the recipe and its line items in one transaction
func (r *InventoryRepository) UpsertRecipe(ctx context.Context, tenantID string, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		err := tx.Where("tenant_id = ? AND menu_item_id = ?", tenantID, recipe.MenuItemID).
			First(&existing).Error
		if err == nil {
			if err := tx.Where("tenant_id = ? AND recipe_id = ?", tenantID, existing.ID).
				Delete(&models.RecipeItem{}).Error; err != nil {
				return err
			}
			recipe.ID = existing.ID
			recipe.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		} else {
			recipe.CreatedAt = time.Now()
		}

		recipe.TenantID = tenantID
		recipe.UpdatedAt = time.Now()
		for i := range recipe.Items {
			recipe.Items[i].TenantID = tenantID
		}
		return tx.Save(recipe).Error
	})
}

// ========== Purchase Order Operations ==========

func (r *InventoryRepository) GeneratePONumber(ctx context.Context, tenantID string) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Unscoped().
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%06d", count+1), nil
}

func (r *InventoryRepository) CreatePurchaseOrder(ctx context.Context, tenantID string, po *models.PurchaseOrder) error {
	po.TenantID = tenantID
	po.CreatedAt = time.Now()
	po.UpdatedAt = time.Now()
	for i := range po.Items {
		po.Items[i].TenantID = tenantID
	}
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *InventoryRepository) GetPurchaseOrderByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("Items").
		First(&po).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &po, nil
}

func (r *InventoryRepository) ListPurchaseOrders(ctx context.Context, tenantID string, status *models.PurchaseOrderStatus, page, limit int) ([]models.PurchaseOrder, int64, error) {
	var orders []models.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Model(&models.PurchaseOrder{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Preload("Items").Order("created_at DESC").Find(&orders).Error
	return orders, total, err
}

func (r *InventoryRepository) UpdatePurchaseOrder(ctx context.Context, tenantID string, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTenantIDs returns every tenant that currently has stock aggregates
func (r *InventoryRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	var tenants []string
	err := r.db.WithContext(ctx).Model(&models.StockLevel{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &tenants).Error
	return tenants, err
}

// ========== Destructive Reset ==========

// ClearTenantData hard-deletes every inventory record for the tenant in one
// transaction. Deletion order respects foreign keys. The caller gates this
// behind role and confirmation checks.
func (r *InventoryRepository) ClearTenantData(ctx context.Context, tenantID string) (*models.ClearAllSummary, error) {
	summary := &models.ClearAllSummary{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := func(model interface{}, count *int64) error {
			result := tx.Unscoped().Where("tenant_id = ?", tenantID).Delete(model)
			if result.Error != nil {
				return result.Error
			}
			*count += result.RowsAffected
			return nil
		}

		if err := del(&models.RecipeItem{}, &summary.Recipes); err != nil {
			return err
		}
		if err := del(&models.Recipe{}, &summary.Recipes); err != nil {
			return err
		}
		if err := del(&models.BranchAvailability{}, &summary.MenuItems); err != nil {
			return err
		}
		if err := del(&models.MenuItem{}, &summary.MenuItems); err != nil {
			return err
		}
		if err := del(&models.StockAlert{}, &summary.Alerts); err != nil {
			return err
		}
		if err := del(&models.StockTransaction{}, &summary.Transactions); err != nil {
			return err
		}
		if err := del(&models.StockBatch{}, &summary.Batches); err != nil {
			return err
		}
		if err := del(&models.StockLevel{}, &summary.StockLevels); err != nil {
			return err
		}
		if err := del(&models.PurchaseOrderItem{}, &summary.PurchaseOrders); err != nil {
			return err
		}
		if err := del(&models.PurchaseOrder{}, &summary.PurchaseOrders); err != nil {
			return err
		}
		return del(&models.RawMaterial{}, &summary.RawMaterials)
	})
	if err != nil {
		return nil, err
	}

	r.invalidateTenantCaches(ctx, tenantID)
	return summary, nil
}
