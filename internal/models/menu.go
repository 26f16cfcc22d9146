package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a sellable item on the menu. Sellability at a branch is decided
// by the availability resolver from the branch windows and the recipe.
type MenuItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Category    *string   `json:"category,omitempty" gorm:"type:varchar(100)"`
	ImageURL    *string   `json:"imageUrl,omitempty" gorm:"column:image_url"`

	BasePrice decimal.Decimal `json:"basePrice" gorm:"type:decimal(12,2);not null;default:0"`

	BranchAvailability []BranchAvailability `json:"branchAvailability,omitempty" gorm:"foreignKey:MenuItemID"`
	Recipe             *Recipe              `json:"recipe,omitempty" gorm:"foreignKey:MenuItemID"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// BranchAvailability is a branch-scoped selling window for a menu item.
// Times are "HH:MM" strings in branch-local time; a nil bound means open-ended.
// AvailableFrom must not exceed AvailableTo (windows never cross midnight).
type BranchAvailability struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	MenuItemID uuid.UUID `json:"menuItemId" gorm:"type:uuid;not null;index:idx_branch_availability_item_branch,unique"`
	BranchID   uuid.UUID `json:"branchId" gorm:"type:uuid;not null;index:idx_branch_availability_item_branch,unique"`

	IsActive bool            `json:"isActive" gorm:"not null;default:true"`
	Price    decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`

	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`

	AvailableFrom *string `json:"availableFrom,omitempty" gorm:"type:varchar(5)"`
	AvailableTo   *string `json:"availableTo,omitempty" gorm:"type:varchar(5)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recipe is the bill of materials producing YieldQuantity servings of a menu
// item from its line items
type Recipe struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	MenuItemID uuid.UUID `json:"menuItemId" gorm:"type:uuid;not null;uniqueIndex"`

	YieldQuantity decimal.Decimal `json:"yieldQuantity" gorm:"type:decimal(14,3);not null;default:1"`

	Items []RecipeItem `json:"items,omitempty" gorm:"foreignKey:RecipeID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecipeItem is one (raw material, quantity) line of a recipe
type RecipeItem struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	RecipeID      uuid.UUID `json:"recipeId" gorm:"type:uuid;not null;index"`
	RawMaterialID uuid.UUID `json:"rawMaterialId" gorm:"type:uuid;not null;index"`

	Quantity decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`

	RawMaterial *RawMaterial `json:"rawMaterial,omitempty" gorm:"foreignKey:RawMaterialID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

func (BranchAvailability) TableName() string {
	return "branch_availability"
}

func (Recipe) TableName() string {
	return "recipes"
}

func (RecipeItem) TableName() string {
	return "recipe_items"
}

// Request models

type CreateMenuItemRequest struct {
	Name        string           `json:"name" binding:"required,min=1,max=255"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty"`
}

type UpsertBranchAvailabilityRequest struct {
	BranchID      uuid.UUID        `json:"branchId" binding:"required"`
	IsActive      *bool            `json:"isActive,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	ValidFrom     *time.Time       `json:"validFrom,omitempty"`
	ValidUntil    *time.Time       `json:"validUntil,omitempty"`
	AvailableFrom *string          `json:"availableFrom,omitempty"`
	AvailableTo   *string          `json:"availableTo,omitempty"`
}

type UpsertRecipeRequest struct {
	YieldQuantity decimal.Decimal           `json:"yieldQuantity" binding:"required"`
	Items         []UpsertRecipeItemRequest `json:"items" binding:"required,min=1"`
}

type UpsertRecipeItemRequest struct {
	RawMaterialID uuid.UUID       `json:"rawMaterialId" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
}

// Response models

type MenuItemResponse struct {
	Success bool      `json:"success"`
	Data    *MenuItem `json:"data,omitempty"`
	Message *string   `json:"message,omitempty"`
}

type MenuItemListResponse struct {
	Success    bool            `json:"success"`
	Data       []MenuItem      `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// MenuItemAvailability reports a resolver decision for one item at one branch
type MenuItemAvailability struct {
	MenuItemID uuid.UUID  `json:"menuItemId"`
	BranchID   uuid.UUID  `json:"branchId"`
	Available  bool       `json:"available"`
	Reason     string     `json:"reason,omitempty"`
	CheckedAt  time.Time  `json:"checkedAt"`
}

type MenuItemAvailabilityResponse struct {
	Success bool                  `json:"success"`
	Data    *MenuItemAvailability `json:"data,omitempty"`
}
