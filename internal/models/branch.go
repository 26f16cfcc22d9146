package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchStatus represents the status of a branch
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "ACTIVE"
	BranchStatusInactive BranchStatus = "INACTIVE"
	BranchStatusClosed   BranchStatus = "CLOSED"
)

// Branch is a physical restaurant location with its own stock levels and menu
// availability windows. The authoritative directory lives in the staff/branch
// service; this table is the reference copy the ledger validates against.
type Branch struct {
	ID       uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string       `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Code     string       `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_branch_code"`
	Name     string       `json:"name" gorm:"type:varchar(255);not null"`
	Status   BranchStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`

	Address *string `json:"address,omitempty" gorm:"type:varchar(255)"`
	City    *string `json:"city,omitempty" gorm:"type:varchar(100)"`
	Phone   *string `json:"phone,omitempty" gorm:"type:varchar(50)"`

	// IANA timezone used to interpret availability windows
	Timezone string `json:"timezone" gorm:"type:varchar(64);not null;default:'UTC'"`

	Metadata *JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

func (Branch) TableName() string {
	return "branches"
}

type CreateBranchRequest struct {
	Code     string        `json:"code" binding:"required,min=1,max=50"`
	Name     string        `json:"name" binding:"required,min=1,max=255"`
	Status   *BranchStatus `json:"status,omitempty"`
	Address  *string       `json:"address,omitempty"`
	City     *string       `json:"city,omitempty"`
	Phone    *string       `json:"phone,omitempty"`
	Timezone *string       `json:"timezone,omitempty"`
	Metadata *JSON         `json:"metadata,omitempty"`
}

type BranchResponse struct {
	Success bool    `json:"success"`
	Data    *Branch `json:"data,omitempty"`
	Message *string `json:"message,omitempty"`
}

type BranchListResponse struct {
	Success    bool            `json:"success"`
	Data       []Branch        `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}
