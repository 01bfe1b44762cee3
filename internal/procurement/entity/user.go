package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 用户角色
const (
	RoleSupervisor         = "SUPERVISOR"
	RoleEngineer           = "ENGINEER"
	RoleQuantitySurveyor   = "QUANTITY_SURVEYOR"
	RoleProcurementManager = "PROCUREMENT_MANAGER"
	RoleGeneralManager     = "GENERAL_MANAGER"
	RoleAdmin              = "ADMIN"
)

// Permissions structured permission set, stored as jsonb.
// The legacy can_edit_po_prices boolean from older data dumps is not read.
type Permissions struct {
	CanEditPrices bool `json:"can_edit_prices"`
}

func (p Permissions) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Permissions) Scan(value interface{}) error {
	if value == nil {
		*p = Permissions{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan Permissions: %v", value)
	}
	return json.Unmarshal(bytes, p)
}

// User 系统用户
type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:32"`
	Name         string `json:"name" gorm:"size:100;not null"`
	Email        string `json:"email" gorm:"size:200;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"size:100;not null"`
	Role         string `json:"role" gorm:"size:32;not null"`

	// 审批额度，nil 时采用系统默认额度
	ApprovalLimit *float64    `json:"approval_limit" gorm:"type:decimal(15,2)"`
	Permissions   Permissions `json:"permissions" gorm:"type:jsonb"`

	Status    string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasTechnicalAuthority 是否具备技术审批权限
func (u *User) HasTechnicalAuthority() bool {
	switch u.Role {
	case RoleEngineer, RoleGeneralManager, RoleAdmin:
		return true
	}
	return false
}
