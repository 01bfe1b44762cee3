package entity

import "time"

// 项目状态
const (
	ProjectStatusActive   = "ACTIVE"
	ProjectStatusArchived = "ARCHIVED"
	ProjectStatusOnHold   = "ON_HOLD"
)

// Project 工程项目
type Project struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	Code      string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Name      string `json:"name" gorm:"size:200;not null"`
	OwnerName string `json:"owner_name" gorm:"size:100"`

	Budget float64 `json:"budget" gorm:"type:decimal(15,2);default:0"`
	Spent  float64 `json:"spent" gorm:"type:decimal(15,2);default:0"`
	Status string  `json:"status" gorm:"size:20;default:ACTIVE"`

	AssignedUserIDs JSONBArray `json:"assigned_user_ids" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BOQLines []ProjectBOQ `json:"boq_lines,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectBOQ 项目工程量清单行（BOQ）
// total_quantity 为排程上限，received_quantity 只增不减。
type ProjectBOQ struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_boq_project_item"`
	ItemID    string `json:"item_id" gorm:"size:32;not null;uniqueIndex:idx_boq_project_item"`

	TotalQuantity    float64 `json:"total_quantity" gorm:"type:decimal(12,2);not null"`
	ReceivedQuantity float64 `json:"received_quantity" gorm:"type:decimal(12,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectBOQ) TableName() string {
	return "project_boq"
}

// Remaining 剩余可采购数量，超收时为负
func (b *ProjectBOQ) Remaining() float64 {
	return b.TotalQuantity - b.ReceivedQuantity
}
