package entity

import "time"

// 领料申请状态
const (
	RequestStatusDraft             = "DRAFT"
	RequestStatusPendingTechnical  = "PENDING_TECHNICAL"
	RequestStatusApprovedTechnical = "APPROVED_TECHNICAL"
	RequestStatusInProcurement     = "IN_PROCUREMENT"
	RequestStatusCompleted         = "COMPLETED"
	RequestStatusRejected          = "REJECTED"
)

// MaterialRequest 现场领料申请单
// 只进入终态（COMPLETED/REJECTED），不做物理删除。
type MaterialRequest struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID   string `json:"project_id" gorm:"size:32;not null;index"`
	RequesterID string `json:"requester_id" gorm:"size:32;not null;index"`
	Status      string `json:"status" gorm:"size:32;default:DRAFT"`
	Notes       string `json:"notes" gorm:"type:text"`

	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Items []RequestItem `json:"items,omitempty" gorm:"foreignKey:RequestID"`
}

func (MaterialRequest) TableName() string {
	return "material_requests"
}

// IsTerminal 是否终态
func (r *MaterialRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusRejected
}

// HasItem 申请单是否包含该物料
func (r *MaterialRequest) HasItem(itemID string) bool {
	for _, it := range r.Items {
		if it.ItemID == itemID {
			return true
		}
	}
	return false
}

// RequestItem 领料申请行项
type RequestItem struct {
	ID        string  `json:"id" gorm:"primaryKey;size:32"`
	RequestID string  `json:"request_id" gorm:"size:32;not null;index"`
	ItemID    string  `json:"item_id" gorm:"size:32;not null"`
	Quantity  float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Notes     string  `json:"notes" gorm:"type:text"`
	SortOrder int     `json:"sort_order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RequestItem) TableName() string {
	return "request_items"
}
