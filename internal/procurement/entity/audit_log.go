package entity

import "time"

// AuditLog 操作日志，只追加
type AuditLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_audit_entity"` // request/po/receipt/rfq/invoice/user
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_audit_entity"`

	Action     string `json:"action" gorm:"size:50;not null"` // create/submit/approve/reject/dispatch/cancel/receive/edit_prices
	FromStatus string `json:"from_status" gorm:"size:32"`
	ToStatus   string `json:"to_status" gorm:"size:32"`

	Details  string `json:"details" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	ActorID   string    `json:"actor_id" gorm:"size:32"`
	ActorName string    `json:"actor_name" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
