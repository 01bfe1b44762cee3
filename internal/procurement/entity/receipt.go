package entity

import "time"

// Receipt 收货单，实物交付的只追加审计记录，创建后不可修改或删除
type Receipt struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	POID         string    `json:"po_id" gorm:"size:32;not null;index"`
	ProjectID    string    `json:"project_id" gorm:"size:32;not null;index"`
	ReceivedBy   string    `json:"received_by" gorm:"size:32;not null"`
	ReceivedDate time.Time `json:"received_date"`
	CreatedAt    time.Time `json:"created_at"`

	Items []ReceiptItem `json:"items,omitempty" gorm:"foreignKey:ReceiptID"`
}

func (Receipt) TableName() string {
	return "receipts"
}

// ReceiptItem 收货行项，记录单次实收增量
type ReceiptItem struct {
	ID        string  `json:"id" gorm:"primaryKey;size:32"`
	ReceiptID string  `json:"receipt_id" gorm:"size:32;not null;index"`
	ItemID    string  `json:"item_id" gorm:"size:32;not null"`
	Quantity  float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (ReceiptItem) TableName() string {
	return "receipt_items"
}
