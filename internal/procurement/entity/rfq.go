package entity

import "time"

// RFQ状态
const (
	RFQStatusOpen   = "OPEN"
	RFQStatusClosed = "CLOSED"
)

// RFQ 询价单，针对已技术审批的领料申请发起
type RFQ struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	RequestID string     `json:"request_id" gorm:"size:32;not null;index"`
	CreatedBy string     `json:"created_by" gorm:"size:32"`
	Status    string     `json:"status" gorm:"size:20;default:OPEN"`
	Deadline  *time.Time `json:"deadline"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Quotations []Quotation `json:"quotations,omitempty" gorm:"foreignKey:RFQID"`
}

func (RFQ) TableName() string {
	return "rfqs"
}

// Quotation 供应商报价（总价报价）
type Quotation struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	RFQID       string     `json:"rfq_id" gorm:"size:32;not null;index"`
	SupplierID  string     `json:"supplier_id" gorm:"size:32;not null"`
	TotalAmount float64    `json:"total_amount" gorm:"type:decimal(15,2);not null"`
	Currency    string     `json:"currency" gorm:"size:10;default:SAR"`
	ValidUntil  *time.Time `json:"valid_until"`
	IsSelected  bool       `json:"is_selected" gorm:"default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Quotation) TableName() string {
	return "quotations"
}
