package entity

import "time"

// 发票匹配状态
const (
	InvoiceStatusPendingMatch = "PENDING_MATCH"
	InvoiceStatusMatched      = "MATCHED"
	InvoiceStatusMismatch     = "MISMATCH"
)

// Invoice 供应商发票，三单匹配（发票/订单/实收）
type Invoice struct {
	ID                    string  `json:"id" gorm:"primaryKey;size:32"`
	POID                  string  `json:"po_id" gorm:"size:32;not null;index"`
	SupplierInvoiceNumber string  `json:"supplier_invoice_number" gorm:"size:100"`
	TotalAmount           float64 `json:"total_amount" gorm:"type:decimal(15,2);not null"`
	Status                string  `json:"status" gorm:"size:20;default:PENDING_MATCH"`
	MatchDetails          string  `json:"match_details" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}
