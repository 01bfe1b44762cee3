package entity

import "time"

// 采购订单状态
const (
	POStatusPendingApproval   = "PENDING_APPROVAL"
	POStatusApproved          = "APPROVED"
	POStatusSentToSupplier    = "SENT_TO_SUPPLIER"
	POStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	POStatusReceived          = "RECEIVED"
	POStatusCancelled         = "CANCELLED"
)

// PurchaseOrder 采购订单，1:1 关联已审批的领料申请
type PurchaseOrder struct {
	ID          string  `json:"id" gorm:"primaryKey;size:32"`
	RequestID   string  `json:"request_id" gorm:"size:32;not null;uniqueIndex"`
	ProjectID   string  `json:"project_id" gorm:"size:32;not null;index"`
	SupplierID  string  `json:"supplier_id" gorm:"size:32;not null;index"`
	QuotationID *string `json:"quotation_id" gorm:"size:32"`

	Status string `json:"status" gorm:"size:32;default:PENDING_APPROVAL"`

	// 行项金额合计，价格或数量变更后重新计算
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(15,2);default:0"`
	Currency    string  `json:"currency" gorm:"size:10;default:SAR"`

	CreatedBy  string     `json:"created_by" gorm:"size:32"`
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Items    []POItem  `json:"items,omitempty" gorm:"foreignKey:POID"`
	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// IsTerminal 是否终态
func (po *PurchaseOrder) IsTerminal() bool {
	return po.Status == POStatusReceived || po.Status == POStatusCancelled
}

// ItemByItemID 按物料ID查找行项
func (po *PurchaseOrder) ItemByItemID(itemID string) *POItem {
	for i := range po.Items {
		if po.Items[i].ItemID == itemID {
			return &po.Items[i]
		}
	}
	return nil
}

// RecomputeTotal 重算订单金额
func (po *PurchaseOrder) RecomputeTotal() {
	var total float64
	for _, it := range po.Items {
		total += it.Price * it.Quantity
	}
	po.TotalAmount = total
}

// POItem 采购订单行项
// received_quantity 仅由收货流程递增。
type POItem struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	POID   string `json:"po_id" gorm:"size:32;not null;index"`
	ItemID string `json:"item_id" gorm:"size:32;not null"`

	Quantity         float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Price            float64 `json:"price" gorm:"type:decimal(12,4);not null"`
	ReceivedQuantity float64 `json:"received_quantity" gorm:"type:decimal(12,2);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (POItem) TableName() string {
	return "po_items"
}

// RemainingQuantity 行项剩余可收数量
func (i *POItem) RemainingQuantity() float64 {
	return i.Quantity - i.ReceivedQuantity
}
