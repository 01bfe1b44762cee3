package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User     *UserRepository
	Project  *ProjectRepository
	BOQ      *BOQRepository
	Item     *ItemRepository
	Supplier *SupplierRepository
	Request  *RequestRepository
	PO       *PORepository
	Receipt  *ReceiptRepository
	RFQ      *RFQRepository
	Invoice  *InvoiceRepository
	AuditLog *AuditLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Project:  NewProjectRepository(db),
		BOQ:      NewBOQRepository(db),
		Item:     NewItemRepository(db),
		Supplier: NewSupplierRepository(db),
		Request:  NewRequestRepository(db),
		PO:       NewPORepository(db),
		Receipt:  NewReceiptRepository(db),
		RFQ:      NewRFQRepository(db),
		Invoice:  NewInvoiceRepository(db),
		AuditLog: NewAuditLogRepository(db),
	}
}
