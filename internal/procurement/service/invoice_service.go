package service

import (
	"context"
	"fmt"
	"math"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"go.uber.org/zap"
)

// matchTolerance 发票与收货价值允许的绝对差额
const matchTolerance = 100.0

// InvoiceService 发票登记与三方核对（订单 / 收货 / 发票）
type InvoiceService struct {
	invoiceRepo *repository.InvoiceRepository
	poRepo      *repository.PORepository
	audit       *auditor
	logger      *zap.Logger
}

func NewInvoiceService(repos *repository.Repositories, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: repos.Invoice,
		poRepo:      repos.PO,
		audit:       &auditor{repo: repos.AuditLog, logger: logger},
		logger:      logger,
	}
}

// ListInvoices 发票列表
func (s *InvoiceService) ListInvoices(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Invoice, int64, error) {
	return s.invoiceRepo.FindAll(ctx, page, pageSize, filters)
}

// GetInvoice 发票详情
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// CreateInvoiceInput 发票登记入参
type CreateInvoiceInput struct {
	POID                  string  `json:"po_id" binding:"required"`
	SupplierInvoiceNumber string  `json:"supplier_invoice_number" binding:"required"`
	TotalAmount           float64 `json:"total_amount" binding:"required"`
}

// CreateInvoice 登记供应商发票并立即执行三方核对。
// 收货价值按订单行已收数量乘以行单价累计，
// 与发票金额差额在容差内记 MATCHED，否则记 MISMATCH 待人工处理。
func (s *InvoiceService) CreateInvoice(ctx context.Context, actorID string, input *CreateInvoiceInput) (*entity.Invoice, error) {
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: invoice amount", ErrInvalidQuantity)
	}
	po, err := s.poRepo.FindByID(ctx, input.POID)
	if err != nil {
		return nil, fmt.Errorf("purchase order %s: %w", input.POID, err)
	}
	if po.Status == entity.POStatusPendingApproval || po.Status == entity.POStatusCancelled {
		return nil, fmt.Errorf("%w: invoice against order in %s", ErrInvalidTransition, po.Status)
	}

	receivedValue := 0.0
	for _, item := range po.Items {
		receivedValue += item.ReceivedQuantity * item.Price
	}
	diff := math.Abs(input.TotalAmount - receivedValue)

	invoice := &entity.Invoice{
		ID:                    newID(),
		POID:                  po.ID,
		SupplierInvoiceNumber: input.SupplierInvoiceNumber,
		TotalAmount:           input.TotalAmount,
	}
	if diff <= matchTolerance {
		invoice.Status = entity.InvoiceStatusMatched
		invoice.MatchDetails = fmt.Sprintf("matched: invoice %.2f vs received %.2f (diff %.2f)", input.TotalAmount, receivedValue, diff)
	} else {
		invoice.Status = entity.InvoiceStatusMismatch
		invoice.MatchDetails = fmt.Sprintf("mismatch: invoice %.2f vs received %.2f (diff %.2f exceeds tolerance %.2f)",
			input.TotalAmount, receivedValue, diff, matchTolerance)
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "invoice",
		EntityID:   invoice.ID,
		Action:     "three_way_match",
		ToStatus:   invoice.Status,
		Details:    invoice.MatchDetails,
		Metadata:   entity.JSONB{"po_id": po.ID},
		ActorID:    actorID,
	})
	return invoice, nil
}
