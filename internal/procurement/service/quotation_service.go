package service

import (
	"context"
	"fmt"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"go.uber.org/zap"
)

// QuotationService 询价与报价。
// 询价不改变申请状态，申请保持 APPROVED_TECHNICAL 直到中标签发订单。
type QuotationService struct {
	rfqRepo      *repository.RFQRepository
	requestRepo  *repository.RequestRepository
	supplierRepo *repository.SupplierRepository
	procurement  *ProcurementService
	audit        *auditor
	logger       *zap.Logger
}

func NewQuotationService(repos *repository.Repositories, procurement *ProcurementService, logger *zap.Logger) *QuotationService {
	return &QuotationService{
		rfqRepo:      repos.RFQ,
		requestRepo:  repos.Request,
		supplierRepo: repos.Supplier,
		procurement:  procurement,
		audit:        &auditor{repo: repos.AuditLog, logger: logger},
		logger:       logger,
	}
}

// ListRFQs 询价单列表
func (s *QuotationService) ListRFQs(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	return s.rfqRepo.FindAll(ctx, page, pageSize, filters)
}

// GetRFQ 询价单详情
func (s *QuotationService) GetRFQ(ctx context.Context, id string) (*entity.RFQ, error) {
	return s.rfqRepo.FindByID(ctx, id)
}

// OpenRFQInput 发起询价入参
type OpenRFQInput struct {
	RequestID string     `json:"request_id" binding:"required"`
	Deadline  *time.Time `json:"deadline"`
}

// OpenRFQ 对已技术审批的申请发起询价
func (s *QuotationService) OpenRFQ(ctx context.Context, actorID string, input *OpenRFQInput) (*entity.RFQ, error) {
	req, err := s.requestRepo.FindByID(ctx, input.RequestID)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", input.RequestID, err)
	}
	if req.Status != entity.RequestStatusApprovedTechnical {
		return nil, fmt.Errorf("%w: open rfq from request status %s", ErrInvalidTransition, req.Status)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyRequest
	}

	rfq := &entity.RFQ{
		ID:        newID(),
		RequestID: req.ID,
		CreatedBy: actorID,
		Status:    entity.RFQStatusOpen,
		Deadline:  input.Deadline,
	}
	if err := s.rfqRepo.Create(ctx, rfq); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		Action:     "open",
		ToStatus:   rfq.Status,
		Metadata:   entity.JSONB{"request_id": req.ID},
		ActorID:    actorID,
	})
	return rfq, nil
}

// SubmitQuotationInput 报价入参
type SubmitQuotationInput struct {
	SupplierID  string     `json:"supplier_id" binding:"required"`
	TotalAmount float64    `json:"total_amount" binding:"required"`
	Currency    string     `json:"currency"`
	ValidUntil  *time.Time `json:"valid_until"`
}

// SubmitQuotation 录入供应商报价，仅开放中的询价可报
func (s *QuotationService) SubmitQuotation(ctx context.Context, rfqID, actorID string, input *SubmitQuotationInput) (*entity.Quotation, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != entity.RFQStatusOpen {
		return nil, fmt.Errorf("%w: quote on rfq in %s", ErrInvalidTransition, rfq.Status)
	}
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total amount", ErrInvalidQuantity)
	}
	if _, err := s.supplierRepo.FindByID(ctx, input.SupplierID); err != nil {
		return nil, fmt.Errorf("supplier %s: %w", input.SupplierID, err)
	}

	quote := &entity.Quotation{
		ID:          newID(),
		RFQID:       rfq.ID,
		SupplierID:  input.SupplierID,
		TotalAmount: input.TotalAmount,
		Currency:    input.Currency,
		ValidUntil:  input.ValidUntil,
	}
	if quote.Currency == "" {
		quote.Currency = "SAR"
	}
	if err := s.rfqRepo.CreateQuotation(ctx, quote); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		Action:     "quote",
		Details:    fmt.Sprintf("supplier %s quoted %.2f %s", quote.SupplierID, quote.TotalAmount, quote.Currency),
		ActorID:    actorID,
	})
	return quote, nil
}

// SelectWinner 选定中标报价并签发采购订单。
// 报价为一口价，按申请行数均摊为行项单价；
// 询价单关闭，申请经签发转入 IN_PROCUREMENT。
func (s *QuotationService) SelectWinner(ctx context.Context, rfqID, quotationID, actorID string) (*entity.PurchaseOrder, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != entity.RFQStatusOpen {
		return nil, fmt.Errorf("%w: select winner on rfq in %s", ErrInvalidTransition, rfq.Status)
	}
	quote, err := s.rfqRepo.FindQuotation(ctx, rfqID, quotationID)
	if err != nil {
		return nil, fmt.Errorf("quotation %s: %w", quotationID, err)
	}
	req, err := s.requestRepo.FindByID(ctx, rfq.RequestID)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rfq.RequestID, err)
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyRequest
	}

	input := &IssuePOInput{
		RequestID:   req.ID,
		SupplierID:  quote.SupplierID,
		QuotationID: &quote.ID,
	}
	// 一口价均摊到行，行内单价按数量折算
	lineShare := quote.TotalAmount / float64(len(req.Items))
	for _, item := range req.Items {
		input.Items = append(input.Items, IssuePOItemInput{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Price:    lineShare / item.Quantity,
		})
	}
	po, err := s.procurement.IssuePO(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	quote.IsSelected = true
	rfq.Status = entity.RFQStatusClosed
	if err := s.rfqRepo.UpdateQuotation(ctx, quote); err != nil {
		s.logger.Warn("mark quotation selected failed", zap.String("quotation_id", quote.ID), zap.Error(err))
	}
	if err := s.rfqRepo.Update(ctx, rfq); err != nil {
		s.logger.Warn("close rfq failed", zap.String("rfq_id", rfq.ID), zap.Error(err))
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		Action:     "select_winner",
		FromStatus: entity.RFQStatusOpen,
		ToStatus:   entity.RFQStatusClosed,
		Metadata:   entity.JSONB{"quotation_id": quote.ID, "po_id": po.ID},
		ActorID:    actorID,
	})
	return po, nil
}
