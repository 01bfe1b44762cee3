package service

import (
	"context"
	"fmt"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/binaa-tech/binaa/internal/procurement/rules"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SupplierNotifier 供应商下发通知接口（外发即忘）
type SupplierNotifier interface {
	NotifyPODispatched(ctx context.Context, po *entity.PurchaseOrder, supplier *entity.Supplier) error
}

// ProcurementService 采购订单生命周期与收货处理
// PENDING_APPROVAL → APPROVED → SENT_TO_SUPPLIER → PARTIALLY_RECEIVED → RECEIVED
// CANCELLED 可自任意非终态进入。
type ProcurementService struct {
	poRepo       *repository.PORepository
	requestRepo  *repository.RequestRepository
	boqRepo      *repository.BOQRepository
	receiptRepo  *repository.ReceiptRepository
	supplierRepo *repository.SupplierRepository
	userRepo     *repository.UserRepository
	ledger       *LedgerService
	audit        *auditor
	db           *gorm.DB
	logger       *zap.Logger
	notifier     SupplierNotifier
}

func NewProcurementService(repos *repository.Repositories, ledger *LedgerService, db *gorm.DB, logger *zap.Logger) *ProcurementService {
	return &ProcurementService{
		poRepo:       repos.PO,
		requestRepo:  repos.Request,
		boqRepo:      repos.BOQ,
		receiptRepo:  repos.Receipt,
		supplierRepo: repos.Supplier,
		userRepo:     repos.User,
		ledger:       ledger,
		audit:        &auditor{repo: repos.AuditLog, logger: logger},
		db:           db,
		logger:       logger,
	}
}

// SetNotifier 注入供应商通知客户端
func (s *ProcurementService) SetNotifier(n SupplierNotifier) {
	s.notifier = n
}

// ListPOs 订单列表
func (s *ProcurementService) ListPOs(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, page, pageSize, filters)
}

// GetPO 订单详情
func (s *ProcurementService) GetPO(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.poRepo.FindByID(ctx, id)
}

// IssuePOInput 签发订单入参
type IssuePOInput struct {
	RequestID   string             `json:"request_id" binding:"required"`
	SupplierID  string             `json:"supplier_id" binding:"required"`
	QuotationID *string            `json:"quotation_id"`
	Items       []IssuePOItemInput `json:"items" binding:"required"`
}

type IssuePOItemInput struct {
	ItemID   string  `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Price    float64 `json:"price"`
}

// IssuePO 自已技术审批的申请签发采购订单。
// 申请行锁 + request_id 唯一索引保证一张申请只产生一张订单；
// 签发即触发申请 linkToPO：APPROVED_TECHNICAL → IN_PROCUREMENT。
func (s *ProcurementService) IssuePO(ctx context.Context, actorID string, input *IssuePOInput) (*entity.PurchaseOrder, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyRequest
	}
	supplier, err := s.supplierRepo.FindByID(ctx, input.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("supplier %s: %w", input.SupplierID, err)
	}

	var po *entity.PurchaseOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.requestRepo.FindByIDForUpdate(tx, input.RequestID)
		if err != nil {
			return fmt.Errorf("request %s: %w", input.RequestID, err)
		}
		switch req.Status {
		case entity.RequestStatusApprovedTechnical:
			// ok
		case entity.RequestStatusInProcurement, entity.RequestStatusCompleted:
			return fmt.Errorf("%w: request %s", ErrAlreadyLinked, req.ID)
		default:
			return fmt.Errorf("%w: issue from request status %s", ErrInvalidTransition, req.Status)
		}

		po = &entity.PurchaseOrder{
			ID:          newID(),
			RequestID:   req.ID,
			ProjectID:   req.ProjectID,
			SupplierID:  supplier.ID,
			QuotationID: input.QuotationID,
			Status:      entity.POStatusPendingApproval,
			CreatedBy:   actorID,
		}
		for i, item := range input.Items {
			if !req.HasItem(item.ItemID) {
				return fmt.Errorf("%w: item %s", ErrItemNotInRequest, item.ItemID)
			}
			if item.Quantity <= 0 {
				return fmt.Errorf("%w: item %s", ErrInvalidQuantity, item.ItemID)
			}
			po.Items = append(po.Items, entity.POItem{
				ID:        newID(),
				POID:      po.ID,
				ItemID:    item.ItemID,
				Quantity:  item.Quantity,
				Price:     item.Price,
				SortOrder: i + 1,
			})
		}
		po.RecomputeTotal()

		if err := tx.Create(po).Error; err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}

		// linkToPO
		if err := tx.Model(&entity.MaterialRequest{}).
			Where("id = ?", req.ID).
			Update("status", entity.RequestStatusInProcurement).Error; err != nil {
			return fmt.Errorf("link request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "po",
		EntityID:   po.ID,
		Action:     "issue",
		ToStatus:   po.Status,
		Details:    fmt.Sprintf("issued from request %s, amount %.2f", po.RequestID, po.TotalAmount),
		ActorID:    actorID,
	})
	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   po.RequestID,
		Action:     "link_to_po",
		FromStatus: entity.RequestStatusApprovedTechnical,
		ToStatus:   entity.RequestStatusInProcurement,
		Metadata:   entity.JSONB{"po_id": po.ID},
		ActorID:    actorID,
	})
	return po, nil
}

// ApprovePO 财务审批，按角色与额度把关。
// 角色不符返回 ErrUnauthorized；超出额度返回 ErrApprovalLimitExceeded，
// 订单保持原状，可再提交给更高权限用户。
func (s *ProcurementService) ApprovePO(ctx context.Context, id, approverID string) (*entity.PurchaseOrder, error) {
	approver, err := s.userRepo.FindByID(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("approver %s: %w", approverID, err)
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.POStatusPendingApproval {
		return nil, fmt.Errorf("%w: approve from %s", ErrInvalidTransition, po.Status)
	}

	decision := rules.CanApprovePO(approver, po)
	if !decision.Allowed {
		if approver.Role == entity.RoleSupervisor || approver.Role == entity.RoleEngineer || approver.Role == entity.RoleQuantitySurveyor {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, decision.Reason)
		}
		return nil, fmt.Errorf("%w: %s", ErrApprovalLimitExceeded, decision.Reason)
	}

	now := time.Now()
	po.Status = entity.POStatusApproved
	po.ApprovedBy = &approverID
	po.ApprovedAt = &now
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "po",
		EntityID:   po.ID,
		Action:     "approve",
		FromStatus: entity.POStatusPendingApproval,
		ToStatus:   po.Status,
		ActorID:    approverID,
		ActorName:  approver.Name,
	})
	return po, nil
}

// PriceInput 行项价格
type PriceInput struct {
	ItemID string  `json:"item_id" binding:"required"`
	Price  float64 `json:"price"`
}

// EditPrices 调整行项单价并重算订单金额。
// 仅 PENDING_APPROVAL / APPROVED 状态可改，按价格编辑权限把关。
// 已审批订单改价不回退状态，改价记录写入操作日志。
func (s *ProcurementService) EditPrices(ctx context.Context, id, actorID string, prices []PriceInput) (*entity.PurchaseOrder, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", actorID, err)
	}
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.POStatusPendingApproval && po.Status != entity.POStatusApproved {
		return nil, fmt.Errorf("%w: edit prices from %s", ErrInvalidTransition, po.Status)
	}
	if !rules.CanEditPrices(actor, po.Status) {
		return nil, fmt.Errorf("%w: price edit not permitted", ErrUnauthorized)
	}

	oldTotal := po.TotalAmount
	for _, p := range prices {
		if p.Price < 0 {
			return nil, fmt.Errorf("price must not be negative: item %s", p.ItemID)
		}
		item := po.ItemByItemID(p.ItemID)
		if item == nil {
			return nil, fmt.Errorf("%w: item %s", ErrItemNotOnOrder, p.ItemID)
		}
		item.Price = p.Price
	}
	po.RecomputeTotal()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range po.Items {
			if err := tx.Model(&entity.POItem{}).
				Where("id = ?", item.ID).
				Update("price", item.Price).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entity.PurchaseOrder{}).
			Where("id = ?", po.ID).
			Update("total_amount", po.TotalAmount).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "po",
		EntityID:   po.ID,
		Action:     "edit_prices",
		FromStatus: po.Status,
		ToStatus:   po.Status,
		Details:    fmt.Sprintf("total amount %.2f -> %.2f", oldTotal, po.TotalAmount),
		ActorID:    actorID,
		ActorName:  actor.Name,
	})
	return po, nil
}

// Dispatch 下发供应商：APPROVED → SENT_TO_SUPPLIER。
// 通知为外发即忘，失败不回滚状态。
func (s *ProcurementService) Dispatch(ctx context.Context, id, actorID string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.POStatusApproved {
		return nil, fmt.Errorf("%w: dispatch from %s", ErrInvalidTransition, po.Status)
	}

	po.Status = entity.POStatusSentToSupplier
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go func(po entity.PurchaseOrder) {
			supplier, err := s.supplierRepo.FindByID(context.Background(), po.SupplierID)
			if err != nil {
				s.logger.Warn("dispatch notify: supplier lookup failed", zap.String("po_id", po.ID), zap.Error(err))
				return
			}
			if err := s.notifier.NotifyPODispatched(context.Background(), &po, supplier); err != nil {
				s.logger.Warn("dispatch notify failed", zap.String("po_id", po.ID), zap.Error(err))
			}
		}(*po)
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "po",
		EntityID:   po.ID,
		Action:     "dispatch",
		FromStatus: entity.POStatusApproved,
		ToStatus:   po.Status,
		ActorID:    actorID,
	})
	return po, nil
}

// CancelPO 取消订单：任意非终态 → CANCELLED，之后禁止改价与收货
func (s *ProcurementService) CancelPO(ctx context.Context, id, actorID, reason string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.IsTerminal() {
		return nil, fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, po.Status)
	}

	from := po.Status
	po.Status = entity.POStatusCancelled
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "po",
		EntityID:   po.ID,
		Action:     "cancel",
		FromStatus: from,
		ToStatus:   po.Status,
		Details:    reason,
		ActorID:    actorID,
	})
	return po, nil
}
