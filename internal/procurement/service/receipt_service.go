package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/binaa-tech/binaa/internal/procurement/rules"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReceiptLineInput 收货行入参
type ReceiptLineInput struct {
	ItemID   string  `json:"item_id" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
}

// BOQAdvisory 工程量清单预警，不阻断收货
type BOQAdvisory struct {
	ItemID  string          `json:"item_id"`
	Status  rules.BOQStatus `json:"status"`
	Message string          `json:"message"`
}

// ListReceipts 收货单列表
func (s *ProcurementService) ListReceipts(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Receipt, int64, error) {
	return s.receiptRepo.FindAll(ctx, page, pageSize, filters)
}

// GetReceipt 收货单详情
func (s *ProcurementService) GetReceipt(ctx context.Context, id string) (*entity.Receipt, error) {
	return s.receiptRepo.FindByID(ctx, id)
}

// PostReceipt 登记一次收货，全有或全无。
// 同一事务内对订单行加排他锁，串行化同单并发收货；
// 任一行校验失败整单回滚，订单与清单不产生任何变更。
// 全部行收满时订单转 RECEIVED，并将申请收口为 COMPLETED。
// 清单超量仅产生预警，随结果返回。
func (s *ProcurementService) PostReceipt(ctx context.Context, poID, actorID string, lines []ReceiptLineInput) (*entity.Receipt, []BOQAdvisory, error) {
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("%w: no receipt lines", ErrInvalidQuantity)
	}

	var receipt *entity.Receipt
	var advisories []BOQAdvisory

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := s.poRepo.FindByIDForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status != entity.POStatusSentToSupplier && po.Status != entity.POStatusPartiallyReceived {
			return fmt.Errorf("%w: receive against order in %s", ErrInvalidTransition, po.Status)
		}

		// 先整单校验，再落任何变更；同一行项重复出现按累计数量校验
		pending := make(map[string]float64, len(lines))
		for _, line := range lines {
			item := po.ItemByItemID(line.ItemID)
			if item == nil {
				return fmt.Errorf("%w: item %s", ErrItemNotOnOrder, line.ItemID)
			}
			if check := rules.ValidateReceiptQuantity(item, line.Quantity); !check.Valid {
				return fmt.Errorf("%w: item %s: %s", ErrQuantityExceeded, line.ItemID, check.Message)
			}
			pending[line.ItemID] += line.Quantity
			if check := rules.ValidateReceiptQuantity(item, pending[line.ItemID]); !check.Valid {
				return fmt.Errorf("%w: item %s: %s", ErrQuantityExceeded, line.ItemID, check.Message)
			}
		}

		receipt = &entity.Receipt{
			ID:           newID(),
			POID:         po.ID,
			ProjectID:    po.ProjectID,
			ReceivedBy:   actorID,
			ReceivedDate: time.Now(),
		}
		for _, line := range lines {
			item := po.ItemByItemID(line.ItemID)
			item.ReceivedQuantity += line.Quantity
			if err := tx.Model(&entity.POItem{}).
				Where("id = ?", item.ID).
				Update("received_quantity", item.ReceivedQuantity).Error; err != nil {
				return fmt.Errorf("update order item %s: %w", item.ID, err)
			}

			boqLine, err := s.boqRepo.FindLineForUpdate(tx, po.ProjectID, line.ItemID)
			switch {
			case err == nil:
				status, msg := rules.CheckBOQStatus(boqLine, line.Quantity)
				if status != rules.BOQStatusOK {
					advisories = append(advisories, BOQAdvisory{ItemID: line.ItemID, Status: status, Message: msg})
				}
				if err := s.ledger.ApplyReceived(tx, boqLine, line.Quantity); err != nil {
					return err
				}
			case errors.Is(err, repository.ErrNotFound):
				// 项目清单无此物料行，仅入库不对账
				s.logger.Debug("receipt item has no boq line",
					zap.String("project_id", po.ProjectID), zap.String("item_id", line.ItemID))
			default:
				return fmt.Errorf("boq line %s/%s: %w", po.ProjectID, line.ItemID, err)
			}

			receipt.Items = append(receipt.Items, entity.ReceiptItem{
				ID:        newID(),
				ReceiptID: receipt.ID,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
			})
		}

		if err := tx.Create(receipt).Error; err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		newStatus := receiptStatus(po)
		if newStatus != po.Status {
			if err := tx.Model(&entity.PurchaseOrder{}).
				Where("id = ?", po.ID).
				Update("status", newStatus).Error; err != nil {
				return fmt.Errorf("update order status: %w", err)
			}
			po.Status = newStatus
		}

		if po.Status == entity.POStatusReceived {
			if err := tx.Model(&entity.MaterialRequest{}).
				Where("id = ? AND status = ?", po.RequestID, entity.RequestStatusInProcurement).
				Update("status", entity.RequestStatusCompleted).Error; err != nil {
				return fmt.Errorf("complete request %s: %w", po.RequestID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.audit.record(ctx, &entity.AuditLog{
		EntityType: "receipt",
		EntityID:   receipt.ID,
		Action:     "post",
		Details:    fmt.Sprintf("received %d lines against order %s", len(receipt.Items), poID),
		Metadata:   entity.JSONB{"po_id": poID},
		ActorID:    actorID,
	})
	return receipt, advisories, nil
}

// receiptStatus 按行项收货进度推导订单状态
func receiptStatus(po *entity.PurchaseOrder) string {
	full := true
	any := false
	for _, item := range po.Items {
		if item.ReceivedQuantity > 0 {
			any = true
		}
		if item.ReceivedQuantity < item.Quantity {
			full = false
		}
	}
	switch {
	case full:
		return entity.POStatusReceived
	case any:
		return entity.POStatusPartiallyReceived
	default:
		return po.Status
	}
}
