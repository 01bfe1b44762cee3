package service

import (
	"context"
	"fmt"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"gorm.io/gorm"
)

// LedgerService 项目BOQ数量台账。
// received_quantity 只通过 ApplyReceived 以正增量递增，无删除或冲销。
type LedgerService struct {
	boqRepo *repository.BOQRepository
}

func NewLedgerService(boqRepo *repository.BOQRepository) *LedgerService {
	return &LedgerService{boqRepo: boqRepo}
}

// Remaining 剩余可采购数量 total - received，超收时为负
func (s *LedgerService) Remaining(ctx context.Context, projectID, itemID string) (float64, error) {
	line, err := s.boqRepo.FindLine(ctx, projectID, itemID)
	if err != nil {
		return 0, err
	}
	return line.Remaining(), nil
}

// ProjectLines 项目下全部BOQ行
func (s *LedgerService) ProjectLines(ctx context.Context, projectID string) ([]entity.ProjectBOQ, error) {
	return s.boqRepo.FindByProject(ctx, projectID)
}

// ApplyReceived 在调用方事务内累加实收数量。
// 行已由调用方加锁读出；delta 必须为正。
func (s *LedgerService) ApplyReceived(tx *gorm.DB, line *entity.ProjectBOQ, delta float64) error {
	if delta <= 0 {
		return fmt.Errorf("%w: delta %.2f", ErrInvalidQuantity, delta)
	}
	line.ReceivedQuantity += delta
	return tx.Model(&entity.ProjectBOQ{}).
		Where("id = ?", line.ID).
		Update("received_quantity", line.ReceivedQuantity).Error
}
