package service

import (
	"context"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newID() string {
	return uuid.New().String()[:32]
}

// auditor 各服务共用的操作日志写入器。
// 日志写入失败不阻断业务写路径，只记录告警。
type auditor struct {
	repo   *repository.AuditLogRepository
	logger *zap.Logger
}

func (a *auditor) record(ctx context.Context, log *entity.AuditLog) {
	if a == nil || a.repo == nil {
		return
	}
	log.ID = newID()
	if err := a.repo.Create(ctx, log); err != nil {
		a.logger.Warn("audit log write failed",
			zap.String("entity_type", log.EntityType),
			zap.String("entity_id", log.EntityID),
			zap.String("action", log.Action),
			zap.Error(err),
		)
	}
}
