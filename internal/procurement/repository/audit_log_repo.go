package repository

import (
	"context"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"gorm.io/gorm"
)

// AuditLogRepository 操作日志仓库，只追加
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 按实体查询操作记录
func (r *AuditLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, limit int) ([]entity.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []entity.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
