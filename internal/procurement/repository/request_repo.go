package repository

import (
	"context"
	"errors"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository 领料申请仓库
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindAll 申请列表
func (r *RequestRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	var requests []entity.MaterialRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialRequest{})
	if projectID := filters["project_id"]; projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if requesterID := filters["requester_id"]; requesterID != "" {
		query = query.Where("requester_id = ?", requesterID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&requests).Error
	return requests, total, err
}

// FindByID 申请详情（含行项）
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate 在事务内加行锁读取申请，PO签发路径使用，
// 保证并发签发对 AlreadyLinked 检查串行化。
func (r *RequestRepository) FindByIDForUpdate(tx *gorm.DB, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.Where("request_id = ?", id).Order("sort_order ASC").Find(&req.Items).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) Update(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}
