package repository

import (
	"context"
	"errors"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"gorm.io/gorm"
)

// RFQRepository 询价单仓库
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

func (r *RFQRepository) FindByID(ctx context.Context, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotations").
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

func (r *RFQRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	var rfqs []entity.RFQ
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RFQ{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if requestID := filters["request_id"]; requestID != "" {
		query = query.Where("request_id = ?", requestID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Quotations").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&rfqs).Error
	return rfqs, total, err
}

func (r *RFQRepository) Create(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

func (r *RFQRepository) Update(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Save(rfq).Error
}

// FindQuotation 查找报价
func (r *RFQRepository) FindQuotation(ctx context.Context, rfqID, quotationID string) (*entity.Quotation, error) {
	var quote entity.Quotation
	err := r.db.WithContext(ctx).
		Where("id = ? AND rfq_id = ?", quotationID, rfqID).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

func (r *RFQRepository) CreateQuotation(ctx context.Context, quote *entity.Quotation) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *RFQRepository) UpdateQuotation(ctx context.Context, quote *entity.Quotation) error {
	return r.db.WithContext(ctx).Save(quote).Error
}
