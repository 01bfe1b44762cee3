package repository

import (
	"context"
	"errors"

	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BOQRepository 项目BOQ仓库
type BOQRepository struct {
	db *gorm.DB
}

func NewBOQRepository(db *gorm.DB) *BOQRepository {
	return &BOQRepository{db: db}
}

// FindLine 按项目+物料查找BOQ行
func (r *BOQRepository) FindLine(ctx context.Context, projectID, itemID string) (*entity.ProjectBOQ, error) {
	var line entity.ProjectBOQ
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND item_id = ?", projectID, itemID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// FindLineForUpdate 在事务内加行锁读取BOQ行，收货写路径使用
func (r *BOQRepository) FindLineForUpdate(tx *gorm.DB, projectID, itemID string) (*entity.ProjectBOQ, error) {
	var line entity.ProjectBOQ
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND item_id = ?", projectID, itemID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// FindByProject 项目下全部BOQ行
func (r *BOQRepository) FindByProject(ctx context.Context, projectID string) ([]entity.ProjectBOQ, error) {
	var lines []entity.ProjectBOQ
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("item_id").
		Find(&lines).Error
	return lines, err
}

func (r *BOQRepository) Create(ctx context.Context, line *entity.ProjectBOQ) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *BOQRepository) Update(ctx context.Context, line *entity.ProjectBOQ) error {
	return r.db.WithContext(ctx).Save(line).Error
}
