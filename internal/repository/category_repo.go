package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/model"
)

// ==================== Interface ====================

// CategoryRepository owns the category reference table.
type CategoryRepository interface {
	// ReplaceAll rebuilds the table wholesale from a fresh catalog snapshot.
	ReplaceAll(ctx context.Context, categories []model.Category) error
	ListTopLevel(ctx context.Context) ([]model.Category, error)
	ListLeafApiIDs(ctx context.Context) ([]int64, error)
	GetByApiID(ctx context.Context, apiID int64) (*model.Category, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== Implementation ====================

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) ReplaceAll(ctx context.Context, categories []model.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Hard delete: categories are reference data with no subscription
		// keys pointing at them, so stale rows carry no audit value.
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().
			Delete(&model.Category{}).Error
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return nil
		}
		return tx.Create(&categories).Error
	})
}

func (r *categoryRepo) ListTopLevel(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories").
		Where("parent_category_id IS NULL").
		Order("id ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) ListLeafApiIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("has_subcategories = ?", false).
		Pluck("api_id", &ids).Error
	return ids, err
}

func (r *categoryRepo) GetByApiID(ctx context.Context, apiID int64) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("api_id = ?", apiID).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&total).Error
	return total, err
}
