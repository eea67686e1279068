package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/model"
)

// ==================== Interface ====================

// ProductRepository owns products and their sizes.
type ProductRepository interface {
	GetByCodeAndColor(ctx context.Context, productCode, color string) (*model.Product, error)
	ListByCode(ctx context.Context, productCode string) ([]model.Product, error)
	List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)

	// SaveWithSizes persists the product and exactly the size set it
	// carries: matched sizes keep their ids, new ones are inserted, and
	// rows dropped from the set are removed.
	SaveWithSizes(ctx context.Context, product *model.Product) error

	FindSizesByCodeAndColor(ctx context.Context, productCode, color string) ([]model.Size, error)
	GetSizeByID(ctx context.Context, sizeID int64) (*model.Size, error)
	GetBySizeID(ctx context.Context, sizeID int64) (*model.Product, error)
}

// ==================== Implementation ====================

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByCodeAndColor(ctx context.Context, productCode, color string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("product_code = ? AND color = ?", productCode, color).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) ListByCode(ctx context.Context, productCode string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes").
		Where("product_code = ?", productCode).
		Order("color ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	err := query.
		Preload("Sizes").
		Order("updated_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) SaveWithSizes(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Save(product).Error
		if err != nil {
			return err
		}

		// Sizes absent from the reconciled set are replaced wholesale,
		// not tombstoned.
		keep := make([]int64, 0, len(product.Sizes))
		for i := range product.Sizes {
			keep = append(keep, product.Sizes[i].ID)
		}
		stale := tx.Unscoped().Where("product_id = ?", product.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&model.Size{}).Error
	})
}

func (r *productRepo) FindSizesByCodeAndColor(ctx context.Context, productCode, color string) ([]model.Size, error) {
	product, err := r.GetByCodeAndColor(ctx, productCode, color)
	if err != nil {
		return nil, err
	}
	return product.Sizes, nil
}

func (r *productRepo) GetSizeByID(ctx context.Context, sizeID int64) (*model.Size, error) {
	var size model.Size
	err := r.db.WithContext(ctx).First(&size, sizeID).Error
	if err != nil {
		return nil, err
	}
	return &size, nil
}

func (r *productRepo) GetBySizeID(ctx context.Context, sizeID int64) (*model.Product, error) {
	size, err := r.GetSizeByID(ctx, sizeID)
	if err != nil {
		return nil, err
	}

	var product model.Product
	err = r.db.WithContext(ctx).
		Preload("Sizes").
		First(&product, size.ProductID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
