package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
	"github.com/keremmican/zara-bot/pkg/zara"
)

// ProductService resolves products from the store and re-polls their live
// availability on subscription demand.
type ProductService struct {
	client      *zara.Client
	productRepo repository.ProductRepository
}

func NewProductService(client *zara.Client, productRepo repository.ProductRepository) *ProductService {
	return &ProductService{
		client:      client,
		productRepo: productRepo,
	}
}

// ==================== Availability poller ====================

// RefreshSubscribedProduct re-fetches live detail for the product a
// subscription watches and reconciles its sizes. Returns (nil, nil) when
// the product has dropped out of the catalog; callers treat that as a
// normal negative result.
func (s *ProductService) RefreshSubscribedProduct(ctx context.Context, subscription *model.Subscription) (*model.Product, error) {
	product, err := s.GetByCodeAndColor(ctx, subscription.ProductCode, subscription.Color)
	if err != nil {
		return nil, err
	}
	if product == nil {
		log.Printf("[ProductService] product not found: code=%s color=%s",
			subscription.ProductCode, subscription.Color)
		return nil, nil
	}

	items, err := s.client.GetProductsDetails(ctx, product.SeoDiscernProductID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0].Detail == nil {
		return product, nil
	}

	for _, color := range items[0].Detail.Colors {
		if !strings.EqualFold(color.Name, subscription.Color) {
			continue
		}
		s.applyColor(product, color)
		if err := s.productRepo.SaveWithSizes(ctx, product); err != nil {
			return nil, err
		}
		break
	}
	return product, nil
}

// ==================== Catalog upsert ====================

// ProductMeta carries the listing-level attributes of one commercial item,
// shared by all of its colors.
type ProductMeta struct {
	Name            string
	Description     string
	FamilyName      string
	SubfamilyName   string
	CategoryApiID   int64
	Seo             zara.Seo
	PriceMinorUnits int64
}

// UpsertColor creates or updates the product row for one (display
// reference, color) pair from freshly fetched detail data.
func (s *ProductService) UpsertColor(ctx context.Context, displayReference string, meta ProductMeta, color zara.ColorDTO) error {
	product, err := s.GetByCodeAndColor(ctx, displayReference, color.Name)
	if err != nil {
		return err
	}
	if product == nil {
		product = &model.Product{
			ProductCode: displayReference,
			Color:       color.Name,
		}
	}

	product.Name = meta.Name
	product.Description = meta.Description
	product.FamilyName = meta.FamilyName
	product.SubfamilyName = meta.SubfamilyName
	product.CategoryApiID = meta.CategoryApiID
	product.SeoKeyword = meta.Seo.Keyword
	product.SeoProductID = meta.Seo.SeoProductID
	product.SeoDiscernProductID = meta.Seo.DiscernProductID
	product.Price = NormalizePrice(meta.PriceMinorUnits)

	s.applyColor(product, color)
	return s.productRepo.SaveWithSizes(ctx, product)
}

// applyColor folds color-level detail into the product: price override,
// image, reconciled sizes, rebuilt link.
func (s *ProductService) applyColor(product *model.Product, color zara.ColorDTO) {
	if color.Price > 0 {
		product.Price = NormalizePrice(color.Price)
	}
	if imageURL := ResolveImageURL(color.Xmedia); imageURL != "" {
		product.ImageURL = imageURL
	}

	incoming, skipped := NormalizeSizes(color.Sizes)
	if skipped > 0 {
		log.Printf("[ProductService] skipped %d unparseable sizes for %s/%s",
			skipped, product.ProductCode, product.Color)
	}
	product.Sizes = MergeSizes(product.Sizes, incoming)

	product.ProductLink = s.client.ProductLink(zara.Seo{
		Keyword:          product.SeoKeyword,
		SeoProductID:     product.SeoProductID,
		DiscernProductID: product.SeoDiscernProductID,
	})
}

// ==================== Lookups ====================

// GetByCodeAndColor returns (nil, nil) when no such variant exists.
func (s *ProductService) GetByCodeAndColor(ctx context.Context, productCode, color string) (*model.Product, error) {
	product, err := s.productRepo.GetByCodeAndColor(ctx, productCode, color)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) FindAllByCode(ctx context.Context, productCode string) ([]model.Product, error) {
	return s.productRepo.ListByCode(ctx, productCode)
}

// FindSizesByCodeAndColor returns an empty set when the variant is unknown.
func (s *ProductService) FindSizesByCodeAndColor(ctx context.Context, productCode, color string) ([]model.Size, error) {
	sizes, err := s.productRepo.FindSizesByCodeAndColor(ctx, productCode, color)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return sizes, err
}

func (s *ProductService) GetSizeByID(ctx context.Context, sizeID int64) (*model.Size, error) {
	size, err := s.productRepo.GetSizeByID(ctx, sizeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return size, err
}

func (s *ProductService) GetProductBySizeID(ctx context.Context, sizeID int64) (*model.Product, error) {
	product, err := s.productRepo.GetBySizeID(ctx, sizeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return product, err
}

func (s *ProductService) ListProducts(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, pageSize)
}
