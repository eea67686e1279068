package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
	"github.com/keremmican/zara-bot/pkg/zara"
)

// CatalogService pulls the remote catalog into the canonical local model:
// the category tree wholesale, then products per leaf category through the
// two-hop listing → per-item detail fan-out the source requires.
type CatalogService struct {
	client         *zara.Client
	categoryRepo   repository.CategoryRepository
	productService *ProductService

	concurrencyLimit int
	sleepTime        time.Duration
}

func NewCatalogService(
	client *zara.Client,
	categoryRepo repository.CategoryRepository,
	productService *ProductService,
) *CatalogService {
	return &CatalogService{
		client:           client,
		categoryRepo:     categoryRepo,
		productService:   productService,
		concurrencyLimit: 5,
		sleepTime:        200 * time.Millisecond,
	}
}

// SetConcurrency tunes the detail-fetch fan-out.
func (s *CatalogService) SetConcurrency(limit int, sleep time.Duration) {
	s.concurrencyLimit = limit
	s.sleepTime = sleep
}

// RefreshCategories fetches the category document and rebuilds the whole
// category table from it.
func (s *CatalogService) RefreshCategories(ctx context.Context) error {
	resp, err := s.client.GetCategories(ctx)
	if err != nil {
		return err
	}

	categories := make([]model.Category, 0, len(resp.Categories))
	for _, dto := range resp.Categories {
		categories = append(categories, NormalizeCategory(dto))
	}

	if err := s.categoryRepo.ReplaceAll(ctx, categories); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	log.Printf("[CatalogService] categories refreshed: %d top-level nodes", len(categories))
	return nil
}

// LeafCategoryIDs lists the api ids product refresh fans out over.
func (s *CatalogService) LeafCategoryIDs(ctx context.Context) ([]int64, error) {
	return s.categoryRepo.ListLeafApiIDs(ctx)
}

// RefreshProductsForCategory fetches one leaf category's listing and
// upserts every addressable commercial item from its live detail page.
// Item-level failures are logged and skipped; only a failed listing fetch
// aborts the category.
func (s *CatalogService) RefreshProductsForCategory(ctx context.Context, categoryApiID int64) error {
	listing, err := s.client.GetCategoryProducts(ctx, categoryApiID)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, s.concurrencyLimit)
	var wg sync.WaitGroup
	var saved, skipped int32

	for _, group := range listing.ProductGroups {
		for _, element := range group.Elements {
			for _, component := range element.CommercialComponents {
				if component.Seo == nil || component.Seo.DiscernProductID == "" {
					// No SEO stub means the item cannot be addressed
					// individually.
					atomic.AddInt32(&skipped, 1)
					continue
				}

				select {
				case <-ctx.Done():
					wg.Wait()
					return ctx.Err()
				default:
				}

				sem <- struct{}{}
				wg.Add(1)
				time.Sleep(s.sleepTime)

				go func(component zara.CommercialComponent) {
					defer wg.Done()
					defer func() { <-sem }()

					if err := s.refreshComponent(ctx, categoryApiID, component); err != nil {
						log.Printf("[CatalogService] item %s skipped: %v", component.Reference, err)
						atomic.AddInt32(&skipped, 1)
						return
					}
					atomic.AddInt32(&saved, 1)
				}(component)
			}
		}
	}

	wg.Wait()
	log.Printf("[CatalogService] category %d refreshed: %d items saved, %d skipped",
		categoryApiID, saved, skipped)
	return nil
}

// refreshComponent fetches one item's detail page and upserts each of its
// color variants. A single broken color is logged and skipped without
// failing its siblings.
func (s *CatalogService) refreshComponent(ctx context.Context, categoryApiID int64, component zara.CommercialComponent) error {
	detailResp, err := s.client.GetProductDetail(ctx, *component.Seo, categoryApiID)
	if err != nil {
		return err
	}

	detail := detailResp.Product.Detail
	if detail == nil || detail.DisplayReference == "" {
		return fmt.Errorf("detail payload missing display reference")
	}

	meta := ProductMeta{
		Name:            component.Name,
		Description:     component.Description,
		FamilyName:      component.FamilyName,
		SubfamilyName:   component.SubfamilyName,
		CategoryApiID:   categoryApiID,
		Seo:             *component.Seo,
		PriceMinorUnits: component.Price,
	}

	for _, color := range detail.Colors {
		if color.Name == "" {
			log.Printf("[CatalogService] color without name skipped for %s", detail.DisplayReference)
			continue
		}
		if err := s.productService.UpsertColor(ctx, detail.DisplayReference, meta, color); err != nil {
			log.Printf("[CatalogService] color %q of %s skipped: %v", color.Name, detail.DisplayReference, err)
		}
	}
	return nil
}
