package task

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keremmican/zara-bot/internal/service"
)

// CatalogSyncTask rebuilds the category tree and re-ingests every leaf
// category's products on a nightly schedule.
type CatalogSyncTask struct {
	catalogService *service.CatalogService
	cron           *cron.Cron

	concurrencyLimit int
	running          atomic.Bool
}

func NewCatalogSyncTask(catalogService *service.CatalogService) *CatalogSyncTask {
	return &CatalogSyncTask{
		catalogService:   catalogService,
		cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 3,
	}
}

// Start registers the nightly sync and launches the scheduler.
func (t *CatalogSyncTask) Start() error {
	// Nightly at 03:00, when catalog churn is lowest.
	_, err := t.cron.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()
		if err := t.RunOnce(ctx); err != nil {
			log.Printf("[CatalogSyncTask] sync failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	log.Println("[CatalogSyncTask] scheduler started")
	return nil
}

func (t *CatalogSyncTask) Stop() {
	t.cron.Stop()
}

// RunOnce performs one full catalog sync. Overlapping runs are refused so
// a slow sync never stacks on itself.
func (t *CatalogSyncTask) RunOnce(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[CatalogSyncTask] previous sync still running, skipping")
		return nil
	}
	defer t.running.Store(false)

	start := time.Now()
	log.Println("[CatalogSyncTask] catalog sync started")

	if err := t.catalogService.RefreshCategories(ctx); err != nil {
		return err
	}

	leafIDs, err := t.catalogService.LeafCategoryIDs(ctx)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup
	var failed int32

	for _, categoryApiID := range leafIDs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(categoryApiID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := t.catalogService.RefreshProductsForCategory(ctx, categoryApiID); err != nil {
				log.Printf("[CatalogSyncTask] category %d failed: %v", categoryApiID, err)
				atomic.AddInt32(&failed, 1)
			}
		}(categoryApiID)
	}

	wg.Wait()
	log.Printf("[CatalogSyncTask] catalog sync finished in %s: %d categories, %d failed",
		time.Since(start).Round(time.Second), len(leafIDs), failed)
	return nil
}
