package task

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/keremmican/zara-bot/internal/service"
)

// SubscriptionTask schedules the recurring subscription cycles: product
// re-polls, availability-change detection, response timeouts and the
// weekly digest.
type SubscriptionTask struct {
	subscriptionService *service.SubscriptionService
	cron                *cron.Cron

	refreshRunning atomic.Bool
	checkRunning   atomic.Bool
	timeoutRunning atomic.Bool
}

func NewSubscriptionTask(subscriptionService *service.SubscriptionService) *SubscriptionTask {
	return &SubscriptionTask{
		subscriptionService: subscriptionService,
		cron:                cron.New(cron.WithSeconds()),
	}
}

// Start registers all subscription schedules and launches the scheduler.
func (t *SubscriptionTask) Start() error {
	// Re-poll watched products every 5 minutes.
	if _, err := t.cron.AddFunc("0 */5 * * * *", func() {
		t.guarded(&t.refreshRunning, "product refresh", 4*time.Minute, t.subscriptionService.RefreshAllSubscribedProducts)
	}); err != nil {
		return err
	}

	// Detect availability flips every 2 minutes.
	if _, err := t.cron.AddFunc("0 */2 * * * *", func() {
		t.guarded(&t.checkRunning, "availability check", 90*time.Second, t.subscriptionService.CheckAvailabilityChange)
	}); err != nil {
		return err
	}

	// Sweep unanswered alerts every minute.
	if _, err := t.cron.AddFunc("0 * * * * *", func() {
		t.guarded(&t.timeoutRunning, "timeout sweep", 45*time.Second, t.subscriptionService.CheckResponseTimeouts)
	}); err != nil {
		return err
	}

	// Weekly digest, Monday 10:00.
	if _, err := t.cron.AddFunc("0 0 10 * * 1", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := t.subscriptionService.SendWeeklySummary(ctx); err != nil {
			log.Printf("[SubscriptionTask] weekly summary failed: %v", err)
		}
	}); err != nil {
		return err
	}

	t.cron.Start()
	log.Println("[SubscriptionTask] scheduler started")
	return nil
}

func (t *SubscriptionTask) Stop() {
	t.cron.Stop()
}

// RunAvailabilityCheck triggers one change-detection pass outside the
// schedule, for the admin surface.
func (t *SubscriptionTask) RunAvailabilityCheck(ctx context.Context) error {
	if !t.checkRunning.CompareAndSwap(false, true) {
		log.Println("[SubscriptionTask] availability check already running, skipping")
		return nil
	}
	defer t.checkRunning.Store(false)
	return t.subscriptionService.CheckAvailabilityChange(ctx)
}

// guarded runs one cycle under an overlap guard and a deadline.
func (t *SubscriptionTask) guarded(flag *atomic.Bool, name string, timeout time.Duration, run func(context.Context) error) {
	if !flag.CompareAndSwap(false, true) {
		log.Printf("[SubscriptionTask] %s still running, skipping", name)
		return
	}
	defer flag.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Printf("[SubscriptionTask] %s failed: %v", name, err)
	}
}
