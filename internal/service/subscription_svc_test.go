package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/api/dto"
	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
	"github.com/keremmican/zara-bot/pkg/zara"
)

// ==================== Fake notifier ====================

type fakeNotifier struct {
	mu sync.Mutex

	alerts    []int64 // subscription ids alerted
	timeouts  []int64
	summaries map[string]int
	texts     map[string][]string

	failAlerts bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		summaries: make(map[string]int),
		texts:     make(map[string][]string),
	}
}

func (f *fakeNotifier) SendAvailabilityAlert(subscription *model.Subscription, size *model.Size) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAlerts {
		return errors.New("delivery failed")
	}
	f.alerts = append(f.alerts, subscription.ID)
	return nil
}

func (f *fakeNotifier) SendTimeoutNotice(subscription *model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, subscription.ID)
	return nil
}

func (f *fakeNotifier) SendSubscriptionSummary(chatID string, subscriptions []model.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[chatID] = len(subscriptions)
	return nil
}

func (f *fakeNotifier) SendText(chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

func (f *fakeNotifier) lastText(chatID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts[chatID]) == 0 {
		return ""
	}
	return f.texts[chatID][len(f.texts[chatID])-1]
}

// ==================== Test fixture ====================

type subscriptionFixture struct {
	db       *gorm.DB
	repo     repository.SubscriptionRepository
	products *ProductService
	notifier *fakeNotifier
	svc      *SubscriptionService
}

func setupSubscriptionFixture(t *testing.T, serverURL string) *subscriptionFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	productService := NewProductService(zara.NewClient(serverURL), repository.NewProductRepository(db))
	notifier := newFakeNotifier()
	svc := NewSubscriptionService(subscriptionRepo, productService, notifier)
	return &subscriptionFixture{
		db:       db,
		repo:     subscriptionRepo,
		products: productService,
		notifier: notifier,
		svc:      svc,
	}
}

func (f *subscriptionFixture) seedSubscription(t *testing.T, mutate func(*model.Subscription)) *model.Subscription {
	t.Helper()
	now := time.Now()
	subscription := &model.Subscription{
		ChatID:           "1001",
		ProductCode:      "1255/768",
		Color:            "BLACK",
		Size:             "M",
		LastAvailability: string(model.AvailabilityOutOfStock),
		SubscriptionDate: now,
		LastUpdate:       now,
		Active:           true,
		ProductName:      "Midi Dress",
	}
	if mutate != nil {
		mutate(subscription)
	}
	if err := f.db.Create(subscription).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return subscription
}

// ==================== Subscribe ====================

func TestSubscriptionService_Subscribe(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})

	req := dto.SubscribeRequest{
		ChatID:       "1001",
		ProductCode:  "1255/768",
		Color:        "BLACK",
		Size:         "M",
		Availability: "OUT_OF_STOCK",
	}

	ctx := context.Background()
	created, err := f.svc.Subscribe(ctx, req)
	if err != nil || !created {
		t.Fatalf("subscribe = (%v, %v), want (true, nil)", created, err)
	}

	// Exact duplicate is refused.
	created, err = f.svc.Subscribe(ctx, req)
	if err != nil {
		t.Fatalf("duplicate subscribe errored: %v", err)
	}
	if created {
		t.Error("duplicate subscribe created a second row")
	}

	// Different size of the same product is a distinct watch.
	req.Size = "L"
	created, err = f.svc.Subscribe(ctx, req)
	if err != nil || !created {
		t.Fatalf("second size subscribe = (%v, %v), want (true, nil)", created, err)
	}

	var count int64
	f.db.Model(&model.Subscription{}).Count(&count)
	if count != 2 {
		t.Errorf("subscription rows = %d, want 2", count)
	}
}

func TestSubscriptionService_Subscribe_UnknownProduct(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")

	created, err := f.svc.Subscribe(context.Background(), dto.SubscribeRequest{
		ChatID:      "1001",
		ProductCode: "0000/000",
		Color:       "RED",
		Size:        "M",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("subscribe succeeded for unknown product")
	}
}

// ==================== Change detection ====================

func TestSubscriptionService_CheckAvailabilityChange_Notifies(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityInStock})
	subscription := f.seedSubscription(t, nil)

	alertTime := time.Now().Add(time.Hour)
	f.svc.now = func() time.Time { return alertTime }

	ctx := context.Background()
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if len(f.notifier.alerts) != 1 || f.notifier.alerts[0] != subscription.ID {
		t.Fatalf("alerts = %v, want [%d]", f.notifier.alerts, subscription.ID)
	}

	stored, err := f.repo.GetByID(ctx, subscription.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !stored.WaitingForResponse {
		t.Error("subscription not marked waiting")
	}
	if stored.LastAvailability != string(model.AvailabilityInStock) {
		t.Errorf("last availability = %s, want IN_STOCK", stored.LastAvailability)
	}
	if !stored.SubscriptionDate.Equal(alertTime) {
		t.Errorf("expiry clock not restarted: %v", stored.SubscriptionDate)
	}

	// A second pass must not re-alert while the user is being waited on.
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if len(f.notifier.alerts) != 1 {
		t.Errorf("alerts = %d after second pass, want 1", len(f.notifier.alerts))
	}
}

func TestSubscriptionService_CheckAvailabilityChange_NoFlipNoAlert(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})
	f.seedSubscription(t, nil)

	if err := f.svc.CheckAvailabilityChange(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(f.notifier.alerts) != 0 {
		t.Errorf("alerts = %v, want none", f.notifier.alerts)
	}
}

func TestSubscriptionService_CheckAvailabilityChange_AlertFailureRetries(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityInStock})
	subscription := f.seedSubscription(t, nil)

	f.notifier.failAlerts = true
	ctx := context.Background()
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	stored, _ := f.repo.GetByID(ctx, subscription.ID)
	// Failed delivery leaves the snapshot untouched so the change is seen
	// again next cycle.
	if stored.WaitingForResponse {
		t.Error("subscription marked waiting despite failed delivery")
	}
	if stored.LastAvailability != string(model.AvailabilityOutOfStock) {
		t.Errorf("last availability = %s, want OUT_OF_STOCK", stored.LastAvailability)
	}

	f.notifier.failAlerts = false
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("retry check failed: %v", err)
	}
	if len(f.notifier.alerts) != 1 {
		t.Errorf("alerts = %d after retry, want 1", len(f.notifier.alerts))
	}
}

func TestSubscriptionService_CheckAvailabilityChange_Expiry(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")

	fresh := f.seedSubscription(t, func(s *model.Subscription) {
		s.SubscriptionDate = time.Now().Add(-20 * 24 * time.Hour)
	})
	stale := f.seedSubscription(t, func(s *model.Subscription) {
		s.Size = "L"
		s.SubscriptionDate = time.Now().Add(-22 * 24 * time.Hour)
	})

	ctx := context.Background()
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if _, err := f.repo.GetByID(ctx, stale.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("22-day-old subscription still present, err = %v", err)
	}
	if _, err := f.repo.GetByID(ctx, fresh.ID); err != nil {
		t.Errorf("20-day-old subscription was removed: %v", err)
	}
}

// ==================== Response timeouts ====================

func TestSubscriptionService_CheckResponseTimeouts(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")

	overdue := f.seedSubscription(t, func(s *model.Subscription) {
		s.WaitingForResponse = true
		s.SubscriptionDate = time.Now().Add(-3 * time.Hour)
	})
	recent := f.seedSubscription(t, func(s *model.Subscription) {
		s.Size = "L"
		s.WaitingForResponse = true
		s.SubscriptionDate = time.Now().Add(-1 * time.Hour)
	})

	ctx := context.Background()
	if err := f.svc.CheckResponseTimeouts(ctx); err != nil {
		t.Fatalf("timeout check failed: %v", err)
	}

	if len(f.notifier.timeouts) != 1 || f.notifier.timeouts[0] != overdue.ID {
		t.Fatalf("timeout notices = %v, want [%d]", f.notifier.timeouts, overdue.ID)
	}

	stored, _ := f.repo.GetByID(ctx, overdue.ID)
	if stored.Active || stored.WaitingForResponse {
		t.Errorf("overdue subscription not deactivated: active=%v waiting=%v",
			stored.Active, stored.WaitingForResponse)
	}

	stored, _ = f.repo.GetByID(ctx, recent.ID)
	if !stored.Active || !stored.WaitingForResponse {
		t.Errorf("one-hour-old wait was swept: active=%v waiting=%v",
			stored.Active, stored.WaitingForResponse)
	}
}

// ==================== Continue / cancel ====================

func TestSubscriptionService_ProcessContinue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, detailsPayload("1255/768", zara.ColorDTO{
			Name:  "BLACK",
			Sizes: []zara.SizeDTO{{Name: "M", Availability: "OUT_OF_STOCK"}},
		}))
	}))
	defer server.Close()

	f := setupSubscriptionFixture(t, server.URL)
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityInStock})
	subscription := f.seedSubscription(t, func(s *model.Subscription) {
		s.WaitingForResponse = true
	})

	ctx := context.Background()
	if err := f.svc.ProcessContinue(ctx, "1001", subscription.ID); err != nil {
		t.Fatalf("continue failed: %v", err)
	}

	stored, _ := f.repo.GetByID(ctx, subscription.ID)
	if !stored.Active || stored.WaitingForResponse {
		t.Errorf("subscription not resumed: active=%v waiting=%v", stored.Active, stored.WaitingForResponse)
	}
	if got := f.notifier.lastText("1001"); got != MsgStillWatching {
		t.Errorf("reply = %q, want %q", got, MsgStillWatching)
	}
}

func TestSubscriptionService_ProcessContinue_AlreadyInStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, detailsPayload("1255/768", zara.ColorDTO{
			Name:  "BLACK",
			Sizes: []zara.SizeDTO{{Name: "M", Availability: "IN_STOCK"}},
		}))
	}))
	defer server.Close()

	f := setupSubscriptionFixture(t, server.URL)
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})
	subscription := f.seedSubscription(t, func(s *model.Subscription) {
		s.WaitingForResponse = true
	})

	ctx := context.Background()
	if err := f.svc.ProcessContinue(ctx, "1001", subscription.ID); err != nil {
		t.Fatalf("continue failed: %v", err)
	}

	stored, _ := f.repo.GetByID(ctx, subscription.ID)
	if stored.Active {
		t.Error("subscription stayed active although the size is purchasable")
	}
	if got := f.notifier.lastText("1001"); got != MsgAlreadyInStock {
		t.Errorf("reply = %q, want %q", got, MsgAlreadyInStock)
	}
}

func TestSubscriptionService_ProcessCancel(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	subscription := f.seedSubscription(t, func(s *model.Subscription) {
		s.WaitingForResponse = true
	})

	ctx := context.Background()
	if err := f.svc.ProcessCancel(ctx, "1001", subscription.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := f.repo.GetByID(ctx, subscription.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("subscription still present after cancel, err = %v", err)
	}
	if got := f.notifier.lastText("1001"); got != MsgSubscriptionCancelled {
		t.Errorf("reply = %q, want %q", got, MsgSubscriptionCancelled)
	}
}

func TestSubscriptionService_ProcessContinue_NotFound(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")

	if err := f.svc.ProcessContinue(context.Background(), "1001", 9999); err != nil {
		t.Fatalf("continue errored: %v", err)
	}
	if got := f.notifier.lastText("1001"); got != MsgSubscriptionNotFound {
		t.Errorf("reply = %q, want %q", got, MsgSubscriptionNotFound)
	}
}

// ==================== Summaries ====================

func TestSubscriptionService_SendWeeklySummary_GroupsByChat(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")
	f.seedSubscription(t, nil)
	f.seedSubscription(t, func(s *model.Subscription) { s.Size = "L" })
	f.seedSubscription(t, func(s *model.Subscription) { s.ChatID = "2002" })
	f.seedSubscription(t, func(s *model.Subscription) {
		s.ChatID = "3003"
		s.Active = false
	})

	if err := f.svc.SendWeeklySummary(context.Background()); err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if f.notifier.summaries["1001"] != 2 {
		t.Errorf("chat 1001 got %d entries, want 2", f.notifier.summaries["1001"])
	}
	if f.notifier.summaries["2002"] != 1 {
		t.Errorf("chat 2002 got %d entries, want 1", f.notifier.summaries["2002"])
	}
	if _, ok := f.notifier.summaries["3003"]; ok {
		t.Error("inactive-only chat received a summary")
	}
}

func TestSubscriptionService_SendUserSubscriptionList_Empty(t *testing.T) {
	f := setupSubscriptionFixture(t, "http://127.0.0.1:0")

	if err := f.svc.SendUserSubscriptionList(context.Background(), "1001"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := f.notifier.lastText("1001"); got != MsgNoSubscriptions {
		t.Errorf("reply = %q, want %q", got, MsgNoSubscriptions)
	}
}

// ==================== End to end ====================

// A stock flip travels the whole pipeline: poll updates the store, the
// change check alerts once, continue resumes the watch.
func TestSubscriptionService_StockFlipEndToEnd(t *testing.T) {
	availability := "OUT_OF_STOCK"
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		current := availability
		mu.Unlock()
		writeJSON(t, w, detailsPayload("1255/768", zara.ColorDTO{
			Name:  "BLACK",
			Sizes: []zara.SizeDTO{{Name: "M", Availability: current}},
		}))
	}))
	defer server.Close()

	f := setupSubscriptionFixture(t, server.URL)
	seedProduct(t, f.db, "1255/768", "BLACK",
		model.Size{Name: "M", Availability: model.AvailabilityOutOfStock})
	subscription := f.seedSubscription(t, nil)

	ctx := context.Background()

	// Nothing changed yet.
	if err := f.svc.RefreshAllSubscribedProducts(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(f.notifier.alerts) != 0 {
		t.Fatalf("premature alert: %v", f.notifier.alerts)
	}

	// The size comes back in stock.
	mu.Lock()
	availability = "IN_STOCK"
	mu.Unlock()

	if err := f.svc.RefreshAllSubscribedProducts(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if err := f.svc.CheckAvailabilityChange(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(f.notifier.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(f.notifier.alerts))
	}

	// Flip back out of stock before the user answers; continue resumes the
	// watch instead of closing it.
	mu.Lock()
	availability = "OUT_OF_STOCK"
	mu.Unlock()

	if err := f.svc.ProcessContinue(ctx, "1001", subscription.ID); err != nil {
		t.Fatalf("continue failed: %v", err)
	}

	stored, _ := f.repo.GetByID(ctx, subscription.ID)
	if !stored.Active || stored.WaitingForResponse {
		t.Errorf("watch not resumed: active=%v waiting=%v", stored.Active, stored.WaitingForResponse)
	}
	if stored.LastAvailability != "OUT_OF_STOCK" {
		t.Errorf("last availability = %s, want OUT_OF_STOCK", stored.LastAvailability)
	}
}
