package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/api/dto"
	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/repository"
)

// ==================== Outbound channel ====================

// Notifier is the outbound messaging channel as the state machine sees it.
type Notifier interface {
	// SendAvailabilityAlert delivers an in-stock alert carrying the
	// continue/cancel choice for the given subscription.
	SendAvailabilityAlert(subscription *model.Subscription, size *model.Size) error
	SendTimeoutNotice(subscription *model.Subscription) error
	SendSubscriptionSummary(chatID string, subscriptions []model.Subscription) error
	SendText(chatID, text string) error
}

// ==================== Lifecycle parameters ====================

const (
	// SubscriptionTTL is how long a subscription lives without its clock
	// being restarted by an alert.
	SubscriptionTTL = 21 * 24 * time.Hour

	// ResponseTimeout bounds how long a notified user may sit on the
	// continue/cancel choice.
	ResponseTimeout = 2 * time.Hour
)

// User-facing reply texts.
const (
	MsgSubscriptionNotFound  = "Abonelik bulunamadı."
	MsgSubscriptionCancelled = "Abonelik başarıyla sonlandırıldı."
	MsgAlreadyInStock        = "Bu ürün zaten stokta. Abonelik pasif hale getirildi."
	MsgStillWatching         = "Aboneliğiniz aktif olarak devam ediyor."
	MsgNoSubscriptions       = "Henüz abonelik oluşturmadınız."
)

// ==================== Service ====================

// SubscriptionService owns the subscription lifecycle: creation,
// availability-change detection, the confirm-or-cancel handshake, response
// timeouts and expiry.
type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	productService   *ProductService
	notifier         Notifier

	concurrencyLimit int
	now              func() time.Time
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	productService *ProductService,
	notifier Notifier,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		productService:   productService,
		notifier:         notifier,
		concurrencyLimit: 5,
		now:              time.Now,
	}
}

// ==================== Subscribe ====================

// Subscribe creates a new active watch. A duplicate tuple is a no-op
// returning false, as is an unknown product.
func (s *SubscriptionService) Subscribe(ctx context.Context, req dto.SubscribeRequest) (bool, error) {
	exists, err := s.subscriptionRepo.Exists(ctx, req.ChatID, req.ProductCode, req.Color, req.Size)
	if err != nil {
		return false, err
	}
	if exists {
		log.Printf("[SubscriptionService] duplicate subscription: chat=%s code=%s color=%s size=%s",
			req.ChatID, req.ProductCode, req.Color, req.Size)
		return false, nil
	}

	product, err := s.productService.GetByCodeAndColor(ctx, req.ProductCode, req.Color)
	if err != nil {
		return false, err
	}
	if product == nil {
		log.Printf("[SubscriptionService] product not found: code=%s color=%s", req.ProductCode, req.Color)
		return false, nil
	}

	now := s.now()
	subscription := &model.Subscription{
		ChatID:           req.ChatID,
		ProductCode:      req.ProductCode,
		Color:            req.Color,
		Size:             req.Size,
		LastAvailability: req.Availability,
		SubscriptionDate: now,
		LastUpdate:       now,
		Active:           true,
		ProductName:      product.Name,
		ProductLink:      product.ProductLink,
	}
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return false, err
	}
	return true, nil
}

// ==================== Periodic cycles ====================

// RefreshAllSubscribedProducts re-polls every watched product with bounded
// parallelism. A broken product fetch is isolated to its subscription.
func (s *SubscriptionService) RefreshAllSubscribedProducts(ctx context.Context) error {
	subscriptions, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, s.concurrencyLimit)
	var wg sync.WaitGroup

	for i := range subscriptions {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(subscription model.Subscription) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := s.productService.RefreshSubscribedProduct(ctx, &subscription); err != nil {
				log.Printf("[SubscriptionService] refresh failed for %s/%s: %v",
					subscription.ProductCode, subscription.Color, err)
			}
			subscription.LastUpdate = s.now()
			if err := s.subscriptionRepo.Save(ctx, &subscription); err != nil {
				log.Printf("[SubscriptionService] save failed for subscription %d: %v", subscription.ID, err)
			}
		}(subscriptions[i])
	}

	wg.Wait()
	return nil
}

// CheckAvailabilityChange runs the change-detection pass: expiry sweep
// first, then per-subscription read-check-write so an early deletion is
// invisible to the rest of the pass.
func (s *SubscriptionService) CheckAvailabilityChange(ctx context.Context) error {
	subscriptions, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range subscriptions {
		subscription := subscriptions[i]

		if subscription.Expired(now, SubscriptionTTL) {
			log.Printf("[SubscriptionService] subscription %d expired, deleting", subscription.ID)
			if err := s.subscriptionRepo.Delete(ctx, subscription.ID); err != nil {
				log.Printf("[SubscriptionService] delete failed for subscription %d: %v", subscription.ID, err)
			}
			continue
		}

		// Deactivated rows are history; notified rows wait on the user,
		// not on the poller.
		if !subscription.Active || subscription.WaitingForResponse {
			continue
		}

		sizes, err := s.productService.FindSizesByCodeAndColor(ctx, subscription.ProductCode, subscription.Color)
		if err != nil {
			log.Printf("[SubscriptionService] size lookup failed for %s/%s: %v",
				subscription.ProductCode, subscription.Color, err)
			continue
		}

		if match := matchSize(sizes, subscription.Size); match != nil {
			current := string(match.Availability)
			if current != subscription.LastAvailability && match.Availability == model.AvailabilityInStock {
				if err := s.notifier.SendAvailabilityAlert(&subscription, match); err != nil {
					// Leave lastAvailability untouched so the next cycle
					// re-detects the change and retries.
					log.Printf("[SubscriptionService] alert failed for subscription %d: %v", subscription.ID, err)
				} else {
					subscription.WaitingForResponse = true
					subscription.SubscriptionDate = now // restarts expiry and response clocks
					subscription.LastAvailability = current
				}
			} else {
				subscription.LastAvailability = current
			}
		}

		subscription.LastUpdate = now
		if err := s.subscriptionRepo.Save(ctx, &subscription); err != nil {
			log.Printf("[SubscriptionService] save failed for subscription %d: %v", subscription.ID, err)
		}
	}
	return nil
}

// CheckResponseTimeouts deactivates notified subscriptions whose user
// never answered within the response window.
func (s *SubscriptionService) CheckResponseTimeouts(ctx context.Context) error {
	subscriptions, err := s.subscriptionRepo.ListWaitingForResponse(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range subscriptions {
		subscription := subscriptions[i]
		if !subscription.SubscriptionDate.Before(now.Add(-ResponseTimeout)) {
			continue
		}

		log.Printf("[SubscriptionService] response window elapsed, deactivating subscription %d", subscription.ID)
		if err := s.notifier.SendTimeoutNotice(&subscription); err != nil {
			log.Printf("[SubscriptionService] timeout notice failed for subscription %d: %v", subscription.ID, err)
		}

		subscription.Active = false
		subscription.WaitingForResponse = false
		subscription.LastUpdate = now
		if err := s.subscriptionRepo.Save(ctx, &subscription); err != nil {
			log.Printf("[SubscriptionService] save failed for subscription %d: %v", subscription.ID, err)
		}
	}
	return nil
}

// ==================== User-driven transitions ====================

// ProcessContinue handles the "keep watching" reply: re-polls the product
// and either resumes the watch or deactivates it when the size is already
// purchasable.
func (s *SubscriptionService) ProcessContinue(ctx context.Context, chatID string, subscriptionID int64) error {
	subscription, err := s.getForReply(ctx, chatID, subscriptionID)
	if err != nil || subscription == nil {
		return err
	}

	subscription.WaitingForResponse = false
	subscription.LastUpdate = s.now()
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		return err
	}

	product, err := s.productService.RefreshSubscribedProduct(ctx, subscription)
	if err != nil {
		log.Printf("[SubscriptionService] re-poll failed for subscription %d: %v", subscription.ID, err)
	}

	var match *model.Size
	if product != nil {
		match = product.FindSize(subscription.Size)
	}

	if match != nil && match.Availability.Purchasable() {
		subscription.Active = false
		subscription.LastAvailability = string(match.Availability)
		if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
			return err
		}
		return s.notifier.SendText(chatID, MsgAlreadyInStock)
	}

	subscription.Active = true
	if match != nil {
		subscription.LastAvailability = string(match.Availability)
	}
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		return err
	}
	return s.notifier.SendText(chatID, MsgStillWatching)
}

// ProcessCancel handles the "stop watching" reply and removes the
// subscription.
func (s *SubscriptionService) ProcessCancel(ctx context.Context, chatID string, subscriptionID int64) error {
	subscription, err := s.getForReply(ctx, chatID, subscriptionID)
	if err != nil || subscription == nil {
		return err
	}

	subscription.WaitingForResponse = false
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		return err
	}
	if err := s.subscriptionRepo.Delete(ctx, subscription.ID); err != nil {
		return err
	}
	return s.notifier.SendText(chatID, MsgSubscriptionCancelled)
}

// getForReply resolves a subscription for a user reply; a missing one is
// answered with a not-found message, not an error.
func (s *SubscriptionService) getForReply(ctx context.Context, chatID string, subscriptionID int64) (*model.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.notifier.SendText(chatID, MsgSubscriptionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

// ==================== Summaries ====================

// SendWeeklySummary sends every subscriber one digest of their live
// subscriptions.
func (s *SubscriptionService) SendWeeklySummary(ctx context.Context) error {
	subscriptions, err := s.subscriptionRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	byChat := make(map[string][]model.Subscription)
	for _, subscription := range subscriptions {
		byChat[subscription.ChatID] = append(byChat[subscription.ChatID], subscription)
	}

	for chatID, userSubscriptions := range byChat {
		if err := s.notifier.SendSubscriptionSummary(chatID, userSubscriptions); err != nil {
			log.Printf("[SubscriptionService] summary failed for chat %s: %v", chatID, err)
		}
	}
	return nil
}

// SendUserSubscriptionList answers an explicit list request from one chat.
func (s *SubscriptionService) SendUserSubscriptionList(ctx context.Context, chatID string) error {
	subscriptions, err := s.subscriptionRepo.ListByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	if len(subscriptions) == 0 {
		return s.notifier.SendText(chatID, MsgNoSubscriptions)
	}
	return s.notifier.SendSubscriptionSummary(chatID, subscriptions)
}

// ListByChatID exposes a chat's subscriptions for the admin surface.
func (s *SubscriptionService) ListByChatID(ctx context.Context, chatID string) ([]model.Subscription, error) {
	return s.subscriptionRepo.ListByChatID(ctx, chatID)
}

func matchSize(sizes []model.Size, name string) *model.Size {
	for i := range sizes {
		if strings.EqualFold(sizes[i].Name, name) {
			return &sizes[i]
		}
	}
	return nil
}
