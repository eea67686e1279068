package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/keremmican/zara-bot/internal/model"
)

// ==================== Interface ====================

// SubscriptionRepository owns subscription lifecycle state.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	Save(ctx context.Context, subscription *model.Subscription) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Subscription, error)

	// Exists enforces the one-subscription-per-tuple invariant; there is
	// no storage-level constraint behind it.
	Exists(ctx context.Context, chatID, productCode, color, size string) (bool, error)

	ListAll(ctx context.Context) ([]model.Subscription, error)
	ListActive(ctx context.Context) ([]model.Subscription, error)
	ListByChatID(ctx context.Context, chatID string) ([]model.Subscription, error)
	ListWaitingForResponse(ctx context.Context) ([]model.Subscription, error)
}

// ==================== Implementation ====================

type subscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *model.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *subscriptionRepo) Save(ctx context.Context, subscription *model.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *subscriptionRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Subscription{}, id).Error
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	var subscription model.Subscription
	err := r.db.WithContext(ctx).First(&subscription, id).Error
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *subscriptionRepo) Exists(ctx context.Context, chatID, productCode, color, size string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("chat_id = ? AND product_code = ? AND color = ? AND size = ?",
			chatID, productCode, color, size).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepo) ListAll(ctx context.Context) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.WithContext(ctx).Order("id ASC").Find(&subscriptions).Error
	return subscriptions, err
}

func (r *subscriptionRepo) ListActive(ctx context.Context) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("chat_id ASC, id ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *subscriptionRepo) ListByChatID(ctx context.Context, chatID string) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&subscriptions).Error
	return subscriptions, err
}

func (r *subscriptionRepo) ListWaitingForResponse(ctx context.Context) ([]model.Subscription, error) {
	var subscriptions []model.Subscription
	err := r.db.WithContext(ctx).
		Where("waiting_for_response = ?", true).
		Find(&subscriptions).Error
	return subscriptions, err
}
