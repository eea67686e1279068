package model

import "time"

// Subscription is one watch on a (product code, color, size) combination for
// one chat. At most one row exists per (chat_id, product_code, color, size)
// tuple, enforced by an existence check before insert.
//
// Lifecycle: created by an explicit subscribe, mutated by every poll cycle
// and by user replies, deleted on in-stock notification follow-through or
// after 21 days, and deactivated in place (kept for history) when a
// notification goes unanswered for 2 hours.
type Subscription struct {
	BaseModel

	ChatID      string `gorm:"size:50;index;not null"`
	ProductCode string `gorm:"size:50;index;not null"`
	Color       string `gorm:"size:100;not null"`
	Size        string `gorm:"size:50;not null"`

	// LastAvailability is the availability snapshot seen at the previous
	// check; the change detector compares against it.
	LastAvailability string `gorm:"size:20"`

	// SubscriptionDate is reset to now when an alert is sent, restarting
	// both the 21-day expiry clock and the 2-hour response window.
	SubscriptionDate   time.Time
	LastUpdate         time.Time
	WaitingForResponse bool `gorm:"default:false"`
	Active             bool `gorm:"default:true"`

	// Denormalized display fields captured at creation time so messages
	// need no product join.
	ProductName string `gorm:"size:255"`
	ProductLink string `gorm:"size:512"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Expired reports whether the subscription is older than the retention window.
func (s *Subscription) Expired(now time.Time, retention time.Duration) bool {
	return s.SubscriptionDate.Before(now.Add(-retention))
}
