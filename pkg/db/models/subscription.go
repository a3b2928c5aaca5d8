package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/showsettle/showsettle-backend/pkg/enums"
)

// Subscription caches Stripe subscription state per user. It is a mirror of
// upstream state only; the entitlement row is the authoritative access gate.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id;not null;uniqueIndex"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;uniqueIndex"`
	StripePriceID        string                   `gorm:"column:stripe_price_id"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Subscription) TableName() string {
	return "user_subscriptions"
}
