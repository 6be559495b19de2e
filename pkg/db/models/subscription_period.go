package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionPeriod mirrors the current billing period of a gateway-managed
// subscription. It is written exclusively by the webhook ingestion guard as an
// idempotent upsert keyed by the gateway's subscription id; the period end is
// monotonic so out-of-order deliveries converge.
type SubscriptionPeriod struct {
	ExternalSubscriptionID string    `gorm:"column:external_subscription_id;primaryKey"`
	SellerID               uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	Status                 string    `gorm:"column:status;not null"`
	CurrentPeriodEnd       time.Time `gorm:"column:current_period_end;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
