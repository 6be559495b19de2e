package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// SellerPayoutConfig holds the seller-owned settlement configuration. The
// settlement core reads it to route payouts; only the account-verified webhook
// mutates the onboarding flag.
type SellerPayoutConfig struct {
	SellerID           uuid.UUID        `gorm:"column:seller_id;type:uuid;primaryKey"`
	Mode               enums.PayoutMode `gorm:"column:mode;type:payout_mode_enum;not null;default:'merchant_of_record'"`
	StripeAccountID    *string          `gorm:"column:stripe_account_id"`
	PayPalEmail        *string          `gorm:"column:paypal_email"`
	PayoneerPayeeID    *string          `gorm:"column:payoneer_payee_id"`
	OnboardingComplete bool             `gorm:"column:onboarding_complete;not null;default:false"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProviderConfigured reports whether the seller holds usable credentials for
// the given provider.
func (c *SellerPayoutConfig) ProviderConfigured(provider enums.PayoutProvider) bool {
	switch provider {
	case enums.PayoutProviderStripeConnect:
		return c.StripeAccountID != nil && *c.StripeAccountID != ""
	case enums.PayoutProviderPayPal:
		return c.PayPalEmail != nil && *c.PayPalEmail != ""
	case enums.PayoutProviderPayoneer:
		return c.PayoneerPayeeID != nil && *c.PayoneerPayeeID != ""
	default:
		return false
	}
}
