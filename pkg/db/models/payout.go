package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// Payout tracks one disbursement attempt. Transitions run strictly forward
// (requested -> approved -> processing -> sent|failed); a failed payout is
// terminal and a retry creates a new record. A partial unique index plus a
// per-seller advisory lock guarantee at most one non-terminal payout per seller.
type Payout struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID          uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents       int64                `gorm:"column:amount_cents;not null"`
	FeeCents          int64                `gorm:"column:fee_cents;not null;default:0"`
	Expedited         bool                 `gorm:"column:expedited;not null;default:false"`
	Provider          enums.PayoutProvider `gorm:"column:provider;type:payout_provider_enum;not null"`
	Status            enums.PayoutStatus   `gorm:"column:status;type:payout_status_enum;not null;default:'requested'"`
	RequestedAt       time.Time            `gorm:"column:requested_at;autoCreateTime"`
	ApprovedAt        *time.Time           `gorm:"column:approved_at"`
	SentAt            *time.Time           `gorm:"column:sent_at"`
	ExternalReference *string              `gorm:"column:external_reference"`
	FailureReason     *string              `gorm:"column:failure_reason"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payout) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DisbursedCents is the amount actually sent to the seller after any
// expedite fee retained by the platform.
func (p *Payout) DisbursedCents() int64 {
	return p.AmountCents - p.FeeCents
}
