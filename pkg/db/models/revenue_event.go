package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// RevenueEvent records one completed sale, subscription charge or booking fee.
// Rows are created by the order-completion collaborator; the settlement core
// only flips the settled flag and the dispute status. Rows are never deleted.
type RevenueEvent struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID            uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	SourceType          enums.RevenueSource `gorm:"column:source_type;type:revenue_source_enum;not null"`
	ProviderTxID        string              `gorm:"column:provider_tx_id;not null;unique"`
	GrossAmountCents    int64               `gorm:"column:gross_amount_cents;not null"`
	PlatformFeeCents    int64               `gorm:"column:platform_fee_cents;not null"`
	SellerShareCents    int64               `gorm:"column:seller_share_cents;not null"`
	Settled             bool                `gorm:"column:settled;not null;default:false"`
	SettlementReference *string             `gorm:"column:settlement_reference"`
	DisputeStatus       enums.DisputeStatus `gorm:"column:dispute_status;type:dispute_status_enum;not null;default:'none'"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *RevenueEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
