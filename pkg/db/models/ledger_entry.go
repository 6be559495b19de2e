package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// LedgerEntry is the structured representation of a financial movement against
// a seller's wallet. Entries are append-only: corrections are expressed as new
// reversing entries, never as in-place amount edits. The only mutation the core
// performs is the locked -> settled status flip when a chargeback resolves.
type LedgerEntry struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID       uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderReference *string                 `gorm:"column:order_reference;index"`
	EntryType      enums.LedgerEntryType   `gorm:"column:entry_type;type:ledger_entry_type_enum;not null"`
	AmountCents    int64                   `gorm:"column:amount_cents;not null"`
	Status         enums.LedgerEntryStatus `gorm:"column:status;type:ledger_entry_status_enum;not null;default:'available'"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
