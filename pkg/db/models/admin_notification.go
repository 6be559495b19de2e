package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// AdminNotification queues operator attention items, currently manual payout
// requests awaiting approval and payouts needing reconciliation.
type AdminNotification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:notification_kind_enum;not null"`
	SellerID  uuid.UUID              `gorm:"column:seller_id;type:uuid;not null;index"`
	PayoutID  *uuid.UUID             `gorm:"column:payout_id;type:uuid"`
	Message   string                 `gorm:"column:message;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (n *AdminNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
