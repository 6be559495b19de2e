package models

import "time"

// InboundEventRecord claims an inbound gateway notification by its unique
// provider-assigned id. It exists solely to make webhook application
// idempotent: the claim and the event's side effect commit in one transaction,
// so a duplicate delivery hits the unique constraint and is acknowledged
// without reapplying anything.
type InboundEventRecord struct {
	GatewayEventID string    `gorm:"column:gateway_event_id;primaryKey"`
	EventType      string    `gorm:"column:event_type;not null"`
	ReceivedAt     time.Time `gorm:"column:received_at;autoCreateTime"`
}
