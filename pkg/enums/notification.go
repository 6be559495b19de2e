package enums

// NotificationKind maps to the notification_kind_enum enum in Postgres.
type NotificationKind string

const (
	NotificationKindPayoutRequested NotificationKind = "payout_requested"
	NotificationKindPayoutFailed    NotificationKind = "payout_failed"
	NotificationKindPayoutStuck     NotificationKind = "payout_stuck"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindPayoutRequested,
	NotificationKindPayoutFailed,
	NotificationKindPayoutStuck,
}

// IsValid reports whether the value matches the canonical notification kind enum.
func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}
