package enums

// DisputeStatus tracks the chargeback lifecycle of a revenue event.
type DisputeStatus string

const (
	DisputeStatusNone     DisputeStatus = "none"
	DisputeStatusDisputed DisputeStatus = "disputed"
	DisputeStatusWon      DisputeStatus = "won"
	DisputeStatusLost     DisputeStatus = "lost"
	DisputeStatusRefunded DisputeStatus = "refunded"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusNone,
	DisputeStatusDisputed,
	DisputeStatusWon,
	DisputeStatusLost,
	DisputeStatusRefunded,
}

// IsValid reports whether the value matches the canonical dispute status enum.
func (s DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsResolved reports whether the dispute reached a terminal outcome.
func (s DisputeStatus) IsResolved() bool {
	return s == DisputeStatusWon || s == DisputeStatusLost || s == DisputeStatusRefunded
}
