package enums

import "fmt"

// PayoutStatus maps to the payout_status_enum enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusRequested  PayoutStatus = "requested"
	PayoutStatusApproved   PayoutStatus = "approved"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusSent       PayoutStatus = "sent"
	PayoutStatusFailed     PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusRequested,
	PayoutStatusApproved,
	PayoutStatusProcessing,
	PayoutStatusSent,
	PayoutStatusFailed,
}

// PendingPayoutStatuses are the states in which a payout still claims the
// seller's withdrawable funds. At most one payout per seller may be pending.
var PendingPayoutStatuses = []PayoutStatus{
	PayoutStatusRequested,
	PayoutStatusApproved,
	PayoutStatusProcessing,
}

// IsValid reports whether the value matches the canonical payout status enum.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payout can no longer transition.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusSent || s == PayoutStatusFailed
}

// ParsePayoutStatus converts raw input into PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}

// PayoutProvider maps to the payout_provider_enum enum in Postgres.
type PayoutProvider string

const (
	PayoutProviderStripeConnect PayoutProvider = "stripe_connect"
	PayoutProviderPayPal        PayoutProvider = "paypal"
	PayoutProviderPayoneer      PayoutProvider = "payoneer"
)

var validPayoutProviders = []PayoutProvider{
	PayoutProviderStripeConnect,
	PayoutProviderPayPal,
	PayoutProviderPayoneer,
}

// IsValid reports whether the value matches the canonical payout provider enum.
func (p PayoutProvider) IsValid() bool {
	for _, candidate := range validPayoutProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsManual reports whether disbursement requires an admin approval step.
func (p PayoutProvider) IsManual() bool {
	return p == PayoutProviderPayPal || p == PayoutProviderPayoneer
}

// ParsePayoutProvider converts raw input into PayoutProvider.
func ParsePayoutProvider(value string) (PayoutProvider, error) {
	for _, candidate := range validPayoutProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout provider %q", value)
}
