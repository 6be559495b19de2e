package enums

import "fmt"

// PayoutMode captures how a seller settles with the platform.
type PayoutMode string

const (
	// PayoutModeMerchantOfRecord means the platform is the legal seller and
	// disburses through manual batch providers.
	PayoutModeMerchantOfRecord PayoutMode = "merchant_of_record"
	// PayoutModeDirectConnect means the seller holds a connected gateway
	// sub-account and qualifies for self-service instant payouts.
	PayoutModeDirectConnect PayoutMode = "direct_connect"
)

var validPayoutModes = []PayoutMode{
	PayoutModeMerchantOfRecord,
	PayoutModeDirectConnect,
}

// IsValid reports whether the value matches the canonical payout mode enum.
func (m PayoutMode) IsValid() bool {
	for _, candidate := range validPayoutModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePayoutMode converts raw input into PayoutMode.
func ParsePayoutMode(value string) (PayoutMode, error) {
	for _, candidate := range validPayoutModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout mode %q", value)
}
