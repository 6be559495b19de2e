package enums

import "fmt"

// RevenueSource maps to the revenue_source_enum enum in Postgres.
type RevenueSource string

const (
	RevenueSourceSale         RevenueSource = "sale"
	RevenueSourceSubscription RevenueSource = "subscription"
	RevenueSourceBooking      RevenueSource = "booking"
)

var validRevenueSources = []RevenueSource{
	RevenueSourceSale,
	RevenueSourceSubscription,
	RevenueSourceBooking,
}

// IsValid reports whether the value matches the canonical revenue source enum.
func (s RevenueSource) IsValid() bool {
	for _, candidate := range validRevenueSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRevenueSource converts raw input into RevenueSource.
func ParseRevenueSource(value string) (RevenueSource, error) {
	for _, candidate := range validRevenueSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid revenue source %q", value)
}
