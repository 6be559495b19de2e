package enums

import "fmt"

// GatewayEventType enumerates the inbound gateway notifications the ingestion
// guard knows how to apply.
type GatewayEventType string

const (
	GatewayEventPaymentCaptured     GatewayEventType = "payment.captured"
	GatewayEventSubscriptionUpdated GatewayEventType = "subscription.updated"
	GatewayEventAccountVerified     GatewayEventType = "account.verified"
	GatewayEventDisputeOpened       GatewayEventType = "dispute.opened"
	GatewayEventDisputeClosed       GatewayEventType = "dispute.closed"
)

var validGatewayEventTypes = []GatewayEventType{
	GatewayEventPaymentCaptured,
	GatewayEventSubscriptionUpdated,
	GatewayEventAccountVerified,
	GatewayEventDisputeOpened,
	GatewayEventDisputeClosed,
}

// IsValid reports whether the value matches a known gateway event type.
func (t GatewayEventType) IsValid() bool {
	for _, candidate := range validGatewayEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseGatewayEventType converts raw input into GatewayEventType.
func ParseGatewayEventType(value string) (GatewayEventType, error) {
	for _, candidate := range validGatewayEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unsupported gateway event type %q", value)
}
