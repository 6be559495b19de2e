package payouts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

// ProviderDecision is the routing outcome for one payout request. Instant
// decisions collapse the state machine synchronously; manual decisions park
// the payout in requested until an admin processes it.
type ProviderDecision struct {
	Provider enums.PayoutProvider
	Instant  bool
}

// RouteInput is the state the routing rules evaluate, read under the
// seller's payout lock.
type RouteInput struct {
	AvailableCents    int64
	HasPendingPayout  bool
	Config            *models.SellerPayoutConfig
	RequestedProvider *enums.PayoutProvider
}

// Router applies the payout eligibility and provider selection rules.
type Router struct {
	minimumCents int64
}

// NewRouter builds a router with the platform's minimum payout policy.
func NewRouter(minimumCents int64) Router {
	return Router{minimumCents: minimumCents}
}

// Choose applies the rules in order: balance floor, single pending payout,
// direct-connect instant routing, then configured manual providers.
func (r Router) Choose(input RouteInput) (ProviderDecision, error) {
	if input.AvailableCents < r.minimumCents {
		return ProviderDecision{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum withdrawal is %s, available is %s",
				formatCents(r.minimumCents), formatCents(input.AvailableCents)))
	}
	if input.HasPendingPayout {
		return ProviderDecision{}, pkgerrors.New(pkgerrors.CodeConflict, "a payout is already pending for this seller")
	}
	if input.Config == nil {
		return ProviderDecision{}, pkgerrors.New(pkgerrors.CodeValidation,
			"no payout provider connected; connect a provider before requesting a payout")
	}

	if requested := input.RequestedProvider; requested != nil && requested.IsManual() {
		if !input.Config.ProviderConfigured(*requested) {
			return ProviderDecision{}, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("provider %s is not connected for this seller", *requested))
		}
		return ProviderDecision{Provider: *requested, Instant: false}, nil
	}

	if input.Config.Mode == enums.PayoutModeDirectConnect &&
		input.Config.OnboardingComplete &&
		input.Config.ProviderConfigured(enums.PayoutProviderStripeConnect) {
		return ProviderDecision{Provider: enums.PayoutProviderStripeConnect, Instant: true}, nil
	}

	for _, provider := range []enums.PayoutProvider{enums.PayoutProviderPayPal, enums.PayoutProviderPayoneer} {
		if input.Config.ProviderConfigured(provider) {
			return ProviderDecision{Provider: provider, Instant: false}, nil
		}
	}
	return ProviderDecision{}, pkgerrors.New(pkgerrors.CodeValidation,
		"no payout provider connected; connect PayPal or Payoneer before requesting a payout")
}

func formatCents(cents int64) string {
	return "$" + decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// expediteFeeCents computes the fee retained for expedited delivery, rounded
// down in the seller's favor.
func expediteFeeCents(amountCents, feeBps int64) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromInt(feeBps)).
		Div(decimal.NewFromInt(10000)).
		Floor().
		IntPart()
}
