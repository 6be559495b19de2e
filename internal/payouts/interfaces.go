package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/internal/balance"
	"github.com/sellspay/settlements-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// instantGateway is the direct-connect provider surface: move legacy funds
// into the seller's sub-account, then disburse from it.
type instantGateway interface {
	Transfer(ctx context.Context, accountID string, amountCents int64) (string, error)
	Payout(ctx context.Context, accountID string, amountCents int64, instant bool) (string, error)
}

// emailPayer sends a single-item batch payout keyed by recipient email.
type emailPayer interface {
	SendPayout(ctx context.Context, recipientEmail string, amountCents int64, note string) (string, error)
}

// payeePayer sends a payout keyed by an external payee identifier.
type payeePayer interface {
	SendPayout(ctx context.Context, payeeID string, amountCents int64, description string) (string, error)
}

type balanceReader interface {
	AvailableBalanceTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*balance.Breakdown, error)
}

type adminNotifier interface {
	PayoutRequested(ctx context.Context, tx *gorm.DB, payout *models.Payout) error
	PayoutFailed(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error
	PayoutStuck(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error
}
