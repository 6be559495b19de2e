package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

// Service computes a seller's withdrawable balance on demand.
type Service interface {
	AvailableBalance(ctx context.Context, sellerID uuid.UUID) (*Breakdown, error)
	AvailableBalanceTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Breakdown, error)
}

// Breakdown is the derived balance plus the figures it was built from.
// ContributingEventIDs names the legacy revenue rows included in the total,
// so a payout can settle exactly the set it paid.
type Breakdown struct {
	AvailableCents       int64       `json:"available_cents"`
	LedgerAvailableCents int64       `json:"ledger_available_cents"`
	LegacyUnsettledCents int64       `json:"legacy_unsettled_cents"`
	ChargebackCents      int64       `json:"chargeback_cents"`
	LockedCents          int64       `json:"locked_cents"`
	ContributingEventIDs []uuid.UUID `json:"contributing_event_ids"`
}

type service struct {
	repo Repository
}

// NewService wires a balance aggregator with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AvailableBalance(ctx context.Context, sellerID uuid.UUID) (*Breakdown, error) {
	return s.AvailableBalanceTx(ctx, nil, sellerID)
}

// AvailableBalanceTx computes the balance inside the caller's transaction so
// a payout request reads the same snapshot it later settles against.
//
// The total is the sum of three sources: available ledger entries (signed,
// including payout debits and reversing credits), the standing chargeback
// deduction (debits are negative and count whether locked or settled; a won
// dispute is netted out by its reversing credit), and unsettled legacy
// revenue that is not frozen by an open dispute.
func (s *service) AvailableBalanceTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Breakdown, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}

	repo := s.repo.WithTx(tx)

	ledgerAvailable, err := repo.LedgerAvailableCents(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum available ledger entries")
	}
	chargeback, err := repo.ChargebackDebitCents(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum chargeback debits")
	}
	locked, err := repo.LockedChargebackCents(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum locked chargeback debits")
	}
	events, err := repo.EligibleUnsettledEvents(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list unsettled revenue events")
	}

	breakdown := &Breakdown{
		LedgerAvailableCents: ledgerAvailable,
		ChargebackCents:      chargeback,
		LockedCents:          -locked,
		ContributingEventIDs: make([]uuid.UUID, 0, len(events)),
	}
	for _, event := range events {
		breakdown.LegacyUnsettledCents += event.SellerShareCents
		breakdown.ContributingEventIDs = append(breakdown.ContributingEventIDs, event.ID)
	}
	breakdown.AvailableCents = ledgerAvailable + chargeback + breakdown.LegacyUnsettledCents
	return breakdown, nil
}
