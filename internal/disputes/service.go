package disputes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/internal/events"
	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains the locked/available state of funds under chargeback.
// Opening a dispute freezes the disputed amount; resolution either reverses
// the freeze (won) or lets the deduction stand (lost, refunded). Balance is
// always derived from the ledger on read, so resolution needs no cache work.
//
// Callers that already hold a transaction, like the webhook ingestion guard,
// pass it so the dispute effect commits atomically with the event claim; a
// nil tx runs in its own transaction.
type Service interface {
	Open(ctx context.Context, tx *gorm.DB, input OpenDisputeInput) error
	Resolve(ctx context.Context, tx *gorm.DB, input ResolveDisputeInput) error
}

// OpenDisputeInput identifies the disputed order and the frozen amount.
type OpenDisputeInput struct {
	SellerID       uuid.UUID `json:"seller_id"`
	OrderReference string    `json:"order_reference"`
	AmountCents    int64     `json:"amount_cents"`
}

// ResolveDisputeInput carries the gateway's final outcome for a dispute.
type ResolveDisputeInput struct {
	OrderReference string              `json:"order_reference"`
	Outcome        enums.DisputeStatus `json:"outcome"`
}

type service struct {
	repo events.Repository
	tx   txRunner
}

// NewService wires a dispute locker over the event store.
func NewService(repo events.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Open freezes the disputed amount. For a revenue event that has not settled
// yet the dispute flag alone removes it from the balance, so no debit is
// appended; appending one too would exclude the funds twice. Settled orders
// get a locked chargeback debit instead.
func (s *service) Open(ctx context.Context, tx *gorm.DB, input OpenDisputeInput) error {
	if input.SellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if input.OrderReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "disputed amount must be positive")
	}
	if tx == nil {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Open(ctx, tx, input)
		})
	}

	repo := s.repo.WithTx(tx)

	event, err := repo.FindRevenueEventByProviderTxID(ctx, input.OrderReference)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load disputed revenue event")
	}

	needsDebit := true
	if event != nil {
		if event.DisputeStatus == enums.DisputeStatusDisputed {
			return nil
		}
		if err := repo.UpdateDisputeStatus(ctx, event.ID, enums.DisputeStatusDisputed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flag revenue event disputed")
		}
		needsDebit = event.Settled
	}
	if !needsDebit {
		return nil
	}

	orderRef := input.OrderReference
	entry := &models.LedgerEntry{
		SellerID:       input.SellerID,
		OrderReference: &orderRef,
		EntryType:      enums.LedgerEntryTypeChargebackDebit,
		AmountCents:    -input.AmountCents,
		Status:         enums.LedgerEntryStatusLocked,
	}
	if err := repo.CreateLedgerEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append chargeback debit")
	}
	return nil
}

// Resolve records the outcome. Locked debits for the order are marked settled
// in place; a won dispute additionally appends a reversing credit so the net
// ledger effect returns to zero. Entries are never amount-edited.
func (s *service) Resolve(ctx context.Context, tx *gorm.DB, input ResolveDisputeInput) error {
	if input.OrderReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	if !input.Outcome.IsResolved() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid dispute outcome %q", input.Outcome))
	}
	if tx == nil {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Resolve(ctx, tx, input)
		})
	}

	repo := s.repo.WithTx(tx)

	event, err := repo.FindRevenueEventByProviderTxID(ctx, input.OrderReference)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load disputed revenue event")
	}
	if event != nil {
		if err := repo.UpdateDisputeStatus(ctx, event.ID, input.Outcome); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record dispute outcome")
		}
	}

	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, input.OrderReference)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dispute ledger entries")
	}
	for _, entry := range entries {
		if entry.EntryType != enums.LedgerEntryTypeChargebackDebit || entry.Status != enums.LedgerEntryStatusLocked {
			continue
		}
		if err := repo.UpdateLedgerEntryStatus(ctx, entry.ID, enums.LedgerEntryStatusSettled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle chargeback debit")
		}
		if input.Outcome != enums.DisputeStatusWon {
			continue
		}
		orderRef := input.OrderReference
		credit := &models.LedgerEntry{
			SellerID:       entry.SellerID,
			OrderReference: &orderRef,
			EntryType:      enums.LedgerEntryTypeCredit,
			AmountCents:    -entry.AmountCents,
			Status:         enums.LedgerEntryStatusAvailable,
		}
		if err := repo.CreateLedgerEntry(ctx, credit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append reversing credit")
		}
	}
	return nil
}
