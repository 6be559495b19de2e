package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

// Service defines the durable event store operations. Revenue events and
// ledger entries are append-only; the only mutation exposed here is the
// settlement flip, which is reserved for the payout lifecycle.
// Callers that already hold a transaction pass it; a nil tx runs against the
// base connection.
type Service interface {
	RecordRevenueEvent(ctx context.Context, tx *gorm.DB, input RecordRevenueEventInput) (*models.RevenueEvent, bool, error)
	AppendLedgerEntry(ctx context.Context, tx *gorm.DB, input AppendLedgerEntryInput) (*models.LedgerEntry, error)
	Settle(ctx context.Context, tx *gorm.DB, eventIDs []uuid.UUID, settlementReference string) error
}

// RecordRevenueEventInput captures the immutable data a revenue event requires.
type RecordRevenueEventInput struct {
	SellerID         uuid.UUID           `json:"seller_id"`
	SourceType       enums.RevenueSource `json:"source_type"`
	ProviderTxID     string              `json:"provider_tx_id"`
	GrossAmountCents int64               `json:"gross_amount_cents"`
	PlatformFeeCents int64               `json:"platform_fee_cents"`
	SellerShareCents int64               `json:"seller_share_cents"`
}

// AppendLedgerEntryInput captures a single append-only wallet movement.
type AppendLedgerEntryInput struct {
	SellerID       uuid.UUID               `json:"seller_id"`
	OrderReference *string                 `json:"order_reference"`
	EntryType      enums.LedgerEntryType   `json:"entry_type"`
	AmountCents    int64                   `json:"amount_cents"`
	Status         enums.LedgerEntryStatus `json:"status"`
}

type service struct {
	repo Repository
}

// NewService wires an event store service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	return &service{repo: repo}, nil
}

// RecordRevenueEvent inserts a revenue event keyed by the provider's
// transaction id. Redelivery of an already-recorded transaction returns the
// existing row with a true duplicate flag instead of an error.
func (s *service) RecordRevenueEvent(ctx context.Context, tx *gorm.DB, input RecordRevenueEventInput) (*models.RevenueEvent, bool, error) {
	if input.SellerID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if !input.SourceType.IsValid() {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid revenue source %q", input.SourceType))
	}
	if input.ProviderTxID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "provider transaction id is required")
	}
	if input.GrossAmountCents < 0 || input.SellerShareCents < 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	repo := s.repo.WithTx(tx)
	event := &models.RevenueEvent{
		SellerID:         input.SellerID,
		SourceType:       input.SourceType,
		ProviderTxID:     input.ProviderTxID,
		GrossAmountCents: input.GrossAmountCents,
		PlatformFeeCents: input.PlatformFeeCents,
		SellerShareCents: input.SellerShareCents,
		DisputeStatus:    enums.DisputeStatusNone,
	}
	inserted, err := repo.CreateRevenueEvent(ctx, event)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create revenue event")
	}
	if !inserted {
		existing, findErr := repo.FindRevenueEventByProviderTxID(ctx, input.ProviderTxID)
		if findErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "load existing revenue event")
		}
		return existing, true, nil
	}
	return event, false, nil
}

func (s *service) AppendLedgerEntry(ctx context.Context, tx *gorm.DB, input AppendLedgerEntryInput) (*models.LedgerEntry, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if !input.EntryType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.EntryType))
	}
	status := input.Status
	if status == "" {
		status = enums.LedgerEntryStatusAvailable
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry status %q", status))
	}

	entry := &models.LedgerEntry{
		SellerID:       input.SellerID,
		OrderReference: input.OrderReference,
		EntryType:      input.EntryType,
		AmountCents:    input.AmountCents,
		Status:         status,
	}
	if err := s.repo.WithTx(tx).CreateLedgerEntry(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create ledger entry")
	}
	return entry, nil
}

// Settle marks every listed event settled with the given reference. The
// update is all-or-nothing: if any event is missing or already settled the
// whole batch is rejected so a payout can never claim a partial set. Callers
// pass the transaction that owns the payout lock.
func (s *service) Settle(ctx context.Context, tx *gorm.DB, eventIDs []uuid.UUID, settlementReference string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	if settlementReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "settlement reference is required")
	}

	repo := s.repo.WithTx(tx)
	affected, err := repo.MarkSettled(ctx, eventIDs, settlementReference)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark revenue events settled")
	}
	if affected != int64(len(eventIDs)) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("settlement claimed %d of %d events", affected, len(eventIDs)))
	}
	return nil
}
