package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

type fakeRepository struct {
	createRevenueEventFn func(ctx context.Context, event *models.RevenueEvent) (bool, error)
	findByTxIDFn         func(ctx context.Context, providerTxID string) (*models.RevenueEvent, error)
	markSettledFn        func(ctx context.Context, eventIDs []uuid.UUID, reference string) (int64, error)
	createLedgerEntryFn  func(ctx context.Context, entry *models.LedgerEntry) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateRevenueEvent(ctx context.Context, event *models.RevenueEvent) (bool, error) {
	if f.createRevenueEventFn != nil {
		return f.createRevenueEventFn(ctx, event)
	}
	return true, nil
}

func (f *fakeRepository) FindRevenueEventByProviderTxID(ctx context.Context, providerTxID string) (*models.RevenueEvent, error) {
	if f.findByTxIDFn != nil {
		return f.findByTxIDFn(ctx, providerTxID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindRevenueEventByID(ctx context.Context, id uuid.UUID) (*models.RevenueEvent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListUnsettledBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.RevenueEvent, error) {
	return nil, nil
}

func (f *fakeRepository) MarkSettled(ctx context.Context, eventIDs []uuid.UUID, reference string) (int64, error) {
	if f.markSettledFn != nil {
		return f.markSettledFn(ctx, eventIDs, reference)
	}
	return int64(len(eventIDs)), nil
}

func (f *fakeRepository) UpdateDisputeStatus(ctx context.Context, eventID uuid.UUID, status enums.DisputeStatus) error {
	return nil
}

func (f *fakeRepository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createLedgerEntryFn != nil {
		return f.createLedgerEntryFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) FindLedgerEntriesByOrderReference(ctx context.Context, orderReference string) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateLedgerEntryStatus(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus) error {
	return nil
}

func TestService_RecordRevenueEvent(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.RevenueEvent
	repo.createRevenueEventFn = func(ctx context.Context, event *models.RevenueEvent) (bool, error) {
		created = event
		return true, nil
	}

	input := RecordRevenueEventInput{
		SellerID:         uuid.New(),
		SourceType:       enums.RevenueSourceSale,
		ProviderTxID:     "tx_123",
		GrossAmountCents: 10000,
		PlatformFeeCents: 2000,
		SellerShareCents: 8000,
	}
	got, duplicate, err := svc.RecordRevenueEvent(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("RecordRevenueEvent error: %v", err)
	}
	if duplicate {
		t.Fatal("fresh transaction id should not be a duplicate")
	}
	if created == nil {
		t.Fatal("expected revenue event to be created")
	}
	if created.SellerID != input.SellerID || created.ProviderTxID != input.ProviderTxID || created.SellerShareCents != input.SellerShareCents {
		t.Fatalf("unexpected revenue event data: %+v", created)
	}
	if created.DisputeStatus != enums.DisputeStatusNone {
		t.Fatalf("new events must start undisputed, got %s", created.DisputeStatus)
	}
	if got != created {
		t.Fatal("service should return the created event")
	}
}

func TestService_RecordRevenueEventDuplicate(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	existing := &models.RevenueEvent{
		ID:           uuid.New(),
		SellerID:     uuid.New(),
		ProviderTxID: "tx_dup",
	}
	repo.createRevenueEventFn = func(ctx context.Context, event *models.RevenueEvent) (bool, error) {
		return false, nil
	}
	repo.findByTxIDFn = func(ctx context.Context, providerTxID string) (*models.RevenueEvent, error) {
		return existing, nil
	}

	got, duplicate, err := svc.RecordRevenueEvent(context.Background(), nil, RecordRevenueEventInput{
		SellerID:         existing.SellerID,
		SourceType:       enums.RevenueSourceSubscription,
		ProviderTxID:     "tx_dup",
		GrossAmountCents: 500,
		SellerShareCents: 400,
	})
	if err != nil {
		t.Fatalf("duplicate delivery should not error: %v", err)
	}
	if !duplicate {
		t.Fatal("expected duplicate flag")
	}
	if got != existing {
		t.Fatal("expected the existing event back")
	}
}

func TestService_RecordRevenueEventCreateError(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	repo.createRevenueEventFn = func(ctx context.Context, event *models.RevenueEvent) (bool, error) {
		return false, errors.New("connection reset")
	}
	_, _, err = svc.RecordRevenueEvent(context.Background(), nil, RecordRevenueEventInput{
		SellerID:         uuid.New(),
		SourceType:       enums.RevenueSourceSale,
		ProviderTxID:     "tx_err",
		GrossAmountCents: 100,
		SellerShareCents: 80,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestService_RecordRevenueEventValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input RecordRevenueEventInput
	}{
		{
			name: "missing seller",
			input: RecordRevenueEventInput{
				SourceType:   enums.RevenueSourceSale,
				ProviderTxID: "tx_1",
			},
		},
		{
			name: "invalid source",
			input: RecordRevenueEventInput{
				SellerID:     uuid.New(),
				SourceType:   enums.RevenueSource("lottery"),
				ProviderTxID: "tx_2",
			},
		},
		{
			name: "missing transaction id",
			input: RecordRevenueEventInput{
				SellerID:   uuid.New(),
				SourceType: enums.RevenueSourceSale,
			},
		},
		{
			name: "negative amount",
			input: RecordRevenueEventInput{
				SellerID:         uuid.New(),
				SourceType:       enums.RevenueSourceSale,
				ProviderTxID:     "tx_3",
				GrossAmountCents: -1,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.RecordRevenueEvent(context.Background(), nil, tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_SettleAllOrNothing(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	repo.markSettledFn = func(ctx context.Context, eventIDs []uuid.UUID, reference string) (int64, error) {
		return int64(len(eventIDs)) - 1, nil
	}

	err = svc.Settle(context.Background(), nil, ids, "po_1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("partial claim must fail the whole batch, got %v", err)
	}
}

func TestService_SettleEmptyBatch(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	called := false
	repo.markSettledFn = func(ctx context.Context, eventIDs []uuid.UUID, reference string) (int64, error) {
		called = true
		return 0, nil
	}
	if err := svc.Settle(context.Background(), nil, nil, "po_2"); err != nil {
		t.Fatalf("empty batch should settle trivially: %v", err)
	}
	if called {
		t.Fatal("empty batch should not touch the repository")
	}
}

func TestService_SettleRequiresReference(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	err = svc.Settle(context.Background(), nil, []uuid.UUID{uuid.New()}, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_AppendLedgerEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.LedgerEntry
	repo.createLedgerEntryFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	got, err := svc.AppendLedgerEntry(context.Background(), nil, AppendLedgerEntryInput{
		SellerID:    uuid.New(),
		EntryType:   enums.LedgerEntryTypeCredit,
		AmountCents: 1500,
	})
	if err != nil {
		t.Fatalf("AppendLedgerEntry error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("expected ledger entry to be created and returned")
	}
	if created.Status != enums.LedgerEntryStatusAvailable {
		t.Fatalf("status should default to available, got %s", created.Status)
	}

	if _, err := svc.AppendLedgerEntry(context.Background(), nil, AppendLedgerEntryInput{
		SellerID:    uuid.New(),
		EntryType:   enums.LedgerEntryType("withdrawal"),
		AmountCents: 100,
	}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for bad entry type, got %v", err)
	}
}
