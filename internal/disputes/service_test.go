package disputes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/internal/balance"
	"github.com/sellspay/settlements-backend/internal/events"
	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupDisputesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:disputes_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	revenueEvents := `
CREATE TABLE IF NOT EXISTS revenue_events (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  source_type TEXT NOT NULL,
  provider_tx_id TEXT NOT NULL UNIQUE,
  gross_amount_cents INTEGER NOT NULL,
  platform_fee_cents INTEGER NOT NULL,
  seller_share_cents INTEGER NOT NULL,
  settled INTEGER NOT NULL DEFAULT 0,
  settlement_reference TEXT,
  dispute_status TEXT NOT NULL DEFAULT 'none',
  created_at DATETIME,
  updated_at DATETIME
);`
	ledgerEntries := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  order_reference TEXT,
  entry_type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(revenueEvents).Error)
	require.NoError(t, conn.Exec(ledgerEntries).Error)
	return conn
}

func newDisputesService(t *testing.T, conn *gorm.DB) (Service, events.Repository) {
	t.Helper()
	repo := events.NewRepository(conn)
	svc, err := NewService(repo, &testTxRunner{db: conn})
	require.NoError(t, err)
	return svc, repo
}

func seedSettledEvent(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, txID string, shareCents int64) *models.RevenueEvent {
	t.Helper()
	event := &models.RevenueEvent{
		ID:               uuid.New(),
		SellerID:         sellerID,
		SourceType:       enums.RevenueSourceSale,
		ProviderTxID:     txID,
		GrossAmountCents: shareCents,
		SellerShareCents: shareCents,
		Settled:          true,
		DisputeStatus:    enums.DisputeStatusNone,
	}
	require.NoError(t, conn.Create(event).Error)
	return event
}

func availableCents(t *testing.T, conn *gorm.DB, sellerID uuid.UUID) int64 {
	t.Helper()
	svc, err := balance.NewService(balance.NewRepository(conn))
	require.NoError(t, err)
	breakdown, err := svc.AvailableBalance(context.Background(), sellerID)
	require.NoError(t, err)
	return breakdown.AvailableCents
}

func TestOpenDisputeOnSettledOrderLocksFunds(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, repo := newDisputesService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	event := seedSettledEvent(t, conn, sellerID, "order_cb_1", 4000)

	require.NoError(t, svc.Open(ctx, nil, OpenDisputeInput{
		SellerID:       sellerID,
		OrderReference: "order_cb_1",
		AmountCents:    4000,
	}))

	reloaded, err := repo.FindRevenueEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DisputeStatusDisputed, reloaded.DisputeStatus)

	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, "order_cb_1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, enums.LedgerEntryTypeChargebackDebit, entries[0].EntryType)
	require.Equal(t, int64(-4000), entries[0].AmountCents)
	require.Equal(t, enums.LedgerEntryStatusLocked, entries[0].Status)

	require.Equal(t, int64(-4000), availableCents(t, conn, sellerID))
}

func TestOpenDisputeOnUnsettledOrderOnlyFlags(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, repo := newDisputesService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	event := &models.RevenueEvent{
		ID:               uuid.New(),
		SellerID:         sellerID,
		SourceType:       enums.RevenueSourceSale,
		ProviderTxID:     "order_cb_2",
		GrossAmountCents: 3000,
		SellerShareCents: 3000,
		DisputeStatus:    enums.DisputeStatusNone,
	}
	require.NoError(t, conn.Create(event).Error)
	require.Equal(t, int64(3000), availableCents(t, conn, sellerID))

	require.NoError(t, svc.Open(ctx, nil, OpenDisputeInput{
		SellerID:       sellerID,
		OrderReference: "order_cb_2",
		AmountCents:    3000,
	}))

	// The dispute flag alone removes the unsettled event; a debit on top
	// would deduct the same funds twice.
	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, "order_cb_2")
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Zero(t, availableCents(t, conn, sellerID))
}

func TestOpenDisputeIsIdempotent(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, repo := newDisputesService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	seedSettledEvent(t, conn, sellerID, "order_cb_3", 2000)

	input := OpenDisputeInput{SellerID: sellerID, OrderReference: "order_cb_3", AmountCents: 2000}
	require.NoError(t, svc.Open(ctx, nil, input))
	require.NoError(t, svc.Open(ctx, nil, input))

	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, "order_cb_3")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestResolveWonRestoresBalanceExactly(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, repo := newDisputesService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	seedSettledEvent(t, conn, sellerID, "order_cb_4", 6000)
	before := availableCents(t, conn, sellerID)

	require.NoError(t, svc.Open(ctx, nil, OpenDisputeInput{
		SellerID:       sellerID,
		OrderReference: "order_cb_4",
		AmountCents:    6000,
	}))
	require.Equal(t, before-6000, availableCents(t, conn, sellerID))

	require.NoError(t, svc.Resolve(ctx, nil, ResolveDisputeInput{
		OrderReference: "order_cb_4",
		Outcome:        enums.DisputeStatusWon,
	}))

	require.Equal(t, before, availableCents(t, conn, sellerID))

	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, "order_cb_4")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		switch entry.EntryType {
		case enums.LedgerEntryTypeChargebackDebit:
			require.Equal(t, enums.LedgerEntryStatusSettled, entry.Status)
			require.Equal(t, int64(-6000), entry.AmountCents)
		case enums.LedgerEntryTypeCredit:
			require.Equal(t, enums.LedgerEntryStatusAvailable, entry.Status)
			require.Equal(t, int64(6000), entry.AmountCents)
		default:
			t.Fatalf("unexpected entry type %s", entry.EntryType)
		}
	}
}

func TestResolveLostKeepsDeduction(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, repo := newDisputesService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	event := seedSettledEvent(t, conn, sellerID, "order_cb_5", 3500)

	require.NoError(t, svc.Open(ctx, nil, OpenDisputeInput{
		SellerID:       sellerID,
		OrderReference: "order_cb_5",
		AmountCents:    3500,
	}))
	require.NoError(t, svc.Resolve(ctx, nil, ResolveDisputeInput{
		OrderReference: "order_cb_5",
		Outcome:        enums.DisputeStatusLost,
	}))

	reloaded, err := repo.FindRevenueEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, enums.DisputeStatusLost, reloaded.DisputeStatus)

	entries, err := repo.FindLedgerEntriesByOrderReference(ctx, "order_cb_5")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, enums.LedgerEntryStatusSettled, entries[0].Status)

	// The deduction stands permanently.
	require.Equal(t, int64(-3500), availableCents(t, conn, sellerID))
}

func TestResolveRejectsNonTerminalOutcome(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, _ := newDisputesService(t, conn)

	err := svc.Resolve(context.Background(), nil, ResolveDisputeInput{
		OrderReference: "order_cb_6",
		Outcome:        enums.DisputeStatusDisputed,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenDisputeValidation(t *testing.T) {
	conn := setupDisputesTestDB(t)
	svc, _ := newDisputesService(t, conn)
	ctx := context.Background()

	tests := []struct {
		name  string
		input OpenDisputeInput
	}{
		{name: "missing seller", input: OpenDisputeInput{OrderReference: "o", AmountCents: 100}},
		{name: "missing order", input: OpenDisputeInput{SellerID: uuid.New(), AmountCents: 100}},
		{name: "non-positive amount", input: OpenDisputeInput{SellerID: uuid.New(), OrderReference: "o", AmountCents: 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Open(ctx, nil, tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
