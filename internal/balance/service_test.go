package balance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
)

func setupBalanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:balance_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func seedRevenueEvent(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, txID string, shareCents int64, settled bool, dispute enums.DisputeStatus) *models.RevenueEvent {
	t.Helper()

	event := &models.RevenueEvent{
		ID:               uuid.New(),
		SellerID:         sellerID,
		SourceType:       enums.RevenueSourceSale,
		ProviderTxID:     txID,
		GrossAmountCents: shareCents,
		SellerShareCents: shareCents,
		Settled:          settled,
		DisputeStatus:    dispute,
	}
	require.NoError(t, conn.Create(event).Error)
	return event
}

func seedLedgerEntry(t *testing.T, conn *gorm.DB, sellerID uuid.UUID, entryType enums.LedgerEntryType, amountCents int64, status enums.LedgerEntryStatus) *models.LedgerEntry {
	t.Helper()

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		SellerID:    sellerID,
		EntryType:   entryType,
		AmountCents: amountCents,
		Status:      status,
	}
	require.NoError(t, conn.Create(entry).Error)
	return entry
}

func newBalanceService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestAvailableBalanceCombinesBothSources(t *testing.T) {
	conn := setupBalanceTestDB(t)
	svc := newBalanceService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	legacy := seedRevenueEvent(t, conn, sellerID, "tx_bal_a", 5000, false, enums.DisputeStatusNone)
	seedRevenueEvent(t, conn, sellerID, "tx_bal_b", 7000, true, enums.DisputeStatusNone)
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeCredit, 3000, enums.LedgerEntryStatusAvailable)

	breakdown, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, int64(8000), breakdown.AvailableCents)
	require.Equal(t, int64(3000), breakdown.LedgerAvailableCents)
	require.Equal(t, int64(5000), breakdown.LegacyUnsettledCents)
	require.Equal(t, []uuid.UUID{legacy.ID}, breakdown.ContributingEventIDs)
}

func TestAvailableBalanceExcludesDisputedLegacy(t *testing.T) {
	conn := setupBalanceTestDB(t)
	svc := newBalanceService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	seedRevenueEvent(t, conn, sellerID, "tx_disp_a", 4000, false, enums.DisputeStatusDisputed)
	seedRevenueEvent(t, conn, sellerID, "tx_disp_b", 2500, false, enums.DisputeStatusLost)
	won := seedRevenueEvent(t, conn, sellerID, "tx_disp_c", 1500, false, enums.DisputeStatusWon)

	breakdown, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, int64(1500), breakdown.AvailableCents)
	require.Equal(t, []uuid.UUID{won.ID}, breakdown.ContributingEventIDs)
}

func TestAvailableBalanceDeductsChargebacks(t *testing.T) {
	conn := setupBalanceTestDB(t)
	svc := newBalanceService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeCredit, 10000, enums.LedgerEntryStatusAvailable)
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeChargebackDebit, -3000, enums.LedgerEntryStatusLocked)
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeChargebackDebit, -1000, enums.LedgerEntryStatusSettled)

	breakdown, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, int64(6000), breakdown.AvailableCents)
	require.Equal(t, int64(-4000), breakdown.ChargebackCents)
	require.Equal(t, int64(3000), breakdown.LockedCents)
}

// A won chargeback must restore the balance to exactly the pre-dispute value:
// the debit keeps counting after it settles, and the reversing credit cancels
// it to the cent.
func TestAvailableBalanceWonChargebackRestoresExactly(t *testing.T) {
	conn := setupBalanceTestDB(t)
	svc := newBalanceService(t, conn)
	ctx := context.Background()

	sellerID := uuid.New()
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeCredit, 9000, enums.LedgerEntryStatusAvailable)

	before, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)

	debit := seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeChargebackDebit, -2700, enums.LedgerEntryStatusLocked)

	during, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, before.AvailableCents-2700, during.AvailableCents)

	require.NoError(t, conn.Model(debit).Update("status", enums.LedgerEntryStatusSettled).Error)
	seedLedgerEntry(t, conn, sellerID, enums.LedgerEntryTypeCredit, 2700, enums.LedgerEntryStatusAvailable)

	after, err := svc.AvailableBalance(ctx, sellerID)
	require.NoError(t, err)
	require.Equal(t, before.AvailableCents, after.AvailableCents)
	require.Zero(t, after.LockedCents)
}

func TestAvailableBalanceRequiresSeller(t *testing.T) {
	conn := setupBalanceTestDB(t)
	svc := newBalanceService(t, conn)

	if _, err := svc.AvailableBalance(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected validation error for missing seller id")
	}
}
