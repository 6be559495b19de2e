package balance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
)

// Repository exposes the aggregation reads the balance computation needs.
// All sums are taken live from the ledger and revenue tables; no balance is
// ever stored.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LedgerAvailableCents(ctx context.Context, sellerID uuid.UUID) (int64, error)
	ChargebackDebitCents(ctx context.Context, sellerID uuid.UUID) (int64, error)
	LockedChargebackCents(ctx context.Context, sellerID uuid.UUID) (int64, error)
	EligibleUnsettledEvents(ctx context.Context, sellerID uuid.UUID) ([]models.RevenueEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a balance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LedgerAvailableCents(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("seller_id = ? AND status = ?", sellerID, enums.LedgerEntryStatusAvailable).
		Scan(&total).Error
	return total, err
}

// ChargebackDebitCents sums every chargeback debit for the seller, locked or
// settled. Debits are stored negative, so the sum is the standing deduction.
func (r *repository) ChargebackDebitCents(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("seller_id = ? AND entry_type = ?", sellerID, enums.LedgerEntryTypeChargebackDebit).
		Scan(&total).Error
	return total, err
}

func (r *repository) LockedChargebackCents(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("seller_id = ? AND entry_type = ? AND status = ?",
			sellerID, enums.LedgerEntryTypeChargebackDebit, enums.LedgerEntryStatusLocked).
		Scan(&total).Error
	return total, err
}

// EligibleUnsettledEvents lists the legacy revenue rows that still count
// toward the balance: unsettled, and either undisputed or won back.
func (r *repository) EligibleUnsettledEvents(ctx context.Context, sellerID uuid.UUID) ([]models.RevenueEvent, error) {
	var events []models.RevenueEvent
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND settled = ? AND dispute_status IN ?",
			sellerID, false, []enums.DisputeStatus{enums.DisputeStatusNone, enums.DisputeStatusWon}).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
