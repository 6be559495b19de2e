package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
)

// Repository manages persistence for revenue events and ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRevenueEvent(ctx context.Context, event *models.RevenueEvent) (bool, error)
	FindRevenueEventByProviderTxID(ctx context.Context, providerTxID string) (*models.RevenueEvent, error)
	FindRevenueEventByID(ctx context.Context, id uuid.UUID) (*models.RevenueEvent, error)
	ListUnsettledBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.RevenueEvent, error)
	MarkSettled(ctx context.Context, eventIDs []uuid.UUID, settlementReference string) (int64, error)
	UpdateDisputeStatus(ctx context.Context, eventID uuid.UUID, status enums.DisputeStatus) error
	CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	FindLedgerEntriesByOrderReference(ctx context.Context, orderReference string) ([]models.LedgerEntry, error)
	UpdateLedgerEntryStatus(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an event store repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateRevenueEvent inserts the event and reports whether a row was written.
// A provider_tx_id collision is absorbed with ON CONFLICT DO NOTHING rather
// than surfaced as an error: a failed statement would abort the caller's
// Postgres transaction, and the ingestion guard always calls this inside one.
func (r *repository) CreateRevenueEvent(ctx context.Context, event *models.RevenueEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_tx_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindRevenueEventByProviderTxID(ctx context.Context, providerTxID string) (*models.RevenueEvent, error) {
	var event models.RevenueEvent
	err := r.db.WithContext(ctx).
		Where("provider_tx_id = ?", providerTxID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindRevenueEventByID(ctx context.Context, id uuid.UUID) (*models.RevenueEvent, error) {
	var event models.RevenueEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListUnsettledBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.RevenueEvent, error) {
	var events []models.RevenueEvent
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND settled = ?", sellerID, false).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) MarkSettled(ctx context.Context, eventIDs []uuid.UUID, settlementReference string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.RevenueEvent{}).
		Where("id IN ? AND settled = ?", eventIDs, false).
		Updates(map[string]any{
			"settled":              true,
			"settlement_reference": settlementReference,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) UpdateDisputeStatus(ctx context.Context, eventID uuid.UUID, status enums.DisputeStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.RevenueEvent{}).
		Where("id = ?", eventID).
		Update("dispute_status", status).Error
}

func (r *repository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindLedgerEntriesByOrderReference(ctx context.Context, orderReference string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_reference = ?", orderReference).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) UpdateLedgerEntryStatus(ctx context.Context, entryID uuid.UUID, status enums.LedgerEntryStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id = ?", entryID).
		Update("status", status).Error
}
