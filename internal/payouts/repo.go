package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

// Repository manages persistence for payouts and seller payout configuration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	FindPendingBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Payout, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Transition(ctx context.Context, id uuid.UUID, from enums.PayoutStatus, updates map[string]any) (bool, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PayoutList, error)
	List(ctx context.Context, params pagination.Params, status *enums.PayoutStatus) (*PayoutList, error)
	FindConfig(ctx context.Context, sellerID uuid.UUID) (*models.SellerPayoutConfig, error)
}

// PayoutList is one cursor page of payouts.
type PayoutList struct {
	Payouts    []models.Payout
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindPendingBySeller(ctx context.Context, sellerID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status IN ?", sellerID, enums.PendingPayoutStatuses).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Transition applies updates only while the payout is still in the expected
// state, reporting whether the guarded update won.
func (r *repository) Transition(ctx context.Context, id uuid.UUID, from enums.PayoutStatus, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected == 1, result.Error
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PayoutList, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	return r.page(query, params)
}

func (r *repository) List(ctx context.Context, params pagination.Params, status *enums.PayoutStatus) (*PayoutList, error) {
	query := r.db.WithContext(ctx)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) (*PayoutList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var payouts []models.Payout
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}

	list := &PayoutList{Payouts: payouts}
	if len(payouts) > limit {
		list.Payouts = payouts[:limit]
		last := list.Payouts[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) FindConfig(ctx context.Context, sellerID uuid.UUID) (*models.SellerPayoutConfig, error) {
	var config models.SellerPayoutConfig
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&config).Error; err != nil {
		return nil, err
	}
	return &config, nil
}
