package gateway

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
)

// Repository manages the ingestion guard's own tables: event claims,
// subscription periods, and the onboarding flag flipped by account
// verification.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Claim(ctx context.Context, record *models.InboundEventRecord) (bool, error)
	UpsertSubscriptionPeriod(ctx context.Context, period *models.SubscriptionPeriod) error
	MarkAccountVerified(ctx context.Context, sellerID uuid.UUID, stripeAccountID *string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gateway repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Claim inserts the event record and reports whether this delivery won the
// claim. A duplicate event id is absorbed with ON CONFLICT DO NOTHING so the
// surrounding transaction stays usable on Postgres.
func (r *repository) Claim(ctx context.Context, record *models.InboundEventRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway_event_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpsertSubscriptionPeriod converges concurrent and out-of-order deliveries:
// the row is keyed by the gateway's subscription id and only advances when
// the incoming period end is not older than the stored one.
func (r *repository) UpsertSubscriptionPeriod(ctx context.Context, period *models.SubscriptionPeriod) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_subscription_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"seller_id":          period.SellerID,
				"status":             period.Status,
				"current_period_end": period.CurrentPeriodEnd,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr("subscription_periods.current_period_end <= excluded.current_period_end"),
			}},
		}).
		Create(period).Error
}

// MarkAccountVerified flips the onboarding flag, creating a direct-connect
// config for first-seen sellers. The upsert lets concurrent deliveries
// converge on one row; an existing config keeps its mode.
func (r *repository) MarkAccountVerified(ctx context.Context, sellerID uuid.UUID, stripeAccountID *string) error {
	assignments := map[string]any{"onboarding_complete": true}
	if stripeAccountID != nil && *stripeAccountID != "" {
		assignments["stripe_account_id"] = *stripeAccountID
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seller_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&models.SellerPayoutConfig{
			SellerID:           sellerID,
			Mode:               enums.PayoutModeDirectConnect,
			StripeAccountID:    stripeAccountID,
			OnboardingComplete: true,
		}).Error
}
