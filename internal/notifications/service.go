package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

// Service queues and serves the operator attention items the payout
// lifecycle emits: manual requests awaiting approval, terminal failures, and
// payouts stuck in processing after an unknown provider outcome.
type Service interface {
	PayoutRequested(ctx context.Context, tx *gorm.DB, payout *models.Payout) error
	PayoutFailed(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error
	PayoutStuck(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error
	List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires a notifications service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) PayoutRequested(ctx context.Context, tx *gorm.DB, payout *models.Payout) error {
	message := fmt.Sprintf("payout of %d cents requested via %s, awaiting approval", payout.AmountCents, payout.Provider)
	return s.create(ctx, tx, enums.NotificationKindPayoutRequested, payout, message)
}

func (s *service) PayoutFailed(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error {
	message := fmt.Sprintf("payout via %s failed: %s", payout.Provider, reason)
	return s.create(ctx, tx, enums.NotificationKindPayoutFailed, payout, message)
}

func (s *service) PayoutStuck(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error {
	message := fmt.Sprintf("payout via %s needs reconciliation: %s", payout.Provider, reason)
	return s.create(ctx, tx, enums.NotificationKindPayoutStuck, payout, message)
}

func (s *service) create(ctx context.Context, tx *gorm.DB, kind enums.NotificationKind, payout *models.Payout, message string) error {
	if payout == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payout is required")
	}
	payoutID := payout.ID
	notification := &models.AdminNotification{
		Kind:     kind,
		SellerID: payout.SellerID,
		PayoutID: &payoutID,
		Message:  message,
	}
	if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin notification")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error) {
	list, err := s.repo.List(ctx, params, unreadOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list admin notifications")
	}
	return list, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}
	marked, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if !marked {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}
