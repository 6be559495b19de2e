package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/internal/events"
	"github.com/sellspay/settlements-backend/pkg/config"
	"github.com/sellspay/settlements-backend/pkg/db"
	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/metrics"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

// Service owns the payout lifecycle: requested -> approved -> processing ->
// sent|failed. Direct-connect sellers collapse the first three states inside
// one request; merchant-of-record sellers park in requested until an admin
// processes the payout. Failed payouts are terminal; retry means a new request.
type Service interface {
	Request(ctx context.Context, input RequestPayoutInput) (*models.Payout, error)
	Process(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PayoutList, error)
	ListAll(ctx context.Context, params pagination.Params, status *enums.PayoutStatus) (*PayoutList, error)
}

// RequestPayoutInput is a seller-initiated withdrawal of the full available
// balance via an optionally overridden provider.
type RequestPayoutInput struct {
	SellerID  uuid.UUID             `json:"seller_id"`
	Provider  *enums.PayoutProvider `json:"provider"`
	Expedited bool                  `json:"expedited"`
}

// ServiceParams carry the payout service dependencies.
type ServiceParams struct {
	Repo     Repository
	Balance  balanceReader
	Events   eventsAccess
	Notifier adminNotifier
	DB       txRunner
	Stripe   instantGateway
	PayPal   emailPayer
	Payoneer payeePayer
	Metrics  *metrics.SettlementMetrics
	Policy   config.PayoutConfig
}

type eventsAccess interface {
	Settle(ctx context.Context, tx *gorm.DB, eventIDs []uuid.UUID, settlementReference string) error
	AppendLedgerEntry(ctx context.Context, tx *gorm.DB, input events.AppendLedgerEntryInput) (*models.LedgerEntry, error)
}

type service struct {
	repo     Repository
	balance  balanceReader
	events   eventsAccess
	notifier adminNotifier
	tx       txRunner
	stripe   instantGateway
	paypal   emailPayer
	payoneer payeePayer
	metrics  *metrics.SettlementMetrics
	router   Router
	policy   config.PayoutConfig
}

// settlementPlan is the snapshot a disbursement settles against: the legacy
// rows it claims and the ledger amount it consumes, read under the payout lock.
type settlementPlan struct {
	EventIDs       []uuid.UUID
	LegacyCents    int64
	LedgerNetCents int64
}

// NewService builds a payout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Balance == nil {
		return nil, fmt.Errorf("balance reader required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event store required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("admin notifier required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		balance:  params.Balance,
		events:   params.Events,
		notifier: params.Notifier,
		tx:       params.DB,
		stripe:   params.Stripe,
		paypal:   params.PayPal,
		payoneer: params.Payoneer,
		metrics:  params.Metrics,
		router:   NewRouter(params.Policy.MinimumPayoutCents),
		policy:   params.Policy,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestPayoutInput) (*models.Payout, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if input.Provider != nil && !input.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout provider %q", *input.Provider))
	}

	var (
		payout   *models.Payout
		cfg      *models.SellerPayoutConfig
		decision ProviderDecision
		plan     settlementPlan
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := db.AdvisoryLock(ctx, tx, payoutLockKey(input.SellerID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire payout lock")
		}
		repo := s.repo.WithTx(tx)

		pending, err := repo.FindPendingBySeller(ctx, input.SellerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending payouts")
		}
		breakdown, err := s.balance.AvailableBalanceTx(ctx, tx, input.SellerID)
		if err != nil {
			return err
		}
		cfg, err = repo.FindConfig(ctx, input.SellerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payout configuration")
		}

		decision, err = s.router.Choose(RouteInput{
			AvailableCents:    breakdown.AvailableCents,
			HasPendingPayout:  pending != nil,
			Config:            cfg,
			RequestedProvider: input.Provider,
		})
		if err != nil {
			return err
		}
		if input.Expedited && !decision.Instant {
			return pkgerrors.New(pkgerrors.CodeValidation, "expedited delivery is only available on the instant payout path")
		}

		var feeCents int64
		if input.Expedited {
			feeCents = expediteFeeCents(breakdown.AvailableCents, s.policy.ExpediteFeeBps)
		}
		payout = &models.Payout{
			SellerID:    input.SellerID,
			AmountCents: breakdown.AvailableCents,
			FeeCents:    feeCents,
			Expedited:   input.Expedited,
			Provider:    decision.Provider,
			Status:      enums.PayoutStatusRequested,
		}
		if err := repo.Create(ctx, payout); err != nil {
			if db.IsUniqueViolation(err, "payouts_one_pending_per_seller") {
				return pkgerrors.New(pkgerrors.CodeConflict, "a payout is already pending for this seller")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payout")
		}

		if !decision.Instant {
			return s.notifier.PayoutRequested(ctx, tx, payout)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":      enums.PayoutStatusProcessing,
			"approved_at": now,
		}
		if err := repo.Update(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance payout to processing")
		}
		payout.Status = enums.PayoutStatusProcessing
		payout.ApprovedAt = &now
		plan = settlementPlan{
			EventIDs:       breakdown.ContributingEventIDs,
			LegacyCents:    breakdown.LegacyUnsettledCents,
			LedgerNetCents: breakdown.LedgerAvailableCents + breakdown.ChargebackCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !decision.Instant {
		return payout, nil
	}
	return s.disburse(ctx, payout, cfg, plan)
}

// Process executes an admin-approved manual payout. The amount is refreshed
// to the seller's current available balance so settlement zeroes out exactly
// the funds being disbursed.
func (s *service) Process(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id is required")
	}

	var (
		payout  *models.Payout
		cfg     *models.SellerPayoutConfig
		plan    settlementPlan
		failErr error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payout")
		}
		if found.Status != enums.PayoutStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payout is %s; only requested payouts can be processed", found.Status))
		}

		if err := db.AdvisoryLock(ctx, tx, payoutLockKey(found.SellerID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "acquire payout lock")
		}

		breakdown, err := s.balance.AvailableBalanceTx(ctx, tx, found.SellerID)
		if err != nil {
			return err
		}
		if breakdown.AvailableCents < s.policy.MinimumPayoutCents {
			reason := fmt.Sprintf("available balance fell to %s, below the %s minimum",
				formatCents(breakdown.AvailableCents), formatCents(s.policy.MinimumPayoutCents))
			failErr = pkgerrors.New(pkgerrors.CodeStateConflict, reason)
			return s.failInTx(ctx, tx, found, reason)
		}

		cfg, err = repo.FindConfig(ctx, found.SellerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payout configuration")
		}
		if cfg == nil || !cfg.ProviderConfigured(found.Provider) {
			reason := fmt.Sprintf("provider %s is no longer configured for this seller", found.Provider)
			failErr = pkgerrors.New(pkgerrors.CodeStateConflict, reason)
			return s.failInTx(ctx, tx, found, reason)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":       enums.PayoutStatusProcessing,
			"approved_at":  now,
			"amount_cents": breakdown.AvailableCents,
		}
		moved, err := repo.Transition(ctx, found.ID, enums.PayoutStatusRequested, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance payout to processing")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "payout was already picked up")
		}
		found.Status = enums.PayoutStatusProcessing
		found.ApprovedAt = &now
		found.AmountCents = breakdown.AvailableCents
		payout = found
		plan = settlementPlan{
			EventIDs:       breakdown.ContributingEventIDs,
			LegacyCents:    breakdown.LegacyUnsettledCents,
			LedgerNetCents: breakdown.LedgerAvailableCents + breakdown.ChargebackCents,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	return s.disburse(ctx, payout, cfg, plan)
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PayoutList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	list, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller payouts")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, status *enums.PayoutStatus) (*PayoutList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", *status))
	}
	list, err := s.repo.List(ctx, params, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payouts")
	}
	return list, nil
}

// disburse runs the external provider call and finalizes the payout. The
// provider call happens outside any database transaction; the one-pending
// invariant keeps the claimed funds reserved in the meantime.
func (s *service) disburse(ctx context.Context, payout *models.Payout, cfg *models.SellerPayoutConfig, plan settlementPlan) (*models.Payout, error) {
	callCtx := ctx
	if s.policy.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.policy.ProviderTimeout)
		defer cancel()
	}

	start := time.Now()
	reference, err := s.callProvider(callCtx, payout, cfg, plan)
	s.metrics.ObserveProviderCall(string(payout.Provider), time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Outcome unknown: a blind retry could pay twice, so the payout
			// stays in processing for manual reconciliation.
			reason := "provider call timed out; outcome unknown"
			if stuckErr := s.markStuck(ctx, payout, reason); stuckErr != nil {
				return nil, stuckErr
			}
			s.metrics.ObservePayoutOutcome(string(payout.Provider), "stuck")
			return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, reason)
		}
		if failErr := s.markFailed(ctx, payout, err.Error()); failErr != nil {
			return nil, failErr
		}
		s.metrics.ObservePayoutOutcome(string(payout.Provider), "failed")
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "provider rejected the payout")
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.events.Settle(ctx, tx, plan.EventIDs, reference); err != nil {
			return err
		}
		if plan.LedgerNetCents != 0 {
			ref := reference
			_, err := s.events.AppendLedgerEntry(ctx, tx, events.AppendLedgerEntryInput{
				SellerID:       payout.SellerID,
				OrderReference: &ref,
				EntryType:      enums.LedgerEntryTypePayoutDebit,
				AmountCents:    -plan.LedgerNetCents,
				Status:         enums.LedgerEntryStatusAvailable,
			})
			if err != nil {
				return err
			}
		}
		return s.repo.WithTx(tx).Update(ctx, payout.ID, map[string]any{
			"status":             enums.PayoutStatusSent,
			"sent_at":            now,
			"external_reference": reference,
		})
	})
	if err != nil {
		// Funds left the platform but settlement did not commit. Keep the
		// payout in processing and flag it instead of faking a failure.
		reason := "disbursed but settlement did not commit: " + err.Error()
		if stuckErr := s.markStuck(ctx, payout, reason); stuckErr != nil {
			return nil, stuckErr
		}
		s.metrics.ObservePayoutOutcome(string(payout.Provider), "stuck")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize payout")
	}

	payout.Status = enums.PayoutStatusSent
	payout.SentAt = &now
	payout.ExternalReference = &reference
	s.metrics.ObservePayoutOutcome(string(payout.Provider), "sent")
	return payout, nil
}

func (s *service) callProvider(ctx context.Context, payout *models.Payout, cfg *models.SellerPayoutConfig, plan settlementPlan) (string, error) {
	note := "SellsPay payout " + payout.ID.String()
	switch payout.Provider {
	case enums.PayoutProviderStripeConnect:
		if s.stripe == nil {
			return "", pkgerrors.New(pkgerrors.CodeDependency, "stripe gateway is not configured")
		}
		accountID := *cfg.StripeAccountID
		if plan.LegacyCents > 0 {
			if _, err := s.stripe.Transfer(ctx, accountID, plan.LegacyCents); err != nil {
				return "", err
			}
		}
		return s.stripe.Payout(ctx, accountID, payout.DisbursedCents(), payout.Expedited)
	case enums.PayoutProviderPayPal:
		if s.paypal == nil {
			return "", pkgerrors.New(pkgerrors.CodeDependency, "paypal gateway is not configured")
		}
		return s.paypal.SendPayout(ctx, *cfg.PayPalEmail, payout.DisbursedCents(), note)
	case enums.PayoutProviderPayoneer:
		if s.payoneer == nil {
			return "", pkgerrors.New(pkgerrors.CodeDependency, "payoneer gateway is not configured")
		}
		return s.payoneer.SendPayout(ctx, *cfg.PayoneerPayeeID, payout.DisbursedCents(), note)
	default:
		return "", pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unroutable payout provider %q", payout.Provider))
	}
}

func (s *service) markFailed(ctx context.Context, payout *models.Payout, reason string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.failInTx(ctx, tx, payout, reason)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payout failure")
	}
	return nil
}

func (s *service) failInTx(ctx context.Context, tx *gorm.DB, payout *models.Payout, reason string) error {
	updates := map[string]any{
		"status":         enums.PayoutStatusFailed,
		"failure_reason": reason,
	}
	if err := s.repo.WithTx(tx).Update(ctx, payout.ID, updates); err != nil {
		return err
	}
	payout.Status = enums.PayoutStatusFailed
	payout.FailureReason = &reason
	return s.notifier.PayoutFailed(ctx, tx, payout, reason)
}

func (s *service) markStuck(ctx context.Context, payout *models.Payout, reason string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.notifier.PayoutStuck(ctx, tx, payout, reason)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record stuck payout")
	}
	return nil
}

func payoutLockKey(sellerID uuid.UUID) string {
	return "payout:" + sellerID.String()
}
