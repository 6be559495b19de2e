package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellspay/settlements-backend/internal/disputes"
	"github.com/sellspay/settlements-backend/internal/events"
	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type revenueRecorder interface {
	RecordRevenueEvent(ctx context.Context, tx *gorm.DB, input events.RecordRevenueEventInput) (*models.RevenueEvent, bool, error)
}

type disputeLocker interface {
	Open(ctx context.Context, tx *gorm.DB, input disputes.OpenDisputeInput) error
	Resolve(ctx context.Context, tx *gorm.DB, input disputes.ResolveDisputeInput) error
}

// Service is the ingestion guard. Every inbound gateway event is claimed by
// its unique id and applied in one transaction; a crash before commit leaves
// the event unclaimed and safe to redeliver, and a duplicate delivery is
// acknowledged without reapplying anything.
type Service struct {
	repo    Repository
	events  revenueRecorder
	dispute disputeLocker
	tx      txRunner
	guard   *IdempotencyGuard
	metrics *metrics.SettlementMetrics
}

// IngestResult reports what became of one delivery.
type IngestResult struct {
	Duplicate bool `json:"duplicate"`
}

// ServiceParams carry the ingestion guard dependencies. Guard and Metrics
// are optional.
type ServiceParams struct {
	Repo     Repository
	Events   revenueRecorder
	Disputes disputeLocker
	DB       txRunner
	Guard    *IdempotencyGuard
	Metrics  *metrics.SettlementMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway repository required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event store required")
	}
	if params.Disputes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dispute locker required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:    params.Repo,
		events:  params.Events,
		dispute: params.Disputes,
		tx:      params.DB,
		guard:   params.Guard,
		metrics: params.Metrics,
	}, nil
}

type paymentCapturedPayload struct {
	SellerID         uuid.UUID `json:"seller_id"`
	SourceType       string    `json:"source_type"`
	TransactionID    string    `json:"transaction_id"`
	GrossAmountCents int64     `json:"gross_amount_cents"`
	PlatformFeeCents int64     `json:"platform_fee_cents"`
	SellerShareCents int64     `json:"seller_share_cents"`
}

type subscriptionUpdatedPayload struct {
	SubscriptionID   string    `json:"subscription_id"`
	SellerID         uuid.UUID `json:"seller_id"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

type accountVerifiedPayload struct {
	SellerID  uuid.UUID `json:"seller_id"`
	AccountID string    `json:"account_id"`
}

type disputePayload struct {
	SellerID       uuid.UUID `json:"seller_id"`
	OrderReference string    `json:"order_reference"`
	AmountCents    int64     `json:"amount_cents"`
	Outcome        string    `json:"outcome"`
}

// Ingest claims and applies one gateway event. Redelivery of an already
// applied event id returns a duplicate result, not an error.
func (s *Service) Ingest(ctx context.Context, gatewayEventID string, eventType string, payload json.RawMessage) (*IngestResult, error) {
	if gatewayEventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway event id is required")
	}
	parsed, err := enums.ParseGatewayEventType(eventType)
	if err != nil {
		s.metrics.ObserveWebhookEvent(eventType, "unsupported")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, gatewayEventID)
		if err == nil && seen {
			s.metrics.ObserveWebhookEvent(eventType, "duplicate")
			return &IngestResult{Duplicate: true}, nil
		}
		// A redis failure only loses the fast path; the claim insert below
		// still decides.
	}

	duplicate := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		claim := &models.InboundEventRecord{
			GatewayEventID: gatewayEventID,
			EventType:      string(parsed),
		}
		claimed, err := repo.Claim(ctx, claim)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim gateway event")
		}
		if !claimed {
			duplicate = true
			return nil
		}
		return s.apply(ctx, tx, parsed, payload)
	})
	if err != nil {
		if s.guard != nil {
			// Claim rolled back; clear the fast path so the event stays
			// retryable.
			_ = s.guard.Delete(ctx, gatewayEventID)
		}
		s.metrics.ObserveWebhookEvent(eventType, "error")
		return nil, err
	}
	if duplicate {
		s.metrics.ObserveWebhookEvent(eventType, "duplicate")
		return &IngestResult{Duplicate: true}, nil
	}
	s.metrics.ObserveWebhookEvent(eventType, "applied")
	return &IngestResult{}, nil
}

func (s *Service) apply(ctx context.Context, tx *gorm.DB, eventType enums.GatewayEventType, payload json.RawMessage) error {
	switch eventType {
	case enums.GatewayEventPaymentCaptured:
		var body paymentCapturedPayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment payload")
		}
		sourceType, err := enums.ParseRevenueSource(body.SourceType)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		_, _, err = s.events.RecordRevenueEvent(ctx, tx, events.RecordRevenueEventInput{
			SellerID:         body.SellerID,
			SourceType:       sourceType,
			ProviderTxID:     body.TransactionID,
			GrossAmountCents: body.GrossAmountCents,
			PlatformFeeCents: body.PlatformFeeCents,
			SellerShareCents: body.SellerShareCents,
		})
		return err
	case enums.GatewayEventSubscriptionUpdated:
		var body subscriptionUpdatedPayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription payload")
		}
		if body.SubscriptionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
		}
		period := &models.SubscriptionPeriod{
			ExternalSubscriptionID: body.SubscriptionID,
			SellerID:               body.SellerID,
			Status:                 body.Status,
			CurrentPeriodEnd:       body.CurrentPeriodEnd,
		}
		if err := s.repo.WithTx(tx).UpsertSubscriptionPeriod(ctx, period); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert subscription period")
		}
		return nil
	case enums.GatewayEventAccountVerified:
		var body accountVerifiedPayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode account payload")
		}
		if body.SellerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
		}
		var accountID *string
		if body.AccountID != "" {
			accountID = &body.AccountID
		}
		if err := s.repo.WithTx(tx).MarkAccountVerified(ctx, body.SellerID, accountID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark account verified")
		}
		return nil
	case enums.GatewayEventDisputeOpened:
		var body disputePayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode dispute payload")
		}
		return s.dispute.Open(ctx, tx, disputes.OpenDisputeInput{
			SellerID:       body.SellerID,
			OrderReference: body.OrderReference,
			AmountCents:    body.AmountCents,
		})
	case enums.GatewayEventDisputeClosed:
		var body disputePayload
		if err := json.Unmarshal(payload, &body); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode dispute payload")
		}
		return s.dispute.Resolve(ctx, tx, disputes.ResolveDisputeInput{
			OrderReference: body.OrderReference,
			Outcome:        enums.DisputeStatus(body.Outcome),
		})
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported gateway event type")
	}
}
