package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/sellspay/settlements-backend/api/responses"
	"github.com/sellspay/settlements-backend/internal/webhooks/gateway"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

type GatewayWebhookService interface {
	Ingest(ctx context.Context, gatewayEventID string, eventType string, payload json.RawMessage) (*gateway.IngestResult, error)
}

type gatewayClient interface {
	SigningSecret() string
}

// GatewayWebhook ingests payment gateway events. Signature verification
// happens here; duplicate suppression and the durable claim live inside the
// ingest service, so a verified event is handled exactly once no matter how
// many times the gateway retries it.
func GatewayWebhook(svc GatewayWebhookService, client gatewayClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gateway signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature"))
			return
		}

		result, err := svc.Ingest(ctx, event.ID, string(event.Type), json.RawMessage(event.Data.Raw))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil && !result.Duplicate {
			logg.Info(ctx, fmt.Sprintf("gateway event %s ingested", event.ID))
		}
		responses.WriteSuccess(w, result)
	}
}
