package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/api/responses"
	"github.com/sellspay/settlements-backend/internal/payouts"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

// AdminProcessPayout moves a requested manual payout through disbursement.
// The balance is recomputed at processing time, so a payout that has gone
// stale since the request fails rather than overdrawing the seller.
func AdminProcessPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := uuid.Parse(chi.URLParam(r, "payoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout id"))
			return
		}

		payout, err := svc.Process(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// AdminListPayouts returns payouts across all sellers with an optional
// status filter.
func AdminListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.PayoutStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout status"))
				return
			}
			status = &parsed
		}

		list, err := svc.ListAll(r.Context(), params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
