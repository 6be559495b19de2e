package controllers

import (
	"net/http"
	"strings"

	"github.com/sellspay/settlements-backend/api/responses"
	"github.com/sellspay/settlements-backend/api/validators"
	"github.com/sellspay/settlements-backend/internal/payouts"
	"github.com/sellspay/settlements-backend/pkg/enums"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/logger"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

type requestPayoutBody struct {
	Provider  string `json:"provider" validate:"omitempty,oneof=stripe_connect paypal payoneer"`
	Expedited bool   `json:"expedited"`
}

// RequestPayout withdraws the seller's full available balance through the
// routed provider. Direct-connect sellers are paid immediately; everyone
// else waits for admin processing.
func RequestPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body requestPayoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payouts.RequestPayoutInput{
			SellerID:  sellerID,
			Expedited: body.Expedited,
		}
		if raw := strings.TrimSpace(body.Provider); raw != "" {
			provider, err := enums.ParsePayoutProvider(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout provider"))
				return
			}
			input.Provider = &provider
		}

		payout, err := svc.Request(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payout)
	}
}

// ListPayouts returns the seller's payout history, newest first.
func ListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := listParamsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForSeller(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func listParamsFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
