package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/api/middleware"
	"github.com/sellspay/settlements-backend/api/responses"
	"github.com/sellspay/settlements-backend/internal/balance"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

// sellerFromContext resolves the authenticated seller, set by the auth
// middleware from the access token claims.
func sellerFromContext(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.SellerIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller identity required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id")
	}
	return id, nil
}

// GetBalance returns the seller's withdrawable balance with its breakdown.
func GetBalance(svc balance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balance service unavailable"))
			return
		}

		sellerID, err := sellerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.AvailableBalance(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}
