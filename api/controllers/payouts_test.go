package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/api/middleware"
	payoutsvc "github.com/sellspay/settlements-backend/internal/payouts"
	"github.com/sellspay/settlements-backend/pkg/db/models"
	"github.com/sellspay/settlements-backend/pkg/enums"
	"github.com/sellspay/settlements-backend/pkg/logger"
	"github.com/sellspay/settlements-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type stubPayoutService struct {
	requested *payoutsvc.RequestPayoutInput
	listed    *pagination.Params
}

func (s *stubPayoutService) Request(ctx context.Context, input payoutsvc.RequestPayoutInput) (*models.Payout, error) {
	s.requested = &input
	return &models.Payout{
		ID:       uuid.New(),
		SellerID: input.SellerID,
		Provider: enums.PayoutProviderStripeConnect,
		Status:   enums.PayoutStatusSent,
	}, nil
}

func (s *stubPayoutService) Process(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	panic("unimplemented")
}

func (s *stubPayoutService) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*payoutsvc.PayoutList, error) {
	s.listed = &params
	return &payoutsvc.PayoutList{}, nil
}

func (s *stubPayoutService) ListAll(ctx context.Context, params pagination.Params, status *enums.PayoutStatus) (*payoutsvc.PayoutList, error) {
	panic("unimplemented")
}

func TestRequestPayout(t *testing.T) {
	logg := testLogger()
	sellerID := uuid.New()

	makeRequest := func(ctx context.Context, body string, stub *stubPayoutService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sellers/me/payouts", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		RequestPayout(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing seller", func(t *testing.T) {
		rec := makeRequest(context.Background(), `{}`, &stubPayoutService{})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 when seller missing, got %d", rec.Code)
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		ctx := middleware.WithSellerID(context.Background(), sellerID.String())
		rec := makeRequest(ctx, `{"provider":"wire_transfer"}`, &stubPayoutService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown provider, got %d", rec.Code)
		}
	})

	t.Run("success with override", func(t *testing.T) {
		ctx := middleware.WithSellerID(context.Background(), sellerID.String())
		stub := &stubPayoutService{}
		rec := makeRequest(ctx, `{"provider":"paypal","expedited":true}`, stub)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 on success, got %d", rec.Code)
		}
		if stub.requested == nil {
			t.Fatal("expected Request to be invoked")
		}
		if stub.requested.SellerID != sellerID {
			t.Fatalf("expected seller %s, got %s", sellerID, stub.requested.SellerID)
		}
		if stub.requested.Provider == nil || *stub.requested.Provider != enums.PayoutProviderPayPal {
			t.Fatal("expected paypal provider override")
		}
		if !stub.requested.Expedited {
			t.Fatal("expected expedited flag to carry through")
		}

		var envelope struct {
			Data models.Payout `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.SellerID != sellerID {
			t.Fatalf("expected payout for seller %s in envelope, got %s", sellerID, envelope.Data.SellerID)
		}
	})

	t.Run("empty body defaults", func(t *testing.T) {
		ctx := middleware.WithSellerID(context.Background(), sellerID.String())
		stub := &stubPayoutService{}
		rec := makeRequest(ctx, `{}`, stub)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 on success, got %d", rec.Code)
		}
		if stub.requested.Provider != nil {
			t.Fatal("expected no provider override for empty body")
		}
	})
}

func TestListPayouts(t *testing.T) {
	logg := testLogger()
	sellerID := uuid.New()

	makeRequest := func(ctx context.Context, query string, stub *stubPayoutService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/payouts"+query, nil)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		ListPayouts(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing seller", func(t *testing.T) {
		rec := makeRequest(context.Background(), "", &stubPayoutService{})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 when seller missing, got %d", rec.Code)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		ctx := middleware.WithSellerID(context.Background(), sellerID.String())
		rec := makeRequest(ctx, "?limit=5000", &stubPayoutService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for out-of-range limit, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctx := middleware.WithSellerID(context.Background(), sellerID.String())
		stub := &stubPayoutService{}
		rec := makeRequest(ctx, "?limit=10&cursor=abc", stub)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d", rec.Code)
		}
		if stub.listed == nil {
			t.Fatal("expected ListForSeller to be invoked")
		}
		if stub.listed.Limit != 10 || stub.listed.Cursor != "abc" {
			t.Fatalf("unexpected params %+v", *stub.listed)
		}
	})
}
