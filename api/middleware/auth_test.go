package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/pkg/auth"
	"github.com/sellspay/settlements-backend/pkg/config"
	"github.com/sellspay/settlements-backend/pkg/enums"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "sellspay",
		ExpirationMinutes: 30,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, payload auth.AccessTokenPayload) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testJWTConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	userID := uuid.New()
	sellerID := uuid.New()

	var gotUserID, gotSellerID, gotRole string
	handler := Auth(cfg, logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotSellerID = SellerIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without credentials, got %d", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := cfg
		other.Issuer = "someone-else"
		token := mintToken(t, other, auth.AccessTokenPayload{UserID: userID, Role: enums.MemberRoleSeller})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for wrong issuer, got %d", rec.Code)
		}
	})

	t.Run("valid seller token", func(t *testing.T) {
		token := mintToken(t, cfg, auth.AccessTokenPayload{
			UserID:   userID,
			SellerID: &sellerID,
			Role:     enums.MemberRoleSeller,
		})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for valid token, got %d", rec.Code)
		}
		if gotUserID != userID.String() {
			t.Fatalf("expected user id %s in context, got %q", userID, gotUserID)
		}
		if gotSellerID != sellerID.String() {
			t.Fatalf("expected seller id %s in context, got %q", sellerID, gotSellerID)
		}
		if gotRole != string(enums.MemberRoleSeller) {
			t.Fatalf("expected seller role in context, got %q", gotRole)
		}
	})
}

func TestRequireRoleAndSeller(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("admin role required", func(t *testing.T) {
		handler := RequireRole("admin", logg)(next)

		req := httptest.NewRequest(http.MethodGet, "/admin/v1/payouts", nil)
		req = req.WithContext(WithRole(req.Context(), "seller"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for seller on admin route, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/admin/v1/payouts", nil)
		req = req.WithContext(WithRole(req.Context(), "admin"))
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected admin through, got %d", rec.Code)
		}
	})

	t.Run("seller identity required", func(t *testing.T) {
		handler := RequireSeller(logg)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 without seller identity, got %d", rec.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/v1/sellers/me/balance", nil)
		req = req.WithContext(WithSellerID(req.Context(), uuid.NewString()))
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected seller through, got %d", rec.Code)
		}
	})
}
