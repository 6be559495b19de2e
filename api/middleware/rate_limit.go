package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/sellspay/settlements-backend/api/responses"
	pkgerrors "github.com/sellspay/settlements-backend/pkg/errors"
	"github.com/sellspay/settlements-backend/pkg/logger"
)

// WindowLimiter counts requests for a scope within a fixed window.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit caps requests on the wrapped routes using a fixed-window counter
// keyed by scope. The limiter is advisory: when it errors the request is let
// through, since a cache outage must not take the endpoint down with it.
func RateLimit(limiter WindowLimiter, scope string, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, limit, window)
			if err != nil {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{"scope": scope})
					logg.Warn(ctx, "middleware.rate_limit.degraded")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"scope": scope,
						"count": count,
						"limit": limit,
					})
					logg.Info(ctx, "middleware.rate_limit.rejected")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimited, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
