package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sellspay/settlements-backend/api/controllers"
	webhookcontrollers "github.com/sellspay/settlements-backend/api/controllers/webhooks"
	"github.com/sellspay/settlements-backend/api/middleware"
	"github.com/sellspay/settlements-backend/internal/balance"
	"github.com/sellspay/settlements-backend/internal/notifications"
	"github.com/sellspay/settlements-backend/internal/payouts"
	"github.com/sellspay/settlements-backend/internal/webhooks/gateway"
	"github.com/sellspay/settlements-backend/pkg/config"
	"github.com/sellspay/settlements-backend/pkg/db"
	"github.com/sellspay/settlements-backend/pkg/logger"
	"github.com/sellspay/settlements-backend/pkg/redis"
	"github.com/sellspay/settlements-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	balanceService balance.Service,
	payoutService payouts.Service,
	notificationsService notifications.Service,
	gatewayService *gateway.Service,
	stripeClient *stripe.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(routeLimiter(redisClient), "webhooks", cfg.Webhook.RateLimit, cfg.Webhook.RateLimitWindow, logg))
		r.Post("/gateway", webhookcontrollers.GatewayWebhook(gatewayService, stripeClient, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSeller(logg))
			r.Route("/v1/sellers/me", func(r chi.Router) {
				r.Get("/balance", controllers.GetBalance(balanceService, logg))
				r.Route("/payouts", func(r chi.Router) {
					r.Get("/", controllers.ListPayouts(payoutService, logg))
					r.Post("/", controllers.RequestPayout(payoutService, logg))
				})
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Route("/payouts", func(r chi.Router) {
				r.Get("/", controllers.AdminListPayouts(payoutService, logg))
				r.Post("/{payoutId}/process", controllers.AdminProcessPayout(payoutService, logg))
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.AdminListNotifications(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.AdminMarkNotificationRead(notificationsService, logg))
			})
		})
	})

	return r
}

// routeLimiter avoids handing a typed-nil *redis.Client to the rate limit
// middleware when the cache is disabled.
func routeLimiter(client *redis.Client) middleware.WindowLimiter {
	if client == nil {
		return nil
	}
	return client
}
