package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sellspay/settlements-backend/api/routes"
	"github.com/sellspay/settlements-backend/internal/balance"
	"github.com/sellspay/settlements-backend/internal/disputes"
	"github.com/sellspay/settlements-backend/internal/events"
	"github.com/sellspay/settlements-backend/internal/notifications"
	"github.com/sellspay/settlements-backend/internal/payouts"
	"github.com/sellspay/settlements-backend/internal/webhooks/gateway"
	"github.com/sellspay/settlements-backend/pkg/config"
	"github.com/sellspay/settlements-backend/pkg/db"
	"github.com/sellspay/settlements-backend/pkg/logger"
	"github.com/sellspay/settlements-backend/pkg/metrics"
	"github.com/sellspay/settlements-backend/pkg/migrate"
	"github.com/sellspay/settlements-backend/pkg/payoneer"
	"github.com/sellspay/settlements-backend/pkg/paypal"
	"github.com/sellspay/settlements-backend/pkg/redis"
	"github.com/sellspay/settlements-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}
	paypalClient, err := paypal.NewClient(cfg.PayPal)
	if err != nil {
		logg.Error(context.Background(), "failed to create paypal client", err)
		os.Exit(1)
	}
	payoneerClient, err := payoneer.NewClient(cfg.Payoneer)
	if err != nil {
		logg.Error(context.Background(), "failed to create payoneer client", err)
		os.Exit(1)
	}

	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	eventsRepo := events.NewRepository(dbClient.DB())
	eventsService, err := events.NewService(eventsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}

	disputesService, err := disputes.NewService(eventsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create disputes service", err)
		os.Exit(1)
	}

	balanceService, err := balance.NewService(balance.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create balance service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:     payouts.NewRepository(dbClient.DB()),
		Balance:  balanceService,
		Events:   eventsService,
		Notifier: notificationsService,
		DB:       dbClient,
		Stripe:   stripeClient,
		PayPal:   paypalClient,
		Payoneer: payoneerClient,
		Metrics:  settlementMetrics,
		Policy:   cfg.Payout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	webhookGuard, err := gateway.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "gateway")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	gatewayService, err := gateway.NewService(gateway.ServiceParams{
		Repo:     gateway.NewRepository(dbClient.DB()),
		Events:   eventsService,
		Disputes: disputesService,
		DB:       dbClient,
		Guard:    webhookGuard,
		Metrics:  settlementMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			balanceService,
			payoutService,
			notificationsService,
			gatewayService,
			stripeClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
