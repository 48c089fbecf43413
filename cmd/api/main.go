package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/api/handlers"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/bootstrap"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/webhooks"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/middleware"
)

const serviceName = "shipping-service"

func main() {
	logger := logging.New(logging.DefaultConfig(serviceName))
	logger.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.WithError(err).Error("shipping-service exited")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logging.Logger) error {
	cfg := bootstrap.LoadConfig(serviceName)
	logger.Info("Starting shipping-service API", "environment", cfg.Environment, "durableOrders", cfg.MongoDB != nil)

	defer bootstrap.StartTracing(ctx, cfg, logger)()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	services, err := bootstrap.NewServices(ctx, cfg, logger, m)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer func() {
		if err := services.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("Closing services")
		}
	}()

	if relay := services.NewOutboxRelay(cfg, logger, m); relay != nil {
		if err := relay.Start(ctx); err != nil {
			return fmt.Errorf("start outbox relay: %w", err)
		}
		defer relay.Stop()
		logger.Info("Relaying outbox to Kafka", "brokers", cfg.Kafka.Brokers)
	}

	router, err := newRouter(cfg, services, m, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// create and cancel may each wait on two carrier calls
		WriteTimeout: 2*cfg.Shipping.CarrierTimeout + 10*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Draining HTTP connections")
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("shipping-service stopped")
	return nil
}

func newRouter(cfg *bootstrap.Config, services *bootstrap.Services, m *metrics.Metrics, logger *logging.Logger) (*gin.Engine, error) {
	parser, err := webhooks.NewParser()
	if err != nil {
		return nil, fmt.Errorf("compile webhook schema: %w", err)
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, carrier webhooks are accepted unsigned")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	mw := middleware.DefaultConfig(serviceName, logger)
	mw.Metrics = m
	mw.EnableTracing = cfg.Tracing.Enabled
	mw.ErrorMapper = handlers.ToAppError
	middleware.Setup(router, mw)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, services.Ready))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1/shipping")
	handlers.NewShippingHandler(services.Rates, services.Shipments, services.Tracking, logger).RegisterRoutes(api)
	handlers.NewWebhookHandler(services.Tracking, parser, cfg.WebhookSecret, m, logger).RegisterRoutes(api)
	return router, nil
}
