package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/carriers"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/locking"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/memory"
	mongoRepo "github.com/KyleYagher/Jits-Apparel-sub000/internal/infrastructure/mongodb"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/kafka"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/mongodb"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/outbox"
)

// Services is the wired shipping core plus the infrastructure it owns.
type Services struct {
	Orders    domain.OrderRepository
	Carrier   *carriers.ResilientGateway
	Rates     *application.RateResolver
	Shipments *application.ShipmentOrchestrator
	Tracking  *application.TrackingProjector

	// Outbox is nil when orders are kept in memory.
	Outbox   outbox.Store
	Producer *kafka.Producer

	checks  []func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

// NewServices connects infrastructure and builds the application services.
// On error everything opened so far is closed.
func NewServices(ctx context.Context, cfg *Config, logger *logging.Logger, m *metrics.Metrics) (_ *Services, err error) {
	svc := &Services{}
	defer func() {
		if err != nil {
			_ = svc.Close(context.Background())
		}
	}()

	if err := svc.openOrders(ctx, cfg, logger); err != nil {
		return nil, err
	}
	locker, err := svc.openLocker(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	adapter := carriers.NewShipLogicAdapter(cfg.ShipLogic)
	svc.Carrier = carriers.NewResilientGateway(adapter, nil, logger, m).
		WithRateLimit(cfg.CarrierRateLimit, cfg.CarrierRateBurst)

	estimator := domain.NewParcelEstimator(cfg.Shipping)
	svc.Rates = application.NewRateResolver(svc.Orders, svc.Carrier, estimator, cfg.Shipping, m, logger)
	svc.Shipments = application.NewShipmentOrchestrator(svc.Orders, svc.Carrier, svc.Rates, estimator, locker, cfg.Shipping, m, logger)
	svc.Tracking = application.NewTrackingProjector(svc.Orders, svc.Carrier, locker, cfg.Shipping, m, logger)

	return svc, nil
}

func (s *Services) openOrders(ctx context.Context, cfg *Config, logger *logging.Logger) error {
	if cfg.MongoDB == nil {
		logger.Warn("MONGODB_URI not set, orders are kept in memory and events are not published")
		s.Orders = memory.NewOrderRepository()
		return nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB, logger)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	s.checks = append(s.checks, client.HealthCheck)

	repo := mongoRepo.NewOrderRepository(client, cloudevents.NewEventFactory(cloudevents.SourceShipping))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	s.Orders = repo
	s.Outbox = repo.Outbox()
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
	return nil
}

func (s *Services) openLocker(ctx context.Context, cfg *Config, logger *logging.Logger) (domain.OrderLocker, error) {
	if cfg.RedisURL == "" {
		return locking.NewKeyedMutex(), nil
	}

	redisConfig := locking.DefaultRedisConfig(cfg.RedisURL)
	redisConfig.TTL = cfg.Shipping.OrderLockTTL()
	locker, err := locking.NewRedisLocker(ctx, redisConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return locker.Close() })
	s.checks = append(s.checks, locker.HealthCheck)
	logger.Info("Using Redis order locks")
	return locker, nil
}

// NewOutboxRelay creates the Kafka producer and the relay that drains the
// outbox into it. It returns nil when there is no durable outbox.
func (s *Services) NewOutboxRelay(cfg *Config, logger *logging.Logger, m *metrics.Metrics) *outbox.Relay {
	if s.Outbox == nil {
		return nil
	}
	s.Producer = kafka.NewProducer(cfg.Kafka, logger, m)
	s.closers = append(s.closers, func(context.Context) error { return s.Producer.Close() })
	return outbox.NewRelay(s.Outbox, s.Producer, logger, m, outbox.DefaultRelayConfig())
}

// Ready runs every dependency health check.
func (s *Services) Ready(ctx context.Context) error {
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases infrastructure in reverse order of acquisition.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
