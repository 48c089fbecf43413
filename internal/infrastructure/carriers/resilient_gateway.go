package carriers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/resilience"
)

// ResilientGateway guards a carrier gateway with a circuit breaker and an
// optional client-side request rate limit.
type ResilientGateway struct {
	inner   domain.CarrierGateway
	breaker *resilience.CircuitBreaker
	limiter *rate.Limiter
}

// NewResilientGateway wraps inner. cfg may be nil for defaults.
func NewResilientGateway(inner domain.CarrierGateway, cfg *resilience.CircuitBreakerConfig, logger *logging.Logger, m *metrics.Metrics) *ResilientGateway {
	if cfg == nil {
		cfg = resilience.DefaultCircuitBreakerConfig("carrier-" + inner.Name())
	}
	cfg.IsFailure = countsAgainstCarrier
	cfg.OnStateChange = func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
	return &ResilientGateway{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(cfg, logger),
	}
}

// WithRateLimit caps outbound calls at rps with the given burst. A
// non-positive rps removes the limit.
func (g *ResilientGateway) WithRateLimit(rps float64, burst int) *ResilientGateway {
	if rps <= 0 {
		g.limiter = nil
		return g
	}
	if burst < 1 {
		burst = 1
	}
	g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return g
}

// guard waits for a rate token then runs fn through the breaker. A wait that
// fails never reached the carrier, so its error carries no context cause.
func (g *ResilientGateway) guard(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("carrier %s rate limited: %v", g.inner.Name(), err)
		}
	}
	return g.breaker.Execute(ctx, fn)
}

// countsAgainstCarrier ignores answers that prove the carrier is healthy.
func countsAgainstCarrier(err error) bool {
	if errors.Is(err, domain.ErrLabelNotReady) || errors.Is(err, context.Canceled) {
		return false
	}
	var ce *domain.CarrierError
	if errors.As(err, &ce) && ce.StatusCode >= 400 && ce.StatusCode < 500 && ce.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return true
}

func (g *ResilientGateway) Name() string {
	return g.inner.Name()
}

func (g *ResilientGateway) QuoteRates(ctx context.Context, req domain.RateRequest) ([]domain.RateQuote, error) {
	var quotes []domain.RateQuote
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		quotes, err = g.inner.QuoteRates(ctx, req)
		return err
	})
	return quotes, err
}

func (g *ResilientGateway) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.CarrierShipment, error) {
	var shipment *domain.CarrierShipment
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		shipment, err = g.inner.CreateShipment(ctx, req)
		return err
	})
	return shipment, err
}

func (g *ResilientGateway) CancelShipment(ctx context.Context, trackingReference string) (*domain.CancelOutcome, error) {
	var outcome *domain.CancelOutcome
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = g.inner.CancelShipment(ctx, trackingReference)
		return err
	})
	return outcome, err
}

func (g *ResilientGateway) GetTracking(ctx context.Context, trackingReference string) (*domain.CarrierTracking, error) {
	var tracking *domain.CarrierTracking
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		tracking, err = g.inner.GetTracking(ctx, trackingReference)
		return err
	})
	return tracking, err
}

func (g *ResilientGateway) GetLabelURL(ctx context.Context, carrierShipmentID string) (string, error) {
	var labelURL string
	err := g.guard(ctx, func(ctx context.Context) error {
		var err error
		labelURL, err = g.inner.GetLabelURL(ctx, carrierShipmentID)
		return err
	})
	return labelURL, err
}

var _ domain.CarrierGateway = (*ResilientGateway)(nil)
var _ domain.CarrierGateway = (*ShipLogicAdapter)(nil)
