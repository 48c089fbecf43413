package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

// RateResolver quotes carrier rates and decides free-shipping eligibility.
// It has no side effects; carrier failures are surfaced as RateQuoteFailed and never retried here.
type RateResolver struct {
	orders    domain.OrderRepository
	estimator *domain.ParcelEstimator
	carrier   carrierCaller
	cfg       domain.ShippingConfig
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewRateResolver creates a new RateResolver
func NewRateResolver(
	orders domain.OrderRepository,
	carrier domain.CarrierGateway,
	estimator *domain.ParcelEstimator,
	cfg domain.ShippingConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *RateResolver {
	logger = logger.WithComponent("rate-resolver")
	return &RateResolver{
		orders:    orders,
		estimator: estimator,
		carrier:   carrierCaller{carrier: carrier, timeout: cfg.CarrierTimeout, metrics: m, logger: logger},
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// GetRates resolves rates using the configured free-shipping threshold.
func (r *RateResolver) GetRates(ctx context.Context, address domain.Address, parcels []domain.Parcel, declaredValue float64) (*domain.ShippingRatesResult, error) {
	return r.GetRatesWithThreshold(ctx, address, parcels, declaredValue, r.cfg.FreeShippingThreshold)
}

// GetRatesWithThreshold resolves rates against an explicit threshold.
// When the order qualifies for free shipping the carrier is not queried and no rate is returned.
func (r *RateResolver) GetRatesWithThreshold(
	ctx context.Context,
	address domain.Address,
	parcels []domain.Parcel,
	declaredValue float64,
	threshold float64,
) (*domain.ShippingRatesResult, error) {
	if err := validateRateInput(address, parcels, declaredValue); err != nil {
		return nil, err
	}

	result := &domain.ShippingRatesResult{
		Rates:                 []domain.RateQuote{},
		FreeShippingThreshold: threshold,
	}

	if domain.QualifiesForFreeShipping(declaredValue, threshold) {
		result.FreeShippingAvailable = true
		r.metrics.RecordRateQuote("free")
		return result, nil
	}

	quotes, err := r.quote(ctx, address, parcels, declaredValue)
	if err != nil {
		return nil, err
	}
	result.Rates = quotes
	result.AmountToFreeShipping = domain.AmountToFreeShipping(declaredValue, threshold)
	return result, nil
}

// GetAdHocRates serves requests that may omit parcels; a single default parcel is used then.
func (r *RateResolver) GetAdHocRates(ctx context.Context, query GetRatesQuery) (*domain.ShippingRatesResult, error) {
	parcels := query.Parcels
	if len(parcels) == 0 {
		parcels = []domain.Parcel{r.cfg.DefaultParcel()}
	}
	return r.GetRates(ctx, query.Address, parcels, query.DeclaredValue)
}

// GetRatesForOrder quotes an existing order with estimated parcels and the order total as declared value.
func (r *RateResolver) GetRatesForOrder(ctx context.Context, orderID string) (*domain.ShippingRatesResult, error) {
	order, err := loadOrder(ctx, r.orders, orderID)
	if err != nil {
		return nil, err
	}

	parcels, err := r.estimator.Estimate(order)
	if err != nil {
		return nil, err
	}

	return r.GetRates(ctx, order.ShippingAddress, parcels, order.Total)
}

// QuoteServiceLevel always queries the carrier and returns the quote for code,
// plus whether the declared value qualifies for free shipping.
func (r *RateResolver) QuoteServiceLevel(
	ctx context.Context,
	address domain.Address,
	parcels []domain.Parcel,
	declaredValue float64,
	code string,
) (domain.RateQuote, bool, error) {
	if err := validateRateInput(address, parcels, declaredValue); err != nil {
		return domain.RateQuote{}, false, err
	}

	quotes, err := r.quote(ctx, address, parcels, declaredValue)
	if err != nil {
		return domain.RateQuote{}, false, err
	}

	result := domain.ShippingRatesResult{Rates: quotes}
	q, ok := result.FindRate(code)
	if !ok {
		return domain.RateQuote{}, false, domain.NewError(domain.KindServiceLevelNotFound,
			"carrier no longer offers service level %q", code)
	}
	return q, domain.QualifiesForFreeShipping(declaredValue, r.cfg.FreeShippingThreshold), nil
}

func (r *RateResolver) quote(ctx context.Context, address domain.Address, parcels []domain.Parcel, declaredValue float64) ([]domain.RateQuote, error) {
	var quotes []domain.RateQuote
	err := r.carrier.call(ctx, "quote-rates", func(ctx context.Context) error {
		var err error
		quotes, err = r.carrier.carrier.QuoteRates(ctx, domain.RateRequest{
			Destination:   address,
			Parcels:       parcels,
			DeclaredValue: declaredValue,
		})
		return err
	})
	if err != nil {
		r.metrics.RecordRateQuote("failed")
		return nil, domain.WrapError(domain.KindRateQuoteFailed, err, "carrier rate request failed")
	}

	r.metrics.RecordRateQuote("quoted")
	if quotes == nil {
		quotes = []domain.RateQuote{}
	}
	return quotes, nil
}

func validateRateInput(address domain.Address, parcels []domain.Parcel, declaredValue float64) error {
	if err := address.Validate(); err != nil {
		return err
	}
	if err := domain.ValidateParcels(parcels); err != nil {
		return err
	}
	if declaredValue < 0 {
		return domain.NewError(domain.KindValidation, "declared value cannot be negative")
	}
	return nil
}

// loadOrder maps repository misses to OrderNotFound.
func loadOrder(ctx context.Context, orders domain.OrderRepository, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, domain.NewError(domain.KindValidation, "order id is required")
	}
	order, err := orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindOrderNotFound, "order %s not found", orderID).WithOrder(orderID)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return order, nil
}
