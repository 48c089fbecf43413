package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

// ShipmentOrchestrator reconciles an order's shipping fields with carrier-side shipments.
// Create and cancel are serialized per order and never retried against the carrier.
type ShipmentOrchestrator struct {
	orders    domain.OrderRepository
	rates     *RateResolver
	estimator *domain.ParcelEstimator
	locker    domain.OrderLocker
	carrier   carrierCaller
	cfg       domain.ShippingConfig
	metrics   *metrics.Metrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewShipmentOrchestrator creates a new ShipmentOrchestrator
func NewShipmentOrchestrator(
	orders domain.OrderRepository,
	carrier domain.CarrierGateway,
	rates *RateResolver,
	estimator *domain.ParcelEstimator,
	locker domain.OrderLocker,
	cfg domain.ShippingConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ShipmentOrchestrator {
	logger = logger.WithComponent("shipment-orchestrator")
	return &ShipmentOrchestrator{
		orders:    orders,
		rates:     rates,
		estimator: estimator,
		locker:    locker,
		carrier:   carrierCaller{carrier: carrier, timeout: cfg.CarrierTimeout, metrics: m, logger: logger},
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateShipment books a carrier shipment for the order and records it.
func (s *ShipmentOrchestrator) CreateShipment(ctx context.Context, cmd CreateShipmentCommand) (*ShipmentResult, error) {
	code := strings.TrimSpace(cmd.ServiceLevelCode)
	if code == "" {
		s.metrics.RecordShipmentCreated("rejected", "")
		return nil, domain.NewError(domain.KindServiceLevelRequired, "a service level code must be chosen").WithOrder(cmd.OrderID)
	}
	if len(cmd.Parcels) > 0 {
		if err := domain.ValidateParcels(cmd.Parcels); err != nil {
			return nil, err
		}
	}

	unlock, err := lockOrder(ctx, s.locker, cmd.OrderID, s.cfg.OrderLockWait())
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger := s.logger.WithContext(ctx).WithOrder(cmd.OrderID).WithOperation("create-shipment")

	order, err := loadOrder(ctx, s.orders, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckCanCreateShipment(); err != nil {
		s.metrics.RecordShipmentCreated("rejected", "")
		return nil, err
	}

	parcels := cmd.Parcels
	if len(parcels) == 0 {
		if parcels, err = s.estimator.Estimate(order); err != nil {
			return nil, err
		}
	}

	decision, source, err := s.resolveDecision(ctx, order, code, parcels)
	if err != nil {
		s.metrics.RecordShipmentCreated("rate-failed", source)
		return nil, err
	}

	var shipment *domain.CarrierShipment
	err = s.carrier.call(ctx, "create-shipment", func(ctx context.Context) error {
		var err error
		shipment, err = s.carrier.carrier.CreateShipment(ctx, domain.ShipmentRequest{
			Reference:        order.ID,
			Destination:      order.ShippingAddress,
			Parcels:          parcels,
			DeclaredValue:    order.Total,
			ServiceLevelCode: code,
		})
		return err
	})
	if err != nil {
		if outcomeUnknown(err) {
			s.metrics.RecordShipmentCreated("outcome-unknown", source)
			logger.WithError(err).Error("Carrier shipment outcome unknown; manual reconciliation required",
				"serviceLevelCode", code)
			return nil, domain.WrapError(domain.KindCarrierOutcomeUnknown, err,
				"carrier did not answer in time; the shipment may exist carrier-side").WithOrder(order.ID)
		}
		s.metrics.RecordShipmentCreated("carrier-failed", source)
		return nil, domain.WrapError(domain.KindCarrierRequestFailed, err, "carrier rejected shipment").WithOrder(order.ID)
	}
	if shipment == nil || shipment.TrackingReference == "" {
		s.metrics.RecordShipmentCreated("carrier-failed", source)
		return nil, domain.NewError(domain.KindCarrierRequestFailed, "carrier returned no tracking reference").WithOrder(order.ID)
	}
	if shipment.CarrierName == "" {
		shipment.CarrierName = s.carrier.carrier.Name()
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancel()

	now := s.now()
	saved, _, err := mutateOrder(persistCtx, s.orders, order, func(o *domain.Order) (bool, error) {
		if err := o.CheckCanCreateShipment(); err != nil {
			return false, err
		}
		o.RecordShipment(*shipment, decision, now)
		return true, nil
	})
	if err != nil {
		s.metrics.RecordShipmentCreated("not-persisted", source)
		s.metrics.RecordStateDivergence("create-shipment")
		logger.StateDivergence(ctx, order.ID, shipment.CarrierShipmentID, shipment.TrackingReference, err)
		return nil, &domain.ShippingError{
			Kind:              domain.KindShipmentCreatedButNotPersisted,
			Message:           "carrier accepted the shipment but the order could not be updated",
			OrderID:           order.ID,
			CarrierShipmentID: shipment.CarrierShipmentID,
			TrackingNumber:    shipment.TrackingReference,
			Err:               err,
		}
	}

	s.metrics.RecordShipmentCreated("success", source)
	logger.Info("Shipment created",
		"trackingNumber", saved.TrackingNumber,
		"carrierShipmentId", saved.CarrierShipmentID,
		"serviceLevelCode", code,
		"rateSource", source,
		"parcels", len(parcels),
	)
	s.logger.Audit(ctx, "shipment.create", "order", order.ID, cmd.RequestedBy, map[string]any{
		"trackingNumber": saved.TrackingNumber,
	})

	return toShipmentResult(saved, source, parcels), nil
}

// resolveDecision trusts the checkout selection when the requested code matches it,
// otherwise re-quotes and uses the fresh price for the requested code.
func (s *ShipmentOrchestrator) resolveDecision(
	ctx context.Context,
	order *domain.Order,
	code string,
	parcels []domain.Parcel,
) (domain.ShippingDecision, string, error) {
	stored := order.Decision()
	if storedCode, _ := stored.ServiceLevel(); storedCode != "" && storedCode == code {
		return stored, RateSourceStored, nil
	}

	quote, free, err := s.rates.QuoteServiceLevel(ctx, order.ShippingAddress, parcels, order.Total, code)
	if err != nil {
		var se *domain.ShippingError
		if errors.As(err, &se) && se.OrderID == "" {
			se.OrderID = order.ID
		}
		return nil, RateSourceRequoted, err
	}
	return domain.DecisionFromQuote(quote, free), RateSourceRequoted, nil
}

// CancelShipment cancels the order's active carrier shipment. A carrier
// rejection leaves the order untouched.
func (s *ShipmentOrchestrator) CancelShipment(ctx context.Context, cmd CancelShipmentCommand) (*CancelResult, error) {
	unlock, err := lockOrder(ctx, s.locker, cmd.OrderID, s.cfg.OrderLockWait())
	if err != nil {
		return nil, err
	}
	defer unlock()

	logger := s.logger.WithContext(ctx).WithOrder(cmd.OrderID).WithOperation("cancel-shipment")

	order, err := loadOrder(ctx, s.orders, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckCanCancelShipment(); err != nil {
		outcome := "no-shipment"
		if errors.Is(err, domain.ErrInvalidOrder) {
			outcome = "terminal"
		}
		s.metrics.RecordShipmentCancelled(outcome)
		return nil, err
	}

	tracking := order.TrackingNumber
	var outcome *domain.CancelOutcome
	err = s.carrier.call(ctx, "cancel-shipment", func(ctx context.Context) error {
		var err error
		outcome, err = s.carrier.carrier.CancelShipment(ctx, tracking)
		return err
	})
	if err != nil {
		if outcomeUnknown(err) {
			s.metrics.RecordShipmentCancelled("outcome-unknown")
			logger.WithError(err).Error("Carrier cancellation outcome unknown", "trackingNumber", tracking)
			return nil, domain.WrapError(domain.KindCarrierOutcomeUnknown, err,
				"carrier did not answer in time; the shipment may already be cancelled").WithOrder(order.ID)
		}
		s.metrics.RecordShipmentCancelled("carrier-failed")
		return nil, domain.WrapError(domain.KindCarrierRequestFailed, err, "carrier cancellation failed").WithOrder(order.ID)
	}
	if outcome == nil || !outcome.Cancelled {
		reason := "carrier refused cancellation"
		if outcome != nil && outcome.Reason != "" {
			reason = outcome.Reason
		}
		s.metrics.RecordShipmentCancelled("rejected")
		logger.Warn("Carrier rejected cancellation", "trackingNumber", tracking, "reason", reason)
		return nil, &domain.ShippingError{
			Kind:              domain.KindCancellationRejected,
			Message:           "carrier rejected the cancellation",
			Reason:            reason,
			OrderID:           order.ID,
			CarrierShipmentID: order.CarrierShipmentID,
			TrackingNumber:    tracking,
		}
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancel()

	now := s.now()
	carrierShipmentID := order.CarrierShipmentID
	saved, _, err := mutateOrder(persistCtx, s.orders, order, func(o *domain.Order) (bool, error) {
		if o.TrackingNumber != tracking {
			return false, domain.NewError(domain.KindConcurrentModification,
				"active shipment changed from %s to %q during cancellation", tracking, o.TrackingNumber)
		}
		o.ClearShipment(now)
		return true, nil
	})
	if err != nil {
		s.metrics.RecordShipmentCancelled("not-persisted")
		s.metrics.RecordStateDivergence("cancel-shipment")
		logger.StateDivergence(ctx, order.ID, carrierShipmentID, tracking, err)
		return nil, &domain.ShippingError{
			Kind:              domain.KindShipmentCancelledButNotPersisted,
			Message:           "carrier cancelled the shipment but the order could not be updated",
			OrderID:           order.ID,
			CarrierShipmentID: carrierShipmentID,
			TrackingNumber:    tracking,
			Err:               err,
		}
	}

	s.metrics.RecordShipmentCancelled("success")
	logger.Info("Shipment cancelled", "trackingNumber", tracking)
	s.logger.Audit(ctx, "shipment.cancel", "order", order.ID, cmd.RequestedBy, map[string]any{
		"trackingNumber": tracking,
	})

	return &CancelResult{
		OrderID:                 saved.ID,
		CancelledTrackingNumber: tracking,
		Status:                  saved.Status,
		CancelledAt:             now,
	}, nil
}

// GetLabelURL passes through to the carrier.
func (s *ShipmentOrchestrator) GetLabelURL(ctx context.Context, carrierShipmentID string) (*LabelResult, error) {
	if carrierShipmentID == "" {
		return nil, domain.NewError(domain.KindValidation, "carrier shipment id is required")
	}

	var url string
	err := s.carrier.call(ctx, "get-label", func(ctx context.Context) error {
		var err error
		url, err = s.carrier.carrier.GetLabelURL(ctx, carrierShipmentID)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrLabelNotReady):
		return nil, domain.WrapError(domain.KindLabelNotAvailable, err, "label for shipment %s is not available yet", carrierShipmentID)
	case err != nil:
		return nil, domain.WrapError(domain.KindCarrierRequestFailed, err, "carrier label request failed")
	case url == "":
		return nil, domain.NewError(domain.KindLabelNotAvailable, "label for shipment %s is not available yet", carrierShipmentID)
	}

	return &LabelResult{CarrierShipmentID: carrierShipmentID, LabelURL: url}, nil
}

// GetLabelURLForOrder resolves the order's carrier shipment and fetches its label.
func (s *ShipmentOrchestrator) GetLabelURLForOrder(ctx context.Context, orderID string) (*LabelResult, error) {
	order, err := loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	if order.CarrierShipmentID == "" {
		return nil, domain.NewError(domain.KindNoActiveShipment, "order has no active shipment").WithOrder(orderID)
	}

	label, err := s.GetLabelURL(ctx, order.CarrierShipmentID)
	if err != nil {
		return nil, err
	}
	label.OrderID = orderID
	return label, nil
}
