package application

import (
	"context"
	"errors"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/metrics"
)

// TrackingProjector builds tracking views from carrier data and applies
// carrier webhooks to order status. Webhook application is monotonic, so
// replays and out-of-order deliveries are harmless.
type TrackingProjector struct {
	orders  domain.OrderRepository
	locker  domain.OrderLocker
	carrier carrierCaller
	cfg     domain.ShippingConfig
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewTrackingProjector creates a new TrackingProjector
func NewTrackingProjector(
	orders domain.OrderRepository,
	carrier domain.CarrierGateway,
	locker domain.OrderLocker,
	cfg domain.ShippingConfig,
	m *metrics.Metrics,
	logger *logging.Logger,
) *TrackingProjector {
	logger = logger.WithComponent("tracking-projector")
	return &TrackingProjector{
		orders:  orders,
		locker:  locker,
		carrier: carrierCaller{carrier: carrier, timeout: cfg.CarrierTimeout, metrics: m, logger: logger},
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetTracking fetches and normalizes the carrier timeline. It never touches orders.
func (p *TrackingProjector) GetTracking(ctx context.Context, trackingReference string) (*domain.TrackingState, error) {
	if trackingReference == "" {
		return nil, domain.NewError(domain.KindValidation, "tracking reference is required")
	}

	var raw *domain.CarrierTracking
	err := p.carrier.call(ctx, "get-tracking", func(ctx context.Context) error {
		var err error
		raw, err = p.carrier.carrier.GetTracking(ctx, trackingReference)
		return err
	})
	if err != nil {
		return nil, domain.WrapError(domain.KindTrackingUnavailable, err, "carrier tracking request failed")
	}
	if raw == nil {
		raw = &domain.CarrierTracking{}
	}

	return toTrackingState(raw, trackingReference), nil
}

// GetTrackingForOrder returns tracking for an order the requester owns, or any order for admins.
func (p *TrackingProjector) GetTrackingForOrder(ctx context.Context, query GetTrackingForOrderQuery) (*domain.TrackingState, error) {
	order, err := loadOrder(ctx, p.orders, query.OrderID)
	if err != nil {
		return nil, err
	}
	if !query.Requester.IsAdmin && (query.Requester.UserID == "" || query.Requester.UserID != order.CustomerID) {
		return nil, domain.NewError(domain.KindForbidden, "only the order owner or an administrator may view tracking").WithOrder(order.ID)
	}
	if !order.HasActiveShipment() {
		return nil, domain.NewError(domain.KindNoActiveShipment, "order has no active shipment").WithOrder(order.ID)
	}

	return p.GetTracking(ctx, order.TrackingNumber)
}

// ApplyWebhook maps a carrier status push onto the matching order.
// Unknown shipments, exceptions and stale statuses are NoOps, not errors.
func (p *TrackingProjector) ApplyWebhook(ctx context.Context, payload WebhookPayload) (*WebhookOutcome, error) {
	if payload.CarrierShipmentID == "" && payload.TrackingReference == "" {
		return nil, domain.NewError(domain.KindValidation, "webhook carries no shipment identifier")
	}
	if payload.Status == "" {
		return nil, domain.NewError(domain.KindValidation, "webhook carries no status")
	}

	logger := p.logger.WithContext(ctx).WithFields(map[string]any{
		"carrierShipmentId": payload.CarrierShipmentID,
		"trackingReference": payload.TrackingReference,
		"carrierStatus":     payload.Status,
	})

	order, err := p.findOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	if order == nil {
		logger.Info("Webhook for unknown shipment ignored")
		return p.noop("", "", "unknown shipment"), nil
	}

	unlock, err := lockOrder(ctx, p.locker, order.ID, p.cfg.OrderLockWait())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock: a cancel or re-create may have run in between.
	order, err = loadOrder(ctx, p.orders, order.ID)
	if err != nil {
		return nil, err
	}
	if !matchesShipment(order, payload) {
		logger.Info("Webhook for inactive shipment ignored", "orderId", order.ID)
		return p.noop(order.ID, order.Status, "shipment no longer active"), nil
	}

	status := domain.NormalizeCarrierStatus(payload.Status)
	switch status {
	case domain.CarrierStatusException:
		logger.Warn("Carrier reported delivery exception", "orderId", order.ID, "message", payload.Message)
		return p.noop(order.ID, order.Status, "carrier exception logged"), nil
	case domain.CarrierStatusUnknown:
		logger.Warn("Unmapped carrier status ignored", "orderId", order.ID)
		return p.noop(order.ID, order.Status, "unmapped carrier status"), nil
	}

	now := p.now()
	var applied domain.OrderStatus
	saved, changed, err := mutateOrder(ctx, p.orders, order, func(o *domain.Order) (bool, error) {
		if !matchesShipment(o, payload) {
			return false, nil
		}
		var ok bool
		applied, ok = o.ApplyCarrierStatus(status, now)
		return ok, nil
	})
	if err != nil {
		p.metrics.RecordWebhook("failed")
		return nil, err
	}
	if !changed {
		logger.Debug("Stale or duplicate carrier status ignored", "orderId", saved.ID, "orderStatus", saved.Status)
		return p.noop(saved.ID, saved.Status, "status would not advance the order"), nil
	}

	p.metrics.RecordWebhook(WebhookApplied)
	logger.Info("Order status advanced from carrier webhook", "orderId", saved.ID, "status", applied)
	return &WebhookOutcome{Result: WebhookApplied, OrderID: saved.ID, Status: applied}, nil
}

func (p *TrackingProjector) findOrder(ctx context.Context, payload WebhookPayload) (*domain.Order, error) {
	if payload.CarrierShipmentID != "" {
		order, err := p.orders.FindByCarrierShipmentID(ctx, payload.CarrierShipmentID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if payload.TrackingReference != "" {
		order, err := p.orders.FindByTrackingNumber(ctx, payload.TrackingReference)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (p *TrackingProjector) noop(orderID string, status domain.OrderStatus, reason string) *WebhookOutcome {
	p.metrics.RecordWebhook(WebhookNoOp)
	return &WebhookOutcome{Result: WebhookNoOp, OrderID: orderID, Status: status, Reason: reason}
}

func matchesShipment(order *domain.Order, payload WebhookPayload) bool {
	if !order.HasActiveShipment() {
		return false
	}
	if payload.CarrierShipmentID != "" && payload.CarrierShipmentID == order.CarrierShipmentID {
		return true
	}
	return payload.TrackingReference != "" && payload.TrackingReference == order.TrackingNumber
}
