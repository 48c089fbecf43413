package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// Activity names as registered on the worker. They match the method names.
const (
	CreateShipmentActivity = "CreateShipment"
	FetchLabelActivity     = "FetchLabel"
)

// ShipmentService is the part of the orchestrator the activities drive.
type ShipmentService interface {
	CreateShipment(ctx context.Context, cmd application.CreateShipmentCommand) (*application.ShipmentResult, error)
	GetLabelURLForOrder(ctx context.Context, orderID string) (*application.LabelResult, error)
}

// CreateShipmentInput is the activity payload for CreateShipment
type CreateShipmentInput struct {
	OrderID          string          `json:"orderId"`
	ServiceLevelCode string          `json:"serviceLevelCode"`
	Parcels          []domain.Parcel `json:"parcels,omitempty"`
	RequestedBy      string          `json:"requestedBy"`
}

// ErrorDetails travels with application errors so workflow callers can reconcile.
type ErrorDetails struct {
	OrderID           string `json:"orderId,omitempty"`
	CarrierShipmentID string `json:"carrierShipmentId,omitempty"`
	TrackingNumber    string `json:"trackingNumber,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// ShippingActivities contains the activities for the shipment workflow
type ShippingActivities struct {
	shipments ShipmentService
	logger    *logging.Logger
}

// NewShippingActivities creates a new ShippingActivities instance
func NewShippingActivities(shipments ShipmentService, logger *logging.Logger) *ShippingActivities {
	return &ShippingActivities{
		shipments: shipments,
		logger:    logger.WithComponent("shipping-activities"),
	}
}

// CreateShipment books the carrier shipment for an order. Failures are
// reported as application errors typed by their ErrorKind.
func (a *ShippingActivities) CreateShipment(ctx context.Context, input CreateShipmentInput) (*application.ShipmentResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating shipment", "orderId", input.OrderID, "serviceLevel", input.ServiceLevelCode)

	result, err := a.shipments.CreateShipment(ctx, application.CreateShipmentCommand{
		OrderID:          input.OrderID,
		ServiceLevelCode: input.ServiceLevelCode,
		Parcels:          input.Parcels,
		RequestedBy:      input.RequestedBy,
	})
	if err != nil {
		logger.Error("Shipment creation failed", "orderId", input.OrderID, "kind", string(domain.KindOf(err)), "error", err)
		return nil, toApplicationError(err)
	}

	a.logger.WithOrder(input.OrderID).Info("Shipment created by workflow",
		"trackingNumber", result.TrackingNumber,
		"carrierShipmentId", result.CarrierShipmentID,
		"requestedBy", input.RequestedBy,
	)
	return result, nil
}

// FetchLabel returns the label URL for the order's active shipment.
func (a *ShippingActivities) FetchLabel(ctx context.Context, orderID string) (*application.LabelResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Fetching label", "orderId", orderID)

	label, err := a.shipments.GetLabelURLForOrder(ctx, orderID)
	if err != nil {
		logger.Warn("Label fetch failed", "orderId", orderID, "error", err)
		return nil, toApplicationError(err)
	}
	return label, nil
}

// Kinds a later attempt can plausibly fix.
var retryableKinds = map[domain.ErrorKind]bool{
	domain.KindLabelNotAvailable:      true,
	domain.KindRateQuoteFailed:        true,
	domain.KindCarrierRequestFailed:   true,
	domain.KindTrackingUnavailable:    true,
	domain.KindConcurrentModification: true,
}

func toApplicationError(err error) error {
	se, ok := domain.AsShippingError(err)
	if !ok {
		return err
	}

	details := ErrorDetails{
		OrderID:           se.OrderID,
		CarrierShipmentID: se.CarrierShipmentID,
		TrackingNumber:    se.TrackingNumber,
		Reason:            se.Reason,
	}
	if retryableKinds[se.Kind] {
		return temporal.NewApplicationErrorWithCause(se.Error(), string(se.Kind), err, details)
	}
	return temporal.NewNonRetryableApplicationError(se.Error(), string(se.Kind), err, details)
}
