package domain

import (
	"context"
	"errors"
	"net"
	"time"
)

// CarrierGateway is the port to the carrier's REST API.
// Adapters translate between these types and the carrier's wire format.
type CarrierGateway interface {
	// Name is the carrier name persisted on the order.
	Name() string

	QuoteRates(ctx context.Context, req RateRequest) ([]RateQuote, error)
	CreateShipment(ctx context.Context, req ShipmentRequest) (*CarrierShipment, error)
	CancelShipment(ctx context.Context, trackingReference string) (*CancelOutcome, error)
	GetTracking(ctx context.Context, trackingReference string) (*CarrierTracking, error)
	GetLabelURL(ctx context.Context, carrierShipmentID string) (string, error)
}

// RateRequest asks the carrier for rates to a destination.
type RateRequest struct {
	Destination   Address
	Parcels       []Parcel
	DeclaredValue float64
}

// ShipmentRequest asks the carrier to book a shipment.
type ShipmentRequest struct {
	// Reference is the store's order id, echoed back by the carrier.
	Reference        string
	Destination      Address
	Parcels          []Parcel
	DeclaredValue    float64
	ServiceLevelCode string
}

// CarrierShipment identifies a booked shipment on the carrier side.
type CarrierShipment struct {
	CarrierShipmentID string
	TrackingReference string
	CarrierName       string
}

// CancelOutcome is the carrier's answer to a cancellation request.
type CancelOutcome struct {
	Cancelled bool
	Reason    string
}

// CarrierTracking is the carrier's raw tracking payload.
type CarrierTracking struct {
	TrackingReference string
	Status            string
	Events            []TrackingEvent
	ProofOfDelivery   *ProofOfDelivery
}

// CarrierError represents a failed carrier API call.
type CarrierError struct {
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Timeout    bool
	Err        error
}

func (e *CarrierError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CarrierError) Unwrap() error {
	return e.Err
}

// ErrLabelNotReady is returned by adapters when the carrier has not produced a label yet.
var ErrLabelNotReady = errors.New("carrier label not ready")

// IsCarrierTimeout reports whether err means the carrier call did not finish in time,
// so its outcome on the carrier side is unknown.
func IsCarrierTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ce *CarrierError
	if errors.As(err, &ce) && ce.Timeout {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// WithCarrierTimeout bounds a carrier call.
func WithCarrierTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
