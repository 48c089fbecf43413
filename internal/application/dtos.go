package application

import (
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

// Rate sources reported on ShipmentResult.
const (
	RateSourceStored   = "stored"
	RateSourceRequoted = "requoted"
)

// ShipmentResult is returned by a successful createShipment.
type ShipmentResult struct {
	OrderID           string             `json:"orderId"`
	TrackingNumber    string             `json:"trackingNumber"`
	CarrierShipmentID string             `json:"carrierShipmentId"`
	CarrierName       string             `json:"carrierName"`
	ServiceLevelCode  string             `json:"serviceLevelCode"`
	ServiceLevelName  string             `json:"serviceLevelName,omitempty"`
	ShippingCost      float64            `json:"shippingCost"`
	FreeShipping      bool               `json:"freeShipping"`
	RateSource        string             `json:"rateSource"`
	Status            domain.OrderStatus `json:"status"`
	Parcels           []domain.Parcel    `json:"parcels"`
}

// CancelResult is returned by a successful cancelShipment.
type CancelResult struct {
	OrderID                 string             `json:"orderId"`
	CancelledTrackingNumber string             `json:"cancelledTrackingNumber"`
	Status                  domain.OrderStatus `json:"status"`
	CancelledAt             time.Time          `json:"cancelledAt"`
}

// LabelResult carries the carrier label location.
type LabelResult struct {
	OrderID           string `json:"orderId,omitempty"`
	CarrierShipmentID string `json:"carrierShipmentId"`
	LabelURL          string `json:"labelUrl"`
}

// Webhook results.
const (
	WebhookApplied = "applied"
	WebhookNoOp    = "noop"
)

// WebhookOutcome reports what applyWebhook did.
type WebhookOutcome struct {
	Result  string             `json:"result"`
	OrderID string             `json:"orderId,omitempty"`
	Status  domain.OrderStatus `json:"status,omitempty"`
	Reason  string             `json:"reason,omitempty"`
}

// Applied reports whether the webhook changed the order.
func (w *WebhookOutcome) Applied() bool {
	return w.Result == WebhookApplied
}
