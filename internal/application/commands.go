package application

import (
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

// GetRatesQuery is an ad-hoc rate request, typically from checkout.
type GetRatesQuery struct {
	Address       domain.Address
	Parcels       []domain.Parcel
	DeclaredValue float64
}

// CreateShipmentCommand books a carrier shipment for an order.
type CreateShipmentCommand struct {
	OrderID          string
	ServiceLevelCode string
	// Parcels is optional; estimated from line items when empty.
	Parcels []domain.Parcel
	// RequestedBy is recorded in the audit log.
	RequestedBy string
}

// CancelShipmentCommand cancels the active carrier shipment of an order.
type CancelShipmentCommand struct {
	OrderID     string
	RequestedBy string
}

// Requester identifies the caller for owner-or-admin checks.
type Requester struct {
	UserID  string
	IsAdmin bool
}

// GetTrackingForOrderQuery fetches tracking for an order on behalf of a requester.
type GetTrackingForOrderQuery struct {
	OrderID   string
	Requester Requester
}

// WebhookPayload is the carrier push notification after structural validation.
type WebhookPayload struct {
	CarrierShipmentID string
	TrackingReference string
	Status            string
	Timestamp         time.Time
	Message           string
}
