package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event types published to the shipping topic.
const (
	EventTypeShipmentCreated    = "shipping.shipment.created"
	EventTypeShipmentCancelled  = "shipping.shipment.cancelled"
	EventTypeOrderStatusChanged = "shipping.order.status-changed"
)

// ShipmentCreatedEvent is raised when a carrier shipment is recorded on an order
type ShipmentCreatedEvent struct {
	OrderID           string    `json:"orderId"`
	TrackingNumber    string    `json:"trackingNumber"`
	CarrierShipmentID string    `json:"carrierShipmentId"`
	CarrierName       string    `json:"carrierName"`
	ServiceLevelCode  string    `json:"serviceLevelCode"`
	ShippingCost      float64   `json:"shippingCost"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (e *ShipmentCreatedEvent) EventType() string     { return EventTypeShipmentCreated }
func (e *ShipmentCreatedEvent) AggregateID() string   { return e.OrderID }
func (e *ShipmentCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ShipmentCancelledEvent is raised when the carrier confirms a cancellation
type ShipmentCancelledEvent struct {
	OrderID           string    `json:"orderId"`
	TrackingNumber    string    `json:"trackingNumber"`
	CarrierShipmentID string    `json:"carrierShipmentId"`
	CancelledAt       time.Time `json:"cancelledAt"`
}

func (e *ShipmentCancelledEvent) EventType() string     { return EventTypeShipmentCancelled }
func (e *ShipmentCancelledEvent) AggregateID() string   { return e.OrderID }
func (e *ShipmentCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// OrderStatusChangedEvent is raised whenever the shipping core moves an order's status
type OrderStatusChangedEvent struct {
	OrderID        string      `json:"orderId"`
	FromStatus     OrderStatus `json:"fromStatus"`
	ToStatus       OrderStatus `json:"toStatus"`
	Source         string      `json:"source"`
	CarrierStatus  string      `json:"carrierStatus,omitempty"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	ChangedAt      time.Time   `json:"changedAt"`
}

func (e *OrderStatusChangedEvent) EventType() string     { return EventTypeOrderStatusChanged }
func (e *OrderStatusChangedEvent) AggregateID() string   { return e.OrderID }
func (e *OrderStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }
