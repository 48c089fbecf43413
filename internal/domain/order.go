package domain

import (
	"time"
)

// OrderStatus is the lifecycle status of a store order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanAdvanceTo reports whether moving to target is a forward move.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[target]
	return ok && to > from
}

// LineItem is a product line on the order.
type LineItem struct {
	SKU         string  `bson:"sku" json:"sku"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unitPrice" json:"unitPrice"`
}

// Order is the aggregate the shipping core reads and mutates.
// TrackingNumber is non-empty exactly while a carrier shipment is active.
type Order struct {
	ID              string      `bson:"_id"`
	CustomerID      string      `bson:"customerId"`
	Status          OrderStatus `bson:"status"`
	ShippingAddress Address     `bson:"shippingAddress"`
	Items           []LineItem  `bson:"items"`
	Total           float64     `bson:"total"`

	ServiceLevelCode  string   `bson:"serviceLevelCode,omitempty"`
	ServiceLevelName  string   `bson:"serviceLevelName,omitempty"`
	FreeShipping      bool     `bson:"freeShipping"`
	ShippingCost      *float64 `bson:"shippingCost"`
	TrackingNumber    string   `bson:"trackingNumber,omitempty"`
	CarrierShipmentID string   `bson:"carrierShipmentId,omitempty"`
	CarrierName       string   `bson:"carrierName,omitempty"`

	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-"`
}

// TotalUnits sums line quantities, rejecting empty orders and non-positive quantities.
func (o *Order) TotalUnits() (int, error) {
	if len(o.Items) == 0 {
		return 0, NewError(KindInvalidOrder, "order has no line items").WithOrder(o.ID)
	}
	total := 0
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return 0, NewError(KindInvalidOrder, "line item %s has non-positive quantity %d", item.SKU, item.Quantity).WithOrder(o.ID)
		}
		total += item.Quantity
	}
	return total, nil
}

// HasActiveShipment reports whether a carrier shipment exists for the order.
func (o *Order) HasActiveShipment() bool {
	return o.TrackingNumber != ""
}

// Decision returns the checkout-time selection as a ShippingDecision.
// A code without a known price, and without the free flag, is NoSelection.
func (o *Order) Decision() ShippingDecision {
	switch {
	case o.ServiceLevelCode == "":
		return NoSelection{}
	case o.FreeShipping:
		return FreeShipping{Code: o.ServiceLevelCode, Name: o.ServiceLevelName}
	case o.ShippingCost != nil:
		return PaidRate{Code: o.ServiceLevelCode, Name: o.ServiceLevelName, Price: *o.ShippingCost}
	default:
		return NoSelection{}
	}
}

// CheckCanCreateShipment enforces the preconditions for a new carrier shipment.
func (o *Order) CheckCanCreateShipment() error {
	if o.HasActiveShipment() {
		return &ShippingError{
			Kind:           KindShipmentAlreadyExists,
			Message:        "order already has an active shipment; cancel it first",
			OrderID:        o.ID,
			TrackingNumber: o.TrackingNumber,
		}
	}
	if o.Status.IsTerminal() {
		return NewError(KindInvalidOrder, "order is %s and cannot be shipped", o.Status).WithOrder(o.ID)
	}
	return nil
}

// CheckCanCancelShipment enforces the preconditions for cancelling the
// active carrier shipment. Delivered and cancelled orders keep their shipment.
func (o *Order) CheckCanCancelShipment() error {
	if !o.HasActiveShipment() {
		return NewError(KindNoActiveShipment, "order has no active shipment").WithOrder(o.ID)
	}
	if o.Status.IsTerminal() {
		err := NewError(KindInvalidOrder, "order is %s and its shipment can no longer be cancelled", o.Status).WithOrder(o.ID)
		err.CarrierShipmentID = o.CarrierShipmentID
		err.TrackingNumber = o.TrackingNumber
		return err
	}
	return nil
}

// RecordShipment stores the carrier identifiers and resolved price on the order.
func (o *Order) RecordShipment(shipment CarrierShipment, decision ShippingDecision, now time.Time) {
	cost := decision.Charge()
	code, name := decision.ServiceLevel()

	o.TrackingNumber = shipment.TrackingReference
	o.CarrierShipmentID = shipment.CarrierShipmentID
	o.CarrierName = shipment.CarrierName
	o.ShippingCost = &cost
	o.ServiceLevelCode = code
	o.ServiceLevelName = name
	_, o.FreeShipping = decision.(FreeShipping)

	previous := o.Status
	if o.Status == OrderStatusPending {
		o.Status = OrderStatusProcessing
	}
	o.UpdatedAt = now

	o.AddDomainEvent(&ShipmentCreatedEvent{
		OrderID:           o.ID,
		TrackingNumber:    shipment.TrackingReference,
		CarrierShipmentID: shipment.CarrierShipmentID,
		CarrierName:       shipment.CarrierName,
		ServiceLevelCode:  code,
		ShippingCost:      cost,
		CreatedAt:         now,
	})
	if previous != o.Status {
		o.AddDomainEvent(&OrderStatusChangedEvent{
			OrderID:    o.ID,
			FromStatus: previous,
			ToStatus:   o.Status,
			Source:     "shipment-created",
			ChangedAt:  now,
		})
	}
}

// ClearShipment removes the carrier identifiers and shipping cost together.
func (o *Order) ClearShipment(now time.Time) {
	event := &ShipmentCancelledEvent{
		OrderID:           o.ID,
		TrackingNumber:    o.TrackingNumber,
		CarrierShipmentID: o.CarrierShipmentID,
		CancelledAt:       now,
	}

	o.TrackingNumber = ""
	o.CarrierShipmentID = ""
	o.ShippingCost = nil
	o.UpdatedAt = now

	o.AddDomainEvent(event)
}

// ApplyCarrierStatus advances the order according to a carrier status.
// It returns the new status and true only when the order actually moved.
func (o *Order) ApplyCarrierStatus(status CarrierStatus, now time.Time) (OrderStatus, bool) {
	target, ok := status.OrderStatus()
	if !ok || !o.Status.CanAdvanceTo(target) {
		return o.Status, false
	}

	previous := o.Status
	o.Status = target
	o.UpdatedAt = now
	o.AddDomainEvent(&OrderStatusChangedEvent{
		OrderID:        o.ID,
		FromStatus:     previous,
		ToStatus:       target,
		Source:         "carrier-webhook",
		CarrierStatus:  string(status),
		TrackingNumber: o.TrackingNumber,
		ChangedAt:      now,
	})
	return target, true
}

// AddDomainEvent adds a domain event
func (o *Order) AddDomainEvent(event DomainEvent) {
	o.DomainEvents = append(o.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (o *Order) ClearDomainEvents() {
	o.DomainEvents = nil
}

// GetDomainEvents returns all pending domain events
func (o *Order) GetDomainEvents() []DomainEvent {
	return o.DomainEvents
}

// Clone returns a deep copy without pending events.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	if o.ShippingCost != nil {
		cost := *o.ShippingCost
		c.ShippingCost = &cost
	}
	c.DomainEvents = nil
	return &c
}
