package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestOrder_Decision(t *testing.T) {
	tests := []struct {
		name     string
		order    Order
		expected ShippingDecision
	}{
		{"nothing selected", Order{}, NoSelection{}},
		{"free", Order{ServiceLevelCode: "ECO", ServiceLevelName: "Economy", FreeShipping: true}, FreeShipping{Code: "ECO", Name: "Economy"}},
		{"paid", Order{ServiceLevelCode: "ECO", ServiceLevelName: "Economy", ShippingCost: ptr(99.5)}, PaidRate{Code: "ECO", Name: "Economy", Price: 99.5}},
		{"code without price", Order{ServiceLevelCode: "ECO"}, NoSelection{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.order.Decision())
		})
	}
}

func TestOrder_RecordShipmentAdvancesPendingOnly(t *testing.T) {
	now := time.Now()
	shipment := CarrierShipment{CarrierShipmentID: "sl-1", TrackingReference: "TRK-1", CarrierName: "Ship Logic"}

	pending := &Order{ID: "ord-1", Status: OrderStatusPending}
	pending.RecordShipment(shipment, PaidRate{Code: "ECO", Name: "Economy", Price: 120}, now)

	assert.Equal(t, OrderStatusProcessing, pending.Status)
	assert.Equal(t, "TRK-1", pending.TrackingNumber)
	assert.Equal(t, "sl-1", pending.CarrierShipmentID)
	require.NotNil(t, pending.ShippingCost)
	assert.Equal(t, 120.0, *pending.ShippingCost)
	assert.Len(t, pending.GetDomainEvents(), 2)

	shipped := &Order{ID: "ord-2", Status: OrderStatusShipped}
	shipped.RecordShipment(shipment, FreeShipping{Code: "ECO"}, now)
	assert.Equal(t, OrderStatusShipped, shipped.Status)
	assert.True(t, shipped.FreeShipping)
	assert.Equal(t, 0.0, *shipped.ShippingCost)
	assert.Len(t, shipped.GetDomainEvents(), 1)
}

func TestOrder_ClearShipmentClearsAllCarrierFields(t *testing.T) {
	o := &Order{ID: "ord-1", Status: OrderStatusProcessing, TrackingNumber: "TRK-1", CarrierShipmentID: "sl-1", ShippingCost: ptr(80)}

	o.ClearShipment(time.Now())

	assert.Empty(t, o.TrackingNumber)
	assert.Empty(t, o.CarrierShipmentID)
	assert.Nil(t, o.ShippingCost)
	assert.False(t, o.HasActiveShipment())
	require.Len(t, o.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeShipmentCancelled, o.GetDomainEvents()[0].EventType())
}

func TestOrder_CheckCanCreateShipment(t *testing.T) {
	assert.NoError(t, (&Order{Status: OrderStatusPending}).CheckCanCreateShipment())
	assert.ErrorIs(t, (&Order{Status: OrderStatusProcessing, TrackingNumber: "TRK"}).CheckCanCreateShipment(), ErrShipmentAlreadyExists)
	assert.ErrorIs(t, (&Order{Status: OrderStatusDelivered}).CheckCanCreateShipment(), ErrInvalidOrder)
	assert.ErrorIs(t, (&Order{Status: OrderStatusCancelled}).CheckCanCreateShipment(), ErrInvalidOrder)
}

func TestOrder_CheckCanCancelShipment(t *testing.T) {
	assert.NoError(t, (&Order{Status: OrderStatusProcessing, TrackingNumber: "TRK"}).CheckCanCancelShipment())
	assert.NoError(t, (&Order{Status: OrderStatusShipped, TrackingNumber: "TRK"}).CheckCanCancelShipment())
	assert.ErrorIs(t, (&Order{Status: OrderStatusProcessing}).CheckCanCancelShipment(), ErrNoActiveShipment)
	assert.ErrorIs(t, (&Order{Status: OrderStatusDelivered, TrackingNumber: "TRK"}).CheckCanCancelShipment(), ErrInvalidOrder)
	assert.ErrorIs(t, (&Order{Status: OrderStatusCancelled, TrackingNumber: "TRK"}).CheckCanCancelShipment(), ErrInvalidOrder)
}

func TestOrder_ApplyCarrierStatusNeverRegresses(t *testing.T) {
	now := time.Now()
	o := &Order{ID: "ord-1", Status: OrderStatusProcessing}

	status, applied := o.ApplyCarrierStatus(CarrierStatusInTransit, now)
	assert.True(t, applied)
	assert.Equal(t, OrderStatusShipped, status)

	_, applied = o.ApplyCarrierStatus(CarrierStatusCollected, now)
	assert.False(t, applied, "same rank is a no-op")

	status, applied = o.ApplyCarrierStatus(CarrierStatusDelivered, now)
	assert.True(t, applied)
	assert.Equal(t, OrderStatusDelivered, status)

	status, applied = o.ApplyCarrierStatus(CarrierStatusInTransit, now)
	assert.False(t, applied)
	assert.Equal(t, OrderStatusDelivered, status)

	_, applied = o.ApplyCarrierStatus(CarrierStatusException, now)
	assert.False(t, applied)
}

func TestOrderStatus_CanAdvanceTo(t *testing.T) {
	assert.True(t, OrderStatusPending.CanAdvanceTo(OrderStatusProcessing))
	assert.True(t, OrderStatusPending.CanAdvanceTo(OrderStatusDelivered))
	assert.False(t, OrderStatusShipped.CanAdvanceTo(OrderStatusProcessing))
	assert.False(t, OrderStatusCancelled.CanAdvanceTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanAdvanceTo(OrderStatusDelivered))
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	o := &Order{ID: "ord-1", Items: []LineItem{{SKU: "A", Quantity: 1}}, ShippingCost: ptr(10)}
	c := o.Clone()
	*c.ShippingCost = 20
	c.Items[0].Quantity = 5

	assert.Equal(t, 10.0, *o.ShippingCost)
	assert.Equal(t, 1, o.Items[0].Quantity)
}

func TestShippingConfig_LockOutlastsCriticalSection(t *testing.T) {
	cfg := DefaultShippingConfig()
	assert.Equal(t, 40*time.Second, cfg.CriticalSection())
	assert.Greater(t, cfg.OrderLockWait(), cfg.CriticalSection())
	assert.Greater(t, cfg.OrderLockTTL(), cfg.CriticalSection())

	cfg.LockWait = 5 * time.Second
	cfg.LockTTL = 5 * time.Second
	assert.Greater(t, cfg.OrderLockWait(), cfg.CriticalSection())
	assert.Greater(t, cfg.OrderLockTTL(), cfg.CriticalSection())

	cfg.LockWait = 2 * time.Minute
	assert.Equal(t, 2*time.Minute, cfg.OrderLockWait())
}
