package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCarrierStatus(t *testing.T) {
	tests := map[string]CarrierStatus{
		"delivered":             CarrierStatusDelivered,
		"Delivered":             CarrierStatusDelivered,
		"in_transit":            CarrierStatusInTransit,
		"In Transit":            CarrierStatusInTransit,
		"at-destination-hub":    CarrierStatusInTransit,
		"out-for-delivery":      CarrierStatusOutForDelivery,
		"collected":             CarrierStatusCollected,
		"submitted":             CarrierStatusCreated,
		"delivery-unsuccessful": CarrierStatusException,
		"exception":             CarrierStatusException,
		"teleported":            CarrierStatusUnknown,
		"":                      CarrierStatusUnknown,
	}

	for raw, expected := range tests {
		assert.Equal(t, expected, NormalizeCarrierStatus(raw), "raw=%q", raw)
	}
}

func TestCarrierStatus_OrderStatusTable(t *testing.T) {
	status, ok := CarrierStatusDelivered.OrderStatus()
	assert.True(t, ok)
	assert.Equal(t, OrderStatusDelivered, status)

	_, ok = CarrierStatusException.OrderStatus()
	assert.False(t, ok, "exceptions must not move the order")

	_, ok = CarrierStatusUnknown.OrderStatus()
	assert.False(t, ok)
}

func TestSortEventsIsAscendingAndStable(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	events := []TrackingEvent{
		{Timestamp: base.Add(2 * time.Hour), RawStatus: "delivered"},
		{Timestamp: base, RawStatus: "collected"},
		{Timestamp: base.Add(time.Hour), RawStatus: "in-transit", Message: "first"},
		{Timestamp: base.Add(time.Hour), RawStatus: "in-transit", Message: "second"},
	}

	sorted := SortEvents(events)

	assert.Equal(t, "collected", sorted[0].RawStatus)
	assert.Equal(t, "first", sorted[1].Message)
	assert.Equal(t, "second", sorted[2].Message)
	assert.Equal(t, "delivered", sorted[3].RawStatus)
	assert.Equal(t, "delivered", events[0].RawStatus, "input is not mutated")
}

func TestFreeShippingBoundary(t *testing.T) {
	assert.True(t, QualifiesForFreeShipping(1000, 1000))
	assert.Zero(t, AmountToFreeShipping(1000, 1000))

	assert.False(t, QualifiesForFreeShipping(999, 1000))
	assert.Equal(t, 1.0, AmountToFreeShipping(999, 1000))

	assert.False(t, QualifiesForFreeShipping(5000, 0), "disabled threshold")
	assert.Zero(t, AmountToFreeShipping(10, 0))
}

func TestShippingErrorMatchesByKind(t *testing.T) {
	err := NewError(KindShipmentAlreadyExists, "order %s", "ord-1").WithOrder("ord-1")

	assert.ErrorIs(t, err, ErrShipmentAlreadyExists)
	assert.NotErrorIs(t, err, ErrNoActiveShipment)
	assert.Equal(t, KindShipmentAlreadyExists, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
}
