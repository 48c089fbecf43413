package domain

import "context"

// OrderRepository persists the shipping view of orders.
//
// Update must be atomic and conditional on the order's Version: it fails with
// ErrVersionConflict when the stored version differs, otherwise it writes the
// shipping fields, increments Version on the passed order and records the
// pending domain events in the same unit of work.
type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (*Order, error)
	FindByCarrierShipmentID(ctx context.Context, carrierShipmentID string) (*Order, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}

// OrderLocker serializes shipping mutations per order.
type OrderLocker interface {
	// Lock blocks until the order lock is held or ctx is done. The returned
	// function releases it.
	Lock(ctx context.Context, orderID string) (unlock func(), err error)
}
