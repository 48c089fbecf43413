package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

// OrderRepository is an in-process domain.OrderRepository for local runs and tests.
// Domain events are kept in an in-memory outbox instead of being published.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	events []domain.DomainEvent
}

// NewOrderRepository creates an empty repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

// Insert stores a new order, as the order-management layer would at checkout.
func (r *OrderRepository) Insert(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

// FindByID returns a copy of the stored order
func (r *OrderRepository) FindByID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

// FindByCarrierShipmentID returns the order holding the given carrier shipment
func (r *OrderRepository) FindByCarrierShipmentID(_ context.Context, carrierShipmentID string) (*domain.Order, error) {
	return r.findFirst(func(o *domain.Order) bool {
		return carrierShipmentID != "" && o.CarrierShipmentID == carrierShipmentID
	})
}

// FindByTrackingNumber returns the order holding the given tracking number
func (r *OrderRepository) FindByTrackingNumber(_ context.Context, trackingNumber string) (*domain.Order, error) {
	return r.findFirst(func(o *domain.Order) bool {
		return trackingNumber != "" && o.TrackingNumber == trackingNumber
	})
}

func (r *OrderRepository) findFirst(match func(*domain.Order) bool) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if match(o) {
			return o.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update replaces the stored order if its version matches
func (r *OrderRepository) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != order.Version {
		return fmt.Errorf("order %s at version %d, stored %d: %w", order.ID, order.Version, stored.Version, domain.ErrVersionConflict)
	}

	order.Version++
	r.orders[order.ID] = order.Clone()
	r.events = append(r.events, order.GetDomainEvents()...)
	order.ClearDomainEvents()
	return nil
}

// Events returns the domain events recorded so far
func (r *OrderRepository) Events() []domain.DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.DomainEvent(nil), r.events...)
}
