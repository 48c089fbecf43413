package application

import (
	"context"
	"errors"
	"time"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

// orderChange mutates an order in place and reports whether anything changed.
type orderChange func(order *domain.Order) (bool, error)

// mutateOrder applies change and persists it. On a version conflict the order
// is reloaded and the change re-applied exactly once; a second conflict is
// surfaced as ConcurrentModification.
func mutateOrder(ctx context.Context, orders domain.OrderRepository, order *domain.Order, change orderChange) (*domain.Order, bool, error) {
	changed, err := change(order)
	if err != nil || !changed {
		return order, false, err
	}

	err = orders.Update(ctx, order)
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, domain.ErrVersionConflict) {
		return nil, false, err
	}

	fresh, err := loadOrder(ctx, orders, order.ID)
	if err != nil {
		return nil, false, err
	}
	changed, err = change(fresh)
	if err != nil || !changed {
		return fresh, false, err
	}
	if err := orders.Update(ctx, fresh); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, false, domain.WrapError(domain.KindConcurrentModification, err,
				"order %s was modified concurrently", order.ID).WithOrder(order.ID)
		}
		return nil, false, err
	}
	return fresh, true, nil
}

// lockOrder takes the per-order lock, waiting at most wait.
func lockOrder(ctx context.Context, locker domain.OrderLocker, orderID string, wait time.Duration) (func(), error) {
	lockCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	unlock, err := locker.Lock(lockCtx, orderID)
	if err != nil {
		return nil, domain.WrapError(domain.KindConcurrentModification, err,
			"order %s is busy with another shipping operation", orderID).WithOrder(orderID)
	}
	return unlock, nil
}
