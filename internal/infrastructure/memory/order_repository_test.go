package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

func seedOrder(t *testing.T, repo *OrderRepository) *domain.Order {
	t.Helper()
	order := &domain.Order{
		ID:     "ord-1",
		Status: domain.OrderStatusPending,
		Items:  []domain.LineItem{{SKU: "TEE-BLK-M", Quantity: 2, UnitPrice: 250}},
		Total:  500,
	}
	require.NoError(t, repo.Insert(context.Background(), order))
	return order
}

func TestOrderRepository_UpdateBumpsVersionAndKeepsEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	seedOrder(t, repo)

	order, err := repo.FindByID(ctx, "ord-1")
	require.NoError(t, err)

	order.RecordShipment(domain.CarrierShipment{CarrierShipmentID: "sl-1", TrackingReference: "TRK-1"},
		domain.PaidRate{Code: "ECO", Price: 99}, time.Now())
	require.NoError(t, repo.Update(ctx, order))

	assert.Equal(t, int64(1), order.Version)
	assert.Empty(t, order.GetDomainEvents())
	assert.Len(t, repo.Events(), 2)

	byTracking, err := repo.FindByTrackingNumber(ctx, "TRK-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", byTracking.ID)

	byCarrier, err := repo.FindByCarrierShipmentID(ctx, "sl-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCarrier.Version)
}

func TestOrderRepository_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	seedOrder(t, repo)

	first, _ := repo.FindByID(ctx, "ord-1")
	second, _ := repo.FindByID(ctx, "ord-1")

	first.Status = domain.OrderStatusProcessing
	require.NoError(t, repo.Update(ctx, first))

	second.Status = domain.OrderStatusShipped
	assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrVersionConflict)

	stored, _ := repo.FindByID(ctx, "ord-1")
	assert.Equal(t, domain.OrderStatusProcessing, stored.Status)
}

func TestOrderRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.FindByTrackingNumber(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Update(ctx, &domain.Order{ID: "missing"}), domain.ErrNotFound)
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	seedOrder(t, repo)

	order, _ := repo.FindByID(ctx, "ord-1")
	order.TrackingNumber = "MUTATED"

	again, _ := repo.FindByID(ctx, "ord-1")
	assert.Empty(t, again.TrackingNumber)
}
