package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/outbox"
	sharedtesting "github.com/KyleYagher/Jits-Apparel-sub000/pkg/testing"
)

func entryAt(id, orderID string, created time.Time) *outbox.Entry {
	return &outbox.Entry{
		ID:          id,
		OrderID:     orderID,
		EventType:   "shipping.shipment.created",
		Topic:       "shop.shipping.events",
		Envelope:    []byte(`{"specversion":"1.0"}`),
		CreatedAt:   created,
		MaxAttempts: 2,
	}
}

func TestStore(t *testing.T) {
	store := NewStore(sharedtesting.StartMongo(t).Database("outbox_test"))
	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, []*outbox.Entry{
		entryAt("e2", "ord-1", base.Add(time.Minute)),
		entryAt("e1", "ord-1", base),
		entryAt("e3", "ord-2", base.Add(2*time.Minute)),
	}))
	require.NoError(t, store.Append(ctx, nil))

	pending, err := store.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e1", pending[0].ID)
	assert.Equal(t, "e2", pending[1].ID)

	require.NoError(t, store.MarkPublished(ctx, "e1", base.Add(time.Hour)))
	require.NoError(t, store.RecordFailure(ctx, "e2", "broker down"))
	require.NoError(t, store.RecordFailure(ctx, "e2", "broker down"))

	pending, err = store.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e3", pending[0].ID)

	forOrder, err := store.ForOrder(ctx, "ord-1")
	require.NoError(t, err)
	require.Len(t, forOrder, 2)
	assert.True(t, forOrder[0].Published())
	assert.Equal(t, 2, forOrder[1].Attempts)
	assert.Equal(t, "broker down", forOrder[1].LastError)

	assert.Error(t, store.MarkPublished(ctx, "missing", base))
}
