package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC)
}

func shippedOrder(t *testing.T, h *harness, id string) *ShipmentResult {
	t.Helper()
	h.seed(t, withStoredRate(newTestOrder(id, 450), "ECO", "Economy", 85))
	result, err := h.orchestrator.CreateShipment(context.Background(), CreateShipmentCommand{OrderID: id, ServiceLevelCode: "ECO"})
	require.NoError(t, err)
	return result
}

func TestGetTracking_SortsEventsAndDescribesLatest(t *testing.T) {
	h := newHarness(t)
	h.carrier.tracking = &domain.CarrierTracking{
		Events: []domain.TrackingEvent{
			{Timestamp: at(14), RawStatus: "out-for-delivery", Message: "With courier"},
			{Timestamp: at(8), RawStatus: "collected", Message: "Parcel collected"},
			{Timestamp: at(11), RawStatus: "in-transit", Message: "At Cape Town hub"},
		},
		ProofOfDelivery: &domain.ProofOfDelivery{Method: "signature", RecipientName: "T. Nkosi"},
	}

	state, err := h.projector.GetTracking(context.Background(), "TRK0001")
	require.NoError(t, err)

	require.Len(t, state.Events, 3)
	assert.Equal(t, at(8), state.Events[0].Timestamp)
	assert.Equal(t, at(14), state.Events[2].Timestamp)
	assert.Equal(t, domain.CarrierStatusOutForDelivery, state.Status)
	assert.Equal(t, "With courier", state.StatusDescription)
	assert.Equal(t, "TRK0001", state.TrackingReference)
	assert.Nil(t, state.ProofOfDelivery, "proof of delivery only accompanies delivered shipments")
}

func TestGetTracking_DeliveredCarriesProofOfDelivery(t *testing.T) {
	h := newHarness(t)
	deliveredAt := at(16)
	h.carrier.tracking = &domain.CarrierTracking{
		Status: "Delivered",
		Events: []domain.TrackingEvent{
			{Timestamp: at(16), RawStatus: "delivered", Message: "Delivered to recipient"},
		},
		ProofOfDelivery: &domain.ProofOfDelivery{Method: "signature", RecipientName: "T. Nkosi", DeliveredAt: &deliveredAt},
	}

	state, err := h.projector.GetTracking(context.Background(), "TRK0001")
	require.NoError(t, err)

	assert.Equal(t, domain.CarrierStatusDelivered, state.Status)
	require.NotNil(t, state.ProofOfDelivery)
	assert.Equal(t, "T. Nkosi", state.ProofOfDelivery.RecipientName)
}

func TestGetTracking_NoEventsYet(t *testing.T) {
	h := newHarness(t)
	h.carrier.tracking = &domain.CarrierTracking{}

	state, err := h.projector.GetTracking(context.Background(), "TRK0001")
	require.NoError(t, err)

	assert.Empty(t, state.Events)
	assert.Equal(t, domain.CarrierStatusUnknown, state.Status)
	assert.Equal(t, "No tracking updates yet", state.StatusDescription)
}

func TestGetTracking_CarrierFailure(t *testing.T) {
	h := newHarness(t)
	h.carrier.trackingErr = errors.New("upstream 503")

	_, err := h.projector.GetTracking(context.Background(), "TRK0001")
	assert.ErrorIs(t, err, domain.ErrTrackingUnavailable)
}

func TestGetTrackingForOrder_Authorization(t *testing.T) {
	h := newHarness(t)
	shippedOrder(t, h, "ord-1")
	h.carrier.tracking = &domain.CarrierTracking{Status: "in-transit"}
	ctx := context.Background()

	tests := []struct {
		name      string
		requester Requester
		wantErr   error
	}{
		{name: "owner", requester: Requester{UserID: "cust-1"}},
		{name: "admin", requester: Requester{UserID: "ops-7", IsAdmin: true}},
		{name: "other customer", requester: Requester{UserID: "cust-2"}, wantErr: domain.ErrForbidden},
		{name: "anonymous", requester: Requester{}, wantErr: domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := h.projector.GetTrackingForOrder(ctx, GetTrackingForOrderQuery{OrderID: "ord-1", Requester: tt.requester})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.CarrierStatusInTransit, state.Status)
		})
	}
}

func TestGetTrackingForOrder_WithoutShipment(t *testing.T) {
	h := newHarness(t)
	h.seed(t, newTestOrder("ord-1", 450))

	_, err := h.projector.GetTrackingForOrder(context.Background(), GetTrackingForOrderQuery{
		OrderID:   "ord-1",
		Requester: Requester{UserID: "cust-1"},
	})
	assert.ErrorIs(t, err, domain.ErrNoActiveShipment)
}

func TestApplyWebhook_StatusOnlyMovesForward(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")
	ctx := context.Background()

	outcome, err := h.projector.ApplyWebhook(ctx, WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "in-transit"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied())
	assert.Equal(t, domain.OrderStatusShipped, outcome.Status)

	outcome, err = h.projector.ApplyWebhook(ctx, WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "delivered"})
	require.NoError(t, err)
	assert.True(t, outcome.Applied())
	assert.Equal(t, domain.OrderStatusDelivered, h.load(t, "ord-1").Status)

	outcome, err = h.projector.ApplyWebhook(ctx, WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "in-transit"})
	require.NoError(t, err)
	assert.Equal(t, WebhookNoOp, outcome.Result)
	assert.Equal(t, domain.OrderStatusDelivered, h.load(t, "ord-1").Status)
}

func TestApplyWebhook_DuplicateDeliveredIsNoOp(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")
	ctx := context.Background()
	payload := WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "delivered"}

	first, err := h.projector.ApplyWebhook(ctx, payload)
	require.NoError(t, err)
	version := h.load(t, "ord-1").Version

	second, err := h.projector.ApplyWebhook(ctx, payload)
	require.NoError(t, err)

	assert.True(t, first.Applied())
	assert.False(t, second.Applied())
	assert.Equal(t, version, h.load(t, "ord-1").Version)
}

func TestApplyWebhook_MatchesByTrackingReference(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")

	outcome, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{
		TrackingReference: created.TrackingNumber,
		Status:            "Out For Delivery",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Applied())
	assert.Equal(t, "ord-1", outcome.OrderID)
	assert.Equal(t, domain.OrderStatusShipped, h.load(t, "ord-1").Status)
}

func TestApplyWebhook_UnknownShipment(t *testing.T) {
	h := newHarness(t)
	shippedOrder(t, h, "ord-1")

	outcome, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{CarrierShipmentID: "sl-999", Status: "delivered"})
	require.NoError(t, err)

	assert.Equal(t, WebhookNoOp, outcome.Result)
	assert.Equal(t, "unknown shipment", outcome.Reason)
	assert.Equal(t, domain.OrderStatusProcessing, h.load(t, "ord-1").Status)
}

func TestApplyWebhook_ExceptionDoesNotChangeStatus(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")

	outcome, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{
		CarrierShipmentID: created.CarrierShipmentID,
		Status:            "exception",
		Message:           "Recipient not available",
	})
	require.NoError(t, err)

	assert.Equal(t, WebhookNoOp, outcome.Result)
	assert.Equal(t, domain.OrderStatusProcessing, h.load(t, "ord-1").Status)
}

func TestApplyWebhook_UnmappedStatus(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")

	outcome, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "lost-in-space"})
	require.NoError(t, err)
	assert.Equal(t, WebhookNoOp, outcome.Result)
}

func TestApplyWebhook_AfterCancellationIsIgnored(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")
	ctx := context.Background()

	_, err := h.orchestrator.CancelShipment(ctx, CancelShipmentCommand{OrderID: "ord-1"})
	require.NoError(t, err)

	outcome, err := h.projector.ApplyWebhook(ctx, WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "delivered"})
	require.NoError(t, err)

	assert.Equal(t, WebhookNoOp, outcome.Result)
	assert.NotEqual(t, domain.OrderStatusDelivered, h.load(t, "ord-1").Status)
}

func TestApplyWebhook_RequiresIdentifierAndStatus(t *testing.T) {
	h := newHarness(t)

	_, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{Status: "delivered"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.projector.ApplyWebhook(context.Background(), WebhookPayload{CarrierShipmentID: "sl-1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyWebhook_ConcurrentDeliveriesApplyOnce(t *testing.T) {
	h := newHarness(t)
	created := shippedOrder(t, h, "ord-1")

	const senders = 5
	outcomes := make([]*WebhookOutcome, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.projector.ApplyWebhook(context.Background(), WebhookPayload{CarrierShipmentID: created.CarrierShipmentID, Status: "delivered"})
			if assert.NoError(t, err) {
				outcomes[i] = out
			}
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, out := range outcomes {
		if out != nil && out.Applied() {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	assert.Equal(t, domain.OrderStatusDelivered, h.load(t, "ord-1").Status)
}
