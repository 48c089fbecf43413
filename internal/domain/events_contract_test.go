package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/cloudevents"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/contracts/asyncapi"
)

// Every event the order aggregate raises must match api/asyncapi.yaml once wrapped for the outbox.
func TestOrderEvents_MatchAsyncAPIContract(t *testing.T) {
	validator, err := asyncapi.NewEventValidator("../../api/asyncapi.yaml")
	require.NoError(t, err)

	factory := cloudevents.NewEventFactory(cloudevents.SourceShipping)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	order := &domain.Order{ID: "ord-42", Status: domain.OrderStatusPending}
	order.RecordShipment(domain.CarrierShipment{
		CarrierShipmentID: "7001",
		TrackingReference: "TRK-7001",
		CarrierName:       "Ship Logic",
	}, domain.PaidRate{Code: "ECO", Name: "Economy", Price: 99.5}, now)
	order.ApplyCarrierStatus(domain.CarrierStatusInTransit, now.Add(time.Hour))
	order.ClearShipment(now.Add(2 * time.Hour))

	events := order.GetDomainEvents()
	seen := map[string]bool{}
	for _, e := range events {
		ce, err := factory.CreateOrderEvent(context.Background(), e.EventType(), e.AggregateID(), e)
		require.NoError(t, err)
		assert.NoError(t, validator.ValidateEvent(ce), e.EventType())
		seen[e.EventType()] = true
	}

	assert.ElementsMatch(t, validator.EventTypes(), keys(seen))
}

func TestFreeShipmentEvent_MatchesAsyncAPIContract(t *testing.T) {
	validator, err := asyncapi.NewEventValidator("../../api/asyncapi.yaml")
	require.NoError(t, err)

	order := &domain.Order{ID: "ord-43", Status: domain.OrderStatusProcessing}
	order.RecordShipment(domain.CarrierShipment{
		CarrierShipmentID: "7002",
		TrackingReference: "TRK-7002",
		CarrierName:       "Ship Logic",
	}, domain.FreeShipping{Code: "ECO", Name: "Economy"}, time.Now().UTC())

	events := order.GetDomainEvents()
	require.Len(t, events, 1)

	ce, err := cloudevents.NewEventFactory(cloudevents.SourceShipping).
		CreateOrderEvent(context.Background(), events[0].EventType(), "ord-43", events[0])
	require.NoError(t, err)
	assert.NoError(t, validator.ValidateEvent(ce))
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
