package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
)

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) GetAdHocRates(ctx context.Context, query application.GetRatesQuery) (*domain.ShippingRatesResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingRatesResult), args.Error(1)
}

func (m *MockRateService) GetRatesForOrder(ctx context.Context, orderID string) (*domain.ShippingRatesResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingRatesResult), args.Error(1)
}

type MockShipmentService struct {
	mock.Mock
}

func (m *MockShipmentService) CreateShipment(ctx context.Context, cmd application.CreateShipmentCommand) (*application.ShipmentResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ShipmentResult), args.Error(1)
}

func (m *MockShipmentService) CancelShipment(ctx context.Context, cmd application.CancelShipmentCommand) (*application.CancelResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CancelResult), args.Error(1)
}

func (m *MockShipmentService) GetLabelURLForOrder(ctx context.Context, orderID string) (*application.LabelResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.LabelResult), args.Error(1)
}

type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) GetTracking(ctx context.Context, trackingReference string) (*domain.TrackingState, error) {
	args := m.Called(ctx, trackingReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackingState), args.Error(1)
}

func (m *MockTrackingService) GetTrackingForOrder(ctx context.Context, query application.GetTrackingForOrderQuery) (*domain.TrackingState, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackingState), args.Error(1)
}

func (m *MockTrackingService) ApplyWebhook(ctx context.Context, payload application.WebhookPayload) (*application.WebhookOutcome, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.WebhookOutcome), args.Error(1)
}
