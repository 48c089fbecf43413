package application

import "github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"

func toShipmentResult(order *domain.Order, source string, parcels []domain.Parcel) *ShipmentResult {
	result := &ShipmentResult{
		OrderID:           order.ID,
		TrackingNumber:    order.TrackingNumber,
		CarrierShipmentID: order.CarrierShipmentID,
		CarrierName:       order.CarrierName,
		ServiceLevelCode:  order.ServiceLevelCode,
		ServiceLevelName:  order.ServiceLevelName,
		FreeShipping:      order.FreeShipping,
		RateSource:        source,
		Status:            order.Status,
		Parcels:           parcels,
	}
	if order.ShippingCost != nil {
		result.ShippingCost = *order.ShippingCost
	}
	return result
}

func toTrackingState(raw *domain.CarrierTracking, reference string) *domain.TrackingState {
	events := domain.SortEvents(raw.Events)

	status := domain.NormalizeCarrierStatus(raw.Status)
	if status == domain.CarrierStatusUnknown && len(events) > 0 {
		status = domain.NormalizeCarrierStatus(events[len(events)-1].RawStatus)
	}

	state := &domain.TrackingState{
		TrackingReference: reference,
		Status:            status,
		StatusDescription: describe(events, status),
		Events:            events,
	}
	if raw.TrackingReference != "" {
		state.TrackingReference = raw.TrackingReference
	}
	if status == domain.CarrierStatusDelivered && raw.ProofOfDelivery != nil {
		pod := *raw.ProofOfDelivery
		state.ProofOfDelivery = &pod
	}
	return state
}

func describe(events []domain.TrackingEvent, status domain.CarrierStatus) string {
	if len(events) > 0 {
		latest := events[len(events)-1]
		if latest.Message != "" {
			return latest.Message
		}
		if latest.RawStatus != "" {
			return latest.RawStatus
		}
	}
	if status == domain.CarrierStatusUnknown {
		return "No tracking updates yet"
	}
	return string(status)
}
