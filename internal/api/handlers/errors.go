package handlers

import (
	"net/http"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/errors"
)

type errorMapping struct {
	code   string
	status int
}

var kindMappings = map[domain.ErrorKind]errorMapping{
	domain.KindValidation:                       {errors.CodeValidationError, http.StatusBadRequest},
	domain.KindInvalidOrder:                     {"INVALID_ORDER", http.StatusBadRequest},
	domain.KindServiceLevelRequired:             {"SERVICE_LEVEL_REQUIRED", http.StatusBadRequest},
	domain.KindOrderNotFound:                    {"ORDER_NOT_FOUND", http.StatusNotFound},
	domain.KindServiceLevelNotFound:             {"SERVICE_LEVEL_NOT_FOUND", http.StatusUnprocessableEntity},
	domain.KindShipmentAlreadyExists:            {"SHIPMENT_ALREADY_EXISTS", http.StatusConflict},
	domain.KindNoActiveShipment:                 {"NO_ACTIVE_SHIPMENT", http.StatusConflict},
	domain.KindLabelNotAvailable:                {"LABEL_NOT_AVAILABLE", http.StatusNotFound},
	domain.KindCancellationRejected:             {"CANCELLATION_REJECTED", http.StatusConflict},
	domain.KindRateQuoteFailed:                  {"RATE_QUOTE_FAILED", http.StatusBadGateway},
	domain.KindTrackingUnavailable:              {"TRACKING_UNAVAILABLE", http.StatusBadGateway},
	domain.KindCarrierRequestFailed:             {"CARRIER_REQUEST_FAILED", http.StatusBadGateway},
	domain.KindCarrierOutcomeUnknown:            {"CARRIER_OUTCOME_UNKNOWN", http.StatusGatewayTimeout},
	domain.KindShipmentCreatedButNotPersisted:   {"SHIPMENT_NOT_PERSISTED", http.StatusInternalServerError},
	domain.KindShipmentCancelledButNotPersisted: {"CANCELLATION_NOT_PERSISTED", http.StatusInternalServerError},
	domain.KindConcurrentModification:           {errors.CodeConflict, http.StatusConflict},
	domain.KindForbidden:                        {errors.CodeForbidden, http.StatusForbidden},
}

// ToAppError maps shipping error kinds onto HTTP errors. Anything else is
// passed to errors.FromError.
func ToAppError(err error) *errors.AppError {
	se, ok := domain.AsShippingError(err)
	if !ok {
		return errors.FromError(err)
	}

	mapping, known := kindMappings[se.Kind]
	if !known {
		return errors.ErrInternal("").Wrap(err)
	}

	message := se.Message
	if message == "" {
		message = string(se.Kind)
	}
	return errors.NewAppError(mapping.code, message, mapping.status).
		Wrap(err).
		WithDetail("orderId", se.OrderID).
		WithDetail("reason", se.Reason).
		WithDetail("carrierShipmentId", se.CarrierShipmentID).
		WithDetail("trackingNumber", se.TrackingNumber)
}
