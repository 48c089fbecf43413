package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a shipping failure so callers can branch on semantics.
type ErrorKind string

const (
	KindInvalidOrder                     ErrorKind = "InvalidOrder"
	KindValidation                       ErrorKind = "Validation"
	KindOrderNotFound                    ErrorKind = "OrderNotFound"
	KindServiceLevelRequired             ErrorKind = "ServiceLevelRequired"
	KindServiceLevelNotFound             ErrorKind = "ServiceLevelNotFound"
	KindShipmentAlreadyExists            ErrorKind = "ShipmentAlreadyExists"
	KindNoActiveShipment                 ErrorKind = "NoActiveShipment"
	KindLabelNotAvailable                ErrorKind = "LabelNotAvailable"
	KindCancellationRejected             ErrorKind = "CancellationRejected"
	KindRateQuoteFailed                  ErrorKind = "RateQuoteFailed"
	KindTrackingUnavailable              ErrorKind = "TrackingUnavailable"
	KindCarrierRequestFailed             ErrorKind = "CarrierRequestFailed"
	KindCarrierOutcomeUnknown            ErrorKind = "CarrierOutcomeUnknown"
	KindShipmentCreatedButNotPersisted   ErrorKind = "ShipmentCreatedButNotPersisted"
	KindShipmentCancelledButNotPersisted ErrorKind = "ShipmentCancelledButNotPersisted"
	KindConcurrentModification           ErrorKind = "ConcurrentModification"
	KindForbidden                        ErrorKind = "Forbidden"
)

// ShippingError is the single error type surfaced by the shipping core.
// Kind is stable; the remaining fields carry whatever context the kind needs.
type ShippingError struct {
	Kind              ErrorKind
	Message           string
	OrderID           string
	Reason            string
	CarrierShipmentID string
	TrackingNumber    string
	Err               error
}

func (e *ShippingError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShippingError) Unwrap() error {
	return e.Err
}

// Is matches any ShippingError of the same kind, so the sentinels below work with errors.Is.
func (e *ShippingError) Is(target error) bool {
	var t *ShippingError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidOrder                     = &ShippingError{Kind: KindInvalidOrder}
	ErrValidation                       = &ShippingError{Kind: KindValidation}
	ErrOrderNotFound                    = &ShippingError{Kind: KindOrderNotFound}
	ErrServiceLevelRequired             = &ShippingError{Kind: KindServiceLevelRequired}
	ErrServiceLevelNotFound             = &ShippingError{Kind: KindServiceLevelNotFound}
	ErrShipmentAlreadyExists            = &ShippingError{Kind: KindShipmentAlreadyExists}
	ErrNoActiveShipment                 = &ShippingError{Kind: KindNoActiveShipment}
	ErrLabelNotAvailable                = &ShippingError{Kind: KindLabelNotAvailable}
	ErrCancellationRejected             = &ShippingError{Kind: KindCancellationRejected}
	ErrRateQuoteFailed                  = &ShippingError{Kind: KindRateQuoteFailed}
	ErrTrackingUnavailable              = &ShippingError{Kind: KindTrackingUnavailable}
	ErrCarrierRequestFailed             = &ShippingError{Kind: KindCarrierRequestFailed}
	ErrCarrierOutcomeUnknown            = &ShippingError{Kind: KindCarrierOutcomeUnknown}
	ErrShipmentCreatedButNotPersisted   = &ShippingError{Kind: KindShipmentCreatedButNotPersisted}
	ErrShipmentCancelledButNotPersisted = &ShippingError{Kind: KindShipmentCancelledButNotPersisted}
	ErrConcurrentModification           = &ShippingError{Kind: KindConcurrentModification}
	ErrForbidden                        = &ShippingError{Kind: KindForbidden}
)

// NewError creates a ShippingError of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *ShippingError {
	return &ShippingError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a ShippingError of the given kind around cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *ShippingError {
	return &ShippingError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// WithOrder attaches the order id.
func (e *ShippingError) WithOrder(orderID string) *ShippingError {
	e.OrderID = orderID
	return e
}

// KindOf returns the kind of err, or "" when err is not a ShippingError.
func KindOf(err error) ErrorKind {
	var se *ShippingError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// AsShippingError unwraps err into a ShippingError if possible.
func AsShippingError(err error) (*ShippingError, bool) {
	var se *ShippingError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Errors raised by persistence adapters.
var (
	ErrVersionConflict = errors.New("order version conflict")
	ErrNotFound        = errors.New("order not found")
)
