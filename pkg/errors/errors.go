// Package errors carries the HTTP-facing error type returned by the API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by every route. Domain-specific codes are defined by
// the handlers that produce them.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// AppError is rendered as the JSON error body; HTTPStatus and Err stay server side.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail records key=value in Details. Empty values are dropped so
// optional identifiers can be chained unconditionally.
func (e *AppError) WithDetail(key, value string) *AppError {
	if value == "" {
		return e
	}
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError builds an error with an explicit code and status.
func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// ErrValidationWithFields reports field-level binding failures.
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	err := NewAppError(CodeValidationError, message, http.StatusBadRequest)
	err.Details = fields
	return err
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(CodeUnauthorized, orDefault(message, "authentication required"), http.StatusUnauthorized)
}

func ErrInternal(message string) *AppError {
	return NewAppError(CodeInternalError, orDefault(message, "an internal error occurred"), http.StatusInternalServerError)
}

// ErrRouteNotFound and ErrMethodNotAllowed back the router fallbacks.
func ErrRouteNotFound() *AppError {
	return NewAppError(CodeRouteNotFound, "The requested resource was not found", http.StatusNotFound)
}

func ErrMethodNotAllowed() *AppError {
	return NewAppError(CodeMethodNotAllowed, "The request method is not supported for this resource", http.StatusMethodNotAllowed)
}

// FromError returns the AppError in err's chain, or wraps err as an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}
