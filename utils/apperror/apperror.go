package apperror

import (
	"fmt"
	"net/http"
)

// Type is the machine readable category rendered in error responses
type Type string

const (
	TypeValidation      Type = "VALIDATION_ERROR"
	TypeBadRequest      Type = "BAD_REQUEST"
	TypeUnauthorized    Type = "UNAUTHORIZED"
	TypeForbidden       Type = "FORBIDDEN"
	TypeNotFound        Type = "NOT_FOUND"
	TypeConflict        Type = "CONFLICT"
	TypeTooManyRequests Type = "TOO_MANY_REQUESTS"
	TypePayment         Type = "PAYMENT_ERROR"
	TypeInternal        Type = "INTERNAL_SERVER_ERROR"
)

// FieldError is a single failed input check
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed application error returned by handlers and middleware
type Error struct {
	Type       Type
	StatusCode int
	Message    string
	Details    any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches the underlying cause, which is logged but never rendered
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func New(t Type, status int, message string) *Error {
	return &Error{Type: t, StatusCode: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(TypeBadRequest, http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized access"
	}
	return New(TypeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Access forbidden"
	}
	return New(TypeForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return New(TypeNotFound, http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(TypeConflict, http.StatusConflict, message)
}

func TooManyRequests(message string) *Error {
	return New(TypeTooManyRequests, http.StatusTooManyRequests, message)
}

// Validation carries the failed field list in Details
func Validation(errs []FieldError) *Error {
	e := New(TypeValidation, http.StatusUnprocessableEntity, "Validation failed")
	e.Details = errs
	return e
}

// Payment reports a gateway failure; details carry the gateway payload
func Payment(message string, details any, cause error) *Error {
	e := New(TypePayment, http.StatusBadGateway, message)
	e.Details = details
	e.Err = cause
	return e
}

func Internal(cause error) *Error {
	e := New(TypeInternal, http.StatusInternalServerError, "An unexpected error occurred.")
	e.Err = cause
	return e
}

// TypeForStatus maps an HTTP status to its error type
func TypeForStatus(status int) Type {
	switch status {
	case http.StatusBadRequest:
		return TypeBadRequest
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusForbidden:
		return TypeForbidden
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusUnprocessableEntity:
		return TypeValidation
	case http.StatusTooManyRequests:
		return TypeTooManyRequests
	case http.StatusBadGateway:
		return TypePayment
	}
	if status >= 500 {
		return TypeInternal
	}
	return TypeBadRequest
}
