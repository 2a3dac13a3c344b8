package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents an application error carrying the HTTP status it maps to.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation returns a 400 error with a field-specific message.
func Validation(msg string) *Error {
	return New(http.StatusBadRequest, msg, ErrValidation)
}

// Gateway wraps an upstream payment-provider error. The provider's own
// message is kept verbatim because it is actionable for the caller.
func Gateway(msg string, err error) *Error {
	return New(http.StatusInternalServerError, msg, errors.Join(ErrGateway, err))
}

// Common error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Domain sentinels. Services return these (usually wrapped with context via
// fmt.Errorf and %w); controllers map them to responses with StatusFor.
var (
	ErrValidation           = errors.New("validation error")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrGateway              = errors.New("payment gateway error")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrNotFound             = errors.New("not found")
	ErrNotRefundable        = errors.New("booking is not refundable")
	ErrAlreadyCancelled     = errors.New("booking is already cancelled")
	ErrNothingToRefund      = errors.New("nothing left to refund")
	ErrRefundExceedsBalance = errors.New("refund exceeds remaining balance")
	ErrStore                = errors.New("store error")
)

// StatusFor maps a domain error to the HTTP status code it should produce.
// Unknown errors map to 500.
func StatusFor(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrNotRefundable),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrNothingToRefund),
		errors.Is(err, ErrRefundExceedsBalance):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrGatewayNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the client-facing message for err. Gateway errors are
// forwarded verbatim; anything else unknown collapses to a generic message so
// internals never leak.
func MessageFor(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrGateway):
		return err.Error()
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNotRefundable),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrNothingToRefund),
		errors.Is(err, ErrRefundExceedsBalance),
		errors.Is(err, ErrGatewayNotConfigured):
		return err.Error()
	default:
		return "Internal server error"
	}
}
