package apperror

import (
	"fmt"
	"net/http"
)

// Error taxonomy types. Type is the coarse classification exposed to
// callers; Code narrows it to a specific condition.
const (
	TypeInvalidRequest   = "invalid_request"
	TypeResourceNotFound = "resource_not_found"
	TypeProcessingError  = "processing_error"
	TypeInternalError    = "internal_error"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // wrapped internal error, never exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Type, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(typ, code, message string, httpStatus int) *AppError {
	return &AppError{
		Type:       typ,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap attaches an internal cause to a new AppError.
func Wrap(typ, code, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Type:       typ,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Resource lookup ----

func ErrSessionNotFound() *AppError {
	return New(TypeResourceNotFound, "session_not_found", "Checkout session not found", http.StatusNotFound)
}

// ---- Invalid requests ----

func ErrMissingPaymentData() *AppError {
	return New(TypeInvalidRequest, "missing_payment_data", "Payment data is required to complete a checkout session", http.StatusBadRequest)
}

func ErrAlreadyCompleted() *AppError {
	return New(TypeInvalidRequest, "already_completed", "The checkout session cannot be completed", http.StatusBadRequest)
}

func ErrSessionNotReady() *AppError {
	return New(TypeInvalidRequest, "session_not_ready", "The checkout session is not ready for payment", http.StatusBadRequest)
}

func ErrCancellationNotAllowed() *AppError {
	return New(TypeInvalidRequest, "cancellation_not_allowed", "The checkout session cannot be canceled", http.StatusBadRequest)
}

func ErrSessionNotModifiable() *AppError {
	return New(TypeInvalidRequest, "session_not_modifiable", "The checkout session is in a terminal state and cannot be updated", http.StatusBadRequest)
}

func ErrPayloadTooLarge() *AppError {
	return New(TypeInvalidRequest, "payload_too_large", "Request body exceeds the maximum allowed size", http.StatusRequestEntityTooLarge)
}

func ErrRateLimitExceeded() *AppError {
	return New(TypeInvalidRequest, "rate_limit_exceeded", "Rate limit exceeded", http.StatusTooManyRequests)
}

// Validation returns an invalid_request error for malformed input.
func Validation(message string) *AppError {
	return New(TypeInvalidRequest, "validation_failed", message, http.StatusBadRequest)
}

// ---- Processing (transient, retryable) ----

func ErrMerchantDataUnavailable(err error) *AppError {
	return Wrap(TypeProcessingError, "merchant_data_unavailable", "Merchant data lookup failed", http.StatusServiceUnavailable, err)
}

func ErrOrderCreationFailed(err error) *AppError {
	return Wrap(TypeProcessingError, "order_creation_failed", "Order creation failed", http.StatusServiceUnavailable, err)
}

func ErrStoreConflict(err error) *AppError {
	return Wrap(TypeProcessingError, "store_conflict", "Concurrent updates exhausted retries, please retry", http.StatusServiceUnavailable, err)
}

// ---- System ----

// Internal wraps an unexpected error.
func Internal(err error) *AppError {
	return Wrap(TypeInternalError, "internal_error", "Internal server error", http.StatusInternalServerError, err)
}
