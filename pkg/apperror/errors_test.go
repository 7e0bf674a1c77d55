package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(TypeInvalidRequest, "missing_payment_data", "Payment data is required", http.StatusBadRequest)
	assert.Equal(t, "[invalid_request/missing_payment_data] Payment data is required", e.Error())
}

func TestAppError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(TypeProcessingError, "merchant_data_unavailable", "Merchant data lookup failed", http.StatusServiceUnavailable, cause)
	assert.Contains(t, e.Error(), "connection refused")
	assert.Equal(t, cause, e.Unwrap())
}

func TestAppError_ErrorsAs(t *testing.T) {
	var appErr *AppError
	wrapped := fmt.Errorf("handler: %w", ErrSessionNotFound())
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, TypeResourceNotFound, appErr.Type)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestConstructors_Taxonomy(t *testing.T) {
	tests := []struct {
		err    *AppError
		typ    string
		code   string
		status int
	}{
		{ErrSessionNotFound(), TypeResourceNotFound, "session_not_found", http.StatusNotFound},
		{ErrMissingPaymentData(), TypeInvalidRequest, "missing_payment_data", http.StatusBadRequest},
		{ErrAlreadyCompleted(), TypeInvalidRequest, "already_completed", http.StatusBadRequest},
		{ErrCancellationNotAllowed(), TypeInvalidRequest, "cancellation_not_allowed", http.StatusBadRequest},
		{ErrSessionNotModifiable(), TypeInvalidRequest, "session_not_modifiable", http.StatusBadRequest},
		{ErrRateLimitExceeded(), TypeInvalidRequest, "rate_limit_exceeded", http.StatusTooManyRequests},
		{Validation("bad field"), TypeInvalidRequest, "validation_failed", http.StatusBadRequest},
		{ErrMerchantDataUnavailable(nil), TypeProcessingError, "merchant_data_unavailable", http.StatusServiceUnavailable},
		{ErrOrderCreationFailed(nil), TypeProcessingError, "order_creation_failed", http.StatusServiceUnavailable},
		{ErrStoreConflict(nil), TypeProcessingError, "store_conflict", http.StatusServiceUnavailable},
		{Internal(errors.New("boom")), TypeInternalError, "internal_error", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.typ, tc.err.Type, tc.code)
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus, tc.code)
	}
}
