package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"not found maps to 404", ErrCodeNotFound, http.StatusNotFound},
		{"invalid state maps to 422", ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{"currency mismatch maps to 422", ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{"processing locked maps to 409", ErrCodeProcessingLocked, http.StatusConflict},
		{"validation maps to 400", ErrCodeValidation, http.StatusBadRequest},
		{"rate limited maps to 429", ErrCodeRateLimited, http.StatusTooManyRequests},
		{"unknown code maps to 500", "ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeCurrencyMismatch, NormalizeErrorCode("CURRENCY_MISMATCH"))
	assert.Equal(t, ErrCodeValidationRange, NormalizeErrorCode("AMOUNT_OUT_OF_RANGE"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("ACCOUNT_ALREADY_CLOSED"))

	// Already-normalized and unknown codes pass through unchanged
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "SOMETHING_CUSTOM", NormalizeErrorCode("SOMETHING_CUSTOM"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Loan not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Loan not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "amount", Message: "Amount is below the tariff minimum"},
		{Field: "term", Message: "Term is out of the tariff range"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-456", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-456", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "amount", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
