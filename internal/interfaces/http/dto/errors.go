package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeCurrencyMismatch is used when amounts in different currencies meet
	ErrCodeCurrencyMismatch = "ERR_CURRENCY_MISMATCH"
	// ErrCodeProcessingLocked is used when end-of-day processing is already running
	ErrCodeProcessingLocked = "ERR_PROCESSING_LOCKED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch: http.StatusUnprocessableEntity,
	ErrCodeProcessingLocked: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain-layer error codes to the
// standardized API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_INPUT": ErrCodeInvalidInput,
	"INVALID_STATE": ErrCodeInvalidState,

	// Tariff and application validation
	"INVALID_TARIFF":            ErrCodeInvalidInput,
	"INVALID_TARIFF_NAME":       ErrCodeInvalidInput,
	"INVALID_INTEREST_RATE":     ErrCodeInvalidInput,
	"INVALID_AMOUNT_RANGE":      ErrCodeInvalidInput,
	"INVALID_TERM_RANGE":        ErrCodeInvalidInput,
	"INVALID_PAYMENT_FREQUENCY": ErrCodeInvalidInput,
	"INVALID_CURRENCY":          ErrCodeInvalidInput,
	"INVALID_AMOUNT":            ErrCodeInvalidInput,
	"INVALID_TERM":              ErrCodeInvalidInput,
	"AMOUNT_OUT_OF_RANGE":       ErrCodeValidationRange,
	"TERM_OUT_OF_RANGE":         ErrCodeValidationRange,
	"VALIDATION_ERROR":          ErrCodeValidation,

	// Ledger and lifecycle rules
	"CURRENCY_MISMATCH":      ErrCodeCurrencyMismatch,
	"ACCOUNT_NOT_FOUND":      ErrCodeNotFound,
	"ACCOUNT_ALREADY_CLOSED": ErrCodeInvalidState,
	"INVALID_APPLICATION":    ErrCodeInvalidState,
	"INVALID_ACCOUNTS":       ErrCodeInvalidState,
	"INVALID_SCHEDULE":       ErrCodeInvalidState,
	"INVALID_ENTRY":          ErrCodeInvalidInput,
	"INVALID_ENTRY_TYPE":     ErrCodeInvalidInput,
	"INVALID_ENTRY_SUBTYPE":  ErrCodeInvalidInput,
	"INVALID_ACCOUNT_TYPE":   ErrCodeInvalidInput,
	"INVALID_CONFIGURATION":  ErrCodeInternal,
	"PROCESSING_LOCKED":      ErrCodeProcessingLocked,

	"BAD_REQUEST":    ErrCodeBadRequest,
	"INTERNAL_ERROR": ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
