package shared

import (
	"sort"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// ValidationError is a structured, field-keyed rejection. Unlike DomainError
// it does not abort the surrounding request flow; callers render the field
// messages back to the user.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// NewValidationError creates an empty validation error ready to collect fields
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// AddField records a failure message for a field
func (e *ValidationError) AddField(field, message string) {
	e.Fields[field] = message
}

// HasErrors returns true when at least one field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
