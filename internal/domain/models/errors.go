package models

import (
	"errors"
	"fmt"
)

// Error codes shared by every storage driver and service.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodePrecondition = "PRECONDITION_FAILED"
	CodeConflict     = "CONFLICT"
)

// DomainError represents a domain-level failure that callers can branch on by code.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so errors.Is(err, ErrNotFound)
// matches any NOT_FOUND error regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Common domain errors.
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "resource not found")
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "invalid input provided")
	ErrPrecondition = NewDomainError(CodePrecondition, "operation violates a referential rule")
	ErrConflict     = NewDomainError(CodeConflict, "resource already exists")

	ErrBarnHasActiveBatches = NewDomainError(CodePrecondition, "barn still houses active batches")
	ErrBatchHasRecords      = NewDomainError(CodePrecondition, "batch still owns daily, weight or egg records")
	ErrBatchNotActive       = NewDomainError(CodePrecondition, "batch is not active")
)

// InvalidField builds an INVALID_INPUT error naming the offending field.
func InvalidField(field, reason string) error {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf("%s %s", field, reason))
}

// NotFound builds a NOT_FOUND error for the given entity and key.
func NotFound(entity, key string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, key))
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
