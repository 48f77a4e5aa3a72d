package shared

import "errors"

// ErrorKind partitions engine failures into the classes callers are
// expected to branch on. Validation errors are safe to retry after
// correcting input; invariant violations indicate an upstream bug and
// must never be coerced; conflicts are retryable races; persistence
// failures mean the whole unit of work rolled back.
type ErrorKind string

const (
	KindValidation  ErrorKind = "VALIDATION"
	KindInvariant   ErrorKind = "INVARIANT"
	KindConflict    ErrorKind = "CONFLICT"
	KindPersistence ErrorKind = "PERSISTENCE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new validation-class domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Code: code, Message: message}
}

// NewInvariantError creates a domain error for a broken engine invariant
func NewInvariantError(code, message string) *DomainError {
	return &DomainError{Kind: KindInvariant, Code: code, Message: message}
}

// NewConflictError creates a domain error for a concurrency conflict
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

// NewPersistenceError creates a domain error for an infrastructure failure
func NewPersistenceError(code, message string) *DomainError {
	return &DomainError{Kind: KindPersistence, Code: code, Message: message}
}

// KindOf returns the error kind of err, or an empty kind if err is not
// a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation-class domain error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsInvariant reports whether err is an invariant violation
func IsInvariant(err error) bool { return KindOf(err) == KindInvariant }

// IsConflict reports whether err is a retryable concurrency conflict
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewInvariantError("INVALID_STATE", "Operation not allowed in current state")
)
