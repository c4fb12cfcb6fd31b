// Package shared contains common domain types, errors and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrPrecondition = errors.New("precondition violated")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "progress", "seed"
	Op      string // Operation that failed, e.g., "Find", "Validate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student record errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidMatriculation = NewDomainError("student", "Validate", ErrInvalidID, "matriculation number is required")
	ErrEmptyStudentName     = NewDomainError("student", "Validate", ErrEmptyValue, "student name is required")
	ErrEmptyProgramName     = NewDomainError("program", "Validate", ErrEmptyValue, "program name is required")
	ErrInvalidSemester      = NewDomainError("semester", "Validate", ErrValueOutOfRange, "semester number must be positive")
	ErrDuplicateSemester    = NewDomainError("semester", "Validate", ErrAlreadyExists, "semester number already used in program")
	ErrEmptyModuleTitle     = NewDomainError("module", "Validate", ErrEmptyValue, "module title is required")
	ErrInvalidCredits       = NewDomainError("module", "Validate", ErrValueOutOfRange, "module credits must be positive")
	ErrInvalidExamStatus    = NewDomainError("exam", "Validate", ErrInvalidInput, "unknown exam status")
	ErrEmptyAppointment     = NewDomainError("appointment", "Validate", ErrEmptyValue, "appointment title and date are required")
)

// Progress engine errors
var (
	ErrStudentNotLoaded = NewDomainError("progress", "Require", ErrPrecondition, "no student loaded")
	ErrInvalidTarget    = NewDomainError("progress", "Validate", ErrValidation, "target semester and credits cannot be negative")
)

// Dataset errors
var (
	ErrSeedInvalid = NewDomainError("seed", "Load", ErrValidation, "invalid dataset")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPrecondition checks if the error signals a violated programming contract.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidEntity) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
