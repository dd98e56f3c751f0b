package domain

import (
	"errors"
	"fmt"
)

// Validation.
var ErrValidation = errors.New("validation failed")

// Authentication and authorization.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email address not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrOperatorRequired   = errors.New("operator access required")
)

// Conflicts. Every conflict wraps ErrConflict.
var (
	ErrConflict             = errors.New("conflict")
	ErrAccountExists        = fmt.Errorf("%w: account already exists", ErrConflict)
	ErrRegistrationPending  = fmt.Errorf("%w: registration still pending", ErrConflict)
	ErrRegistrationAccepted = fmt.Errorf("%w: already registered", ErrConflict)
	ErrRegistrationDenied   = fmt.Errorf("%w: previous registration denied", ErrConflict)
)

// Lookups.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrRegistrationNotFound = errors.New("registration request not found")
)

// ValidationError describes a malformed or missing field. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
