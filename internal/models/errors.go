package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds indicates the balance cannot cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTaskFinalized indicates the task already left PENDING.
	ErrTaskFinalized = errors.New("task already finalized")

	// ErrProfileIncomplete indicates cellphone or tax id are missing for a deposit.
	ErrProfileIncomplete = errors.New("cellphone and tax id are required to deposit")

	// ErrUnauthorized indicates a missing or invalid identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports malformed or out-of-range input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
