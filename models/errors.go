package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the table, settlement and wallet operations.
// Callers match them with errors.Is; services wrap them with context.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrCapacity            = errors.New("table is full")
	ErrInvalidAccessCode   = errors.New("invalid access code")
	ErrDuplicateWager      = errors.New("duplicate wager")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrValidation          = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrForbidden           = errors.New("forbidden")
)

// Not-found variants. Each one still matches ErrNotFound.
var (
	ErrTableNotFound       = fmt.Errorf("table %w", ErrNotFound)
	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
	ErrLedgerEntryNotFound = fmt.Errorf("ledger entry %w", ErrNotFound)
)

// IsRetryable reports whether the operation failed on lock contention
// and may succeed if the caller tries again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
