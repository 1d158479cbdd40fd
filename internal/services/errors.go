package services

import (
	"errors"
	"fmt"
)

// Error classes of the reaction core. Handlers map them to HTTP statuses.
var (
	// ErrValidation is returned before any store access for malformed input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a reaction or a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness race that survived the retry
	ErrConflict = errors.New("conflicting reaction")

	// ErrStoreUnavailable indicates the ledger store could not serve the request
	ErrStoreUnavailable = errors.New("reaction store unavailable")
)

// ValidationError names the offending field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StoreError wraps a ledger store failure with the operation that hit it
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("reaction store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
