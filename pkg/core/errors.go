package core

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrStoreClosed is returned when trying to use a closed store
	ErrStoreClosed = errors.New("store is closed")

	// ErrStoreUnavailable is returned when a reference store file is missing or unreadable
	ErrStoreUnavailable = errors.New("reference store unavailable")

	// ErrNotFound is returned when a gene set is not found
	ErrNotFound = errors.New("gene set not found")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidSpecies is returned when a species value is not recognized
	ErrInvalidSpecies = errors.New("invalid species")

	// ErrInvalidSearchType is returned when a search type value is not recognized
	ErrInvalidSearchType = errors.New("invalid search type")

	// ErrNoSpeciesAvailable is returned when every requested species failed,
	// typically because no reference store could be opened
	ErrNoSpeciesAvailable = errors.New("no requested species could be searched")

	// ErrHistoryDisabled is returned when history operations are called on an
	// engine configured without a history store
	ErrHistoryDisabled = errors.New("history persistence is disabled")
)

// EngineError wraps errors with operation context
type EngineError struct {
	Op  string // Operation name
	Err error  // Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("enrichdb: %v", e.Err)
	}
	return fmt.Sprintf("enrichdb: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Op: op, Err: err}
}
