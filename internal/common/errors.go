// Package common defines the error taxonomy shared by every layer.
// Handlers translate these into HTTP status codes; anything that is not one
// of them is treated as an internal failure.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Ledger errors
var (
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	// ErrInsufficientBalance means the debit exceeds available coins
	ErrInsufficientBalance = errors.New("insufficient available coins")
	// ErrInsufficientPoints means the redemption exceeds available points
	ErrInsufficientPoints = errors.New("insufficient available points")
)

// Lookup and write errors
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrDuplicateMatch means the match_id was already recorded by anyone
	ErrDuplicateMatch = fmt.Errorf("match_id already recorded: %w", ErrConflict)
	// ErrMatchImmutable is returned by any attempt to update an accepted match
	ErrMatchImmutable = errors.New("match records cannot be modified")
)

// ValidationError reports every offending field of a rejected request
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// FieldError is a shortcut for a single-field ValidationError
func FieldError(field, message string) *ValidationError {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add records a message for field; the first message per field wins
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field was rejected
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Err returns e as an error, or nil when nothing was rejected
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
