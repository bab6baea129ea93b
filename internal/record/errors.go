package record

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to these so callers can branch with errors.Is.
var (
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrMissingRequiredColumns = errors.New("missing required columns")
	ErrUnparsableInput        = errors.New("unparsable input")
	ErrNoValidRows            = errors.New("no valid rows")
	ErrDuplicateDetected      = errors.New("duplicate detected")
	ErrStorageFailure         = errors.New("storage failure")
	ErrOutOfRange             = errors.New("value out of range")
	ErrNotFound               = errors.New("not found")
)

// FieldError reports a required field that was absent or blank.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingRequiredField }

// RangeError reports a value rejected by the strict validation policy.
type RangeError struct {
	Field  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// ColumnsError reports a table header lacking required columns.
type ColumnsError struct {
	Missing   []string
	Available []string
	Required  []string
}

func (e *ColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (available: %s; required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "), strings.Join(e.Required, ", "))
}

func (e *ColumnsError) Unwrap() error { return ErrMissingRequiredColumns }

// DuplicateError reports an exact-match collision during a batch insert.
// Index is the 0-based position of the colliding record; Committed is how many
// records of the batch were persisted before the collision.
type DuplicateError struct {
	Index     int
	Committed int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate entry detected: this exact record already exists (batch position %d, %d committed before it)", e.Index+1, e.Committed)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateDetected }

// StorageError wraps an opaque failure from the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return "storage failure"
	}
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }
