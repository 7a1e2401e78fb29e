package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound indicates a named column is absent.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch indicates a cell or column holds a kind the operation cannot use.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDivisionByZero indicates an empty group or category set.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidConfiguration indicates an unrecognized option value.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrUnmappedStepName indicates a step value missing from the step mapping.
	ErrUnmappedStepName = errors.New("unmapped step name")
)

// ColumnError ties an error kind to the column that triggered it.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	if e == nil {
		return "column error"
	}
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

// NotFound builds the error returned for a missing column.
func NotFound(column string) error {
	return &ColumnError{Column: column, Err: ErrColumnNotFound}
}

// Mismatch builds a TypeMismatch error for a column with a detail message.
func Mismatch(column, format string, args ...any) error {
	return &ColumnError{Column: column, Err: fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))}
}
