package features

import (
	"errors"
	"fmt"
)

// #region sentinels
var (
	// ErrMismatch is returned when a selection maps to no catalog column.
	ErrMismatch = errors.New("no matching catalog column")
	// ErrNonNumeric is returned when a value cannot be coerced to a finite float64.
	ErrNonNumeric = errors.New("value is not numeric")
	// ErrOutOfRange is returned for numeric input outside its declared range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidOption is returned for categorical input outside the allowed set.
	ErrInvalidOption = errors.New("option not allowed")
)

// #endregion sentinels

// #region mismatch-error
// MismatchError names the selection field and the column it would have set.
type MismatchError struct {
	Field string
	Key   string
}

func (e *MismatchError) Error() string {
	if e.Field == e.Key {
		return fmt.Sprintf("field %q is not in the feature catalog", e.Field)
	}
	return fmt.Sprintf("field %q: column %q is not in the feature catalog", e.Field, e.Key)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// #endregion mismatch-error

// #region coercion-error
// CoercionError reports a value that could not become a finite float64.
type CoercionError struct {
	Field string
	Value any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %#v to a number", e.Field, e.Value)
}

func (e *CoercionError) Unwrap() error { return ErrNonNumeric }

// #endregion coercion-error

// #region validation-error
// ValidationError reports input that is well-typed but not allowed.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %v %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.err }

// #endregion validation-error
