package config

import (
	"errors"
	"fmt"
)

// ErrMissingField indicates a required configuration key was absent or empty.
var ErrMissingField = errors.New("required configuration field is missing")

// FieldError wraps ErrMissingField with the offending field's dotted path.
// It never carries the field's value, so a Drive.Password miss can't leak
// a partial secret into a log line.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

func missingField(field string) error {
	return &FieldError{Field: field}
}
