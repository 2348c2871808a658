package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict marks operations that collide with existing state: paying a
// bill twice, duplicating a category name, breaking a unique constraint.
var ErrConflict = errors.New("conflict")

// ValidationError reports an input that fails a declarative constraint.
// It aborts the enclosing operation and is surfaced to the caller with
// the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUniqueViolation reports whether err came from a sqlite UNIQUE
// constraint. modernc.org/sqlite exposes it only through the message.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
