package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no user matched the given id or filter.
	ErrNotFound = errors.New("user not found")
	// ErrRecordNotFound means the user exists but has no embedded record with the given id.
	ErrRecordNotFound = errors.New("record not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
)

// DuplicateKeyError reports a unique index collision on Field.
type DuplicateKeyError struct {
	Field string `json:"field"`
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for field '%s'", e.Field)
}

func NewDuplicateKeyError(field string) *DuplicateKeyError {
	return &DuplicateKeyError{Field: field}
}

// ConnectionError wraps a failure to reach the document store.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "database connection failed"
	}
	return fmt.Sprintf("database connection failed: %s", e.Err.Error())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrRecordNotFound)
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	var de *DuplicateKeyError
	return errors.As(err, &de)
}

func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation matches both a single ValidationError and a ValidationErrors list.
func IsValidation(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationErrors normalises either validation shape into a list.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ValidationErrors{*ve}, true
	}
	return nil, false
}
