package ride

import (
	"errors"
	"fmt"
)

// Failure classes of a delivery. Storage failures are normally absorbed by
// the ride store; publish failures never reach the ack decision.
var (
	ErrDecode     = errors.New("malformed message body")
	ErrValidation = errors.New("invalid ride request")
	ErrStorage    = errors.New("ride storage failure")
	ErrPublish    = errors.New("notification publish failure")
)

// DecodeError reports a body that is not well-formed structured data.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ValidationError reports a required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s %s: %v", ErrValidation, e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
