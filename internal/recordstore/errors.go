package recordstore

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every *InputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InputErrorCode categorizes rejected records.
type InputErrorCode string

const (
	// ErrCodeMissingID indicates the record has no id field.
	ErrCodeMissingID InputErrorCode = "MISSING_ID"

	// ErrCodeInvalidID indicates the id is null, an array or an object.
	ErrCodeInvalidID InputErrorCode = "INVALID_ID"
)

// InputError is returned by Add for records the store cannot index.
type InputError struct {
	Code    InputErrorCode
	Message string
}

func newInputError(code InputErrorCode, msg string) *InputError {
	return &InputError{Code: code, Message: msg}
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports ErrInvalidInput as a match.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IsInvalidInput returns true if err is or wraps an *InputError.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
