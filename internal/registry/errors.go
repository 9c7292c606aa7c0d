package registry

import (
	"errors"
	"fmt"
)

// Domain errors for registry operations.
var (
	// ErrNotFound indicates an id that does not name a live body.
	ErrNotFound = errors.New("registry: body not found")

	// ErrInvalidParameter indicates spawn parameters outside their valid range.
	ErrInvalidParameter = errors.New("registry: invalid body parameter")

	// ErrIDExhausted indicates the 16-bit id space has been used up.
	ErrIDExhausted = errors.New("registry: body id space exhausted")

	// ErrDuplicateID indicates an insert with an id that is already live.
	ErrDuplicateID = errors.New("registry: duplicate body id")
)

// ParamError names the offending spawn field.
type ParamError struct {
	Field string
	Value any
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrInvalidParameter, e.Field, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}
