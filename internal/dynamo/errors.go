package dynamo

import (
	"errors"
	"fmt"

	"github.com/san-kum/spacesim/internal/registry"
)

// Domain errors for simulation operations.
var (
	// ErrNotFound indicates an id that is not live or already pending removal.
	ErrNotFound = registry.ErrNotFound

	// ErrInvalidParameter indicates spawn parameters outside their domain.
	ErrInvalidParameter = registry.ErrInvalidParameter

	// ErrIDExhausted indicates the 16-bit id space has been used up.
	ErrIDExhausted = registry.ErrIDExhausted

	// ErrClosed indicates the simulator was closed.
	ErrClosed = errors.New("dynamo: simulator closed")

	// ErrSeqUnavailable indicates a rewind target outside the history window.
	ErrSeqUnavailable = errors.New("dynamo: sequence not in history")
)

type Op uint8

const (
	OpSpawn Op = iota + 1
	OpRemove
	OpTransfer
)

func (o Op) String() string {
	switch o {
	case OpSpawn:
		return "spawn"
	case OpRemove:
		return "remove"
	case OpTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// RequestError wraps a request failure with the tick it belongs to.
type RequestError struct {
	Seq     uint64
	Op      Op
	ID      registry.ID
	Wrapped error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("seq %d: %s body %d: %v", e.Seq, e.Op, e.ID, e.Wrapped)
}

func (e *RequestError) Unwrap() error {
	return e.Wrapped
}
