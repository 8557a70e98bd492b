package seqconv

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched (via errors.Is) by every precondition failure
// reported before a kernel launch.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError provides detailed information about a precondition failure.
type ArgumentError struct {
	Arg     string // Argument at fault (e.g., "segments", "delta")
	Details string // Additional details
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidArgument, e.Arg, e.Details)
}

// Unwrap makes errors.Is(err, ErrInvalidArgument) hold.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func argError(arg, format string, args ...any) error {
	return &ArgumentError{Arg: arg, Details: fmt.Sprintf(format, args...)}
}
