// Package errs defines the error kinds shared across the record store.
// Callers classify failures with errors.Is against the sentinels below.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrValidation     = errors.New("mosaic: validation failed")
	ErrNotFound       = errors.New("mosaic: not found")
	ErrInvalidContent = errors.New("mosaic: invalid content")
	ErrPermission     = errors.New("mosaic: permission denied")
	ErrStorage        = errors.New("mosaic: storage failure")
	ErrIndex          = errors.New("mosaic: index failure")
)

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mosaic.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with operation context. Returns nil for nil errors.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
