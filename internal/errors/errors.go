// Package errors defines custom error types for the libottery generator.
// These errors describe what went wrong without ever carrying key material
// or generator output in their messages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for entropy gathering
var (
	// ErrEntropyUnavailable indicates that no qualifying entropy source
	// produced usable bytes
	ErrEntropyUnavailable = errors.New("entropy: no strong entropy source available")

	// ErrBufferTooSmall indicates that the destination buffer cannot hold the
	// bytes required from the mandatory sources
	ErrBufferTooSmall = errors.New("entropy: buffer too small")

	// ErrShortRead indicates that a source returned fewer bytes than requested
	ErrShortRead = errors.New("entropy: short read")

	// ErrNotCharDevice indicates that the default random device is not a
	// character device
	ErrNotCharDevice = errors.New("entropy: random device is not a character device")

	// ErrSourceUnsupported indicates that a source is not available on this
	// platform or CPU
	ErrSourceUnsupported = errors.New("entropy: source not supported")

	// ErrSourceNotConfigured indicates that a source needs configuration that
	// was not supplied
	ErrSourceNotConfigured = errors.New("entropy: source not configured")

	// ErrSourceStuck indicates that a source's output failed the stuck
	// output check (a repeated byte, or repeated consecutive words)
	ErrSourceStuck = errors.New("entropy: source output looks stuck")
)

// Sentinel errors for PRF descriptors and selection
var (
	// ErrInvalidPRF indicates that a PRF descriptor violates the size bounds
	ErrInvalidPRF = errors.New("prf: invalid descriptor")

	// ErrUnknownPRF indicates that no registered PRF has the requested name
	ErrUnknownPRF = errors.New("prf: unknown implementation")

	// ErrCapabilityMismatch indicates that a requested PRF needs a CPU
	// capability that is absent or disabled
	ErrCapabilityMismatch = errors.New("prf: required CPU capability unavailable")
)

// Sentinel errors for generator state
var (
	// ErrStateNotInitialized indicates an operation on an unseeded state
	ErrStateNotInitialized = errors.New("state: not initialized")

	// ErrStateCorrupt indicates an inconsistent magic or size invariant
	ErrStateCorrupt = errors.New("state: internal invariant violated")

	// ErrInvalidArgument indicates a bad argument to a generator call
	ErrInvalidArgument = errors.New("state: invalid argument")

	// ErrInvalidConfig indicates a configuration that cannot be applied
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// EntropyError wraps an entropy source failure with the failing source
type EntropyError struct {
	Source string // Source that failed
	Err    error  // Underlying error
}

func (e *EntropyError) Error() string {
	return fmt.Sprintf("entropy source %s: %v", e.Source, e.Err)
}

func (e *EntropyError) Unwrap() error {
	return e.Err
}

// NewEntropyError creates a new EntropyError
func NewEntropyError(source string, err error) *EntropyError {
	return &EntropyError{Source: source, Err: err}
}

// StateError wraps a generator failure with the operation that failed
type StateError struct {
	Op  string // Operation that failed (e.g., "reseed", "add_seed")
	Err error  // Underlying error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("ottery %s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// NewStateError creates a new StateError
func NewStateError(op string, err error) *StateError {
	return &StateError{Op: op, Err: err}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
