// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by specsync's packages.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Process exit codes returned by the specsync CLI.
const (
	ExitOK ExitCode = iota
	ExitGeneric
	ExitUsage
	ExitMarkerNotFound
	ExitNoMatch
	ExitIO
	ExitHookFailed
	// ExitStale is returned by --check when a target is out of date.
	ExitStale
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// Describe returns a short human-readable meaning for the specsync exit codes,
// or an empty string for codes specsync never emits (a before hook's own exit
// status, for example).
func (c ExitCode) Describe() string {
	switch c {
	case ExitOK:
		return "success"
	case ExitGeneric:
		return "error"
	case ExitUsage:
		return "invalid usage or configuration"
	case ExitMarkerNotFound:
		return "marker not found"
	case ExitNoMatch:
		return "no files matched"
	case ExitIO:
		return "file i/o failed"
	case ExitHookFailed:
		return "before hook failed"
	case ExitStale:
		return "target out of date"
	default:
		return ""
	}
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
