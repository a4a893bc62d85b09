// SPDX-License-Identifier: MPL-2.0

package inject

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMarkerNotFound is the sentinel error wrapped by MarkerNotFoundError.
	ErrMarkerNotFound = errors.New("marker not found")
	// ErrMarkerAmbiguous is returned when a marker occurs more than once.
	ErrMarkerAmbiguous = errors.New("marker occurs more than once")
	// ErrNoMatch is the sentinel error wrapped by NoMatchError.
	ErrNoMatch = errors.New("no files matched")
	// ErrIO is the sentinel error wrapped by IOError.
	ErrIO = errors.New("target i/o failed")
	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid glob pattern")
	// ErrInvalidRequest is the sentinel error wrapped by InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid injection request")
)

type (
	// MarkerNotFoundError is returned when the target text does not contain a
	// required marker exactly once. Count is 0 when the marker is missing and
	// greater than 1 when it is ambiguous.
	MarkerNotFoundError struct {
		Marker string
		Path   string
		Count  int
	}

	// NoMatchError is returned when none of the patterns matched a file and the
	// empty policy is EmptyFail.
	NoMatchError struct {
		Patterns []string
	}

	// IOError wraps a file-system failure while reading or writing a target.
	IOError struct {
		// Op is a short verb such as "read", "write" or "rename".
		Op   string
		Path string
		Err  error
	}

	// InvalidPatternError is returned for a glob that doublestar cannot parse
	// or that escapes the base directory.
	InvalidPatternError struct {
		Pattern string
		Reason  string
	}

	// InvalidRequestError collects field-level problems found by
	// Request.Validate.
	InvalidRequestError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *MarkerNotFoundError) Error() string {
	where := ""
	if e.Path != "" {
		where = " in " + e.Path
	}
	if e.Count > 1 {
		return fmt.Sprintf("marker %q occurs %d times%s (expected exactly one)", e.Marker, e.Count, where)
	}
	return fmt.Sprintf("marker %q not found%s", e.Marker, where)
}

// Unwrap returns ErrMarkerNotFound, or ErrMarkerAmbiguous for duplicated
// markers, so callers can use errors.Is.
func (e *MarkerNotFoundError) Unwrap() []error {
	if e.Count > 1 {
		return []error{ErrMarkerNotFound, ErrMarkerAmbiguous}
	}
	return []error{ErrMarkerNotFound}
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no files matched patterns [%s]", strings.Join(e.Patterns, ", "))
}

// Unwrap returns ErrNoMatch for errors.Is() compatibility.
func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause, so errors.Is works for
// ErrIO as well as for fs.ErrNotExist and friends.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid glob pattern %q: %s", e.Pattern, e.Reason)
}

// Unwrap returns ErrInvalidPattern for errors.Is() compatibility.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return "invalid injection request: " + strings.Join(msgs, "; ")
}

// Unwrap returns the sentinel and every field error so errors.Is can reach
// an InvalidPatternError nested inside a request.
func (e *InvalidRequestError) Unwrap() []error {
	return append([]error{ErrInvalidRequest}, e.FieldErrors...)
}
