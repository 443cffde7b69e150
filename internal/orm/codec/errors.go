package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedState is returned when a portable representation cannot be
	// turned back into an attribute
	ErrMalformedState = errors.New("malformed attribute state")

	// ErrUnsupportedValue is returned when a raw value has no portable form
	ErrUnsupportedValue = errors.New("unsupported raw value")
)

// MalformedStateError reports an unrecognized provenance tag
type MalformedStateError struct {
	Tag string
}

// Error implements the error interface
func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("malformed attribute state: unknown source %q", e.Tag)
}

func (e *MalformedStateError) Unwrap() error {
	return ErrMalformedState
}

// IsMalformedState returns true if decoding failed on malformed input
func IsMalformedState(err error) bool {
	return errors.Is(err, ErrMalformedState)
}

// malformed reports a structural problem with a document
func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedState, fmt.Sprintf(format, args...))
}
