package attribute

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAttribute is returned when writing to a name that has no attribute
	ErrMissingAttribute = errors.New("missing attribute")

	// ErrValidation is returned when a type rejects an assigned value
	ErrValidation = errors.New("invalid attribute value")

	// ErrFrozen is returned when writing to a frozen set
	ErrFrozen = errors.New("can't modify frozen attribute set")
)

// MissingAttributeError reports a write against an unregistered attribute
type MissingAttributeError struct {
	Name string
}

// Error implements the error interface
func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("can't write unknown attribute `%s`", e.Name)
}

func (e *MissingAttributeError) Unwrap() error {
	return ErrMissingAttribute
}

// ValidationError reports a value rejected by Type.AssertValidValue.
// The attribute it was assigned to is left untouched.
type ValidationError struct {
	Name  string
	Value interface{}
	Err   error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid value for %s: %v", e.Name, e.Value)
	}
	return fmt.Sprintf("invalid value for %s: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// IsMissingAttribute returns true if the error is a missing attribute error
func IsMissingAttribute(err error) bool {
	return errors.Is(err, ErrMissingAttribute)
}

// IsValidation returns true if the error came from value validation
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsFrozen returns true if the error came from writing to a frozen set
func IsFrozen(err error) bool {
	return errors.Is(err, ErrFrozen)
}
