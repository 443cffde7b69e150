// Package types provides the built-in attribute types: coercion from user
// input and database rows, serialization back to the database, and change
// detection. Every type here implements attribute.Type.
package types

import (
	"reflect"
)

// base holds the behaviour shared by most types. Values are compared with
// deep equality and are assumed immutable.
type base struct{}

func (base) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !deepEqual(oldValue, newValue), nil
}

func (base) ChangedInPlace(_, _ interface{}) (bool, error) {
	return false, nil
}

func (base) AssertValidValue(interface{}) error {
	return nil
}

func (base) ValueConstructedByMassAssignment(interface{}) bool {
	return false
}

// Value passes values through unchanged. It is the default type for columns
// that were never declared.
type Value struct {
	base
}

func (Value) Cast(value interface{}) (interface{}, error)        { return value, nil }
func (Value) Deserialize(value interface{}) (interface{}, error) { return value, nil }
func (Value) Serialize(value interface{}) (interface{}, error)   { return value, nil }
func (Value) TypeName() string                                   { return "value" }

// deepEqual compares two values for equality, handling nil and different types
func deepEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// blank reports whether a user supplied value should be treated as nil
func blank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return len(v) == 0
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}
