// Package attribute models a single persisted record field from its raw storage
// representation, through type coercion, to a memoized in-memory value.
// It tracks where each value came from (database, user assignment, pre-cast
// value or user provided default) so that dirty tracking can be answered without
// going back to the database.
//
// Attributes are grouped per record in a Set, and Sets are stamped out from a
// shared, read-only Builder template.
package attribute

import (
	"fmt"
	"reflect"
)

// Type is the per-attribute coercion and comparison capability.
// Implementations must not retain or mutate the values passed to them.
type Type interface {
	// Cast converts a value assigned by user code
	Cast(value interface{}) (interface{}, error)

	// Deserialize converts a raw value read from the database
	Deserialize(value interface{}) (interface{}, error)

	// Serialize converts a cast value into its database form
	Serialize(value interface{}) (interface{}, error)

	// Changed reports whether newValue differs from oldValue after an assignment
	Changed(oldValue, newValue, newValueBeforeTypeCast interface{}) (bool, error)

	// ChangedInPlace reports whether a materialized value was mutated
	// compared to the raw database value it was read from
	ChangedInPlace(rawOldValue, newValue interface{}) (bool, error)

	// AssertValidValue rejects values that can never be assigned
	AssertValidValue(value interface{}) error

	// ValueConstructedByMassAssignment reports whether value was assembled
	// from multiple form parameters rather than assigned directly
	ValueConstructedByMassAssignment(value interface{}) bool
}

// Equaler is implemented by types that define their own equality.
type Equaler interface {
	Equal(other Type) bool
}

// Copier is implemented by types that know how to deep copy their values.
type Copier interface {
	DeepCopy(value interface{}) interface{}
}

// RawComparer is implemented by types whose raw values are equal by a looser
// rule than deep equality, e.g. the same instant in two time zones.
// RawKey must return the same key for raw values RawEqual accepts.
type RawComparer interface {
	RawEqual(a, b interface{}) bool
	RawKey(raw interface{}) string
}

// Named is implemented by types that can be referenced by name in portable
// representations.
type Named interface {
	TypeName() string
}

// TypesEqual compares two types, preferring the type's own Equal method
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(Equaler); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}

func rawEqual(typ Type, a, b interface{}) bool {
	if valuesEqual(a, b) {
		return true
	}
	if cmp, ok := typ.(RawComparer); ok {
		return cmp.RawEqual(a, b)
	}
	return false
}

func rawKey(typ Type, raw interface{}) string {
	if cmp, ok := typ.(RawComparer); ok {
		return cmp.RawKey(raw)
	}
	return fmt.Sprintf("%T\x00%v", raw, raw)
}

// passthrough stands in for a missing type. Values flow through unchanged.
type passthrough struct{}

func (passthrough) Cast(value interface{}) (interface{}, error)        { return value, nil }
func (passthrough) Deserialize(value interface{}) (interface{}, error) { return value, nil }
func (passthrough) Serialize(value interface{}) (interface{}, error)   { return value, nil }

func (passthrough) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (passthrough) ChangedInPlace(_, _ interface{}) (bool, error) { return false, nil }
func (passthrough) AssertValidValue(interface{}) error            { return nil }
func (passthrough) ValueConstructedByMassAssignment(interface{}) bool {
	return false
}

// valuesEqual compares two values for equality, handling nil
func valuesEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
