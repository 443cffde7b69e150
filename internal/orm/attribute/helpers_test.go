package attribute

import (
	"fmt"
	"strconv"
	"strings"
)

// fakeType counts calls and delegates to optional hooks. Without hooks it
// passes values through.
type fakeType struct {
	cast         func(interface{}) (interface{}, error)
	deserialize  func(interface{}) (interface{}, error)
	serialize    func(interface{}) (interface{}, error)
	assertValid  func(interface{}) error
	massAssigned func(interface{}) bool

	castCalls           int
	deserializeCalls    int
	serializeCalls      int
	changedInPlaceCalls int
}

func (f *fakeType) Cast(v interface{}) (interface{}, error) {
	f.castCalls++
	if f.cast != nil {
		return f.cast(v)
	}
	return v, nil
}

func (f *fakeType) Deserialize(v interface{}) (interface{}, error) {
	f.deserializeCalls++
	if f.deserialize != nil {
		return f.deserialize(v)
	}
	return v, nil
}

func (f *fakeType) Serialize(v interface{}) (interface{}, error) {
	f.serializeCalls++
	if f.serialize != nil {
		return f.serialize(v)
	}
	return v, nil
}

func (f *fakeType) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (f *fakeType) ChangedInPlace(_, _ interface{}) (bool, error) {
	f.changedInPlaceCalls++
	return false, nil
}

func (f *fakeType) AssertValidValue(v interface{}) error {
	if f.assertValid != nil {
		return f.assertValid(v)
	}
	return nil
}

func (f *fakeType) ValueConstructedByMassAssignment(v interface{}) bool {
	if f.massAssigned != nil {
		return f.massAssigned(v)
	}
	return false
}

// suffixType mirrors a type that tags values with where they were cast from
type suffixType struct{}

func (suffixType) Cast(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return fmt.Sprint(v) + " from user", nil
}

func (suffixType) Deserialize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return fmt.Sprint(v) + " from database", nil
}

func (suffixType) Serialize(v interface{}) (interface{}, error) { return v, nil }

func (suffixType) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (suffixType) ChangedInPlace(_, _ interface{}) (bool, error)     { return false, nil }
func (suffixType) AssertValidValue(interface{}) error                { return nil }
func (suffixType) ValueConstructedByMassAssignment(interface{}) bool { return false }

// bytesType produces mutable []byte values from string raws
type bytesType struct{}

func (bytesType) Cast(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte(nil), t...), nil
	default:
		return []byte(fmt.Sprint(t)), nil
	}
}

func (b bytesType) Deserialize(v interface{}) (interface{}, error) { return b.Cast(v) }

func (bytesType) Serialize(v interface{}) (interface{}, error) {
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

func (bytesType) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (b bytesType) ChangedInPlace(rawOld, newValue interface{}) (bool, error) {
	serialized, err := b.Serialize(newValue)
	if err != nil {
		return false, err
	}
	return !valuesEqual(rawOld, serialized), nil
}

func (bytesType) AssertValidValue(interface{}) error                { return nil }
func (bytesType) ValueConstructedByMassAssignment(interface{}) bool { return false }

// intType casts numeric strings to int64, truncating fractions
type intType struct{}

func (intType) Cast(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, nil
		}
		return int64(f), nil
	case []byte:
		return intType{}.Cast(string(t))
	default:
		return nil, fmt.Errorf("can't cast %T to int", v)
	}
}

func (i intType) Deserialize(v interface{}) (interface{}, error) { return i.Cast(v) }
func (i intType) Serialize(v interface{}) (interface{}, error)   { return i.Cast(v) }

func (intType) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (intType) ChangedInPlace(_, _ interface{}) (bool, error)     { return false, nil }
func (intType) AssertValidValue(interface{}) error                { return nil }
func (intType) ValueConstructedByMassAssignment(interface{}) bool { return false }
func (intType) TypeName() string                                  { return "int" }

// floatType casts numeric strings to float64
type floatType struct{}

func (floatType) Cast(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, nil
		}
		return f, nil
	default:
		return nil, fmt.Errorf("can't cast %T to float", v)
	}
}

func (f floatType) Deserialize(v interface{}) (interface{}, error) { return f.Cast(v) }
func (f floatType) Serialize(v interface{}) (interface{}, error)   { return f.Cast(v) }

func (floatType) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !valuesEqual(oldValue, newValue), nil
}

func (floatType) ChangedInPlace(_, _ interface{}) (bool, error)     { return false, nil }
func (floatType) AssertValidValue(interface{}) error                { return nil }
func (floatType) ValueConstructedByMassAssignment(interface{}) bool { return false }
func (floatType) TypeName() string                                  { return "float" }

// foldedType treats raw strings that differ only in case as equal
type foldedType struct {
	intType
}

func (foldedType) RawEqual(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && strings.EqualFold(as, bs)
}

func (foldedType) RawKey(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return strings.ToLower(s)
	}
	return fmt.Sprint(raw)
}
