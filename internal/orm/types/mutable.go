package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// JSON holds decoded JSON documents. Decoded maps and slices can be mutated
// in place, so change detection re-decodes the raw value and compares.
type JSON struct {
	base
}

// Cast round-trips the value through its JSON form so user input and
// database input decode to the same shapes
func (j JSON) Cast(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		return j.Deserialize(s)
	}
	serialized, err := j.Serialize(value)
	if err != nil {
		return nil, err
	}
	return j.Deserialize(serialized)
}

// Deserialize decodes text. Already decoded maps and slices are copied so
// the result never shares them with the raw value.
func (j JSON) Deserialize(value interface{}) (interface{}, error) {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		if kind := reflect.ValueOf(value).Kind(); kind == reflect.Map || kind == reflect.Slice {
			return j.DeepCopy(value), nil
		}
		return value, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return decoded, nil
}

func (JSON) Serialize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return string(data), nil
}

func (j JSON) ChangedInPlace(rawOldValue, newValue interface{}) (bool, error) {
	old, err := j.Deserialize(rawOldValue)
	if err != nil {
		return false, err
	}
	return !deepEqual(old, newValue), nil
}

// DeepCopy copies a decoded document through its JSON form
func (j JSON) DeepCopy(value interface{}) interface{} {
	serialized, err := j.Serialize(value)
	if err != nil || serialized == nil {
		return value
	}
	copied, err := j.Deserialize(serialized)
	if err != nil {
		return value
	}
	return copied
}

// RawEqual compares raw documents by their decoded form, so a string and
// the map it decodes to are equal, as are 1 and 1.0.
func (j JSON) RawEqual(a, b interface{}) bool {
	ad, aerr := j.Cast(a)
	bd, berr := j.Cast(b)
	if aerr != nil || berr != nil {
		return deepEqual(a, b)
	}
	return deepEqual(ad, bd)
}

// RawKey renders the decoded document in canonical JSON. Object keys are
// sorted by encoding/json.
func (j JSON) RawKey(raw interface{}) string {
	decoded, err := j.Cast(raw)
	if err != nil {
		return fmt.Sprintf("%T\x00%v", raw, raw)
	}
	serialized, err := j.Serialize(decoded)
	if err != nil {
		return fmt.Sprintf("%T\x00%v", raw, raw)
	}
	return fmt.Sprintf("json\x00%v", serialized)
}

func (j JSON) TypeName() string { return "json" }

// Binary holds byte slices. The slice is mutable, so change detection
// compares the current bytes against the raw database value.
type Binary struct {
	base
}

func (Binary) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("can't cast %T to binary", value)
	}
}

func (b Binary) Deserialize(value interface{}) (interface{}, error) { return b.Cast(value) }
func (b Binary) Serialize(value interface{}) (interface{}, error)   { return b.Cast(value) }

func (b Binary) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !bytesEqual(oldValue, newValue), nil
}

// ChangedInPlace compares against the raw bytes. A raw value that is not
// binary data, such as the uninitialized marker, is always a change.
func (b Binary) ChangedInPlace(rawOldValue, newValue interface{}) (bool, error) {
	switch rawOldValue.(type) {
	case nil, []byte, string:
		old, _ := b.Cast(rawOldValue)
		return !bytesEqual(old, newValue), nil
	default:
		return !bytesEqual(rawOldValue, newValue), nil
	}
}

func (Binary) DeepCopy(value interface{}) interface{} {
	if v, ok := value.([]byte); ok {
		return append([]byte(nil), v...)
	}
	return value
}

func (Binary) TypeName() string { return "binary" }

func bytesEqual(a, b interface{}) bool {
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	if aok && bok {
		return bytes.Equal(ab, bb)
	}
	return deepEqual(a, b)
}
