package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUID casts strings and 16 byte slices to uuid.UUID. Malformed input casts
// to nil. The database form is the canonical string.
type UUID struct {
	base
}

func (u UUID) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case []byte:
		if len(v) == 16 {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return nil, nil
			}
			return id, nil
		}
		return u.Cast(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, nil
		}
		return id, nil
	default:
		return nil, fmt.Errorf("can't cast %T to uuid", value)
	}
}

func (u UUID) Deserialize(value interface{}) (interface{}, error) { return u.Cast(value) }

func (u UUID) Serialize(value interface{}) (interface{}, error) {
	id, err := u.Cast(value)
	if err != nil || id == nil {
		return nil, err
	}
	return id.(uuid.UUID).String(), nil
}

func (UUID) TypeName() string { return "uuid" }
