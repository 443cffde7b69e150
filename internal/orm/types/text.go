package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/conduit-lang/attributes/internal/orm/attribute"
)

// String casts scalars to their string form. Booleans become "t" and "f" to
// match how most databases print them.
type String struct {
	base
	Length int
}

func (s String) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return "t", nil
		}
		return "f", nil
	case decimal.Decimal:
		return v.String(), nil
	default:
		str, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("can't cast %T to string: %w", value, err)
		}
		return str, nil
	}
}

func (s String) Deserialize(value interface{}) (interface{}, error) { return s.Cast(value) }
func (s String) Serialize(value interface{}) (interface{}, error)   { return s.Cast(value) }

func (s String) TypeName() string {
	if s.Length > 0 {
		return fmt.Sprintf("string(%d)", s.Length)
	}
	return "string"
}

// falseValues are the inputs that cast to false. Any other non-blank input
// casts to true.
var falseValues = map[string]bool{
	"0":     true,
	"f":     true,
	"false": true,
	"off":   true,
	"n":     true,
	"no":    true,
}

// Boolean casts form and database input to bool. Blank input casts to nil.
type Boolean struct {
	base
}

func (b Boolean) Cast(value interface{}) (interface{}, error) {
	if blank(value) {
		return nil, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case []byte:
		return b.Cast(string(v))
	case string:
		return !falseValues[strings.ToLower(strings.TrimSpace(v))], nil
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return true, nil
		}
		return n != 0, nil
	}
}

func (b Boolean) Deserialize(value interface{}) (interface{}, error) { return b.Cast(value) }
func (b Boolean) Serialize(value interface{}) (interface{}, error)   { return b.Cast(value) }
func (Boolean) TypeName() string                                     { return "bool" }

// Enum is a string restricted to a fixed list of values. Assigning a value
// outside the list is rejected before it reaches the attribute.
type Enum struct {
	base
	Values []string
}

func (e Enum) Cast(value interface{}) (interface{}, error) {
	if blank(value) {
		return nil, nil
	}
	return cast.ToStringE(value)
}

func (e Enum) Deserialize(value interface{}) (interface{}, error) { return e.Cast(value) }
func (e Enum) Serialize(value interface{}) (interface{}, error)   { return e.Cast(value) }

// AssertValidValue accepts nil, blank input and any listed value
func (e Enum) AssertValidValue(value interface{}) error {
	if blank(value) {
		return nil
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf("'%v' is not a valid value", value)
	}
	for _, allowed := range e.Values {
		if s == allowed {
			return nil
		}
	}
	return fmt.Errorf("'%s' is not one of %s", s, strings.Join(e.Values, ", "))
}

// Equal compares enums by their value lists
func (e Enum) Equal(other attribute.Type) bool {
	o, ok := other.(Enum)
	if !ok || len(o.Values) != len(e.Values) {
		return false
	}
	for i := range e.Values {
		if e.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

func (e Enum) TypeName() string {
	return fmt.Sprintf("enum(%s)", strings.Join(e.Values, ","))
}
