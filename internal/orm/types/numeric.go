package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Integer casts to int64. Fractions are truncated and strings that are not
// numbers cast to nil.
type Integer struct {
	base
}

func (i Integer) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float32:
		return truncate(float64(v))
	case float64:
		return truncate(v)
	case decimal.Decimal:
		return v.IntPart(), nil
	case []byte:
		return i.Cast(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if n, err := cast.ToInt64E(s); err == nil {
			return n, nil
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, nil
		}
		return truncate(f)
	default:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("can't cast %T to int: %w", value, err)
		}
		return n, nil
	}
}

func (i Integer) Deserialize(value interface{}) (interface{}, error) { return i.Cast(value) }
func (i Integer) Serialize(value interface{}) (interface{}, error)   { return i.Cast(value) }
func (Integer) TypeName() string                                     { return "int" }

func truncate(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return int64(f), nil
}

// Float casts to float64. Strings that are not numbers cast to nil.
type Float struct {
	base
}

func (f Float) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case []byte:
		return f.Cast(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		n, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, nil
		}
		return n, nil
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("can't cast %T to float: %w", value, err)
		}
		return n, nil
	}
}

func (f Float) Deserialize(value interface{}) (interface{}, error) { return f.Cast(value) }
func (f Float) Serialize(value interface{}) (interface{}, error)   { return f.Cast(value) }
func (Float) TypeName() string                                     { return "float" }

// Changed treats NaN as equal to NaN so unassigned NaN columns stay clean
func (Float) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	o, ook := oldValue.(float64)
	n, nok := newValue.(float64)
	if ook && nok && math.IsNaN(o) && math.IsNaN(n) {
		return false, nil
	}
	return !deepEqual(oldValue, newValue), nil
}

// Decimal casts to decimal.Decimal, rounding to Scale when it is set
type Decimal struct {
	base
	Precision int
	Scale     int
}

func (d Decimal) Cast(value interface{}) (interface{}, error) {
	var result decimal.Decimal

	switch v := value.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		result = v
	case float32:
		result = decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil
		}
		result = decimal.NewFromFloat(v)
	case []byte:
		return d.Cast(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil, nil
		}
		result = parsed
	default:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("can't cast %T to decimal: %w", value, err)
		}
		result = decimal.NewFromInt(n)
	}

	if d.Scale > 0 {
		result = result.Round(int32(d.Scale))
	}
	return result, nil
}

func (d Decimal) Deserialize(value interface{}) (interface{}, error) { return d.Cast(value) }
func (d Decimal) Serialize(value interface{}) (interface{}, error)   { return d.Cast(value) }

// Changed compares decimals numerically, so 1.0 and 1.00 are equal
func (Decimal) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	o, ook := oldValue.(decimal.Decimal)
	n, nok := newValue.(decimal.Decimal)
	if ook && nok {
		return !o.Equal(n), nil
	}
	return !deepEqual(oldValue, newValue), nil
}

func (d Decimal) TypeName() string {
	if d.Precision == 0 && d.Scale == 0 {
		return "decimal"
	}
	return fmt.Sprintf("decimal(%d,%d)", d.Precision, d.Scale)
}
