package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scalar is a raw value tagged with its Go kind. The value is always carried
// as text so every encoding restores the exact same Go type.
type Scalar struct {
	Kind string `json:"kind" yaml:"kind"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Scalar kinds
const (
	KindNull    = "null"
	KindString  = "string"
	KindBool    = "bool"
	KindInt     = "int"
	KindInt32   = "int32"
	KindInt64   = "int64"
	KindUint    = "uint"
	KindUint64  = "uint64"
	KindFloat32 = "float32"
	KindFloat64 = "float64"
	KindBytes   = "bytes"
	KindTime    = "time"
	KindDecimal = "decimal"
	KindUUID    = "uuid"
	KindParams  = "params"
	KindJSON    = "json"
)

// EncodeScalar tags a raw value
func EncodeScalar(value interface{}) (*Scalar, error) {
	switch v := value.(type) {
	case nil:
		return &Scalar{Kind: KindNull}, nil
	case string:
		return &Scalar{Kind: KindString, Text: v}, nil
	case bool:
		return &Scalar{Kind: KindBool, Text: strconv.FormatBool(v)}, nil
	case int:
		return &Scalar{Kind: KindInt, Text: strconv.Itoa(v)}, nil
	case int32:
		return &Scalar{Kind: KindInt32, Text: strconv.FormatInt(int64(v), 10)}, nil
	case int64:
		return &Scalar{Kind: KindInt64, Text: strconv.FormatInt(v, 10)}, nil
	case uint:
		return &Scalar{Kind: KindUint, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case uint64:
		return &Scalar{Kind: KindUint64, Text: strconv.FormatUint(v, 10)}, nil
	case float32:
		return &Scalar{Kind: KindFloat32, Text: strconv.FormatFloat(float64(v), 'g', -1, 32)}, nil
	case float64:
		return &Scalar{Kind: KindFloat64, Text: strconv.FormatFloat(v, 'g', -1, 64)}, nil
	case []byte:
		return &Scalar{Kind: KindBytes, Text: base64.StdEncoding.EncodeToString(v)}, nil
	case time.Time:
		return &Scalar{Kind: KindTime, Text: v.Format(time.RFC3339Nano)}, nil
	case decimal.Decimal:
		// coefficient and exponent keep trailing zeros
		return &Scalar{Kind: KindDecimal, Text: fmt.Sprintf("%se%d", v.Coefficient().String(), v.Exponent())}, nil
	case uuid.UUID:
		return &Scalar{Kind: KindUUID, Text: v.String()}, nil
	case map[int]int:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return &Scalar{Kind: KindParams, Text: string(data)}, nil
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return &Scalar{Kind: KindJSON, Text: string(data)}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// Decode restores the raw value
func (s *Scalar) Decode() (interface{}, error) {
	if s == nil {
		return nil, nil
	}

	var (
		value interface{}
		err   error
	)

	switch s.Kind {
	case KindNull:
		return nil, nil
	case KindString:
		return s.Text, nil
	case KindBool:
		value, err = strconv.ParseBool(s.Text)
	case KindInt:
		value, err = strconv.Atoi(s.Text)
	case KindInt32:
		var n int64
		n, err = strconv.ParseInt(s.Text, 10, 32)
		value = int32(n)
	case KindInt64:
		value, err = strconv.ParseInt(s.Text, 10, 64)
	case KindUint:
		var n uint64
		n, err = strconv.ParseUint(s.Text, 10, 0)
		value = uint(n)
	case KindUint64:
		value, err = strconv.ParseUint(s.Text, 10, 64)
	case KindFloat32:
		var f float64
		f, err = strconv.ParseFloat(s.Text, 32)
		value = float32(f)
	case KindFloat64:
		value, err = strconv.ParseFloat(s.Text, 64)
	case KindBytes:
		value, err = base64.StdEncoding.DecodeString(s.Text)
	case KindTime:
		value, err = time.Parse(time.RFC3339Nano, s.Text)
	case KindDecimal:
		value, err = decimal.NewFromString(s.Text)
	case KindUUID:
		value, err = uuid.Parse(s.Text)
	case KindParams:
		params := map[int]int{}
		err = json.Unmarshal([]byte(s.Text), &params)
		value = params
	case KindJSON:
		err = json.Unmarshal([]byte(s.Text), &value)
	default:
		return nil, malformed("unknown scalar kind %q", s.Kind)
	}

	if err != nil {
		return nil, malformed("invalid %s value %q: %v", s.Kind, s.Text, err)
	}
	return value, nil
}
