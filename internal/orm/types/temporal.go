package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// timestampLayouts are tried in order when parsing strings
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp casts strings and multi-parameter form input to time.Time in UTC.
// Strings that do not parse cast to nil.
//
// Multi-parameter input is a map[int]int keyed by position: 1 year, 2 month,
// 3 day, 4 hour, 5 minute, 6 second.
type Timestamp struct {
	base
}

func (t Timestamp) Cast(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC(), nil
	case map[int]int:
		return fromParameters(v), nil
	case []byte:
		return t.Cast(string(v))
	case string:
		return parseTime(v), nil
	default:
		parsed, err := cast.ToTimeE(v)
		if err != nil {
			return nil, fmt.Errorf("can't cast %T to timestamp: %w", value, err)
		}
		return parsed.UTC(), nil
	}
}

func (t Timestamp) Deserialize(value interface{}) (interface{}, error) { return t.Cast(value) }
func (t Timestamp) Serialize(value interface{}) (interface{}, error)   { return t.Cast(value) }
func (Timestamp) TypeName() string                                     { return "timestamp" }

// Changed compares instants, ignoring location
func (Timestamp) Changed(oldValue, newValue, _ interface{}) (bool, error) {
	return !sameInstant(oldValue, newValue), nil
}

// RawEqual compares raw times as instants. Location and the monotonic
// reading are ignored.
func (Timestamp) RawEqual(a, b interface{}) bool {
	return sameInstant(a, b)
}

// RawKey renders raw times in UTC so equal instants share a key
func (Timestamp) RawKey(raw interface{}) string {
	if t, ok := raw.(time.Time); ok {
		return "time\x00" + t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%T\x00%v", raw, raw)
}

// ValueConstructedByMassAssignment reports multi-parameter form input
func (Timestamp) ValueConstructedByMassAssignment(value interface{}) bool {
	_, ok := value.(map[int]int)
	return ok
}

// Date is a Timestamp truncated to midnight UTC
type Date struct {
	Timestamp
}

func (d Date) Cast(value interface{}) (interface{}, error) {
	v, err := d.Timestamp.Cast(value)
	if err != nil || v == nil {
		return v, err
	}
	t := v.(time.Time)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (d Date) Deserialize(value interface{}) (interface{}, error) { return d.Cast(value) }
func (d Date) Serialize(value interface{}) (interface{}, error)   { return d.Cast(value) }
func (Date) TypeName() string                                     { return "date" }

func parseTime(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return nil
}

// fromParameters assembles a time from positional form parameters. Year,
// month and day are required; a zero in any of them casts to nil.
func fromParameters(params map[int]int) interface{} {
	for _, pos := range []int{1, 2, 3} {
		if params[pos] == 0 {
			return nil
		}
	}
	return time.Date(params[1], time.Month(params[2]), params[3],
		params[4], params[5], params[6], 0, time.UTC)
}

func sameInstant(a, b interface{}) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	return deepEqual(a, b)
}
