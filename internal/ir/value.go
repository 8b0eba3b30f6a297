package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface representing a scalar term value.
// Only String, Long, Double, Bool and Date implement it.
type Value interface {
	irValue() // Sealed - only these types implement it

	// Any returns the plain Go value (string, int64, float64, bool, time.Time).
	Any() any
}

// String represents a string term value.
type String string

func (String) irValue() {}

// Any implements Value.
func (s String) Any() any { return string(s) }

// Long represents an integral term value.
type Long int64

func (Long) irValue() {}

// Any implements Value.
func (n Long) Any() any { return int64(n) }

// Double represents a floating point term value.
type Double float64

func (Double) irValue() {}

// Any implements Value.
func (d Double) Any() any { return float64(d) }

// Bool represents a boolean term value.
type Bool bool

func (Bool) irValue() {}

// Any implements Value.
func (b Bool) Any() any { return bool(b) }

// Date represents a point in time. It marshals as RFC 3339 with
// nanosecond precision, the format the backend's date parser accepts.
type Date time.Time

func (Date) irValue() {}

// Any implements Value.
func (d Date) Any() any { return time.Time(d) }

// Time returns the underlying time.
func (d Date) Time() time.Time { return time.Time(d) }

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDate(time.Time(d)))
}

// NewString creates a String normalized to Unicode NFC.
func NewString(s string) String {
	return String(norm.NFC.String(s))
}

// FormatDate renders t the way dates are written into queries.
func FormatDate(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats accepted in filter documents and
// stored documents. Layouts without an offset are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FromAny converts a plain Go value into a Value.
// json.Number values become Long when integral, Double otherwise.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return NewString(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Long(val), nil
	case int8:
		return Long(val), nil
	case int16:
		return Long(val), nil
	case int32:
		return Long(val), nil
	case int64:
		return Long(val), nil
	case uint:
		return Long(val), nil
	case uint8:
		return Long(val), nil
	case uint16:
		return Long(val), nil
	case uint32:
		return Long(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", val)
		}
		return Long(val), nil
	case float32:
		return Double(val), nil
	case float64:
		return Double(val), nil
	case json.Number:
		return fromNumber(val)
	case time.Time:
		return Date(val), nil
	case nil:
		return nil, fmt.Errorf("null is not a term value")
	default:
		return nil, fmt.Errorf("unsupported term value type: %T", v)
	}
}

func fromNumber(n json.Number) (Value, error) {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err == nil {
			return Long(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Double(f), nil
}

// Coerce converts v to the value type a field of kind k holds.
// Strings become dates for KindDate, integral doubles become Long for
// KindLong, and anything becomes Double for KindDouble.
func Coerce(v Value, k FieldKind) (Value, error) {
	switch k {
	case KindDate:
		switch val := v.(type) {
		case Date:
			return val, nil
		case String:
			t, err := ParseDate(string(val))
			if err != nil {
				return nil, err
			}
			return Date(t), nil
		case Long:
			return Date(time.UnixMilli(int64(val)).UTC()), nil
		}
		return nil, fmt.Errorf("cannot use %T as date", v)
	case KindLong:
		switch val := v.(type) {
		case Long:
			return val, nil
		case Double:
			if float64(val) != math.Trunc(float64(val)) {
				return nil, fmt.Errorf("value %v is not integral", float64(val))
			}
			return Long(int64(val)), nil
		}
		return nil, fmt.Errorf("cannot use %T as long", v)
	case KindDouble:
		switch val := v.(type) {
		case Double:
			return val, nil
		case Long:
			return Double(float64(val)), nil
		}
		return nil, fmt.Errorf("cannot use %T as double", v)
	case KindBool:
		if b, ok := v.(Bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot use %T as bool", v)
	default:
		return v, nil
	}
}

// Float returns v as a float64 for numeric values.
func Float(v Value) (float64, bool) {
	switch val := v.(type) {
	case Long:
		return float64(val), true
	case Double:
		return float64(val), true
	}
	return 0, false
}
