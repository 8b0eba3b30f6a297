package store

import (
	"cmp"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/esquery/internal/ir"
)

// Type ranks for ordering values of different JSON types.
const (
	rankBool = iota
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case bool:
		return rankBool
	case json.Number, float64, int64, int:
		return rankNumber
	case string:
		return rankString
	default:
		return rankOther
	}
}

// compareValues orders two decoded JSON values. Numbers compare
// numerically, strings that both parse as timestamps compare as instants,
// other strings compare bytewise.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankBool:
		return cmp.Compare(boolInt(a.(bool)), boolInt(b.(bool)))
	case rankNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case rankString:
		sa, sb := a.(string), b.(string)
		if ta, ok := parseTimestamp(sa); ok {
			if tb, ok := parseTimestamp(sb); ok {
				return ta.Compare(tb)
			}
		}
		return strings.Compare(sa, sb)
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

// parseTimestamp accepts full RFC 3339 timestamps only, so plain keyword
// values such as "2024" never read as dates.
func parseTimestamp(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02T15:04:05") || s[10] != 'T' {
		return time.Time{}, false
	}
	t, err := ir.ParseDate(s)
	return t, err == nil
}

// equalsValue reports whether a stored value equals a query value.
func equalsValue(stored any, v ir.Value) bool {
	switch q := v.(type) {
	case ir.String:
		s, ok := stored.(string)
		return ok && ir.NewString(s) == q
	case ir.Long:
		f, ok := toFloat(stored)
		return ok && f == float64(q)
	case ir.Double:
		f, ok := toFloat(stored)
		return ok && f == float64(q)
	case ir.Bool:
		switch x := stored.(type) {
		case bool:
			return x == bool(q)
		case string:
			return x == strconv.FormatBool(bool(q))
		}
		return false
	case ir.Date:
		s, ok := stored.(string)
		if !ok {
			return false
		}
		t, err := ir.ParseDate(s)
		return err == nil && t.Equal(q.Time())
	}
	return false
}

// compareToBound orders a stored value against a range bound. ok is false
// when the two are not comparable.
func compareToBound(stored any, bound ir.Value) (int, bool) {
	switch b := bound.(type) {
	case ir.Date:
		s, isStr := stored.(string)
		if !isStr {
			return 0, false
		}
		t, err := ir.ParseDate(s)
		if err != nil {
			return 0, false
		}
		return t.Compare(b.Time()), true
	case ir.Long, ir.Double:
		f, ok := toFloat(stored)
		if !ok {
			return 0, false
		}
		bf, _ := ir.Float(b)
		return cmp.Compare(f, bf), true
	case ir.String:
		s, ok := stored.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, string(b)), true
	}
	return 0, false
}
