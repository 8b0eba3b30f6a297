package planner

import (
	"unicode"
	"unicode/utf8"
)

// FieldNamer maps a logical property name to the backend field name. It
// must be pure; the planner calls it once per field reference.
type FieldNamer func(property string) string

// CamelCase lowercases the first rune ("LastName" → "lastName"), the
// default naming convention of document serializers.
func CamelCase(property string) string {
	r, size := utf8.DecodeRuneInString(property)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return property
	}
	return string(unicode.ToLower(r)) + property[size:]
}

// Identity leaves property names unchanged.
func Identity(property string) string {
	return property
}
