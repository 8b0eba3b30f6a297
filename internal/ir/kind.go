package ir

import (
	"fmt"
	"strings"
)

// KeywordSuffix names the unanalyzed companion sub-field of a text field.
const KeywordSuffix = ".keyword"

// FieldKind classifies a document field by how the backend indexes it.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindText              // analyzed string with a .keyword sub-field
	KindKeyword           // unanalyzed string
	KindLong
	KindDouble
	KindBool
	KindDate
	KindObject
)

var kindNames = map[FieldKind]string{
	KindUnknown: "unknown",
	KindText:    "text",
	KindKeyword: "keyword",
	KindLong:    "long",
	KindDouble:  "double",
	KindBool:    "bool",
	KindDate:    "date",
	KindObject:  "object",
}

// String implements fmt.Stringer.
func (k FieldKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// IsTextual reports whether the field is analyzed and needs the keyword
// sub-field for exact matching, sorting and bucketing.
func (k FieldKind) IsTextual() bool {
	return k == KindText
}

// ParseFieldKind parses a kind name. Empty input and "unknown" are KindUnknown.
// "string" is accepted as an alias for text, "int"/"integer" for long,
// "number"/"float" for double, "boolean" for bool and "datetime" for date.
func ParseFieldKind(s string) (FieldKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return KindUnknown, nil
	case "text", "string":
		return KindText, nil
	case "keyword":
		return KindKeyword, nil
	case "long", "int", "integer":
		return KindLong, nil
	case "double", "float", "number":
		return KindDouble, nil
	case "bool", "boolean":
		return KindBool, nil
	case "date", "datetime":
		return KindDate, nil
	case "object":
		return KindObject, nil
	}
	return KindUnknown, fmt.Errorf("unknown field kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FieldKind) UnmarshalText(b []byte) error {
	parsed, err := ParseFieldKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ExactField returns the field to use for exact comparison on a field of
// kind k: field + ".keyword" for text fields, field otherwise.
func ExactField(field string, k FieldKind) string {
	if k.IsTextual() && !strings.HasSuffix(field, KeywordSuffix) {
		return field + KeywordSuffix
	}
	return field
}
