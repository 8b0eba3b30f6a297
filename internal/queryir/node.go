package queryir

import (
	"slices"
	"time"

	"github.com/roach88/esquery/internal/ir"
)

// Node represents a compiled boolean predicate.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	predicateNode() // Marker method - seals interface to this package
}

// And matches when both children match.
type And struct {
	Left  Node
	Right Node
}

func (And) predicateNode() {}

// Or matches when either child matches. It is never compiled as a binary
// node: see Flatten.
type Or struct {
	Left  Node
	Right Node
}

func (Or) predicateNode() {}

// Not matches when Child does not.
type Not struct {
	Child Node
}

func (Not) predicateNode() {}

// BoolGroup matches when at least one child matches. An empty group
// matches nothing.
type BoolGroup struct {
	Children []Node
}

func (BoolGroup) predicateNode() {}

// Term is exact equality on a field. A Term with an empty Field and a Bool
// value is the constant predicate: true matches every document, false
// matches none.
type Term struct {
	Field string
	Value ir.Value
}

func (Term) predicateNode() {}

// Terms matches when the field equals any of Values. An empty Values list
// matches nothing.
type Terms struct {
	Field  string
	Values []ir.Value
}

func (Terms) predicateNode() {}

// TermsSet is the collection predicate over a multi-valued field.
//
// With RequireAll the number of supplied values found in the field must
// reach the field's own value count, so every stored value is one of
// Values. Without it the required count is zero and the node behaves as
// "at least one stored value is in Values". An empty Values list matches
// nothing.
type TermsSet struct {
	Field      string
	Values     []ir.Value
	RequireAll bool
}

func (TermsSet) predicateNode() {}

// Exists matches documents holding a non-null value for Field.
type Exists struct {
	Field string
}

func (Exists) predicateNode() {}

// NotExists matches documents without a value for Field.
type NotExists struct {
	Field string
}

func (NotExists) predicateNode() {}

// DateRange is an interval test on a date field. At most one bound is set
// per side.
type DateRange struct {
	Field string
	Gt    *time.Time
	Gte   *time.Time
	Lt    *time.Time
	Lte   *time.Time
}

func (DateRange) predicateNode() {}

// NumericRange is an interval test on a numeric field. At most one bound is
// set per side.
type NumericRange struct {
	Field string
	Gt    *float64
	Gte   *float64
	Lt    *float64
	Lte   *float64
}

func (NumericRange) predicateNode() {}

// MatchPhrase matches documents whose analyzed Field contains Text as a
// phrase.
type MatchPhrase struct {
	Field string
	Text  string
}

func (MatchPhrase) predicateNode() {}

// MultiMatch is a phrase-prefix query over Fields. Fields must not be empty.
type MultiMatch struct {
	Fields []string
	Text   string
}

func (MultiMatch) predicateNode() {}

// QueryString runs Text in query_string syntax against Field. Wildcards
// (*, ?) are honored.
type QueryString struct {
	Field string
	Text  string
}

func (QueryString) predicateNode() {}

// MatchConfig delegates entirely to caller-supplied full-text parameters.
type MatchConfig struct {
	Config TextQueryConfig
}

func (MatchConfig) predicateNode() {}

// MatchAll returns the constant-true predicate.
func MatchAll() Node {
	return Term{Value: ir.Bool(true)}
}

// MatchNone returns the constant-false predicate.
func MatchNone() Node {
	return Term{Value: ir.Bool(false)}
}

// IsConstant reports whether n is a constant predicate and its truth value.
func IsConstant(n Node) (value bool, ok bool) {
	t, isTerm := n.(Term)
	if !isTerm || t.Field != "" {
		return false, false
	}
	b, isBool := t.Value.(ir.Bool)
	if !isBool {
		return false, false
	}
	return bool(b), true
}

// NewTerms builds a Terms node, copying values.
func NewTerms(field string, values ...ir.Value) Terms {
	return Terms{Field: field, Values: slices.Clone(values)}
}

// NewTermsSet builds a TermsSet node, copying values.
func NewTermsSet(field string, requireAll bool, values ...ir.Value) TermsSet {
	return TermsSet{Field: field, Values: slices.Clone(values), RequireAll: requireAll}
}

// NewBoolGroup builds a BoolGroup, copying children.
func NewBoolGroup(children ...Node) BoolGroup {
	return BoolGroup{Children: slices.Clone(children)}
}

// NewMultiMatch builds a MultiMatch node, copying fields.
func NewMultiMatch(text string, fields ...string) MultiMatch {
	return MultiMatch{Fields: slices.Clone(fields), Text: text}
}

// AllOf left-folds nodes into binary And nodes. No nodes yields MatchAll.
func AllOf(nodes ...Node) Node {
	if len(nodes) == 0 {
		return MatchAll()
	}
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = And{Left: out, Right: n}
	}
	return out
}

// AnyOf left-folds nodes into binary Or nodes. No nodes yields MatchNone.
func AnyOf(nodes ...Node) Node {
	if len(nodes) == 0 {
		return MatchNone()
	}
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = Or{Left: out, Right: n}
	}
	return out
}

// Ptr returns a pointer to v, for building range bounds inline.
func Ptr[T any](v T) *T {
	return &v
}
