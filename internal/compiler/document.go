package compiler

import (
	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/queryir"
)

// Document is a parsed filter document.
type Document struct {
	Where   *Expr       `json:"where,omitempty" yaml:"where,omitempty"`
	Skip    *int        `json:"skip,omitempty" yaml:"skip,omitempty"`
	Take    *int        `json:"take,omitempty" yaml:"take,omitempty"`
	OrderBy []OrderSpec `json:"order_by,omitempty" yaml:"order_by,omitempty"`
	GroupBy []GroupSpec `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Select  string      `json:"select,omitempty" yaml:"select,omitempty"`
}

// OrderSpec is one sort key.
type OrderSpec struct {
	Field string       `json:"field" yaml:"field"`
	Kind  ir.FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Desc  bool         `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// GroupSpec is one group-by key. Property names the key part in results
// and defaults to Field.
type GroupSpec struct {
	Field    string       `json:"field" yaml:"field"`
	Property string       `json:"property,omitempty" yaml:"property,omitempty"`
	Kind     ir.FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Expr is one node of a where tree. Exactly one operator is set.
type Expr struct {
	And []Expr `json:"and,omitempty" yaml:"and,omitempty"`
	Or  []Expr `json:"or,omitempty" yaml:"or,omitempty"`
	Not *Expr  `json:"not,omitempty" yaml:"not,omitempty"`

	Eq  *Comparison `json:"eq,omitempty" yaml:"eq,omitempty"`
	Ne  *Comparison `json:"ne,omitempty" yaml:"ne,omitempty"`
	Gt  *Comparison `json:"gt,omitempty" yaml:"gt,omitempty"`
	Gte *Comparison `json:"gte,omitempty" yaml:"gte,omitempty"`
	Lt  *Comparison `json:"lt,omitempty" yaml:"lt,omitempty"`
	Lte *Comparison `json:"lte,omitempty" yaml:"lte,omitempty"`

	In    *Membership `json:"in,omitempty" yaml:"in,omitempty"`
	NotIn *Membership `json:"not_in,omitempty" yaml:"not_in,omitempty"`

	// Collection predicates over multi-valued fields.
	Any  *Comparison `json:"any,omitempty" yaml:"any,omitempty"`
	All  *Comparison `json:"all,omitempty" yaml:"all,omitempty"`
	None *Comparison `json:"none,omitempty" yaml:"none,omitempty"`

	Contains   *Comparison `json:"contains,omitempty" yaml:"contains,omitempty"`
	StartsWith *Comparison `json:"starts_with,omitempty" yaml:"starts_with,omitempty"`
	EndsWith   *Comparison `json:"ends_with,omitempty" yaml:"ends_with,omitempty"`

	Exists  string `json:"exists,omitempty" yaml:"exists,omitempty"`
	Missing string `json:"missing,omitempty" yaml:"missing,omitempty"`

	MatchPhrase *TextSpec                `json:"match_phrase,omitempty" yaml:"match_phrase,omitempty"`
	QueryString *TextSpec                `json:"query_string,omitempty" yaml:"query_string,omitempty"`
	MultiMatch  *MultiMatchSpec          `json:"multi_match,omitempty" yaml:"multi_match,omitempty"`
	Match       *queryir.TextQueryConfig `json:"match,omitempty" yaml:"match,omitempty"`

	Const *bool `json:"const,omitempty" yaml:"const,omitempty"`
}

// Comparison compares a field against a value. Any, All and None also
// accept a list value.
type Comparison struct {
	Field string       `json:"field" yaml:"field"`
	Value any          `json:"value" yaml:"value"`
	Kind  ir.FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Membership tests a field against a set of values.
type Membership struct {
	Field  string       `json:"field" yaml:"field"`
	Values []any        `json:"values" yaml:"values"`
	Kind   ir.FieldKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// TextSpec is a single-field full-text clause.
type TextSpec struct {
	Field string `json:"field" yaml:"field"`
	Text  string `json:"text" yaml:"text"`
}

// MultiMatchSpec is a phrase-prefix search over several fields.
type MultiMatchSpec struct {
	Fields []string `json:"fields" yaml:"fields"`
	Text   string   `json:"text" yaml:"text"`
}

// operators returns the names of the operators set on e.
func (e *Expr) operators() []string {
	var ops []string
	add := func(set bool, name string) {
		if set {
			ops = append(ops, name)
		}
	}
	add(e.And != nil, "and")
	add(e.Or != nil, "or")
	add(e.Not != nil, "not")
	add(e.Eq != nil, "eq")
	add(e.Ne != nil, "ne")
	add(e.Gt != nil, "gt")
	add(e.Gte != nil, "gte")
	add(e.Lt != nil, "lt")
	add(e.Lte != nil, "lte")
	add(e.In != nil, "in")
	add(e.NotIn != nil, "not_in")
	add(e.Any != nil, "any")
	add(e.All != nil, "all")
	add(e.None != nil, "none")
	add(e.Contains != nil, "contains")
	add(e.StartsWith != nil, "starts_with")
	add(e.EndsWith != nil, "ends_with")
	add(e.Exists != "", "exists")
	add(e.Missing != "", "missing")
	add(e.MatchPhrase != nil, "match_phrase")
	add(e.QueryString != nil, "query_string")
	add(e.MultiMatch != nil, "multi_match")
	add(e.Match != nil, "match")
	add(e.Const != nil, "const")
	return ops
}
