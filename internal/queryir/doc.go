// Package queryir provides the backend-independent predicate IR and the
// query directive bundle consumed by the planner.
//
// ARCHITECTURE:
//
// The IR sits between whatever builds a predicate (the filter document
// compiler, application code) and the search backend:
//
//	[filter document] → [compiler] → [queryir.Query] → [querydsl] → [dsl.Query]
//	                                                  → [planner]  → [backend.SearchRequest]
//
// A Query bundles one predicate Node with paging, ordering, grouping and
// projection directives. It is built once per logical query, handed to the
// planner, and never mutated afterwards.
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only types in
// this package implement it, so the DSL compiler can switch exhaustively:
//
//	switch n := node.(type) {
//	case And:
//	    // must
//	case BoolGroup:
//	    // should
//	...
//	default:
//	    // Impossible - every Node variant is handled
//	}
//
// NODE VOCABULARY:
//
//	Node              Meaning
//	----              -------
//	And, Or, Not      binary/unary boolean combinators
//	BoolGroup         n-ary disjunction (flattened Or chains)
//	Term              field == value; empty field + Bool is match-all/none
//	Terms             field equals any of values
//	TermsSet          every stored value of a multi-valued field is in values
//	Exists/NotExists  field present / absent
//	DateRange         time interval on a date field
//	NumericRange      interval on a numeric field
//	MatchPhrase       phrase full-text query
//	MultiMatch        phrase-prefix query across fields
//	QueryString       query_string syntax on one field
//	MatchConfig       caller-tuned full-text query passed through verbatim
//
// CRITICAL PATTERNS:
//
// Value semantics: every node is an immutable value. Constructors copy
// slices so callers cannot mutate a node after building it. Compiling the
// same node twice yields identical output, so Optimize can rewrite trees
// freely.
//
// Negation at the leaves: builders push negation down before emitting IR
// (De Morgan over And/Or). The compiler wraps whatever sits under Not in
// must_not and does not distribute negation itself.
//
// Bounded nesting: search backends cap boolean nesting depth (20 by
// default). Flatten turns any chain of Or nodes, whatever its shape, into
// one BoolGroup, so disjunctions of N terms nest at depth 1.
package queryir
