// Package compiler turns declarative filter documents into query
// directive bundles.
//
// A filter document is written in YAML, JSON or CUE:
//
//	where:
//	  and:
//	    - eq: {field: name, value: Bob, kind: text}
//	    - not: {exists: email}
//	order_by: [{field: age, kind: long, desc: true}]
//	take: 20
//
// Build pushes negation down to the leaves before emitting the predicate
// tree, so the DSL compiler only ever sees Not wrapped around a primitive
// node. CUE documents are unified with the embedded #Query schema first.
package compiler
