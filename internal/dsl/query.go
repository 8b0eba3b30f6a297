package dsl

import (
	"encoding/json"

	"github.com/roach88/esquery/internal/ir"
)

// Query is a search backend query clause.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	json.Marshaler
	queryClause()
}

// MatchAllQuery matches every document.
type MatchAllQuery struct{}

func (MatchAllQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (MatchAllQuery) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

// MatchNoneQuery matches no document.
type MatchNoneQuery struct{}

func (MatchNoneQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (MatchNoneQuery) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_none":{}}`), nil
}

// BoolQuery combines clauses. With no Must or Filter clauses at least one
// Should clause has to match unless MinimumShouldMatch says otherwise.
type BoolQuery struct {
	Must               []Query
	Filter             []Query
	Should             []Query
	MustNot            []Query
	MinimumShouldMatch *int
	Name               string
}

func (BoolQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q BoolQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if len(q.Must) > 0 {
		body["must"] = q.Must
	}
	if len(q.Filter) > 0 {
		body["filter"] = q.Filter
	}
	if len(q.Should) > 0 {
		body["should"] = q.Should
	}
	if len(q.MustNot) > 0 {
		body["must_not"] = q.MustNot
	}
	if q.MinimumShouldMatch != nil {
		body["minimum_should_match"] = *q.MinimumShouldMatch
	}
	setName(body, q.Name)
	return json.Marshal(map[string]any{"bool": body})
}

// TermQuery is exact equality on Field.
type TermQuery struct {
	Field string
	Value ir.Value
	Name  string
}

func (TermQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q TermQuery) MarshalJSON() ([]byte, error) {
	inner := map[string]any{"value": q.Value}
	setName(inner, q.Name)
	return json.Marshal(map[string]any{"term": map[string]any{q.Field: inner}})
}

// TermsQuery matches when Field equals any of Values.
type TermsQuery struct {
	Field  string
	Values []ir.Value
	Name   string
}

func (TermsQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q TermsQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{q.Field: nonNil(q.Values)}
	setName(body, q.Name)
	return json.Marshal(map[string]any{"terms": body})
}

// Script is an inline script reference.
type Script struct {
	Source string `json:"source"`
	Lang   string `json:"lang,omitempty"`
}

// TermsSetQuery matches when at least the required number of Terms appear
// in Field. The required number comes from MinimumShouldMatchScript or,
// when that is nil, from the numeric document field MinimumShouldMatchField.
type TermsSetQuery struct {
	Field                    string
	Terms                    []ir.Value
	MinimumShouldMatchScript *Script
	MinimumShouldMatchField  string
	Name                     string
}

func (TermsSetQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q TermsSetQuery) MarshalJSON() ([]byte, error) {
	inner := map[string]any{"terms": nonNil(q.Terms)}
	if q.MinimumShouldMatchScript != nil {
		inner["minimum_should_match_script"] = q.MinimumShouldMatchScript
	}
	if q.MinimumShouldMatchField != "" {
		inner["minimum_should_match_field"] = q.MinimumShouldMatchField
	}
	setName(inner, q.Name)
	return json.Marshal(map[string]any{"terms_set": map[string]any{q.Field: inner}})
}

// ExistsQuery matches documents with a non-null value for Field.
type ExistsQuery struct {
	Field string
}

func (ExistsQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q ExistsQuery) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"exists": map[string]any{"field": q.Field}})
}

// RangeQuery is an interval test. Nil bounds are omitted.
type RangeQuery struct {
	Field  string
	Gt     ir.Value
	Gte    ir.Value
	Lt     ir.Value
	Lte    ir.Value
	Format string
	Name   string
}

func (RangeQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q RangeQuery) MarshalJSON() ([]byte, error) {
	inner := map[string]any{}
	for key, v := range map[string]ir.Value{"gt": q.Gt, "gte": q.Gte, "lt": q.Lt, "lte": q.Lte} {
		if v != nil {
			inner[key] = v
		}
	}
	if q.Format != "" {
		inner["format"] = q.Format
	}
	setName(inner, q.Name)
	return json.Marshal(map[string]any{"range": map[string]any{q.Field: inner}})
}

// QueryStringQuery runs Query in query_string syntax over Fields.
type QueryStringQuery struct {
	Fields          []string
	Query           string
	DefaultOperator string
	AnalyzeWildcard *bool
	Name            string
}

func (QueryStringQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q QueryStringQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"fields": nonNil(q.Fields),
		"query":  q.Query,
	}
	if q.DefaultOperator != "" {
		body["default_operator"] = q.DefaultOperator
	}
	if q.AnalyzeWildcard != nil {
		body["analyze_wildcard"] = *q.AnalyzeWildcard
	}
	setName(body, q.Name)
	return json.Marshal(map[string]any{"query_string": body})
}

func setName(m map[string]any, name string) {
	if name != "" {
		m["_name"] = name
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
