package dsl

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/ir"
)

func ptr[T any](v T) *T { return &v }

func TestQueryJSON(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"match_all", MatchAllQuery{}, `{"match_all":{}}`},
		{"match_none", MatchNoneQuery{}, `{"match_none":{}}`},
		{
			"empty bool",
			BoolQuery{},
			`{"bool":{}}`,
		},
		{
			"bool",
			BoolQuery{
				Must:    []Query{ExistsQuery{Field: "a"}},
				Should:  []Query{TermQuery{Field: "b", Value: ir.Long(1)}},
				MustNot: []Query{MatchAllQuery{}},
			},
			`{"bool":{"must":[{"exists":{"field":"a"}}],"should":[{"term":{"b":{"value":1}}}],"must_not":[{"match_all":{}}]}}`,
		},
		{
			"term",
			TermQuery{Field: "name.keyword", Value: ir.String("abc")},
			`{"term":{"name.keyword":{"value":"abc"}}}`,
		},
		{
			"terms",
			TermsQuery{Field: "id", Values: []ir.Value{ir.String("a"), ir.String("b")}, Name: "id"},
			`{"terms":{"id":["a","b"],"_name":"id"}}`,
		},
		{
			"terms empty",
			TermsQuery{Field: "id"},
			`{"terms":{"id":[]}}`,
		},
		{
			"terms_set",
			TermsSetQuery{Field: "emails", Terms: []ir.Value{ir.String("x")}, MinimumShouldMatchScript: &Script{Source: "doc['emails'].length"}, Name: "emails"},
			`{"terms_set":{"emails":{"terms":["x"],"minimum_should_match_script":{"source":"doc['emails'].length"},"_name":"emails"}}}`,
		},
		{
			"range",
			RangeQuery{Field: "date", Gte: ir.Date(day), Lt: ir.Date(day.AddDate(0, 0, 1)), Name: "date"},
			`{"range":{"date":{"gte":"2024-05-01T00:00:00Z","lt":"2024-05-02T00:00:00Z","_name":"date"}}}`,
		},
		{
			"query_string",
			QueryStringQuery{Fields: []string{"name"}, Query: "*abc*", Name: "name"},
			`{"query_string":{"fields":["name"],"query":"*abc*","_name":"name"}}`,
		},
		{
			"match",
			MatchQuery{Field: "name", Query: "abc", TextOptions: TextOptions{Operator: "and", Boost: ptr(2.0), Fuzziness: "AUTO"}},
			`{"match":{"name":{"query":"abc","operator":"and","boost":2,"fuzziness":"AUTO"}}}`,
		},
		{
			"match_phrase",
			MatchPhraseQuery{Field: "name", Query: "a b", Name: "name", TextOptions: TextOptions{Slop: ptr(1)}},
			`{"match_phrase":{"name":{"query":"a b","slop":1,"_name":"name"}}}`,
		},
		{
			"match_phrase_prefix",
			MatchPhrasePrefixQuery{Field: "name", Query: "a b", TextOptions: TextOptions{MaxExpansions: ptr(10)}},
			`{"match_phrase_prefix":{"name":{"query":"a b","max_expansions":10}}}`,
		},
		{
			"multi_match",
			MultiMatchQuery{Fields: []string{"name^2", "lastName"}, Query: "jo", Type: MultiMatchPhrasePrefix, TextOptions: TextOptions{MaxExpansions: ptr(200)}},
			`{"multi_match":{"fields":["name^2","lastName"],"query":"jo","type":"phrase_prefix","max_expansions":200}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.query)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	q := BoolQuery{Should: []Query{
		RangeQuery{Field: "age", Gt: ir.Long(1), Lte: ir.Long(9), Name: "age"},
		MultiMatchQuery{Fields: []string{"a"}, Query: "x", TextOptions: TextOptions{Lenient: ptr(true), Analyzer: "simple"}},
	}}
	first, err := json.Marshal(q)
	require.NoError(t, err)
	for range 20 {
		again, err := json.Marshal(q)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestSearchPartsJSON(t *testing.T) {
	b, err := json.Marshal([]SortField{{Field: "name.keyword", Order: "asc"}, {Field: "age", Order: "desc"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name.keyword":{"order":"asc"}},{"age":{"order":"desc"}}]`, string(b))

	agg := CompositeAggregation{
		Sources: []CompositeSource{{Name: "group_by_Name", Field: "name.keyword"}},
		Size:    10000,
		Aggs:    map[string]Aggregation{"data_composite": TopHitsAggregation{Size: 100}},
	}
	b, err = json.Marshal(agg)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"composite": {"sources": [{"group_by_Name": {"terms": {"field": "name.keyword"}}}], "size": 10000},
		"aggs": {"data_composite": {"top_hits": {"size": 100}}}
	}`, string(b))

	b, err = json.Marshal(SourceFilter{Includes: []string{"name"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"includes":["name"]}`, string(b))
}
