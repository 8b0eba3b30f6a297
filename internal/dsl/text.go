package dsl

import "encoding/json"

// TextOptions holds the tunable full-text parameters shared by the match
// family. Zero values are omitted so backend defaults apply.
type TextOptions struct {
	Analyzer                        string
	AutoGenerateSynonymsPhraseQuery *bool
	Boost                           *float64
	Fuzziness                       string
	FuzzyRewrite                    string
	FuzzyTranspositions             *bool
	Lenient                         *bool
	MaxExpansions                   *int
	MinimumShouldMatch              string
	Operator                        string
	PrefixLength                    *int
	Slop                            *int
	ZeroTermsQuery                  string
}

func (o TextOptions) apply(m map[string]any) {
	setString(m, "analyzer", o.Analyzer)
	setPtr(m, "auto_generate_synonyms_phrase_query", o.AutoGenerateSynonymsPhraseQuery)
	setPtr(m, "boost", o.Boost)
	setString(m, "fuzziness", o.Fuzziness)
	setString(m, "fuzzy_rewrite", o.FuzzyRewrite)
	setPtr(m, "fuzzy_transpositions", o.FuzzyTranspositions)
	setPtr(m, "lenient", o.Lenient)
	setPtr(m, "max_expansions", o.MaxExpansions)
	setString(m, "minimum_should_match", o.MinimumShouldMatch)
	setString(m, "operator", o.Operator)
	setPtr(m, "prefix_length", o.PrefixLength)
	setPtr(m, "slop", o.Slop)
	setString(m, "zero_terms_query", o.ZeroTermsQuery)
}

// MatchQuery is an analyzed match on one field.
type MatchQuery struct {
	Field string
	Query string
	Name  string
	TextOptions
}

func (MatchQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MatchQuery) MarshalJSON() ([]byte, error) {
	return marshalFieldText("match", q.Field, q.Query, q.Name, q.TextOptions)
}

// MatchPhraseQuery matches Query as a phrase.
type MatchPhraseQuery struct {
	Field string
	Query string
	Name  string
	TextOptions
}

func (MatchPhraseQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MatchPhraseQuery) MarshalJSON() ([]byte, error) {
	return marshalFieldText("match_phrase", q.Field, q.Query, q.Name, q.TextOptions)
}

// MatchPhrasePrefixQuery matches Query as a phrase whose last term is a
// prefix.
type MatchPhrasePrefixQuery struct {
	Field string
	Query string
	Name  string
	TextOptions
}

func (MatchPhrasePrefixQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MatchPhrasePrefixQuery) MarshalJSON() ([]byte, error) {
	return marshalFieldText("match_phrase_prefix", q.Field, q.Query, q.Name, q.TextOptions)
}

// Multi-match types.
const (
	MultiMatchBestFields   = "best_fields"
	MultiMatchMostFields   = "most_fields"
	MultiMatchCrossFields  = "cross_fields"
	MultiMatchPhrase       = "phrase"
	MultiMatchPhrasePrefix = "phrase_prefix"
	MultiMatchBoolPrefix   = "bool_prefix"
)

// MultiMatchQuery runs Query against several fields. Field names may carry
// a ^boost suffix.
type MultiMatchQuery struct {
	Fields []string
	Query  string
	Type   string
	Name   string
	TextOptions
}

func (MultiMatchQuery) queryClause() {}

// MarshalJSON implements json.Marshaler.
func (q MultiMatchQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"fields": nonNil(q.Fields),
		"query":  q.Query,
	}
	setString(body, "type", q.Type)
	q.TextOptions.apply(body)
	setName(body, q.Name)
	return json.Marshal(map[string]any{"multi_match": body})
}

func marshalFieldText(kind, field, query, name string, o TextOptions) ([]byte, error) {
	inner := map[string]any{"query": query}
	o.apply(inner)
	setName(inner, name)
	return json.Marshal(map[string]any{kind: map[string]any{field: inner}})
}

func setString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func setPtr[T any](m map[string]any, key string, p *T) {
	if p != nil {
		m[key] = *p
	}
}
