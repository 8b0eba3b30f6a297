package queryir

import "slices"

// TextQueryKind selects the full-text construct a TextQueryConfig compiles to.
type TextQueryKind string

const (
	TextMatch             TextQueryKind = "match"
	TextMatchPhrase       TextQueryKind = "match_phrase"
	TextMatchPhrasePrefix TextQueryKind = "match_phrase_prefix"
	TextMultiMatch        TextQueryKind = "multi_match"
)

// TextQueryConfig carries engine-tunable full-text parameters. Unset
// (zero or nil) parameters are omitted from the compiled query so the
// backend defaults apply.
type TextQueryConfig struct {
	Kind TextQueryKind `json:"kind" yaml:"kind"`

	// Field is the target of match, match_phrase and match_phrase_prefix.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	// Fields is the target of multi_match; entries may carry a ^boost.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Query  string   `json:"query" yaml:"query"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`

	// Type is the multi_match type (best_fields, phrase, phrase_prefix, ...).
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Analyzer                        string   `json:"analyzer,omitempty" yaml:"analyzer,omitempty"`
	AutoGenerateSynonymsPhraseQuery *bool    `json:"auto_generate_synonyms_phrase_query,omitempty" yaml:"auto_generate_synonyms_phrase_query,omitempty"`
	Boost                           *float64 `json:"boost,omitempty" yaml:"boost,omitempty"`
	Fuzziness                       string   `json:"fuzziness,omitempty" yaml:"fuzziness,omitempty"`
	FuzzyRewrite                    string   `json:"fuzzy_rewrite,omitempty" yaml:"fuzzy_rewrite,omitempty"`
	FuzzyTranspositions             *bool    `json:"fuzzy_transpositions,omitempty" yaml:"fuzzy_transpositions,omitempty"`
	Lenient                         *bool    `json:"lenient,omitempty" yaml:"lenient,omitempty"`
	MaxExpansions                   *int     `json:"max_expansions,omitempty" yaml:"max_expansions,omitempty"`
	MinimumShouldMatch              string   `json:"minimum_should_match,omitempty" yaml:"minimum_should_match,omitempty"`
	Operator                        string   `json:"operator,omitempty" yaml:"operator,omitempty"`
	PrefixLength                    *int     `json:"prefix_length,omitempty" yaml:"prefix_length,omitempty"`
	Slop                            *int     `json:"slop,omitempty" yaml:"slop,omitempty"`
	ZeroTermsQuery                  string   `json:"zero_terms_query,omitempty" yaml:"zero_terms_query,omitempty"`
}

// Clone returns a deep copy of c.
func (c TextQueryConfig) Clone() TextQueryConfig {
	out := c
	out.Fields = slices.Clone(c.Fields)
	out.AutoGenerateSynonymsPhraseQuery = clonePtr(c.AutoGenerateSynonymsPhraseQuery)
	out.Boost = clonePtr(c.Boost)
	out.FuzzyTranspositions = clonePtr(c.FuzzyTranspositions)
	out.Lenient = clonePtr(c.Lenient)
	out.MaxExpansions = clonePtr(c.MaxExpansions)
	out.PrefixLength = clonePtr(c.PrefixLength)
	out.Slop = clonePtr(c.Slop)
	return out
}

// NewMatchConfig builds a MatchConfig node holding a copy of c.
func NewMatchConfig(c TextQueryConfig) MatchConfig {
	return MatchConfig{Config: c.Clone()}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
