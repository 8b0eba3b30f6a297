package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/ir"
)

// scriptLength matches the covering-count scripts the compiler emits.
var scriptLength = regexp.MustCompile(`^\s*doc\['([^']+)'\]\.(?:length|size\(\))\s*$`)

// UnsupportedQueryError reports a clause the evaluator cannot answer.
type UnsupportedQueryError struct {
	Clause string
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("unsupported %s query: %s", e.Clause, e.Reason)
}

// matches evaluates q against d. A nil query matches everything.
func matches(q dsl.Query, d document) (bool, error) {
	switch c := q.(type) {
	case nil, dsl.MatchAllQuery:
		return true, nil
	case dsl.MatchNoneQuery:
		return false, nil
	case dsl.BoolQuery:
		return matchBool(c, d)
	case dsl.TermQuery:
		return anyValue(d.values(c.Field), func(v any) bool { return equalsValue(v, c.Value) }), nil
	case dsl.TermsQuery:
		return anyValue(d.values(c.Field), func(v any) bool { return inValues(v, c.Values) }), nil
	case dsl.TermsSetQuery:
		return matchTermsSet(c, d)
	case dsl.ExistsQuery:
		return len(d.values(c.Field)) > 0, nil
	case dsl.RangeQuery:
		return matchRange(c, d), nil
	case dsl.MatchQuery:
		return matchText(d.values(c.Field), c.Query, c.Operator, c.ZeroTermsQuery), nil
	case dsl.MatchPhraseQuery:
		return matchPhrase(d.values(c.Field), c.Query, false), nil
	case dsl.MatchPhrasePrefixQuery:
		return matchPhrase(d.values(c.Field), c.Query, true), nil
	case dsl.MultiMatchQuery:
		return matchMultiMatch(c, d)
	case dsl.QueryStringQuery:
		return matchQueryString(c, d), nil
	default:
		return false, &UnsupportedQueryError{Clause: fmt.Sprintf("%T", q), Reason: "no evaluator"}
	}
}

func matchBool(b dsl.BoolQuery, d document) (bool, error) {
	for _, group := range [][]dsl.Query{b.Must, b.Filter} {
		for _, q := range group {
			ok, err := matches(q, d)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	for _, q := range b.MustNot {
		ok, err := matches(q, d)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	if len(b.Should) == 0 {
		return true, nil
	}

	// Should clauses are optional once a must or filter clause is present.
	required := 1
	if len(b.Must) > 0 || len(b.Filter) > 0 {
		required = 0
	}
	if b.MinimumShouldMatch != nil {
		required = *b.MinimumShouldMatch
	}
	if required <= 0 {
		return true, nil
	}

	matched := 0
	for _, q := range b.Should {
		ok, err := matches(q, d)
		if err != nil {
			return false, err
		}
		if ok {
			matched++
			if matched >= required {
				return true, nil
			}
		}
	}
	return false, nil
}

func matchTermsSet(t dsl.TermsSetQuery, d document) (bool, error) {
	stored := d.values(t.Field)

	matched := 0
	for i, term := range t.Terms {
		if duplicateTerm(t.Terms[:i], term) {
			continue
		}
		if anyValue(stored, func(v any) bool { return equalsValue(v, term) }) {
			matched++
		}
	}
	// Only documents matching at least one term are candidates.
	if matched == 0 {
		return false, nil
	}

	required, err := requiredMatches(t, d)
	if err != nil {
		return false, err
	}
	return matched >= required, nil
}

func duplicateTerm(seen []ir.Value, v ir.Value) bool {
	for _, s := range seen {
		if s == v {
			return true
		}
	}
	return false
}

func requiredMatches(t dsl.TermsSetQuery, d document) (int, error) {
	switch {
	case t.MinimumShouldMatchScript != nil:
		src := t.MinimumShouldMatchScript.Source
		if m := scriptLength.FindStringSubmatch(src); m != nil {
			return distinctCount(d.values(m[1])), nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(src)); err == nil {
			return n, nil
		}
		return 0, &UnsupportedQueryError{Clause: "terms_set", Reason: fmt.Sprintf("script %q", src)}
	case t.MinimumShouldMatchField != "":
		vals := d.values(t.MinimumShouldMatchField)
		if len(vals) == 0 {
			return 0, nil
		}
		f, ok := toFloat(vals[0])
		if !ok {
			return 0, nil
		}
		return int(f), nil
	default:
		return 0, &UnsupportedQueryError{Clause: "terms_set", Reason: "no minimum_should_match"}
	}
}

// distinctCount counts distinct values the way doc values see them.
func distinctCount(vals []any) int {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[fmt.Sprint(v)] = struct{}{}
	}
	return len(seen)
}

func matchRange(r dsl.RangeQuery, d document) bool {
	return anyValue(d.values(r.Field), func(v any) bool {
		return bound(v, r.Gt, func(c int) bool { return c > 0 }) &&
			bound(v, r.Gte, func(c int) bool { return c >= 0 }) &&
			bound(v, r.Lt, func(c int) bool { return c < 0 }) &&
			bound(v, r.Lte, func(c int) bool { return c <= 0 })
	})
}

func bound(stored any, b ir.Value, ok func(int) bool) bool {
	if b == nil {
		return true
	}
	c, comparable := compareToBound(stored, b)
	return comparable && ok(c)
}

func matchText(vals []any, query, operator, zeroTerms string) bool {
	terms := analyze(query)
	if len(terms) == 0 {
		return strings.EqualFold(zeroTerms, "all")
	}
	return anyValue(vals, func(v any) bool {
		tokens := tokenSet(v)
		if strings.EqualFold(operator, "and") {
			for _, t := range terms {
				if _, ok := tokens[t]; !ok {
					return false
				}
			}
			return true
		}
		for _, t := range terms {
			if _, ok := tokens[t]; ok {
				return true
			}
		}
		return false
	})
}

func matchPhrase(vals []any, query string, prefix bool) bool {
	phrase := analyze(query)
	return anyValue(vals, func(v any) bool {
		return containsPhrase(analyze(text(v)), phrase, prefix)
	})
}

func matchMultiMatch(m dsl.MultiMatchQuery, d document) (bool, error) {
	for _, f := range m.Fields {
		field, _, _ := strings.Cut(f, "^")
		vals := d.values(field)
		var ok bool
		switch m.Type {
		case dsl.MultiMatchPhrase:
			ok = matchPhrase(vals, m.Query, false)
		case dsl.MultiMatchPhrasePrefix:
			ok = matchPhrase(vals, m.Query, true)
		case "", dsl.MultiMatchBestFields, dsl.MultiMatchMostFields, dsl.MultiMatchCrossFields:
			ok = matchText(vals, m.Query, m.Operator, m.ZeroTermsQuery)
		case dsl.MultiMatchBoolPrefix:
			ok = matchBoolPrefix(vals, m.Query)
		default:
			return false, &UnsupportedQueryError{Clause: "multi_match", Reason: fmt.Sprintf("type %q", m.Type)}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// matchBoolPrefix matches any analyzed term, treating the last one as a
// prefix.
func matchBoolPrefix(vals []any, query string) bool {
	terms := analyze(query)
	if len(terms) == 0 {
		return false
	}
	last := len(terms) - 1
	return anyValue(vals, func(v any) bool {
		for _, tok := range analyze(text(v)) {
			for i, t := range terms {
				if tok == t || (i == last && strings.HasPrefix(tok, t)) {
					return true
				}
			}
		}
		return false
	})
}

// matchQueryString supports whitespace-separated terms, each either plain
// or containing '*'/'?' wildcards, combined with the default operator.
func matchQueryString(q dsl.QueryStringQuery, d document) bool {
	terms := queryTerms(q.Query)
	if len(terms) == 0 {
		return false
	}
	fields := q.Fields
	and := strings.EqualFold(q.DefaultOperator, "and")

	matchTerm := func(term string) bool {
		for _, f := range fields {
			field, _, _ := strings.Cut(f, "^")
			if queryStringTerm(d.values(field), term) {
				return true
			}
		}
		return false
	}

	for _, term := range terms {
		ok := matchTerm(term)
		if and && !ok {
			return false
		}
		if !and && ok {
			return true
		}
	}
	return and
}

// queryTerms splits a query string on unescaped whitespace. Escapes are
// kept so the wildcard matcher still sees them.
func queryTerms(s string) []string {
	var (
		terms   []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune('\\')
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case unicode.IsSpace(r):
			if cur.Len() > 0 {
				terms = append(terms, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	if cur.Len() > 0 {
		terms = append(terms, cur.String())
	}
	return terms
}

func queryStringTerm(vals []any, term string) bool {
	if hasWildcard(term) {
		pattern := fold(term)
		return anyValue(vals, func(v any) bool {
			s := text(v)
			if wildcardMatch(pattern, fold(s)) {
				return true
			}
			for _, tok := range analyze(s) {
				if wildcardMatch(pattern, tok) {
					return true
				}
			}
			return false
		})
	}
	return matchText(vals, term, "or", "")
}

func anyValue(vals []any, pred func(any) bool) bool {
	for _, v := range vals {
		if pred(v) {
			return true
		}
	}
	return false
}

func inValues(stored any, values []ir.Value) bool {
	for _, v := range values {
		if equalsValue(stored, v) {
			return true
		}
	}
	return false
}

func tokenSet(v any) map[string]struct{} {
	tokens := analyze(text(v))
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// text renders a stored scalar for analysis.
func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
