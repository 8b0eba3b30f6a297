// Package querydsl compiles queryir predicate trees into search DSL queries.
package querydsl

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/queryir"
)

// DefaultMaxExpansions bounds the prefix expansion of phrase-prefix
// MultiMatch nodes.
const DefaultMaxExpansions = 200

// CompileError reports a node that cannot be compiled.
type CompileError struct {
	Node    string
	Message string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.Node, e.Message)
}

// IsCompileError reports whether err is (or wraps) a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// DSLCompiler compiles queryir nodes to dsl queries.
//
// Compilation is pure: the same node always yields an identical query and
// no I/O happens. A DSLCompiler holds no per-call state and is safe for
// concurrent use.
type DSLCompiler struct {
	// MaxExpansions is emitted on phrase-prefix MultiMatch nodes.
	MaxExpansions int
}

// NewDSLCompiler creates a DSLCompiler with default settings.
func NewDSLCompiler() *DSLCompiler {
	return &DSLCompiler{MaxExpansions: DefaultMaxExpansions}
}

// Compile converts a predicate into a query. A nil node compiles to
// match_all.
func (c *DSLCompiler) Compile(n queryir.Node) (dsl.Query, error) {
	if n == nil {
		return dsl.MatchAllQuery{}, nil
	}

	switch node := n.(type) {
	case queryir.And:
		return c.compileAnd(node)
	case queryir.Or:
		// CRITICAL: never compile Or as nested binary bools; backends cap
		// boolean nesting depth.
		return c.compileGroup(queryir.Flatten(node))
	case queryir.BoolGroup:
		return c.compileGroup(node)
	case queryir.Not:
		child, err := c.compileChild("not", node.Child)
		if err != nil {
			return nil, err
		}
		return dsl.BoolQuery{MustNot: []dsl.Query{child}}, nil
	case queryir.Term:
		return c.compileTerm(node)
	case queryir.Terms:
		if err := requireField("terms", node.Field); err != nil {
			return nil, err
		}
		if len(node.Values) == 0 {
			return dsl.MatchNoneQuery{}, nil
		}
		return dsl.TermsQuery{Field: node.Field, Values: node.Values, Name: node.Field}, nil
	case queryir.TermsSet:
		return c.compileTermsSet(node)
	case queryir.Exists:
		if err := requireField("exists", node.Field); err != nil {
			return nil, err
		}
		return dsl.BoolQuery{Must: []dsl.Query{dsl.ExistsQuery{Field: node.Field}}}, nil
	case queryir.NotExists:
		if err := requireField("not_exists", node.Field); err != nil {
			return nil, err
		}
		return dsl.BoolQuery{MustNot: []dsl.Query{dsl.ExistsQuery{Field: node.Field}}}, nil
	case queryir.DateRange:
		return c.compileDateRange(node)
	case queryir.NumericRange:
		return c.compileNumericRange(node)
	case queryir.MatchPhrase:
		if err := requireField("match_phrase", node.Field); err != nil {
			return nil, err
		}
		return dsl.MatchPhraseQuery{Field: node.Field, Query: node.Text, Name: node.Field}, nil
	case queryir.MultiMatch:
		return c.compileMultiMatch(node)
	case queryir.QueryString:
		if err := requireField("query_string", node.Field); err != nil {
			return nil, err
		}
		return dsl.QueryStringQuery{Fields: []string{node.Field}, Query: node.Text, Name: node.Field}, nil
	case queryir.MatchConfig:
		return CompileTextConfig(node.Config)
	default:
		return nil, &CompileError{Node: fmt.Sprintf("%T", n), Message: "unsupported node type"}
	}
}

func (c *DSLCompiler) compileChild(node string, child queryir.Node) (dsl.Query, error) {
	if child == nil {
		return nil, &CompileError{Node: node, Message: "child node is nil"}
	}
	q, err := c.Compile(child)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", node, err)
	}
	return q, nil
}

func (c *DSLCompiler) compileAnd(n queryir.And) (dsl.Query, error) {
	left, err := c.compileChild("and.left", n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compileChild("and.right", n.Right)
	if err != nil {
		return nil, err
	}
	return dsl.BoolQuery{Must: []dsl.Query{left, right}}, nil
}

func (c *DSLCompiler) compileGroup(g queryir.BoolGroup) (dsl.Query, error) {
	// An empty should list would match everything; an empty disjunction
	// is false.
	if len(g.Children) == 0 {
		return dsl.MatchNoneQuery{}, nil
	}
	should := make([]dsl.Query, len(g.Children))
	for i, child := range g.Children {
		q, err := c.compileChild(fmt.Sprintf("should[%d]", i), child)
		if err != nil {
			return nil, err
		}
		should[i] = q
	}
	return dsl.BoolQuery{Should: should}, nil
}

func (c *DSLCompiler) compileTerm(n queryir.Term) (dsl.Query, error) {
	if n.Value == nil {
		return nil, &CompileError{Node: "term", Message: "value is nil"}
	}
	if n.Field == "" {
		b, ok := queryir.IsConstant(n)
		if !ok {
			return nil, &CompileError{Node: "term", Message: fmt.Sprintf("constant term must hold a bool, got %T", n.Value)}
		}
		if b {
			return dsl.MatchAllQuery{}, nil
		}
		return dsl.MatchNoneQuery{}, nil
	}
	return dsl.TermQuery{Field: n.Field, Value: n.Value}, nil
}

func (c *DSLCompiler) compileTermsSet(n queryir.TermsSet) (dsl.Query, error) {
	if err := requireField("terms_set", n.Field); err != nil {
		return nil, err
	}
	if len(n.Values) == 0 {
		return dsl.MatchNoneQuery{}, nil
	}
	script := &dsl.Script{Source: "0"}
	if n.RequireAll {
		script = &dsl.Script{Source: CardinalityScript(n.Field)}
	}
	return dsl.TermsSetQuery{
		Field:                    n.Field,
		Terms:                    n.Values,
		MinimumShouldMatchScript: script,
		Name:                     n.Field,
	}, nil
}

// CardinalityScript returns the script source that evaluates to the number
// of values a document holds in field.
func CardinalityScript(field string) string {
	return fmt.Sprintf("doc['%s'].length", field)
}

func (c *DSLCompiler) compileDateRange(n queryir.DateRange) (dsl.Query, error) {
	if err := requireField("date_range", n.Field); err != nil {
		return nil, err
	}
	if err := checkBounds("date_range", n.Gt != nil && n.Gte != nil, n.Lt != nil && n.Lte != nil); err != nil {
		return nil, err
	}
	return dsl.RangeQuery{
		Field: n.Field,
		Gt:    dateBound(n.Gt),
		Gte:   dateBound(n.Gte),
		Lt:    dateBound(n.Lt),
		Lte:   dateBound(n.Lte),
		Name:  n.Field,
	}, nil
}

func (c *DSLCompiler) compileNumericRange(n queryir.NumericRange) (dsl.Query, error) {
	if err := requireField("numeric_range", n.Field); err != nil {
		return nil, err
	}
	if err := checkBounds("numeric_range", n.Gt != nil && n.Gte != nil, n.Lt != nil && n.Lte != nil); err != nil {
		return nil, err
	}
	return dsl.RangeQuery{
		Field: n.Field,
		Gt:    numericBound(n.Gt),
		Gte:   numericBound(n.Gte),
		Lt:    numericBound(n.Lt),
		Lte:   numericBound(n.Lte),
		Name:  n.Field,
	}, nil
}

func (c *DSLCompiler) compileMultiMatch(n queryir.MultiMatch) (dsl.Query, error) {
	if len(n.Fields) == 0 {
		return nil, &CompileError{Node: "multi_match", Message: "at least one field is required"}
	}
	for _, f := range n.Fields {
		if err := requireField("multi_match", f); err != nil {
			return nil, err
		}
	}
	maxExpansions := c.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	return dsl.MultiMatchQuery{
		Fields:      n.Fields,
		Query:       n.Text,
		Type:        dsl.MultiMatchPhrasePrefix,
		Name:        n.Fields[0],
		TextOptions: dsl.TextOptions{MaxExpansions: &maxExpansions},
	}, nil
}

// CompileTextConfig compiles caller-tuned full-text parameters. Parameters
// are passed through verbatim.
func CompileTextConfig(c queryir.TextQueryConfig) (dsl.Query, error) {
	opts := dsl.TextOptions{
		Analyzer:                        c.Analyzer,
		AutoGenerateSynonymsPhraseQuery: c.AutoGenerateSynonymsPhraseQuery,
		Boost:                           c.Boost,
		Fuzziness:                       c.Fuzziness,
		FuzzyRewrite:                    c.FuzzyRewrite,
		FuzzyTranspositions:             c.FuzzyTranspositions,
		Lenient:                         c.Lenient,
		MaxExpansions:                   c.MaxExpansions,
		MinimumShouldMatch:              c.MinimumShouldMatch,
		Operator:                        c.Operator,
		PrefixLength:                    c.PrefixLength,
		Slop:                            c.Slop,
		ZeroTermsQuery:                  c.ZeroTermsQuery,
	}

	switch c.Kind {
	case queryir.TextMatch:
		if err := requireField("match", c.Field); err != nil {
			return nil, err
		}
		return dsl.MatchQuery{Field: c.Field, Query: c.Query, Name: c.Name, TextOptions: opts}, nil
	case queryir.TextMatchPhrase:
		if err := requireField("match_phrase", c.Field); err != nil {
			return nil, err
		}
		return dsl.MatchPhraseQuery{Field: c.Field, Query: c.Query, Name: c.Name, TextOptions: opts}, nil
	case queryir.TextMatchPhrasePrefix:
		if err := requireField("match_phrase_prefix", c.Field); err != nil {
			return nil, err
		}
		return dsl.MatchPhrasePrefixQuery{Field: c.Field, Query: c.Query, Name: c.Name, TextOptions: opts}, nil
	case queryir.TextMultiMatch:
		if len(c.Fields) == 0 {
			return nil, &CompileError{Node: "multi_match", Message: "at least one field is required"}
		}
		return dsl.MultiMatchQuery{Fields: c.Fields, Query: c.Query, Type: c.Type, Name: c.Name, TextOptions: opts}, nil
	default:
		return nil, &CompileError{Node: "match_config", Message: fmt.Sprintf("unknown text query kind %q", c.Kind)}
	}
}

func requireField(node, field string) error {
	if field == "" {
		return &CompileError{Node: node, Message: "field is required"}
	}
	return nil
}

func checkBounds(node string, lower, upper bool) error {
	if lower {
		return &CompileError{Node: node, Message: "gt and gte are mutually exclusive"}
	}
	if upper {
		return &CompileError{Node: node, Message: "lt and lte are mutually exclusive"}
	}
	return nil
}

func dateBound(t *time.Time) ir.Value {
	if t == nil {
		return nil
	}
	return ir.Date(*t)
}

func numericBound(f *float64) ir.Value {
	if f == nil {
		return nil
	}
	return ir.Double(*f)
}
