package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/queryir"
)

// =============================================================================
// Negation push-down
// =============================================================================

func TestBuildPushesNegationToLeaves(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		yaml string
		want queryir.Node
	}{
		{
			name: "de morgan over and",
			yaml: `
where:
  not:
    and:
      - eq: {field: name, value: Bob, kind: text}
      - gt: {field: age, value: 30}
`,
			want: queryir.Or{
				Left:  queryir.Not{Child: queryir.Term{Field: "name.keyword", Value: ir.String("Bob")}},
				Right: queryir.NumericRange{Field: "age", Lte: queryir.Ptr(30.0)},
			},
		},
		{
			name: "de morgan over or",
			yaml: `
where:
  not:
    or:
      - exists: email
      - lt: {field: age, value: 18}
`,
			want: queryir.And{
				Left:  queryir.NotExists{Field: "email"},
				Right: queryir.NumericRange{Field: "age", Gte: queryir.Ptr(18.0)},
			},
		},
		{
			name: "double negation",
			yaml: "where: {not: {not: {exists: email}}}",
			want: queryir.Exists{Field: "email"},
		},
		{
			name: "not missing",
			yaml: "where: {not: {missing: email}}",
			want: queryir.Exists{Field: "email"},
		},
		{
			name: "not ne is eq",
			yaml: "where: {not: {ne: {field: active, value: true}}}",
			want: queryir.Term{Field: "active", Value: ir.Bool(true)},
		},
		{
			name: "eq null is missing",
			yaml: "where: {eq: {field: email, value: null}}",
			want: queryir.NotExists{Field: "email"},
		},
		{
			name: "ne null is exists",
			yaml: "where: {ne: {field: email, value: null}}",
			want: queryir.Exists{Field: "email"},
		},
		{
			name: "not gte date",
			yaml: "where: {not: {gte: {field: joined, value: \"2024-01-01T00:00:00Z\", kind: date}}}",
			want: queryir.DateRange{Field: "joined", Lt: &jan},
		},
		{
			name: "date string without kind",
			yaml: "where: {lte: {field: joined, value: \"2024-01-01T00:00:00Z\"}}",
			want: queryir.DateRange{Field: "joined", Lte: &jan},
		},
		{
			name: "not in",
			yaml: "where: {not: {in: {field: tags, values: [a, b]}}}",
			want: queryir.Not{Child: queryir.NewTerms("tags", ir.String("a"), ir.String("b"))},
		},
		{
			name: "not not_in",
			yaml: "where: {not: {not_in: {field: age, values: [1, 2]}}}",
			want: queryir.NewTerms("age", ir.Long(1), ir.Long(2)),
		},
		{
			name: "any",
			yaml: "where: {any: {field: tags, value: go}}",
			want: queryir.NewTerms("tags", ir.String("go")),
		},
		{
			name: "not any is none",
			yaml: "where: {not: {any: {field: tags, value: go}}}",
			want: queryir.Not{Child: queryir.NewTermsSet("tags", false, ir.String("go"))},
		},
		{
			name: "not none is any",
			yaml: "where: {not: {none: {field: tags, value: [go, rust]}}}",
			want: queryir.NewTerms("tags", ir.String("go"), ir.String("rust")),
		},
		{
			name: "all",
			yaml: "where: {all: {field: tags, value: go}}",
			want: queryir.NewTermsSet("tags", true, ir.String("go")),
		},
		{
			name: "not all",
			yaml: "where: {not: {all: {field: tags, value: go, kind: text}}}",
			want: queryir.Not{Child: queryir.NewTermsSet("tags.keyword", true, ir.String("go"))},
		},
		{
			name: "not const false",
			yaml: "where: {not: {const: false}}",
			want: queryir.MatchAll(),
		},
		{
			name: "empty and",
			yaml: "where: {and: []}",
			want: queryir.MatchAll(),
		},
		{
			name: "negated empty and",
			yaml: "where: {not: {and: []}}",
			want: queryir.MatchNone(),
		},
		{
			name: "negated text leaf",
			yaml: "where: {not: {match_phrase: {field: bio, text: quick fox}}}",
			want: queryir.Not{Child: queryir.MatchPhrase{Field: "bio", Text: "quick fox"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)

			q, err := Build(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Predicate)
		})
	}
}

// =============================================================================
// String operators
// =============================================================================

func TestBuildStringOperators(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want queryir.Node
	}{
		{
			name: "contains",
			yaml: "where: {contains: {field: name, value: an}}",
			want: queryir.QueryString{Field: "name", Text: "*an*"},
		},
		{
			name: "contains escapes syntax",
			yaml: "where: {contains: {field: name, value: \"a b:c\"}}",
			want: queryir.QueryString{Field: "name", Text: `*a\ b\:c*`},
		},
		{
			name: "ends with",
			yaml: "where: {ends_with: {field: email, value: example.com}}",
			want: queryir.QueryString{Field: "email", Text: "*example.com"},
		},
		{
			name: "starts with",
			yaml: "where: {starts_with: {field: name, value: An}}",
			want: queryir.NewMultiMatch("An", "name"),
		},
		{
			name: "not contains",
			yaml: "where: {not: {contains: {field: name, value: x}}}",
			want: queryir.Not{Child: queryir.QueryString{Field: "name", Text: "*x*"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)

			q, err := Build(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Predicate)
		})
	}
}

func TestEscapeQueryString(t *testing.T) {
	assert.Equal(t, "plain", EscapeQueryString("plain"))
	assert.Equal(t, `a\*b\?`, EscapeQueryString("a*b?"))
	assert.Equal(t, `\(x\)\ \\`, EscapeQueryString(`(x) \`))
}

// =============================================================================
// Directives
// =============================================================================

func TestBuildDirectives(t *testing.T) {
	doc, err := ParseYAML([]byte(`
skip: 10
take: 5
order_by:
  - {field: name, kind: text}
  - {field: age, desc: true}
group_by:
  - {field: joined, kind: date}
  - {field: name, property: Name, kind: text}
select: email
`))
	require.NoError(t, err)

	q, err := Build(doc)
	require.NoError(t, err)

	assert.Nil(t, q.Predicate)
	require.NotNil(t, q.Skip)
	require.NotNil(t, q.Take)
	assert.Equal(t, 10, *q.Skip)
	assert.Equal(t, 5, *q.Take)
	assert.Equal(t, []queryir.Ordering{
		{Field: "name", Kind: ir.KindText, Direction: queryir.Ascending},
		{Field: "age", Direction: queryir.Descending},
	}, q.OrderBy)
	assert.Equal(t, []queryir.Grouping{
		{Field: "joined", Property: "joined", Kind: ir.KindDate},
		{Field: "name", Property: "Name", Kind: ir.KindText},
	}, q.GroupBy)
	assert.Equal(t, "email", q.Select)
}

func TestBuildNilDocument(t *testing.T) {
	q, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Query{}, q)
}

// =============================================================================
// Errors
// =============================================================================

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"no operator", "where: {}", "$.where"},
		{"two operators", "where: {exists: a, missing: b}", "$.where"},
		{"nested path", "where: {and: [{exists: a}, {gt: {field: age, value: true}}]}", "$.where.and[1].gt.value"},
		{"missing field", "where: {eq: {value: 1}}", "$.where.eq.field"},
		{"bad date", "where: {eq: {field: joined, value: soon, kind: date}}", "$.where.eq.value"},
		{"bad membership value", "where: {in: {field: a, values: [1, null]}}", "$.where.in.values[1]"},
		{"range without bound", "where: {lt: {field: age}}", "$.where.lt.value"},
		{"non-string contains", "where: {contains: {field: name, value: 3}}", "$.where.contains.value"},
		{"empty multi_match", "where: {multi_match: {fields: [], text: x}}", "$.where.multi_match"},
		{"match without kind", "where: {match: {field: bio, query: x}}", "$.where.match"},
		{"order without field", "order_by: [{desc: true}]", "$.order_by[0]"},
		{"group without field", "group_by: [{kind: date}]", "$.group_by[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = Build(doc)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.path, ce.Path)
		})
	}
}

func TestCompileErrorString(t *testing.T) {
	err := &CompileError{Path: "$.where", Message: "no operator"}
	assert.Equal(t, "$.where: no operator", err.Error())
}
