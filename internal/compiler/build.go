package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/queryir"
)

// Compile parses data in the given format and builds the query.
func Compile(data []byte, format Format, name string) (queryir.Query, error) {
	doc, err := Parse(data, format, name)
	if err != nil {
		return queryir.Query{}, err
	}
	return Build(doc)
}

// CompileFile parses the filter document at path and builds the query.
func CompileFile(path string) (queryir.Query, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return queryir.Query{}, err
	}
	return Build(doc)
}

// Build converts a filter document into a query. A document without a
// where clause matches everything.
func Build(doc *Document) (queryir.Query, error) {
	var q queryir.Query
	if doc == nil {
		return q, nil
	}

	if doc.Where != nil {
		pred, err := buildExpr(doc.Where, "$.where", false)
		if err != nil {
			return queryir.Query{}, err
		}
		q.Predicate = pred
	}

	q.Skip = doc.Skip
	q.Take = doc.Take
	q.Select = doc.Select

	for i, o := range doc.OrderBy {
		if strings.TrimSpace(o.Field) == "" {
			return queryir.Query{}, errorf(fmt.Sprintf("$.order_by[%d]", i), "field is required")
		}
		dir := queryir.Ascending
		if o.Desc {
			dir = queryir.Descending
		}
		q.OrderBy = append(q.OrderBy, queryir.Ordering{Field: o.Field, Kind: o.Kind, Direction: dir})
	}

	for i, g := range doc.GroupBy {
		if strings.TrimSpace(g.Field) == "" {
			return queryir.Query{}, errorf(fmt.Sprintf("$.group_by[%d]", i), "field is required")
		}
		prop := g.Property
		if prop == "" {
			prop = g.Field
		}
		q.GroupBy = append(q.GroupBy, queryir.Grouping{Field: g.Field, Property: prop, Kind: g.Kind})
	}
	return q, nil
}

// buildExpr emits the predicate for e, or for its negation when negate is
// set. Negation is pushed through and/or and flipped into the dual
// operator where one exists; only primitive leaves end up under Not.
func buildExpr(e *Expr, path string, negate bool) (queryir.Node, error) {
	ops := e.operators()
	switch len(ops) {
	case 0:
		return nil, errorf(path, "no operator")
	case 1:
	default:
		return nil, errorf(path, "more than one operator: %s", strings.Join(ops, ", "))
	}
	op := ops[0]
	path += "." + op

	switch op {
	case "and", "or":
		children := e.And
		if op == "or" {
			children = e.Or
		}
		nodes := make([]queryir.Node, 0, len(children))
		for i := range children {
			n, err := buildExpr(&children[i], fmt.Sprintf("%s[%d]", path, i), negate)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		if (op == "and") != negate {
			return queryir.AllOf(nodes...), nil
		}
		return queryir.AnyOf(nodes...), nil

	case "not":
		return buildExpr(e.Not, path, !negate)

	case "const":
		if *e.Const != negate {
			return queryir.MatchAll(), nil
		}
		return queryir.MatchNone(), nil

	case "eq", "ne":
		c := e.Eq
		if op == "ne" {
			c = e.Ne
		}
		return buildEquality(c, path, (op == "ne") != negate)

	case "gt", "gte", "lt", "lte":
		c := map[string]*Comparison{"gt": e.Gt, "gte": e.Gte, "lt": e.Lt, "lte": e.Lte}[op]
		if negate {
			op = flipRange[op]
		}
		return buildRange(c, path, op)

	case "in", "not_in":
		m := e.In
		if op == "not_in" {
			m = e.NotIn
		}
		return buildMembership(m, path, (op == "not_in") != negate)

	case "any", "all", "none":
		return buildCollection(e, op, path, negate)

	case "contains", "starts_with", "ends_with":
		return buildStringMatch(e, op, path, negate)

	case "exists", "missing":
		field, present := e.Exists, true
		if op == "missing" {
			field, present = e.Missing, false
		}
		if present != negate {
			return queryir.Exists{Field: field}, nil
		}
		return queryir.NotExists{Field: field}, nil

	case "match_phrase":
		if err := requireText(e.MatchPhrase, path); err != nil {
			return nil, err
		}
		return negated(queryir.MatchPhrase{Field: e.MatchPhrase.Field, Text: e.MatchPhrase.Text}, negate), nil

	case "query_string":
		if err := requireText(e.QueryString, path); err != nil {
			return nil, err
		}
		return negated(queryir.QueryString{Field: e.QueryString.Field, Text: e.QueryString.Text}, negate), nil

	case "multi_match":
		if len(e.MultiMatch.Fields) == 0 {
			return nil, errorf(path, "fields are required")
		}
		return negated(queryir.NewMultiMatch(e.MultiMatch.Text, e.MultiMatch.Fields...), negate), nil

	case "match":
		if e.Match.Kind == "" {
			return nil, errorf(path, "kind is required")
		}
		return negated(queryir.NewMatchConfig(*e.Match), negate), nil
	}
	return nil, errorf(path, "unsupported operator %q", op)
}

var flipRange = map[string]string{
	"gt":  "lte",
	"gte": "lt",
	"lt":  "gte",
	"lte": "gt",
}

func negated(n queryir.Node, negate bool) queryir.Node {
	if negate {
		return queryir.Not{Child: n}
	}
	return n
}

// buildEquality compares against a null value as a missing-field test.
func buildEquality(c *Comparison, path string, negate bool) (queryir.Node, error) {
	if err := requireField(c.Field, path); err != nil {
		return nil, err
	}
	if c.Value == nil {
		if negate {
			return queryir.Exists{Field: c.Field}, nil
		}
		return queryir.NotExists{Field: c.Field}, nil
	}
	v, err := termValue(c.Value, c.Kind, path+".value")
	if err != nil {
		return nil, err
	}
	return negated(queryir.Term{Field: ir.ExactField(c.Field, c.Kind), Value: v}, negate), nil
}

func buildRange(c *Comparison, path, op string) (queryir.Node, error) {
	if err := requireField(c.Field, path); err != nil {
		return nil, err
	}
	if c.Value == nil {
		return nil, errorf(path+".value", "range bound is required")
	}
	v, err := termValue(c.Value, c.Kind, path+".value")
	if err != nil {
		return nil, err
	}
	if s, ok := v.(ir.String); ok && c.Kind == ir.KindUnknown {
		if t, err := ir.ParseDate(string(s)); err == nil {
			v = ir.Date(t)
		}
	}

	switch val := v.(type) {
	case ir.Date:
		t := val.Time()
		r := queryir.DateRange{Field: c.Field}
		setBound(op, &t, &r.Gt, &r.Gte, &r.Lt, &r.Lte)
		return r, nil
	case ir.Long, ir.Double:
		f, _ := ir.Float(val)
		r := queryir.NumericRange{Field: c.Field}
		setBound(op, &f, &r.Gt, &r.Gte, &r.Lt, &r.Lte)
		return r, nil
	}
	return nil, errorf(path+".value", "range bound must be a number or a date, got %T", c.Value)
}

func setBound[T any](op string, v *T, gt, gte, lt, lte **T) {
	switch op {
	case "gt":
		*gt = v
	case "gte":
		*gte = v
	case "lt":
		*lt = v
	case "lte":
		*lte = v
	}
}

func buildMembership(m *Membership, path string, negate bool) (queryir.Node, error) {
	if err := requireField(m.Field, path); err != nil {
		return nil, err
	}
	values, err := termValues(m.Values, m.Kind, path+".values")
	if err != nil {
		return nil, err
	}
	return negated(queryir.NewTerms(ir.ExactField(m.Field, m.Kind), values...), negate), nil
}

// buildCollection handles any/all/none. not any is none and not none is
// any; not all stays a negated covering test.
func buildCollection(e *Expr, op, path string, negate bool) (queryir.Node, error) {
	c := map[string]*Comparison{"any": e.Any, "all": e.All, "none": e.None}[op]
	if err := requireField(c.Field, path); err != nil {
		return nil, err
	}
	raw, ok := c.Value.([]any)
	if !ok {
		raw = []any{c.Value}
	}
	values, err := termValues(raw, c.Kind, path+".value")
	if err != nil {
		return nil, err
	}
	field := ir.ExactField(c.Field, c.Kind)

	if negate {
		switch op {
		case "any":
			op = "none"
		case "none":
			op = "any"
		}
	}
	switch op {
	case "any":
		return queryir.NewTerms(field, values...), nil
	case "none":
		return queryir.Not{Child: queryir.NewTermsSet(field, false, values...)}, nil
	}
	return negated(queryir.NewTermsSet(field, true, values...), negate), nil
}

func buildStringMatch(e *Expr, op, path string, negate bool) (queryir.Node, error) {
	c := map[string]*Comparison{"contains": e.Contains, "starts_with": e.StartsWith, "ends_with": e.EndsWith}[op]
	if err := requireField(c.Field, path); err != nil {
		return nil, err
	}
	s, ok := c.Value.(string)
	if !ok {
		return nil, errorf(path+".value", "must be a string, got %T", c.Value)
	}
	text := ir.NewString(s)

	var n queryir.Node
	switch op {
	case "contains":
		n = queryir.QueryString{Field: c.Field, Text: "*" + EscapeQueryString(string(text)) + "*"}
	case "ends_with":
		n = queryir.QueryString{Field: c.Field, Text: "*" + EscapeQueryString(string(text))}
	default:
		n = queryir.NewMultiMatch(string(text), c.Field)
	}
	return negated(n, negate), nil
}

// queryStringReserved are the characters query_string syntax reserves.
const queryStringReserved = `+-=&|!(){}[]^"~*?:\/`

// EscapeQueryString backslash-escapes query_string syntax characters and
// whitespace so s is matched literally.
func EscapeQueryString(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(queryStringReserved, r) || r == ' ' || r == '\t' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func termValue(raw any, kind ir.FieldKind, path string) (ir.Value, error) {
	v, err := ir.FromAny(raw)
	if err != nil {
		return nil, errorf(path, "%v", err)
	}
	v, err = ir.Coerce(v, kind)
	if err != nil {
		return nil, errorf(path, "%v", err)
	}
	return v, nil
}

func termValues(raw []any, kind ir.FieldKind, path string) ([]ir.Value, error) {
	values := make([]ir.Value, 0, len(raw))
	for i, r := range raw {
		v, err := termValue(r, kind, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func requireField(field, path string) error {
	if strings.TrimSpace(field) == "" {
		return errorf(path+".field", "field is required")
	}
	return nil
}

func requireText(t *TextSpec, path string) error {
	return requireField(t.Field, path)
}
