package queryir

import (
	"slices"

	"github.com/roach88/esquery/internal/ir"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String implements fmt.Stringer using the backend's order keywords.
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Ordering is one sort key. Field is the logical property name; the planner
// resolves it to the backend field name.
type Ordering struct {
	Field     string
	Kind      ir.FieldKind
	Direction Direction
}

// Grouping is one group-by key.
//
// Field is the backend field to bucket on (before name resolution) and
// Property the logical name the decoded key part is reported under.
type Grouping struct {
	Field    string
	Property string
	Kind     ir.FieldKind
}

// Query aggregates a predicate with its execution directives.
//
// A nil Predicate matches every document. A nil Skip or Take means the
// directive is absent. An empty Select requests whole documents.
type Query struct {
	Predicate Node
	Skip      *int
	Take      *int
	OrderBy   []Ordering
	GroupBy   []Grouping
	Select    string
}

// Grouped reports whether the query carries group-by directives.
func (q Query) Grouped() bool {
	return len(q.GroupBy) > 0
}

// Where returns a copy of q with p as its predicate.
func (q Query) Where(p Node) Query {
	out := q.clone()
	out.Predicate = p
	return out
}

// WithSkip returns a copy of q skipping n documents.
func (q Query) WithSkip(n int) Query {
	out := q.clone()
	out.Skip = &n
	return out
}

// WithTake returns a copy of q taking at most n documents.
func (q Query) WithTake(n int) Query {
	out := q.clone()
	out.Take = &n
	return out
}

// OrderedBy returns a copy of q with o appended to its sort keys.
func (q Query) OrderedBy(o Ordering) Query {
	out := q.clone()
	out.OrderBy = append(out.OrderBy, o)
	return out
}

// GroupedBy returns a copy of q with g appended to its group keys.
func (q Query) GroupedBy(g Grouping) Query {
	out := q.clone()
	out.GroupBy = append(out.GroupBy, g)
	return out
}

// Selecting returns a copy of q projecting the single field name.
func (q Query) Selecting(field string) Query {
	out := q.clone()
	out.Select = field
	return out
}

func (q Query) clone() Query {
	out := q
	out.OrderBy = slices.Clone(q.OrderBy)
	out.GroupBy = slices.Clone(q.GroupBy)
	if q.Skip != nil {
		out.Skip = Ptr(*q.Skip)
	}
	if q.Take != nil {
		out.Take = Ptr(*q.Take)
	}
	return out
}
