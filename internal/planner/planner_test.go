package planner

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/queryir"
)

func newTestPlanner(client *fakeClient, opts ...Option) *Planner {
	base := []Option{WithRequestIDs(NewSequenceGenerator("r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8"))}
	return New(client, "people", append(base, opts...)...)
}

func TestPlan_Defaults(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	req, err := p.Plan(queryir.Query{})
	require.NoError(t, err)

	assert.Equal(t, "people", req.Index)
	assert.Equal(t, "r1", req.OpaqueID)
	assert.True(t, req.TrackTotalHits)
	assert.Equal(t, dsl.MatchAllQuery{}, req.Query)
	assert.Nil(t, req.From)
	require.NotNil(t, req.Size)
	assert.Equal(t, DefaultWindow, *req.Size)
	assert.Empty(t, req.Aggregations)
}

func TestPlan_SkipWithoutTakeStaysInsideWindow(t *testing.T) {
	p := newTestPlanner(&fakeClient{}, WithWindow(100))

	req, err := p.Plan(queryir.Query{}.WithSkip(30))
	require.NoError(t, err)

	require.NotNil(t, req.From)
	assert.Equal(t, 30, *req.From)
	assert.Equal(t, 70, *req.Size)
}

func TestPlan_TakeClampedToWindow(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	req, err := p.Plan(queryir.Query{}.WithSkip(5).WithTake(10000))
	require.NoError(t, err)

	assert.Equal(t, 5, *req.From)
	assert.Equal(t, 9995, *req.Size)
}

func TestPlan_SortUsesExactFieldForText(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	q := queryir.Query{}.
		OrderedBy(queryir.Ordering{Field: "LastName", Kind: ir.KindText}).
		OrderedBy(queryir.Ordering{Field: "Age", Kind: ir.KindLong, Direction: queryir.Descending})

	req, err := p.Plan(q)
	require.NoError(t, err)
	assert.Equal(t, []dsl.SortField{
		{Field: "lastName.keyword", Order: "asc"},
		{Field: "age", Order: "desc"},
	}, req.Sort)
}

func TestPlan_FieldNamer(t *testing.T) {
	p := newTestPlanner(&fakeClient{}, WithFieldNamer(Identity))

	req, err := p.Plan(queryir.Query{}.Selecting("LastName"))
	require.NoError(t, err)
	require.NotNil(t, req.Source)
	assert.Equal(t, []string{"LastName"}, req.Source.Includes)
}

func TestPlan_GroupWithSelectIsUnsupported(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	q := queryir.Query{}.
		GroupedBy(queryir.Grouping{Field: "Name", Property: "Name", Kind: ir.KindText}).
		Selecting("Name")

	_, err := p.Plan(q)
	require.Error(t, err)
	assert.True(t, IsUnsupportedCombination(err))
}

func TestPlan_MalformedDirectives(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	tests := []struct {
		name string
		q    queryir.Query
	}{
		{"negative take", queryir.Query{}.WithTake(-1)},
		{"empty sort field", queryir.Query{}.OrderedBy(queryir.Ordering{})},
		{"invalid predicate", queryir.Query{}.Where(queryir.Term{Field: "", Value: ir.String("x")})},
		{"conflicting bounds", queryir.Query{}.Where(queryir.NumericRange{
			Field: "age", Gt: queryir.Ptr(1.0), Gte: queryir.Ptr(1.0),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Plan(tt.q)
			require.Error(t, err)
			assert.True(t, IsMalformedDirective(err), "got %v", err)
		})
	}
}

func TestPlanCount_IgnoresDirectives(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	q := queryir.Query{}.
		Where(queryir.Exists{Field: "email"}).
		WithSkip(3).
		WithTake(4).
		OrderedBy(queryir.Ordering{Field: "Name"})

	req, err := p.PlanCount(q)
	require.NoError(t, err)
	assert.Equal(t, "people", req.Index)

	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"bool":{"must":[{"exists":{"field":"email"}}]}}}`, string(b))
}

func TestPlan_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name string
		q    queryir.Query
	}{
		{
			"grouped_by_date_and_name",
			queryir.Query{}.
				Where(queryir.Term{Field: "active", Value: ir.Bool(true)}).
				GroupedBy(queryir.Grouping{Field: "Date", Property: "Date", Kind: ir.KindDate}).
				GroupedBy(queryir.Grouping{Field: "Name", Property: "Name", Kind: ir.KindText}).
				WithTake(5),
		},
		{
			"paged_sorted_projection",
			queryir.Query{}.
				Where(queryir.NewTerms("id", ir.String("a"), ir.String("b"))).
				WithSkip(5).
				WithTake(10).
				OrderedBy(queryir.Ordering{Field: "Name", Kind: ir.KindText}).
				Selecting("Name"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := newTestPlanner(&fakeClient{}).Plan(tt.q)
			require.NoError(t, err)
			b, err := json.MarshalIndent(req, "", "  ")
			require.NoError(t, err)
			g.Assert(t, tt.name, append(b, '\n'))
		})
	}
}

func TestPlan_SkipPastWindowPlansEmptyPage(t *testing.T) {
	p := newTestPlanner(&fakeClient{})

	req, err := p.Plan(queryir.Query{}.WithSkip(10001).WithTake(3))
	require.NoError(t, err)
	require.NotNil(t, req.From)
	require.NotNil(t, req.Size)
	assert.Equal(t, 10000, *req.From)
	assert.Equal(t, 0, *req.Size)
}

func TestPlan_LogsPredicateDepth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newTestPlanner(&fakeClient{}, WithLogger(logger))

	a := queryir.Term{Field: "name", Value: ir.String("a")}
	b := queryir.Term{Field: "name", Value: ir.String("b")}
	c := queryir.Term{Field: "name", Value: ir.String("c")}
	_, err := p.Plan(queryir.Query{}.Where(queryir.Or{Left: queryir.Or{Left: a, Right: b}, Right: c}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=predicate leaves=3 depth=2 optimized_depth=1")
}
