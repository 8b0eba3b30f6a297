package store

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/queryir"
	"github.com/roach88/esquery/internal/testutil"
)

func ids(people []testutil.Person) []string {
	return testutil.IDs(people)
}

func TestPlanned_SkipWithoutTake(t *testing.T) {
	s, _ := seedPeople(t, 11)
	p := newPlanner(s)

	got, err := planner.ToList[testutil.Person](context.Background(), p, queryir.Query{}.WithSkip(5))
	require.NoError(t, err)
	assert.Len(t, got.Items, 6)
	assert.Equal(t, "person-06", got.Items[0].ID)
	assert.Equal(t, int64(11), got.Total)
}

func TestPlanned_SkipPastWindowReturnsEmptyPage(t *testing.T) {
	s, _ := seedPeople(t, 3)
	p := newPlanner(s)

	got, err := planner.ToList[testutil.Person](context.Background(), p, queryir.Query{}.WithSkip(10001).WithTake(3))
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, int64(3), got.Total)
}

func TestPlanned_BackendErrorPrefixedOnce(t *testing.T) {
	s, _ := seedPeople(t, 3)
	p := newPlanner(s, planner.WithWindow(20000))

	_, err := planner.ToList[testutil.Person](context.Background(), p, queryir.Query{}.WithSkip(15000))
	require.Error(t, err)

	var rw *ResultWindowError
	require.ErrorAs(t, err, &rw)
	assert.Equal(t, "search people: "+rw.Error(), err.Error())
}

func TestPlanned_ThirtyOredIDs(t *testing.T) {
	s, people := seedPeople(t, 35)
	p := newPlanner(s)

	var nodes []queryir.Node
	for _, person := range people[:30] {
		nodes = append(nodes, queryir.Term{Field: "id", Value: ir.String(person.ID)})
	}
	q := queryir.Query{}.Where(queryir.AnyOf(nodes...)).WithTake(100)

	got, err := planner.ToList[testutil.Person](context.Background(), p, q)
	require.NoError(t, err)
	assert.Equal(t, ids(people[:30]), ids(got.Items))

	n, err := p.Count(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(30), n)
}

func TestPlanned_CollectionPredicates(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s,
		`{"y":["a","b"]}`,
		`{"y":["target"]}`,
		`{"y":["a","target"]}`,
		`{"y":[]}`,
		`{"y":["target","target"]}`,
	)
	p := newPlanner(s)
	target := ir.String("target")

	run := func(n queryir.Node) []string {
		t.Helper()
		req, err := p.Plan(queryir.Query{}.Where(n))
		require.NoError(t, err)
		resp, err := s.Search(context.Background(), req)
		require.NoError(t, err)
		var out []string
		for _, h := range resp.Hits {
			out = append(out, h.ID)
		}
		return out
	}

	// Every element differs from target.
	assert.Equal(t, []string{"doc-1", "doc-4"}, run(queryir.Not{Child: queryir.NewTermsSet("y", false, target)}))

	// Every element equals target, with at least one element.
	assert.Equal(t, []string{"doc-2", "doc-5"}, run(queryir.NewTermsSet("y", true, target)))

	// Some element equals target.
	assert.Equal(t, []string{"doc-2", "doc-3", "doc-5"}, run(queryir.NewTermsSet("y", false, target)))
}

func TestPlanned_TermsSetAgreesWithInMemoryEvaluation(t *testing.T) {
	docs := [][]string{
		{"a"}, {"b"}, {"a", "b"}, {"a", "a"}, {"c"}, {}, {"b", "c", "a"}, {"a", "c"},
	}
	s := createTestStore(t)
	for i, d := range docs {
		require.NoError(t, s.Index(context.Background(), testIndex, fmt.Sprintf("d%d", i),
			testutil.MustJSON(t, map[string]any{"y": d})))
	}
	p := newPlanner(s)
	terms := []ir.Value{ir.String("a"), ir.String("b")}

	in := func(v string) bool {
		return slices.Contains(terms, ir.Value(ir.String(v)))
	}

	// requireAll is y.All(v => terms.Contains(v)) and otherwise
	// y.Any(v => terms.Contains(v)). An empty y never matches, so the All
	// form also needs y.Any().
	matches := func(y []string, requireAll bool) bool {
		if !requireAll {
			return slices.ContainsFunc(y, in)
		}
		if len(y) == 0 {
			return false
		}
		for _, v := range y {
			if !in(v) {
				return false
			}
		}
		return true
	}

	for _, requireAll := range []bool{false, true} {
		t.Run(fmt.Sprintf("requireAll=%v", requireAll), func(t *testing.T) {
			var want []string
			for i, d := range docs {
				if matches(d, requireAll) {
					want = append(want, fmt.Sprintf("d%d", i))
				}
			}

			req, err := p.Plan(queryir.Query{}.Where(queryir.NewTermsSet("y", requireAll, terms...)))
			require.NoError(t, err)
			resp, err := s.Search(context.Background(), req)
			require.NoError(t, err)

			var got []string
			for _, h := range resp.Hits {
				got = append(got, h.ID)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestPlanned_GroupByDate(t *testing.T) {
	s := createTestStore(t)
	day1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	people := []testutil.Person{
		{ID: "p1", Name: "Ann", Joined: day2},
		{ID: "p2", Name: "Bob", Joined: day1},
		{ID: "p3", Name: "Cleo", Joined: day2},
		{ID: "p4", Name: "Dag", Joined: day1},
		{ID: "p5", Name: "Eva", Joined: day2},
	}
	require.NoError(t, testutil.SeedPeople(context.Background(), s, testIndex, people))

	p := newPlanner(s, planner.WithLocation(time.UTC))
	q := queryir.Query{}.GroupedBy(queryir.Grouping{Field: "Joined", Property: "Joined", Kind: ir.KindDate})

	groups, err := planner.GroupBy[testutil.Person](context.Background(), p, q)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	k1, ok := groups[0].Key.Value().(time.Time)
	require.True(t, ok)
	assert.True(t, k1.Equal(day1))
	assert.Equal(t, int64(2), groups[0].Count)
	assert.Equal(t, []string{"p2", "p4"}, ids(groups[0].Items))

	k2, ok := groups[1].Key.Value().(time.Time)
	require.True(t, ok)
	assert.True(t, k2.Equal(day2))
	assert.Equal(t, int64(3), groups[1].Count)
	assert.Equal(t, []string{"p1", "p3", "p5"}, ids(groups[1].Items))
}

func TestPlanned_GroupByTextAndBool(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s,
		`{"team":"red","active":true}`,
		`{"team":"blue","active":true}`,
		`{"team":"red","active":false}`,
		`{"team":"red","active":true}`,
		`{"active":true}`,
	)
	p := newPlanner(s, planner.WithTopHits(1))
	q := queryir.Query{}.
		GroupedBy(queryir.Grouping{Field: "Team", Property: "Team", Kind: ir.KindText}).
		GroupedBy(queryir.Grouping{Field: "Active", Property: "Active", Kind: ir.KindBool})

	groups, err := planner.GroupBy[map[string]any](context.Background(), p, q)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "{Team=blue, Active=true}", groups[0].Key.String())
	assert.Equal(t, "{Team=red, Active=false}", groups[1].Key.String())
	assert.Equal(t, "{Team=red, Active=true}", groups[2].Key.String())
	assert.Equal(t, int64(2), groups[2].Count)
	assert.Len(t, groups[2].Items, 1)
}

func TestPlanned_PagingClampStaysInsideWindow(t *testing.T) {
	s, _ := seedPeople(t, 12, WithMaxResultWindow(10))
	p := newPlanner(s, planner.WithWindow(10))

	got, err := planner.ToList[testutil.Person](context.Background(), p, queryir.Query{}.WithSkip(5).WithTake(100))
	require.NoError(t, err)
	assert.Len(t, got.Items, 5)

	n, err := p.Count(context.Background(), queryir.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestPlanned_SortAndProjection(t *testing.T) {
	s, _ := seedPeople(t, 3)
	p := newPlanner(s)

	q := queryir.Query{}.OrderedBy(queryir.Ordering{Field: "Name", Kind: ir.KindText, Direction: queryir.Descending})
	got, err := planner.ToList[testutil.Person](context.Background(), p, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"person-03", "person-02", "person-01"}, ids(got.Items))

	emails, err := planner.ToList[string](context.Background(), p, queryir.Query{}.Selecting("Email"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann1@example.com", "Bob2@example.com"}, emails.Items)
}

func TestPlanned_SortMissingLast(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s, `{"n":2}`, `{}`, `{"n":10}`, `{"n":[1,20]}`)

	for _, tc := range []struct {
		order string
		want  []string
	}{
		{"asc", []string{"doc-4", "doc-1", "doc-3", "doc-2"}},
		{"desc", []string{"doc-4", "doc-3", "doc-1", "doc-2"}},
	} {
		t.Run(tc.order, func(t *testing.T) {
			resp, err := s.Search(context.Background(), &backend.SearchRequest{
				Index: testIndex,
				Sort:  []dsl.SortField{{Field: "n", Order: tc.order}},
			})
			require.NoError(t, err)
			var got []string
			for _, h := range resp.Hits {
				got = append(got, h.ID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPlanned_Predicates(t *testing.T) {
	s, people := seedPeople(t, 3)
	p := newPlanner(s)
	second := people[1].Joined

	tests := []struct {
		name string
		node queryir.Node
		want []string
	}{
		{"exists", queryir.Exists{Field: "email"}, []string{"person-01", "person-02"}},
		{"not exists", queryir.NotExists{Field: "email"}, []string{"person-03"}},
		{"numeric range", queryir.NumericRange{Field: "age", Gte: queryir.Ptr(21.0), Lt: queryir.Ptr(23.0)}, []string{"person-02", "person-03"}},
		{"date range", queryir.DateRange{Field: "joined", Gte: &second}, []string{"person-02", "person-03"}},
		{"match phrase", queryir.MatchPhrase{Field: "name", Text: "bob 2"}, []string{"person-02"}},
		{"phrase prefix", queryir.NewMultiMatch("cle", "name"), []string{"person-03"}},
		{"query string", queryir.QueryString{Field: "email", Text: "*example*"}, []string{"person-01", "person-02"}},
		{"and", queryir.AllOf(queryir.Term{Field: "active", Value: ir.Bool(true)}, queryir.Exists{Field: "email"}), []string{"person-01"}},
		{"not", queryir.Not{Child: queryir.Term{Field: "active", Value: ir.Bool(true)}}, []string{"person-02"}},
		{"match none", queryir.MatchNone(), nil},
		{"keyword term", queryir.Term{Field: "name.keyword", Value: ir.String("Cleo 3")}, []string{"person-03"}},
		{"match config", queryir.NewMatchConfig(queryir.TextQueryConfig{
			Kind: queryir.TextMatch, Field: "name", Query: "ann cleo",
		}), []string{"person-01", "person-03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := planner.ToList[testutil.Person](context.Background(), p, queryir.Query{}.Where(tt.node))
			require.NoError(t, err)
			var gotIDs []string
			for _, g := range got.Items {
				gotIDs = append(gotIDs, g.ID)
			}
			assert.Equal(t, tt.want, gotIDs)
		})
	}
}
