package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
)

func compositeSearch(t *testing.T, s *Store, agg dsl.CompositeAggregation) *backend.CompositeResult {
	t.Helper()
	size := 0
	resp, err := s.Search(context.Background(), &backend.SearchRequest{
		Index:        testIndex,
		Size:         &size,
		Aggregations: map[string]dsl.Aggregation{"composite": agg},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Hits)
	require.Contains(t, resp.Composite, "composite")
	return resp.Composite["composite"]
}

func TestComposite_PagesWithAfterKey(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s, `{"n":3}`, `{"n":1}`, `{"n":2}`, `{"n":1}`)

	agg := dsl.CompositeAggregation{
		Sources: []dsl.CompositeSource{{Name: "group_by_N", Field: "n"}},
		Size:    2,
	}
	first := compositeSearch(t, s, agg)
	require.Len(t, first.Buckets, 2)
	assert.Equal(t, json.Number("1"), first.Buckets[0].Key["group_by_N"])
	assert.Equal(t, int64(2), first.Buckets[0].DocCount)
	assert.Equal(t, json.Number("2"), first.AfterKey["group_by_N"])

	agg.After = first.AfterKey
	second := compositeSearch(t, s, agg)
	require.Len(t, second.Buckets, 1)
	assert.Equal(t, json.Number("3"), second.Buckets[0].Key["group_by_N"])
}

func TestComposite_MultiValuedFieldsFanOut(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s, `{"tags":["x","y","x"]}`, `{"tags":"y"}`, `{}`)

	result := compositeSearch(t, s, dsl.CompositeAggregation{
		Sources: []dsl.CompositeSource{{Name: "t", Field: "tags.keyword"}},
		Aggs:    map[string]dsl.Aggregation{"docs": dsl.TopHitsAggregation{Size: 5, Source: &dsl.SourceFilter{Includes: []string{"missing"}}}},
	})
	require.Len(t, result.Buckets, 2)
	assert.Equal(t, "x", result.Buckets[0].Key["t"])
	assert.Equal(t, int64(1), result.Buckets[0].DocCount)
	assert.Equal(t, "y", result.Buckets[1].Key["t"])
	assert.Equal(t, int64(2), result.Buckets[1].DocCount)
	require.Len(t, result.Buckets[1].Hits, 2)
	assert.JSONEq(t, `{}`, string(result.Buckets[1].Hits[0].Source))
}

func TestComposite_TimestampKeysAreEpochMillis(t *testing.T) {
	s := createTestStore(t)
	indexRaw(t, s, `{"at":"2024-05-01T00:00:00Z"}`, `{"at":"2024-05-01T02:00:00+02:00"}`)

	result := compositeSearch(t, s, dsl.CompositeAggregation{
		Sources: []dsl.CompositeSource{{Name: "at", Field: "at"}},
	})
	require.Len(t, result.Buckets, 1)
	assert.Equal(t, json.Number("1714521600000"), result.Buckets[0].Key["at"])
	assert.Equal(t, int64(2), result.Buckets[0].DocCount)
}

func TestFilterSource(t *testing.T) {
	src := map[string]any{
		"name":    "ann",
		"address": map[string]any{"city": "Oslo", "zip": "0150"},
		"a.b":     1,
	}

	assert.Equal(t, map[string]any{"name": "ann"}, filterSource(src, []string{"name"}))
	assert.Equal(t, map[string]any{"address": map[string]any{"city": "Oslo"}}, filterSource(src, []string{"address.city"}))
	assert.Equal(t, map[string]any{"a.b": 1}, filterSource(src, []string{"a.b"}))
	assert.Equal(t, map[string]any{}, filterSource(src, []string{"nope"}))
	assert.Equal(t, src, filterSource(src, nil))
}
