package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
)

// Backend defaults for unsized aggregations.
const (
	defaultCompositeSize = 10
	defaultTopHitsSize   = 3
)

type bucket struct {
	key  []any
	docs []document
}

// composite buckets docs by the tuple of source values. Buckets are
// ordered by key ascending; a document with several values for a source
// lands in one bucket per value and documents missing a source are
// skipped. Timestamp keys are reported as epoch milliseconds.
func (s *Store) composite(index string, docs []document, agg dsl.CompositeAggregation) (*backend.CompositeResult, error) {
	if len(agg.Sources) == 0 {
		return nil, fmt.Errorf("composite aggregation has no sources")
	}
	size := agg.Size
	if size <= 0 {
		size = defaultCompositeSize
	}

	var buckets []*bucket
	byKey := map[string]*bucket{}
	for _, d := range docs {
		for _, key := range keyTuples(d, agg.Sources) {
			id := tupleID(key)
			b, ok := byKey[id]
			if !ok {
				b = &bucket{key: key}
				byKey[id] = b
				buckets = append(buckets, b)
			}
			b.docs = append(b.docs, d)
		}
	}

	slices.SortFunc(buckets, func(a, b *bucket) int {
		return compareTuples(a.key, b.key)
	})

	if len(agg.After) > 0 {
		after := make([]any, len(agg.Sources))
		for i, src := range agg.Sources {
			after[i] = normalizeAfter(agg.After[src.Name])
		}
		i := 0
		for i < len(buckets) && compareTuples(buckets[i].key, after) <= 0 {
			i++
		}
		buckets = buckets[i:]
	}
	if len(buckets) > size {
		buckets = buckets[:size]
	}

	topHits, err := topHitsOf(agg.Aggs)
	if err != nil {
		return nil, err
	}

	out := &backend.CompositeResult{Buckets: make([]backend.Bucket, 0, len(buckets))}
	for _, b := range buckets {
		key := make(map[string]any, len(agg.Sources))
		for i, src := range agg.Sources {
			key[src.Name] = b.key[i]
		}
		bk := backend.Bucket{Key: key, DocCount: int64(len(b.docs)), Hits: []backend.Hit{}}
		if topHits != nil {
			n := topHits.Size
			if n <= 0 {
				n = defaultTopHitsSize
			}
			bk.Hits, err = s.hits(index, b.docs[:min(n, len(b.docs))], topHits.Source)
			if err != nil {
				return nil, err
			}
		}
		out.Buckets = append(out.Buckets, bk)
		out.AfterKey = key
	}
	return out, nil
}

func topHitsOf(aggs map[string]dsl.Aggregation) (*dsl.TopHitsAggregation, error) {
	var found *dsl.TopHitsAggregation
	for name, a := range aggs {
		th, ok := a.(dsl.TopHitsAggregation)
		if !ok {
			return nil, fmt.Errorf("sub-aggregation %q: %w", name,
				&UnsupportedQueryError{Clause: fmt.Sprintf("%T", a), Reason: "only top_hits is supported"})
		}
		found = &th
	}
	return found, nil
}

// keyTuples returns the cartesian product of d's values per source.
func keyTuples(d document, sources []dsl.CompositeSource) [][]any {
	tuples := [][]any{{}}
	for _, src := range sources {
		vals := d.values(src.Field)
		if len(vals) == 0 {
			return nil
		}
		var next [][]any
		for _, t := range tuples {
			for _, v := range dedupe(vals) {
				next = append(next, append(slices.Clone(t), keyValue(v)))
			}
		}
		tuples = next
	}
	return tuples
}

func dedupe(vals []any) []any {
	seen := map[string]struct{}{}
	out := vals[:0:0]
	for _, v := range vals {
		k := fmt.Sprintf("%T:%v", v, v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// keyValue converts a stored value to its bucket key form.
func keyValue(v any) any {
	if s, ok := v.(string); ok {
		if t, ok := parseTimestamp(s); ok {
			return json.Number(strconv.FormatInt(t.UnixMilli(), 10))
		}
	}
	return v
}

func normalizeAfter(v any) any {
	switch x := v.(type) {
	case float64:
		return json.Number(strconv.FormatFloat(x, 'f', -1, 64))
	case int:
		return json.Number(strconv.Itoa(x))
	case int64:
		return json.Number(strconv.FormatInt(x, 10))
	}
	return v
}

func compareTuples(a, b []any) int {
	for i := range min(len(a), len(b)) {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func tupleID(key []any) string {
	b, _ := json.Marshal(key)
	return string(b)
}
