package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/metrics"
)

// defaultSize is the backend's page size when a search sends none.
const defaultSize = 10

// ResultWindowError rejects a search whose from+size exceeds the result
// window.
type ResultWindowError struct {
	From, Size, Max int
}

// Error implements the error interface.
func (e *ResultWindowError) Error() string {
	return fmt.Sprintf("result window is too large, from + size must be less than or equal to: [%d] but was [%d]", e.Max, e.From+e.Size)
}

// Search evaluates req against the documents of req.Index.
func (s *Store) Search(ctx context.Context, req *backend.SearchRequest) (resp *backend.SearchResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend(backendName, "search", start, err) }()

	from, size := 0, defaultSize
	if req.From != nil {
		from = *req.From
	}
	if req.Size != nil {
		size = *req.Size
	}
	if from < 0 || size < 0 {
		return nil, fmt.Errorf("search %s: negative from or size", req.Index)
	}
	if from+size > s.maxWindow {
		return nil, fmt.Errorf("search %s: %w", req.Index, &ResultWindowError{From: from, Size: size, Max: s.maxWindow})
	}

	docs, err := s.matching(ctx, req.Index, req.Query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Index, err)
	}
	sortDocuments(docs, req.Sort)

	resp = &backend.SearchResponse{
		Total: int64(len(docs)),
		Hits:  []backend.Hit{},
	}

	if from < len(docs) {
		page := docs[from:min(from+size, len(docs))]
		resp.Hits, err = s.hits(req.Index, page, req.Source)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", req.Index, err)
		}
	}

	for name, agg := range req.Aggregations {
		comp, ok := agg.(dsl.CompositeAggregation)
		if !ok {
			return nil, fmt.Errorf("search %s: aggregation %q: %w", req.Index,
				name, &UnsupportedQueryError{Clause: fmt.Sprintf("%T", agg), Reason: "only composite aggregations are supported"})
		}
		result, err := s.composite(req.Index, docs, comp)
		if err != nil {
			return nil, fmt.Errorf("search %s: aggregation %q: %w", req.Index, name, err)
		}
		if resp.Composite == nil {
			resp.Composite = map[string]*backend.CompositeResult{}
		}
		resp.Composite[name] = result
	}

	resp.Took = time.Since(start).Milliseconds()
	s.logger.Debug("local search",
		"index", req.Index,
		"request_id", req.OpaqueID,
		"total", resp.Total,
		"hits", len(resp.Hits),
	)
	return resp, nil
}

// Count returns the number of documents of req.Index matching req.Query.
func (s *Store) Count(ctx context.Context, req *backend.CountRequest) (n int64, err error) {
	defer func(start time.Time) { metrics.ObserveBackend(backendName, "count", start, err) }(time.Now())

	docs, err := s.matching(ctx, req.Index, req.Query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", req.Index, err)
	}
	return int64(len(docs)), nil
}

// matching loads the documents of index in insertion order and keeps the
// ones q matches.
func (s *Store) matching(ctx context.Context, index string, q dsl.Query) ([]document, error) {
	ok, err := s.IndexExists(ctx, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, backend.ErrIndexNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, source
		FROM documents
		WHERE index_name = ?
		ORDER BY seq ASC
	`, index)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []document
	for rows.Next() {
		var (
			id     string
			seq    int64
			source string
		)
		if err := rows.Scan(&id, &seq, &source); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d, err := decodeDocument(id, seq, []byte(source))
		if err != nil {
			return nil, err
		}
		ok, err := matches(q, d)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *Store) hits(index string, docs []document, filter *dsl.SourceFilter) ([]backend.Hit, error) {
	out := make([]backend.Hit, 0, len(docs))
	for _, d := range docs {
		src := d.raw
		if filter != nil && len(filter.Includes) > 0 {
			b, err := json.Marshal(filterSource(d.source, filter.Includes))
			if err != nil {
				return nil, fmt.Errorf("filter source of %s: %w", d.id, err)
			}
			src = b
		}
		out = append(out, backend.Hit{Index: index, ID: d.id, Source: src})
	}
	return out, nil
}

// sortDocuments orders docs by the sort keys, keeping insertion order for
// ties. Multi-valued fields sort by their minimum ascending and maximum
// descending; documents missing the field sort last either way.
func sortDocuments(docs []document, sort []dsl.SortField) {
	if len(sort) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b document) int {
		for _, s := range sort {
			desc := s.Order == "desc"
			va, okA := sortValue(a.values(s.Field), desc)
			vb, okB := sortValue(b.values(s.Field), desc)
			switch {
			case !okA && !okB:
				continue
			case !okA:
				return 1
			case !okB:
				return -1
			}
			c := compareValues(va, vb)
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func sortValue(vals []any, desc bool) (any, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	best := vals[0]
	for _, v := range vals[1:] {
		c := compareValues(v, best)
		if (desc && c > 0) || (!desc && c < 0) {
			best = v
		}
	}
	return best, true
}
