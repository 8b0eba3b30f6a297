package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/metrics"
	"github.com/roach88/esquery/internal/queryir"
)

// Search plans q and issues exactly one search request.
func (p *Planner) Search(ctx context.Context, q queryir.Query) (*backend.SearchResponse, error) {
	req, err := p.Plan(q)
	if err != nil {
		return nil, err
	}
	return p.execute(ctx, req)
}

func (p *Planner) execute(ctx context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	p.logger.Debug("search", describe(req)...)

	resp, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ToList executes q and decodes every hit into T. When q selects a single
// field, each hit's value for that field is decoded into T and hits without
// the field are skipped; otherwise the whole document is decoded.
func ToList[T any](ctx context.Context, p *Planner, q queryir.Query) (result *ResultList[T], err error) {
	defer func(start time.Time) { metrics.ObserveQuery("list", start, err) }(time.Now())

	if q.Grouped() {
		if q.Select != "" {
			return nil, &PlanError{Code: ErrCodeUnsupportedCombination, Message: "group by cannot be combined with select"}
		}
		return nil, &PlanError{Code: ErrCodeMalformedDirective, Message: "grouped query must be executed with Group"}
	}

	resp, err := p.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(resp.Hits))
	if q.Select != "" {
		field := p.namer(q.Select)
		for _, h := range resp.Hits {
			raw, ok := lookupField(h.Source, field)
			if !ok {
				continue
			}
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, &PlanError{Code: ErrCodeDecode, Message: fmt.Sprintf("decode field %q of hit %s", field, h.ID), Cause: err}
			}
			items = append(items, v)
		}
	} else {
		for _, h := range resp.Hits {
			v, err := decodeHit[T](h)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}

	return &ResultList[T]{
		Items: items,
		Skip:  deref(q.Skip),
		Take:  deref(q.Take),
		Total: resp.Total,
	}, nil
}

// First returns the first result of q, or ErrNoElement when nothing
// matches.
func First[T any](ctx context.Context, p *Planner, q queryir.Query) (T, error) {
	v, ok, err := first[T](ctx, p, q)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &PlanError{Code: ErrCodeNoElement, Message: "first", Cause: ErrNoElement}
	}
	return v, nil
}

// FirstOrDefault returns the first result of q. ok is false, with the zero
// T, when nothing matches.
func FirstOrDefault[T any](ctx context.Context, p *Planner, q queryir.Query) (v T, ok bool, err error) {
	return first[T](ctx, p, q)
}

// Single returns the only expected result of q. Uniqueness is not
// enforced: Single behaves like First.
func Single[T any](ctx context.Context, p *Planner, q queryir.Query) (T, error) {
	return First[T](ctx, p, q)
}

// SingleOrDefault behaves like FirstOrDefault.
func SingleOrDefault[T any](ctx context.Context, p *Planner, q queryir.Query) (T, bool, error) {
	return FirstOrDefault[T](ctx, p, q)
}

func first[T any](ctx context.Context, p *Planner, q queryir.Query) (v T, ok bool, err error) {
	// Only one row is needed; a caller take of 0 still means no rows.
	take := 1
	if q.Take != nil && *q.Take < take {
		take = *q.Take
	}
	list, err := ToList[T](ctx, p, q.WithTake(take))
	if err != nil {
		return v, false, err
	}
	if len(list.Items) == 0 {
		return v, false, nil
	}
	return list.Items[0], true, nil
}

// Count returns the number of documents matching q's predicate, clamped to
// the result window.
func (p *Planner) Count(ctx context.Context, q queryir.Query) (n int64, err error) {
	defer func(start time.Time) { metrics.ObserveQuery("count", start, err) }(time.Now())

	req, err := p.PlanCount(q)
	if err != nil {
		return 0, err
	}
	p.logger.Debug("count", "index", req.Index, "request_id", req.OpaqueID)

	n, err = p.client.Count(ctx, req)
	if err != nil {
		return 0, err
	}
	if n > int64(p.window) {
		metrics.CountClamps.Inc()
		p.logger.Debug("count clamped to result window", "count", n, "window", p.window)
		n = int64(p.window)
	}
	return n, nil
}

// Any reports whether at least one document matches q's predicate.
func (p *Planner) Any(ctx context.Context, q queryir.Query) (bool, error) {
	n, err := p.Count(ctx, q)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func decodeHit[T any](h backend.Hit) (T, error) {
	var v T
	if len(h.Source) == 0 {
		return v, &PlanError{Code: ErrCodeDecode, Message: fmt.Sprintf("hit %s has no source", h.ID)}
	}
	if err := json.Unmarshal(h.Source, &v); err != nil {
		return v, &PlanError{Code: ErrCodeDecode, Message: fmt.Sprintf("decode hit %s", h.ID), Cause: err}
	}
	return v, nil
}

// lookupField returns the raw JSON at a dotted path inside source. A field
// stored under the literal dotted name wins over nested traversal.
func lookupField(source json.RawMessage, path string) (json.RawMessage, bool) {
	if len(source) == 0 {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(source, &obj); err != nil {
		return nil, false
	}
	if raw, ok := obj[path]; ok {
		return raw, !isNull(raw)
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	raw, ok := obj[head]
	if !ok {
		return nil, false
	}
	return lookupField(raw, rest)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
