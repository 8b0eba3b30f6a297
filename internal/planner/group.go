package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/metrics"
	"github.com/roach88/esquery/internal/queryir"
)

// GroupBy executes a grouped query and returns one Group per distinct key,
// in bucket order. Each group carries at most the configured top-hits
// documents decoded as T.
func GroupBy[T any](ctx context.Context, p *Planner, q queryir.Query) (groups []Group[T], err error) {
	defer func(start time.Time) { metrics.ObserveQuery("group", start, err) }(time.Now())

	if !q.Grouped() {
		return nil, &PlanError{Code: ErrCodeMalformedDirective, Message: "query has no group by"}
	}

	resp, err := p.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	comp := resp.Composite[CompositeAggregation]
	if comp == nil {
		return []Group[T]{}, nil
	}

	groups = make([]Group[T], 0, len(comp.Buckets))
	for i, b := range comp.Buckets {
		key, err := p.decodeKey(q.GroupBy, b.Key)
		if err != nil {
			return nil, &PlanError{Code: ErrCodeDecode, Message: fmt.Sprintf("bucket %d key", i), Cause: err}
		}
		items := make([]T, 0, len(b.Hits))
		for _, h := range b.Hits {
			v, err := decodeHit[T](h)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		groups = append(groups, Group[T]{Key: key, Count: b.DocCount, Items: items})
	}
	return groups, nil
}

func (p *Planner) decodeKey(groups []queryir.Grouping, raw map[string]any) (GroupKey, error) {
	key := make(GroupKey, 0, len(groups))
	for _, g := range groups {
		v, ok := raw[GroupSourcePrefix+g.Property]
		if !ok {
			return nil, fmt.Errorf("missing key part %q", g.Property)
		}
		dv, err := p.keyValue(v, g.Kind)
		if err != nil {
			return nil, fmt.Errorf("key part %q: %w", g.Property, err)
		}
		key = append(key, KeyPart{Name: g.Property, Value: dv})
	}
	return key, nil
}

// keyValue converts a raw bucket key into its natural Go value. Date keys
// arrive as epoch milliseconds and are returned in the planner's location.
func (p *Planner) keyValue(v any, kind ir.FieldKind) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if kind == ir.KindDate {
			ms, err := x.Int64()
			if err != nil {
				f, ferr := x.Float64()
				if ferr != nil {
					return nil, fmt.Errorf("date key %s: %w", x, err)
				}
				ms = int64(f)
			}
			return time.UnixMilli(ms).In(p.location), nil
		}
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return x.Float64()
	case string:
		if kind == ir.KindDate {
			t, err := ir.ParseDate(x)
			if err != nil {
				return nil, err
			}
			return t.In(p.location), nil
		}
		return x, nil
	default:
		return x, nil
	}
}
