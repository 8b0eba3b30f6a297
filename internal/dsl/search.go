package dsl

import "encoding/json"

// SortField is one entry of a search sort list.
type SortField struct {
	Field string
	Order string // "asc" or "desc"
}

// MarshalJSON implements json.Marshaler.
func (s SortField) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{s.Field: map[string]any{"order": s.Order}})
}

// SourceFilter restricts the _source returned with each hit.
type SourceFilter struct {
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

// Aggregation is a search aggregation definition.
//
// This is a sealed interface - only types in this package implement it.
type Aggregation interface {
	json.Marshaler
	aggregation()
}

// CompositeSource is one named terms source of a composite aggregation.
type CompositeSource struct {
	Name  string
	Field string
}

// MarshalJSON implements json.Marshaler.
func (s CompositeSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		s.Name: map[string]any{"terms": map[string]any{"field": s.Field}},
	})
}

// CompositeAggregation buckets documents by the tuple of its sources.
type CompositeAggregation struct {
	Sources []CompositeSource
	Size    int
	After   map[string]any
	Aggs    map[string]Aggregation
}

func (CompositeAggregation) aggregation() {}

// MarshalJSON implements json.Marshaler.
func (a CompositeAggregation) MarshalJSON() ([]byte, error) {
	composite := map[string]any{"sources": nonNil(a.Sources)}
	if a.Size > 0 {
		composite["size"] = a.Size
	}
	if len(a.After) > 0 {
		composite["after"] = a.After
	}
	body := map[string]any{"composite": composite}
	if len(a.Aggs) > 0 {
		body["aggs"] = a.Aggs
	}
	return json.Marshal(body)
}

// TopHitsAggregation returns the top documents of each bucket.
type TopHitsAggregation struct {
	Size   int
	Source *SourceFilter
}

func (TopHitsAggregation) aggregation() {}

// MarshalJSON implements json.Marshaler.
func (a TopHitsAggregation) MarshalJSON() ([]byte, error) {
	inner := map[string]any{}
	if a.Size > 0 {
		inner["size"] = a.Size
	}
	if a.Source != nil {
		inner["_source"] = a.Source
	}
	return json.Marshal(map[string]any{"top_hits": inner})
}
