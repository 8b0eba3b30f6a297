package backend

import (
	"encoding/json"

	"github.com/roach88/esquery/internal/dsl"
)

// SearchRequest is a fully planned search.
type SearchRequest struct {
	Index string
	Query dsl.Query

	// From and Size are omitted when nil.
	From *int
	Size *int

	Sort   []dsl.SortField
	Source *dsl.SourceFilter

	Aggregations map[string]dsl.Aggregation

	// TrackTotalHits asks for an exact total instead of a lower bound.
	TrackTotalHits bool

	// OpaqueID correlates the request in backend logs.
	OpaqueID string
}

// MarshalJSON renders the _search request body. Index and OpaqueID travel
// out of band and are not part of the body.
func (r SearchRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if r.Query != nil {
		body["query"] = r.Query
	}
	if r.From != nil {
		body["from"] = *r.From
	}
	if r.Size != nil {
		body["size"] = *r.Size
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if r.Source != nil {
		body["_source"] = r.Source
	}
	if len(r.Aggregations) > 0 {
		body["aggs"] = r.Aggregations
	}
	if r.TrackTotalHits {
		body["track_total_hits"] = true
	}
	return json.Marshal(body)
}

// CountRequest counts the documents matching Query.
type CountRequest struct {
	Index    string
	Query    dsl.Query
	OpaqueID string
}

// MarshalJSON renders the _count request body.
func (r CountRequest) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if r.Query != nil {
		body["query"] = r.Query
	}
	return json.Marshal(body)
}
