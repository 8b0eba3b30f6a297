package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Hit is one matching document.
type Hit struct {
	Index  string          `json:"_index,omitempty"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score,omitempty"`
	Source json.RawMessage `json:"_source,omitempty"`
}

// Bucket is one composite aggregation bucket. Key values keep their JSON
// number form (json.Number) so epoch-millisecond dates survive decoding.
type Bucket struct {
	Key      map[string]any
	DocCount int64
	Hits     []Hit
}

// CompositeResult is the decoded composite aggregation.
type CompositeResult struct {
	AfterKey map[string]any
	Buckets  []Bucket
}

// SearchResponse is the decoded result of a search.
type SearchResponse struct {
	Took      int64
	Total     int64
	Hits      []Hit
	Composite map[string]*CompositeResult
}

// rawResponse mirrors the backend's _search response body.
type rawResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total *struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []Hit `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

type rawTopHits struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// DecodeSearchResponse parses a _search response body. topHits names the
// sub-aggregation holding each bucket's documents; it may be empty.
func DecodeSearchResponse(body []byte, topHits string) (*SearchResponse, error) {
	var raw rawResponse
	if err := decodeNumbers(body, &raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	resp := &SearchResponse{
		Took: raw.Took,
		Hits: raw.Hits.Hits,
	}
	if resp.Hits == nil {
		resp.Hits = []Hit{}
	}
	if raw.Hits.Total != nil {
		resp.Total = raw.Hits.Total.Value
	}

	for name, aggBody := range raw.Aggregations {
		comp, err := decodeComposite(aggBody, topHits)
		if err != nil {
			return nil, fmt.Errorf("decode aggregation %q: %w", name, err)
		}
		if comp == nil {
			continue
		}
		if resp.Composite == nil {
			resp.Composite = make(map[string]*CompositeResult)
		}
		resp.Composite[name] = comp
	}
	return resp, nil
}

func decodeComposite(body json.RawMessage, topHits string) (*CompositeResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["buckets"]; !ok {
		return nil, nil
	}

	var raw struct {
		AfterKey map[string]any              `json:"after_key"`
		Buckets  []map[string]json.RawMessage `json:"buckets"`
	}
	if err := decodeNumbers(body, &raw); err != nil {
		return nil, err
	}

	out := &CompositeResult{AfterKey: raw.AfterKey, Buckets: make([]Bucket, 0, len(raw.Buckets))}
	for i, fields := range raw.Buckets {
		b := Bucket{}
		if k, ok := fields["key"]; ok {
			if err := decodeNumbers(k, &b.Key); err != nil {
				return nil, fmt.Errorf("bucket %d key: %w", i, err)
			}
		}
		if dc, ok := fields["doc_count"]; ok {
			if err := json.Unmarshal(dc, &b.DocCount); err != nil {
				return nil, fmt.Errorf("bucket %d doc_count: %w", i, err)
			}
		}
		b.Hits = []Hit{}
		if sub, ok := fields[topHits]; ok && topHits != "" {
			var th rawTopHits
			if err := json.Unmarshal(sub, &th); err != nil {
				return nil, fmt.Errorf("bucket %d %s: %w", i, topHits, err)
			}
			if th.Hits.Hits != nil {
				b.Hits = th.Hits.Hits
			}
		}
		out.Buckets = append(out.Buckets, b)
	}
	return out, nil
}

// DecodeCountResponse parses a _count response body.
func DecodeCountResponse(body []byte) (int64, error) {
	var raw struct {
		Count *int64 `json:"count"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	if raw.Count == nil {
		return 0, fmt.Errorf("decode count response: missing count")
	}
	return *raw.Count, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
