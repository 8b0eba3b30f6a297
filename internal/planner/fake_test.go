package planner

import (
	"context"
	"sync"

	"github.com/roach88/esquery/internal/backend"
)

// fakeClient records requests and replays canned responses.
type fakeClient struct {
	mu       sync.Mutex
	searches []*backend.SearchRequest
	counts   []*backend.CountRequest

	resp  *backend.SearchResponse
	count int64
	err   error
}

func (f *fakeClient) Search(_ context.Context, req *backend.SearchRequest) (*backend.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &backend.SearchResponse{Hits: []backend.Hit{}}, nil
	}
	return f.resp, nil
}

func (f *fakeClient) Count(_ context.Context, req *backend.CountRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, req)
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeClient) IndexExists(context.Context, string) (bool, error) {
	return true, nil
}

func (f *fakeClient) DeleteIndex(context.Context, string) error {
	return nil
}

func hits(sources ...string) []backend.Hit {
	out := make([]backend.Hit, len(sources))
	for i, s := range sources {
		out[i] = backend.Hit{ID: string(rune('a' + i)), Source: []byte(s)}
	}
	return out
}
