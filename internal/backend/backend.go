// Package backend defines the contract between the planner and a search
// backend: one search, count or index call per invocation, no retries.
package backend

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrIndexNotFound is returned when an operation targets a missing index.
var ErrIndexNotFound = errors.New("index not found")

// Client executes planned requests against a search backend.
//
// Implementations must be safe for concurrent use. Cancellation and
// timeouts come from ctx; Client implementations do not retry.
type Client interface {
	// Search runs a single search request.
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)

	// Count returns the number of documents matching req.
	Count(ctx context.Context, req *CountRequest) (int64, error)

	// IndexExists reports whether index exists.
	IndexExists(ctx context.Context, index string) (bool, error)

	// DeleteIndex removes index and all its documents.
	DeleteIndex(ctx context.Context, index string) error
}

// Indexer loads documents. It is used by setup code (CLI, harness), never
// by the planner.
type Indexer interface {
	// Index stores doc under id, replacing any previous version.
	Index(ctx context.Context, index, id string, doc json.RawMessage) error

	// Refresh makes every indexed document visible to search.
	Refresh(ctx context.Context, index string) error
}
