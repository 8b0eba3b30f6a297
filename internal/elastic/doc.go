// Package elastic implements backend.Client and backend.Indexer over the
// official Elasticsearch Go client.
//
// One planner request maps to exactly one HTTP call. The client does not
// retry on its own behalf: retries and node discovery are transport
// concerns configured through Config. Every call carries the request's
// opaque id in X-Opaque-Id so slow logs can be correlated with planner
// debug logs.
package elastic
