// Package planner turns a queryir.Query into backend requests and decodes
// the responses into typed results.
//
// ARCHITECTURE:
//
//	queryir.Query ──► Plan ──► backend.SearchRequest ──► Client.Search
//	                    │                                      │
//	                    └── querydsl (predicate)               ▼
//	                                          ToList / GroupBy / First / Count
//
// Per logical query the planner:
//   - enforces the result window (paging clamp, count clamp)
//   - resolves logical property names to backend field names
//   - appends ".keyword" when sorting or bucketing on text fields
//   - projects a single field through _source includes
//   - compiles group-by into a composite aggregation with a top_hits
//     sub-aggregation and decodes bucket keys
//
// CRITICAL PATTERNS:
//
// Stateless execution: one query in, exactly one request out, one decode
// pass. No retries, no caching, no session. Cancellation and timeouts come
// from the caller's context and the backend client.
//
// Fail before I/O: malformed directives and unsupported combinations are
// rejected while planning, so nothing reaches the backend.
//
// Window policy: paging beyond the window is clamped, not rejected, and
// counts above the window are reported as the window so pagination math
// never disagrees with what is retrievable.
package planner
