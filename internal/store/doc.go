// Package store provides a SQLite-backed local search backend.
//
// The store implements backend.Client and backend.Indexer so the planner,
// the harness and the CLI can run without an Elasticsearch cluster. Raw
// documents live in SQLite; queries are answered by evaluating the typed
// DSL in process over an index's documents.
//
// # Critical Patterns
//
// CP-1: Insertion Order
//   - Every document gets a per-index seq on first write
//   - Unsorted results are returned ORDER BY seq ASC, like an
//     unscored search over a single shard
//   - Re-indexing an id replaces the source and keeps its seq
//
// CP-2: Backend Semantics
//   - bool defaults minimum_should_match to 1 only when no must/filter
//     clause is present
//   - terms_set requires at least one matching term, then the covering
//     count (script doc['f'].length counts distinct values)
//   - from+size above the result window is rejected, not clamped
//   - ".keyword" sub-fields resolve to the raw field value
//
// CP-3: Text Analysis
//   - NFC normalization, Unicode case folding, split on anything that is
//     not a letter or digit
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
