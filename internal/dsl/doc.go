// Package dsl models the subset of the Elasticsearch query DSL that esquery
// emits: query clauses, sort keys, source filtering and the composite /
// top_hits aggregations used for grouping.
//
// Every clause marshals through a map, so encoding/json sorts object keys
// and the same value always produces byte-identical JSON.
package dsl
