// Package api exposes the planner over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	POST /indexes/:index/compile   filter document -> planned request body
//	POST /indexes/:index/search    filter document -> page of documents
//	POST /indexes/:index/count     filter document -> match count
//	POST /indexes/:index/group     filter document -> groups
//
// Filter documents are JSON by default; a YAML or CUE Content-Type selects
// the other encodings. Failures use the error envelope in errors.go.
package api
