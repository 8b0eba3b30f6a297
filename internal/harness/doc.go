// Package harness runs query scenarios against a fresh local store.
//
// A scenario is a YAML file naming an index, the documents to load into
// it, and a list of queries. Each query is a filter document plus the
// results it must produce:
//
//	name: active-people
//	index: people
//	documents:
//	  - {id: p1, name: Ann, age: 31, active: true}
//	  - {id: p2, name: Bob, age: 45, active: false}
//	queries:
//	  - name: active
//	    query:
//	      where: {eq: {field: active, value: true}}
//	    expect:
//	      ids: [p1]
//	      total: 1
//
// Every scenario runs in its own in-memory store, so scenarios are
// independent and deterministic. The planned request body of every query
// is recorded in the Result; RunWithGolden and the CLI compare those
// bodies against golden files.
package harness
