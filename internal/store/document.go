package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/esquery/internal/ir"
)

// document is one stored source decoded for evaluation. Numbers decode as
// json.Number.
type document struct {
	id     string
	seq    int64
	raw    json.RawMessage
	source map[string]any
}

func decodeDocument(id string, seq int64, raw []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var src map[string]any
	if err := dec.Decode(&src); err != nil {
		return document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return document{id: id, seq: seq, raw: raw, source: src}, nil
}

// values returns every non-null value at field, with arrays flattened. A
// ".keyword" suffix resolves to the field itself when no such key exists.
func (d document) values(field string) []any {
	vals := collect(d.source, field)
	if len(vals) == 0 && strings.HasSuffix(field, ir.KeywordSuffix) {
		vals = collect(d.source, strings.TrimSuffix(field, ir.KeywordSuffix))
	}
	return vals
}

// collect walks a dotted path. A key holding the literal dotted name wins
// over nested traversal; arrays of objects are traversed element-wise.
func collect(v any, path string) []any {
	switch x := v.(type) {
	case map[string]any:
		if val, ok := x[path]; ok {
			return flatten(val, nil)
		}
		head, rest, found := strings.Cut(path, ".")
		if !found {
			return nil
		}
		child, ok := x[head]
		if !ok {
			return nil
		}
		return collect(child, rest)
	case []any:
		var out []any
		for _, e := range x {
			out = append(out, collect(e, path)...)
		}
		return out
	}
	return nil
}

func flatten(v any, out []any) []any {
	switch x := v.(type) {
	case nil:
		return out
	case []any:
		for _, e := range x {
			out = flatten(e, out)
		}
		return out
	default:
		return append(out, x)
	}
}

// filterSource keeps only the include paths of src. An empty includes
// list returns src unchanged.
func filterSource(src map[string]any, includes []string) map[string]any {
	if len(includes) == 0 {
		return src
	}
	out := map[string]any{}
	for _, path := range includes {
		include(out, src, path)
	}
	return out
}

func include(dst, src map[string]any, path string) {
	if path == "*" {
		for k, v := range src {
			dst[k] = v
		}
		return
	}
	if v, ok := src[path]; ok {
		dst[path] = v
		return
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return
	}
	child, ok := src[head].(map[string]any)
	if !ok {
		return
	}
	sub, ok := dst[head].(map[string]any)
	if !ok {
		sub = map[string]any{}
	}
	include(sub, child, rest)
	if len(sub) > 0 {
		dst[head] = sub
	}
}
