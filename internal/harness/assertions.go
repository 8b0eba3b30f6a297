package harness

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/roach88/esquery/internal/planner"
)

// checkError compares the query's error against the expected code.
func checkError(qc *QueryCase, err error, result *Result) {
	want := qc.Expect.Error
	switch {
	case err == nil && want != "":
		result.AddError(qc.Name, "expected error %s, query succeeded", want)
	case err != nil && want == "":
		result.AddError(qc.Name, "unexpected error: %v", err)
	case err != nil && ErrorCode(err) != want:
		result.AddError(qc.Name, "expected error %s, got %s (%v)", want, ErrorCode(err), err)
	}
}

func checkCount(qc *QueryCase, n int64, result *Result) {
	if want := qc.Expect.Count; want != nil && *want != n {
		result.AddError(qc.Name, "expected count %d, got %d", *want, n)
	}
}

// checkItems checks a page of decoded hits. Whole documents are
// identified by their "id" field; projected values are compared as JSON.
func checkItems(qc *QueryCase, items []any, total int64, result *Result) {
	exp := qc.Expect
	checkCount(qc, int64(len(items)), result)

	if exp.Total != nil && *exp.Total != total {
		result.AddError(qc.Name, "expected total %d, got %d", *exp.Total, total)
	}

	if exp.IDs != nil {
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = documentID(item)
		}
		if !reflect.DeepEqual(exp.IDs, ids) {
			result.AddError(qc.Name, "expected ids %v, got %v", exp.IDs, ids)
		}
	}

	if exp.Values != nil {
		if !jsonEqual(exp.Values, items) {
			result.AddError(qc.Name, "expected values %s, got %s", compact(exp.Values), compact(items))
		}
	}
}

func checkGroups(qc *QueryCase, groups []planner.Group[map[string]any], result *Result) {
	exp := qc.Expect
	if exp.Groups != nil && *exp.Groups != len(groups) {
		result.AddError(qc.Name, "expected %d groups, got %d", *exp.Groups, len(groups))
	}

	if exp.GroupKeys != nil {
		keys := make([]map[string]any, len(groups))
		for i, g := range groups {
			keys[i] = g.Key.Map()
		}
		if !jsonEqual(exp.GroupKeys, keys) {
			result.AddError(qc.Name, "expected group keys %s, got %s", compact(exp.GroupKeys), compact(keys))
		}
	}

	if exp.GroupCounts != nil {
		counts := make([]int64, len(groups))
		for i, g := range groups {
			counts[i] = g.Count
		}
		if !reflect.DeepEqual(exp.GroupCounts, counts) {
			result.AddError(qc.Name, "expected group counts %v, got %v", exp.GroupCounts, counts)
		}
	}
}

func documentID(item any) string {
	doc, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprint(item)
	}
	if id, ok := doc["id"]; ok {
		return fmt.Sprint(id)
	}
	return ""
}

// jsonEqual compares two values after a JSON round trip, so YAML integers
// equal decoded JSON numbers and times equal their RFC 3339 strings.
func jsonEqual(a, b any) bool {
	na, errA := normalize(a)
	nb, errB := normalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compact(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
