package planner

import (
	"fmt"
	"strings"
)

// ResultList is a page of decoded results plus the paging it was fetched
// with. Skip and Take echo the requested directives (0 when absent); Total
// is the backend's total match count, independent of paging.
type ResultList[T any] struct {
	Items []T   `json:"items"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
	Total int64 `json:"total"`
}

// Len returns the number of items in the page.
func (r *ResultList[T]) Len() int {
	return len(r.Items)
}

// KeyPart is one decoded component of a group key.
type KeyPart struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// GroupKey is the ordered list of key parts of one group, in group-by
// order. Names are the logical property names.
type GroupKey []KeyPart

// Value returns the first key part's value, which is the whole key for
// single-field groupings.
func (k GroupKey) Value() any {
	if len(k) == 0 {
		return nil
	}
	return k[0].Value
}

// Get returns the value of the part named name.
func (k GroupKey) Get(name string) (any, bool) {
	for _, p := range k {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Map returns the key as a map from property name to value.
func (k GroupKey) Map() map[string]any {
	m := make(map[string]any, len(k))
	for _, p := range k {
		m[p.Name] = p.Value
	}
	return m
}

// String implements fmt.Stringer.
func (k GroupKey) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprintf("%s=%v", p.Name, p.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Group is one bucket of a grouped query.
type Group[T any] struct {
	Key   GroupKey `json:"key"`
	Count int64    `json:"count"`
	Items []T      `json:"items"`
}
