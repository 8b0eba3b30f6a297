package harness

import (
	"encoding/json"
	"fmt"
)

// Request records what one query planned and how it ended.
type Request struct {
	Query string          `json:"query"`
	Op    string          `json:"op"`
	Body  json.RawMessage `json:"body,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Requests holds one record per query, in scenario order.
	Requests []Request `json:"requests"`

	// Errors lists the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Requests: []Request{},
		Errors:   []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(query, format string, args ...any) {
	r.Errors = append(r.Errors, query+": "+fmt.Sprintf(format, args...))
	r.Pass = false
}
