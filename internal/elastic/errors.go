package elastic

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/esquery/internal/backend"
)

// ResponseError is a non-2xx response from the cluster.
type ResponseError struct {
	Status int
	Type   string
	Reason string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch: status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch: status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Unwrap maps missing-index responses onto backend.ErrIndexNotFound.
func (e *ResponseError) Unwrap() error {
	if e.Type == "index_not_found_exception" || (e.Status == 404 && e.Type == "") {
		return backend.ErrIndexNotFound
	}
	return nil
}

// parseError decodes an error body. Bodies that are not the usual error
// envelope still yield a ResponseError carrying the status.
func parseError(status int, body []byte) *ResponseError {
	out := &ResponseError{Status: status}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return out
	}
	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err != nil {
		// Some endpoints report the error as a bare string.
		var reason string
		if json.Unmarshal(envelope.Error, &reason) == nil {
			out.Reason = reason
		}
		return out
	}
	out.Type = detail.Type
	out.Reason = detail.Reason
	return out
}
