package planner

import (
	"errors"
	"fmt"
)

// ErrNoElement is returned by First and Single when nothing matches.
var ErrNoElement = errors.New("sequence contains no elements")

// PlanErrorCode categorizes planner errors.
type PlanErrorCode string

const (
	// ErrCodeUnsupportedCombination indicates directives that cannot be
	// combined, such as group-by with a single-field projection.
	ErrCodeUnsupportedCombination PlanErrorCode = "UNSUPPORTED_COMBINATION"

	// ErrCodeMalformedDirective indicates an invalid predicate or directive.
	ErrCodeMalformedDirective PlanErrorCode = "MALFORMED_DIRECTIVE"

	// ErrCodeNoElement indicates a single-result execution found no rows.
	ErrCodeNoElement PlanErrorCode = "NO_ELEMENT"

	// ErrCodeDecode indicates a response that cannot be mapped onto the
	// requested result type.
	ErrCodeDecode PlanErrorCode = "DECODE"
)

// PlanError represents an error detected while planning or decoding.
// Backend and transport failures are not PlanErrors; they are returned
// wrapped but otherwise unchanged.
type PlanError struct {
	Code    PlanErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PlanError) Unwrap() error {
	return e.Cause
}

func hasCode(err error, code PlanErrorCode) bool {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsUnsupportedCombination returns true if err rejects a directive combination.
func IsUnsupportedCombination(err error) bool {
	return hasCode(err, ErrCodeUnsupportedCombination)
}

// IsMalformedDirective returns true if err rejects an invalid directive.
func IsMalformedDirective(err error) bool {
	return hasCode(err, ErrCodeMalformedDirective)
}

// IsNoElement returns true if err reports an empty single-result execution.
func IsNoElement(err error) bool {
	return errors.Is(err, ErrNoElement)
}

// IsDecodeError returns true if err reports an undecodable response.
func IsDecodeError(err error) bool {
	return hasCode(err, ErrCodeDecode)
}
