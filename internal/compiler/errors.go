package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports an invalid filter document. Path locates the
// offending node, e.g. "$.where.and[1].eq".
type CompileError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func errorf(path, format string, args ...any) *CompileError {
	return &CompileError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// formatCUEError converts the first CUE error into a CompileError that
// carries its document path and source position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	ce := &CompileError{
		Path:    cuePath(first.Path()),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

func cuePath(selectors []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range selectors {
		if strings.HasPrefix(s, "#") {
			continue
		}
		if isIndex(s) {
			b.WriteString("[" + s + "]")
			continue
		}
		b.WriteString("." + s)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
