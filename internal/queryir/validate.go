package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/esquery/internal/ir"
)

// Validation error codes (Q100-Q199)
const (
	// Predicate errors (Q100-Q109)
	ErrNilNode          = "Q100" // nil child node
	ErrEmptyField       = "Q101" // leaf without a field name
	ErrEmptyFields      = "Q102" // multi-field query without fields
	ErrConflictingBound = "Q103" // both gt and gte (or lt and lte) set
	ErrInvalidConstant  = "Q104" // empty field with a non-bool value
	ErrNilValue         = "Q105" // nil term value
	ErrUnknownTextKind  = "Q106" // unknown TextQueryConfig kind
	ErrUnknownNode      = "Q107" // node type outside the sealed set

	// Directive errors (Q110-Q119)
	ErrNegativePaging   = "Q110" // skip or take below zero
	ErrEmptySortField   = "Q111" // order-by without a field
	ErrEmptyGroupField  = "Q112" // group-by without a field or property
	ErrGroupWithSelect  = "Q113" // group-by combined with select
	ErrDuplicateGroupBy = "Q114" // two group keys reported under one property
)

// ValidationError describes one malformed node or directive.
type ValidationError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// ValidationErrors is the full list of problems found in one pass.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns es as an error, or nil when empty.
func (es ValidationErrors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// Validate checks a predicate tree and returns every problem found
// (does not fail fast). A nil root is valid and means match-all.
func Validate(n Node) ValidationErrors {
	v := &validator{errs: ValidationErrors{}}
	if n != nil {
		v.node("$", n)
	}
	return v.errs
}

// Validate checks the predicate and every directive of q.
func (q Query) Validate() ValidationErrors {
	errs := Validate(q.Predicate)

	if q.Skip != nil && *q.Skip < 0 {
		errs = append(errs, ValidationError{Path: "skip", Code: ErrNegativePaging, Message: fmt.Sprintf("skip must not be negative, got %d", *q.Skip)})
	}
	if q.Take != nil && *q.Take < 0 {
		errs = append(errs, ValidationError{Path: "take", Code: ErrNegativePaging, Message: fmt.Sprintf("take must not be negative, got %d", *q.Take)})
	}
	for i, o := range q.OrderBy {
		if strings.TrimSpace(o.Field) == "" {
			errs = append(errs, ValidationError{Path: fmt.Sprintf("order_by[%d]", i), Code: ErrEmptySortField, Message: "field is required"})
		}
	}
	seen := make(map[string]bool, len(q.GroupBy))
	for i, g := range q.GroupBy {
		path := fmt.Sprintf("group_by[%d]", i)
		if strings.TrimSpace(g.Field) == "" || strings.TrimSpace(g.Property) == "" {
			errs = append(errs, ValidationError{Path: path, Code: ErrEmptyGroupField, Message: "field and property are required"})
			continue
		}
		if seen[g.Property] {
			errs = append(errs, ValidationError{Path: path, Code: ErrDuplicateGroupBy, Message: fmt.Sprintf("property %q grouped twice", g.Property)})
		}
		seen[g.Property] = true
	}
	if q.Grouped() && q.Select != "" {
		errs = append(errs, ValidationError{Path: "select", Code: ErrGroupWithSelect, Message: "group_by cannot be combined with select"})
	}
	return errs
}

type validator struct {
	errs ValidationErrors
}

func (v *validator) add(path, code, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) field(path, field string) {
	if strings.TrimSpace(field) == "" {
		v.add(path, ErrEmptyField, "field is required")
	}
}

func (v *validator) values(path string, values []ir.Value) {
	for i, val := range values {
		if val == nil {
			v.add(fmt.Sprintf("%s.values[%d]", path, i), ErrNilValue, "value is required")
		}
	}
}

func (v *validator) child(path string, n Node) {
	if n == nil {
		v.add(path, ErrNilNode, "node is required")
		return
	}
	v.node(path, n)
}

func (v *validator) node(path string, n Node) {
	switch node := n.(type) {
	case And:
		v.child(path+".and.left", node.Left)
		v.child(path+".and.right", node.Right)
	case Or:
		v.child(path+".or.left", node.Left)
		v.child(path+".or.right", node.Right)
	case Not:
		v.child(path+".not", node.Child)
	case BoolGroup:
		for i, c := range node.Children {
			v.child(fmt.Sprintf("%s.should[%d]", path, i), c)
		}
	case Term:
		if node.Value == nil {
			v.add(path+".term", ErrNilValue, "value is required")
			return
		}
		if node.Field == "" {
			if _, ok := node.Value.(ir.Bool); !ok {
				v.add(path+".term", ErrInvalidConstant, "constant term must hold a bool, got %T", node.Value)
			}
		}
	case Terms:
		v.field(path+".terms", node.Field)
		v.values(path+".terms", node.Values)
	case TermsSet:
		v.field(path+".terms_set", node.Field)
		v.values(path+".terms_set", node.Values)
	case Exists:
		v.field(path+".exists", node.Field)
	case NotExists:
		v.field(path+".not_exists", node.Field)
	case DateRange:
		v.field(path+".date_range", node.Field)
		v.bounds(path+".date_range", node.Gt != nil && node.Gte != nil, node.Lt != nil && node.Lte != nil)
	case NumericRange:
		v.field(path+".numeric_range", node.Field)
		v.bounds(path+".numeric_range", node.Gt != nil && node.Gte != nil, node.Lt != nil && node.Lte != nil)
	case MatchPhrase:
		v.field(path+".match_phrase", node.Field)
	case MultiMatch:
		v.fields(path+".multi_match", node.Fields)
	case QueryString:
		v.field(path+".query_string", node.Field)
	case MatchConfig:
		v.config(path+".match_config", node.Config)
	default:
		v.add(path, ErrUnknownNode, "unsupported node type %T", n)
	}
}

func (v *validator) bounds(path string, lower, upper bool) {
	if lower {
		v.add(path, ErrConflictingBound, "gt and gte are mutually exclusive")
	}
	if upper {
		v.add(path, ErrConflictingBound, "lt and lte are mutually exclusive")
	}
}

func (v *validator) fields(path string, fields []string) {
	if len(fields) == 0 {
		v.add(path, ErrEmptyFields, "at least one field is required")
		return
	}
	for i, f := range fields {
		v.field(fmt.Sprintf("%s.fields[%d]", path, i), f)
	}
}

func (v *validator) config(path string, c TextQueryConfig) {
	switch c.Kind {
	case TextMatch, TextMatchPhrase, TextMatchPhrasePrefix:
		v.field(path, c.Field)
	case TextMultiMatch:
		v.fields(path, c.Fields)
	default:
		v.add(path, ErrUnknownTextKind, "unknown text query kind %q", c.Kind)
	}
}
