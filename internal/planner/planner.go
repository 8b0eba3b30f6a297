package planner

import (
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/dsl"
	"github.com/roach88/esquery/internal/ir"
	"github.com/roach88/esquery/internal/metrics"
	"github.com/roach88/esquery/internal/querydsl"
	"github.com/roach88/esquery/internal/queryir"
)

const (
	// DefaultWindow is the backend's default maximum for from+size.
	DefaultWindow = 10000

	// DefaultTopHits is the number of documents returned per group. It
	// matches the backend's default inner-hit ceiling.
	DefaultTopHits = 100

	// CompositeAggregation names the group-by aggregation.
	CompositeAggregation = "composite"

	// TopHitsAggregation names the per-bucket documents sub-aggregation.
	TopHitsAggregation = "data_composite"

	// GroupSourcePrefix prefixes every composite source name.
	GroupSourcePrefix = "group_by_"
)

// Planner plans and executes queries against one index.
//
// A Planner holds configuration only and is safe for concurrent use.
type Planner struct {
	client   backend.Client
	index    string
	compiler *querydsl.DSLCompiler
	window   int
	topHits  int
	namer    FieldNamer
	location *time.Location
	ids      RequestIDGenerator
	logger   *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithWindow sets the result window ceiling.
func WithWindow(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithTopHits sets how many documents each group returns.
func WithTopHits(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.topHits = n
		}
	}
}

// WithFieldNamer sets the property-to-field naming convention.
func WithFieldNamer(f FieldNamer) Option {
	return func(p *Planner) {
		if f != nil {
			p.namer = f
		}
	}
}

// WithLocation sets the time zone date group keys are decoded into.
func WithLocation(loc *time.Location) Option {
	return func(p *Planner) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithRequestIDs sets the request id generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(p *Planner) {
		if g != nil {
			p.ids = g
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCompiler replaces the predicate compiler.
func WithCompiler(c *querydsl.DSLCompiler) Option {
	return func(p *Planner) {
		if c != nil {
			p.compiler = c
		}
	}
}

// New creates a Planner for index.
func New(client backend.Client, index string, opts ...Option) *Planner {
	p := &Planner{
		client:   client,
		index:    index,
		compiler: querydsl.NewDSLCompiler(),
		window:   DefaultWindow,
		topHits:  DefaultTopHits,
		namer:    CamelCase,
		location: time.Local,
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Index returns the index the planner targets.
func (p *Planner) Index() string {
	return p.index
}

// Window returns the result window ceiling.
func (p *Planner) Window() int {
	return p.window
}

// Plan builds the search request for q without touching the backend.
func (p *Planner) Plan(q queryir.Query) (*backend.SearchRequest, error) {
	if err := p.check(q); err != nil {
		return nil, err
	}

	query, err := p.compile(q.Predicate)
	if err != nil {
		return nil, err
	}

	req := &backend.SearchRequest{
		Index:          p.index,
		Query:          query,
		TrackTotalHits: true,
		OpaqueID:       p.ids.Generate(),
	}

	if q.Grouped() {
		// Groups come from the aggregation; top-level hits are not decoded.
		size := 0
		req.Size = &size
		req.Aggregations = map[string]dsl.Aggregation{CompositeAggregation: p.composite(q.GroupBy)}
	} else {
		from, size, clamped := Window(q.Skip, q.Take, p.window)
		if clamped {
			metrics.WindowClamps.Inc()
			p.logger.Debug("paging clamped to result window", "window", p.window, "size", size)
		}
		req.From = from
		req.Size = &size
	}

	for _, o := range q.OrderBy {
		req.Sort = append(req.Sort, dsl.SortField{
			Field: p.exactField(o.Field, o.Kind),
			Order: o.Direction.String(),
		})
	}

	if q.Select != "" {
		req.Source = &dsl.SourceFilter{Includes: []string{p.namer(q.Select)}}
	}
	return req, nil
}

// PlanCount builds the count request for q. Paging, sort, projection and
// grouping directives do not apply to counts.
func (p *Planner) PlanCount(q queryir.Query) (*backend.CountRequest, error) {
	if errs := queryir.Validate(q.Predicate); len(errs) > 0 {
		return nil, &PlanError{Code: ErrCodeMalformedDirective, Message: "invalid predicate", Cause: errs}
	}
	query, err := p.compile(q.Predicate)
	if err != nil {
		return nil, err
	}
	return &backend.CountRequest{Index: p.index, Query: query, OpaqueID: p.ids.Generate()}, nil
}

func (p *Planner) check(q queryir.Query) error {
	errs := q.Validate()
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		if e.Code == queryir.ErrGroupWithSelect {
			return &PlanError{Code: ErrCodeUnsupportedCombination, Message: "group by cannot be combined with select", Cause: errs}
		}
	}
	return &PlanError{Code: ErrCodeMalformedDirective, Message: "invalid query", Cause: errs}
}

func (p *Planner) compile(n queryir.Node) (dsl.Query, error) {
	if n != nil {
		opt := queryir.Optimize(n)
		p.logger.Debug("predicate",
			"leaves", len(queryir.Leaves(n)),
			"depth", queryir.Depth(n),
			"optimized_depth", queryir.Depth(opt))
		n = opt
	}
	query, err := p.compiler.Compile(n)
	if err != nil {
		return nil, &PlanError{Code: ErrCodeMalformedDirective, Message: "compile predicate", Cause: err}
	}
	return query, nil
}

func (p *Planner) composite(groups []queryir.Grouping) dsl.CompositeAggregation {
	sources := make([]dsl.CompositeSource, len(groups))
	for i, g := range groups {
		sources[i] = dsl.CompositeSource{
			Name:  GroupSourcePrefix + g.Property,
			Field: p.exactField(g.Field, g.Kind),
		}
	}
	return dsl.CompositeAggregation{
		Sources: sources,
		Size:    p.window,
		Aggs: map[string]dsl.Aggregation{
			TopHitsAggregation: dsl.TopHitsAggregation{Size: p.topHits},
		},
	}
}

func (p *Planner) exactField(property string, kind ir.FieldKind) string {
	return ir.ExactField(p.namer(property), kind)
}

func describe(req *backend.SearchRequest) []any {
	attrs := []any{"index", req.Index, "request_id", req.OpaqueID}
	if req.From != nil {
		attrs = append(attrs, "from", *req.From)
	}
	if req.Size != nil {
		attrs = append(attrs, "size", *req.Size)
	}
	if len(req.Sort) > 0 {
		fields := make([]string, len(req.Sort))
		for i, s := range req.Sort {
			fields[i] = s.Field + " " + s.Order
		}
		attrs = append(attrs, "sort", strings.Join(fields, ","))
	}
	attrs = append(attrs, "grouped", len(req.Aggregations) > 0)
	return attrs
}
