package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/compiler"
	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/queryir"
	"github.com/roach88/esquery/internal/store"
	"github.com/roach88/esquery/internal/testutil"
)

// Error codes reported for failures that are not planner errors.
const (
	CodeInvalidQuery  = "INVALID_QUERY"
	CodeIndexNotFound = "INDEX_NOT_FOUND"
	CodeResultWindow  = "RESULT_WINDOW"
	CodeBackend       = "BACKEND_ERROR"
)

// Harness runs scenarios.
type Harness struct {
	logger      *slog.Logger
	plannerOpts []planner.Option
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithPlannerOptions adds planner options for every query.
func WithPlannerOptions(opts ...planner.Option) Option {
	return func(h *Harness) {
		h.plannerOpts = append(h.plannerOpts, opts...)
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes scenario with default options.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes a scenario in a fresh in-memory store and returns the
// result. The error is non-nil only when the scenario could not be set
// up; failed expectations are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithLogger(h.logger), store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := h.load(ctx, st, scenario); err != nil {
		return nil, err
	}

	opts := append([]planner.Option{
		planner.WithLogger(h.logger),
		planner.WithFieldNamer(planner.Identity),
		planner.WithLocation(time.UTC),
	}, h.plannerOpts...)
	p := planner.New(st, scenario.Index, opts...)

	result := NewResult()
	for i := range scenario.Queries {
		h.runQuery(ctx, p, &scenario.Queries[i], result)
	}
	return result, nil
}

func (h *Harness) load(ctx context.Context, st *store.Store, scenario *Scenario) error {
	if err := st.CreateIndex(ctx, scenario.Index); err != nil {
		return fmt.Errorf("create index %s: %w", scenario.Index, err)
	}
	for i, doc := range scenario.Documents {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("documents[%d]: %w", i, err)
		}
		id := ""
		if v, ok := doc["id"]; ok && v != nil {
			id = fmt.Sprint(v)
		}
		if err := st.Index(ctx, scenario.Index, id, raw); err != nil {
			return fmt.Errorf("documents[%d]: %w", i, err)
		}
	}
	return st.Refresh(ctx, scenario.Index)
}

func (h *Harness) runQuery(ctx context.Context, p *planner.Planner, qc *QueryCase, result *Result) {
	op := qc.op()
	rec := Request{Query: qc.Name, Op: op}

	q, err := compiler.Build(&qc.Query)
	if err == nil {
		rec.Body, err = plannedBody(p, q, op)
	}
	if err == nil {
		err = h.execute(ctx, p, q, qc, result)
	}
	if err != nil {
		rec.Error = ErrorCode(err)
	}
	result.Requests = append(result.Requests, rec)

	checkError(qc, err, result)
}

func plannedBody(p *planner.Planner, q queryir.Query, op string) (json.RawMessage, error) {
	if op == OpCount {
		req, err := p.PlanCount(q)
		if err != nil {
			return nil, err
		}
		return json.Marshal(req)
	}
	req, err := p.Plan(q)
	if err != nil {
		return nil, err
	}
	return json.Marshal(req)
}

func (h *Harness) execute(ctx context.Context, p *planner.Planner, q queryir.Query, qc *QueryCase, result *Result) error {
	switch qc.op() {
	case OpCount:
		n, err := p.Count(ctx, q)
		if err != nil {
			return err
		}
		checkCount(qc, n, result)

	case OpGroup:
		groups, err := planner.GroupBy[map[string]any](ctx, p, q)
		if err != nil {
			return err
		}
		checkGroups(qc, groups, result)

	case OpFirst:
		item, err := planner.First[any](ctx, p, q)
		if err != nil {
			return err
		}
		checkItems(qc, []any{item}, int64(1), result)

	default:
		list, err := planner.ToList[any](ctx, p, q)
		if err != nil {
			return err
		}
		checkItems(qc, list.Items, list.Total, result)
	}
	return nil
}

// ErrorCode classifies an execution error: planner codes pass through,
// everything else maps onto the harness codes.
func ErrorCode(err error) string {
	var (
		pe  *planner.PlanError
		ce  *compiler.CompileError
		rwe *store.ResultWindowError
	)
	switch {
	case errors.As(err, &pe):
		return string(pe.Code)
	case errors.As(err, &ce):
		return CodeInvalidQuery
	case errors.Is(err, backend.ErrIndexNotFound):
		return CodeIndexNotFound
	case errors.As(err, &rwe):
		return CodeResultWindow
	}
	return CodeBackend
}
