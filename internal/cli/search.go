package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/queryir"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	First bool
}

// SearchResult is the search command's payload.
type SearchResult struct {
	Total int64 `json:"total"`
	Items []any `json:"items"`
}

// GroupResult is one group of a grouped search.
type GroupResult struct {
	Key   map[string]any `json:"key"`
	Count int64          `json:"count"`
	Items []any          `json:"items"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query-file>",
		Short: "Run a query file and print the matching documents",
		Long: `Run a filter document against the configured backend.

Queries with group_by print one entry per group. With --first only the
first match is printed and an empty result is an error.

Examples:
  esquery search --index people query.yaml
  esquery search --index people --first --format json query.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.First, "first", false, "print only the first match")

	return cmd
}

func runSearch(opts *SearchOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	index, err := opts.index()
	if err != nil {
		return reportError(f, err)
	}
	q, err := loadQuery(path)
	if err != nil {
		return reportError(f, err)
	}

	var out any
	err = opts.withBackend(cmd.Context(), func(ctx context.Context, conn Conn) error {
		p := planner.New(conn, index, opts.plannerOptions()...)
		out, err = search(ctx, p, q, opts.First)
		return err
	})
	if err != nil {
		return reportError(f, err)
	}

	if f.Format == "json" {
		return f.Success(out)
	}
	return f.JSON(out)
}

func search(ctx context.Context, p *planner.Planner, q queryir.Query, first bool) (any, error) {
	switch {
	case first:
		return planner.First[any](ctx, p, q)

	case q.Grouped():
		groups, err := planner.GroupBy[any](ctx, p, q)
		if err != nil {
			return nil, err
		}
		out := make([]GroupResult, len(groups))
		for i, g := range groups {
			out[i] = GroupResult{Key: g.Key.Map(), Count: g.Count, Items: g.Items}
			if out[i].Items == nil {
				out[i].Items = []any{}
			}
		}
		return out, nil
	}

	list, err := planner.ToList[any](ctx, p, q)
	if err != nil {
		return nil, err
	}
	items := list.Items
	if items == nil {
		items = []any{}
	}
	return SearchResult{Total: list.Total, Items: items}, nil
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <query-file>",
		Short: "Count the documents a query file matches",
		Long: `Count the documents matching a filter document. Paging, sort,
select and group_by directives are ignored.

Example:
  esquery count --index people query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runCount(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	index, err := opts.index()
	if err != nil {
		return reportError(f, err)
	}
	q, err := loadQuery(path)
	if err != nil {
		return reportError(f, err)
	}

	var n int64
	err = opts.withBackend(cmd.Context(), func(ctx context.Context, conn Conn) error {
		n, err = planner.New(conn, index, opts.plannerOptions()...).Count(ctx, q)
		return err
	})
	if err != nil {
		return reportError(f, err)
	}

	if f.Format == "json" {
		return f.Success(map[string]int64{"count": n})
	}
	fmt.Fprintln(f.Writer, n)
	return nil
}
