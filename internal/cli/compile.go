package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/esquery/internal/planner"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Count bool // print the _count body instead of the _search body
}

// CompileResult is the compile command's JSON payload.
type CompileResult struct {
	Index string `json:"index"`
	Body  any    `json:"body"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Print the request body a query file plans to",
		Long: `Compile a filter document and print the Elasticsearch request body
without contacting the backend.

The format follows the file extension: .yaml/.yml, .json or .cue.

Examples:
  esquery compile --index people query.yaml
  esquery compile --index people --count query.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the count request body")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	index, err := opts.index()
	if err != nil {
		return reportError(f, err)
	}
	q, err := loadQuery(path)
	if err != nil {
		return reportError(f, err)
	}
	f.VerboseLog("Compiled %s", path)

	// Planning never calls the backend.
	p := planner.New(nil, index, opts.plannerOptions()...)

	var body any
	if opts.Count {
		body, err = p.PlanCount(q)
	} else {
		body, err = p.Plan(q)
	}
	if err != nil {
		return reportError(f, err)
	}

	if f.Format == "json" {
		return f.Success(CompileResult{Index: index, Body: body})
	}
	return f.JSON(body)
}
