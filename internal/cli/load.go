package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// maxLineSize bounds one JSON Lines document.
const maxLineSize = 16 << 20

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	IDField string
}

// LoadResult is the load command's payload.
type LoadResult struct {
	Index     string `json:"index"`
	Documents int    `json:"documents"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <index> <docs.jsonl>",
		Short: "Index a JSON Lines file",
		Long: `Index one JSON object per line into the configured backend and
refresh the index. Each document's id is taken from --id-field; documents
without one get a generated id. Use - to read from stdin.

Examples:
  esquery load people people.jsonl
  cat people.jsonl | esquery load people -`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.IDField, "id-field", "id", "document field holding the id")

	return cmd
}

func runLoad(opts *LoadOptions, index, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return reportError(f, WrapExitError(ExitCommandError, "failed to open documents", err))
		}
		defer file.Close()
		in = file
	}

	var n int
	err := opts.withBackend(cmd.Context(), func(ctx context.Context, conn Conn) error {
		var err error
		n, err = loadDocuments(ctx, conn, index, in, opts.IDField)
		if err != nil {
			return err
		}
		opts.Logger.Debug("documents indexed", "index", index, "count", n)
		return conn.Refresh(ctx, index)
	})
	if err != nil {
		return reportError(f, err)
	}

	if f.Format == "json" {
		return f.Success(LoadResult{Index: index, Documents: n})
	}
	fmt.Fprintf(f.Writer, "✓ Loaded %d document(s) into %s\n", n, index)
	return nil
}

// loadDocuments indexes every non-blank line of in.
func loadDocuments(ctx context.Context, conn Conn, index string, in io.Reader, idField string) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	n, line := 0, 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return n, WrapExitError(ExitCommandError, fmt.Sprintf("line %d: invalid document", line), err)
		}
		id := ""
		if v, ok := doc[idField]; ok && v != nil {
			id = fmt.Sprint(v)
		}

		// The scanner reuses its buffer.
		if err := conn.Index(ctx, index, id, bytes.Clone(raw)); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, WrapExitError(ExitCommandError, "failed to read documents", err)
	}
	return n, nil
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop <index>",
		Short: "Delete an index and its documents",
		Long: `Delete an index and all of its documents from the configured backend.

Example:
  esquery drop people`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrop(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDrop(opts *RootOptions, index string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	err := opts.withBackend(cmd.Context(), func(ctx context.Context, conn Conn) error {
		return conn.DeleteIndex(ctx, index)
	})
	if err != nil {
		return reportError(f, err)
	}

	if f.Format == "json" {
		return f.Success(map[string]string{"dropped": index})
	}
	fmt.Fprintf(f.Writer, "✓ Dropped %s\n", index)
	return nil
}
