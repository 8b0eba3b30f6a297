package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/roach88/esquery/internal/backend"
	"github.com/roach88/esquery/internal/compiler"
	"github.com/roach88/esquery/internal/config"
	"github.com/roach88/esquery/internal/elastic"
	"github.com/roach88/esquery/internal/harness"
	"github.com/roach88/esquery/internal/planner"
	"github.com/roach88/esquery/internal/queryir"
	"github.com/roach88/esquery/internal/store"
)

// CodeUsage reports usage errors that carry no more specific code.
const CodeUsage = "USAGE"

// Conn is an open backend: a client that can also load documents.
type Conn interface {
	backend.Client
	backend.Indexer
	io.Closer
}

// elasticConn adds a no-op Close to the stateless cluster client.
type elasticConn struct {
	*elastic.Client
}

func (elasticConn) Close() error { return nil }

// openBackend connects to the configured backend.
func (o *RootOptions) openBackend() (Conn, error) {
	cfg := o.Config
	switch cfg.Backend {
	case config.BackendElastic:
		c, err := elastic.New(elastic.Config{
			Addresses:     cfg.Elastic.Addresses,
			Username:      cfg.Elastic.Username,
			Password:      cfg.Elastic.Password,
			Sniff:         cfg.Elastic.Sniff,
			SniffInterval: cfg.Elastic.SniffInterval,
			Logger:        o.Logger,
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create elastic client", err)
		}
		return elasticConn{c}, nil
	default:
		o.Logger.Debug("opening local store", "path", cfg.Local.Path)
		st, err := store.Open(cfg.Local.Path, store.WithLogger(o.Logger), store.WithMaxResultWindow(cfg.Planner.Window))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open local store", err)
		}
		return st, nil
	}
}

// plannerOptions maps the planner config onto planner options.
func (o *RootOptions) plannerOptions() []planner.Option {
	cfg := o.Config
	namer := planner.Identity
	if cfg.Planner.Naming == config.NamingCamel {
		namer = planner.CamelCase
	}
	// Validate already resolved the location once.
	loc, _ := cfg.Location()
	return []planner.Option{
		planner.WithLogger(o.Logger),
		planner.WithWindow(cfg.Planner.Window),
		planner.WithTopHits(cfg.Planner.TopHits),
		planner.WithFieldNamer(namer),
		planner.WithLocation(loc),
	}
}

// index resolves the target index: the --index flag, then the config.
func (o *RootOptions) index() (string, error) {
	index, err := o.Config.RequireIndex()
	if err != nil {
		return "", WrapExitError(ExitCommandError, "no index", err)
	}
	return index, nil
}

// loadQuery compiles a filter document file. Decode failures are
// reported as compile errors at the document root.
func loadQuery(path string) (queryir.Query, error) {
	q, err := compiler.CompileFile(path)
	if err == nil {
		return q, nil
	}
	var ce *compiler.CompileError
	if !errors.As(err, &ce) && !errors.Is(err, fs.ErrNotExist) {
		err = &compiler.CompileError{Path: "$", Message: err.Error()}
	}
	return queryir.Query{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid query %s", path), err)
}

// reportError writes err in the configured format and returns it with an
// exit code attached. Usage errors keep ExitCommandError; everything else
// exits with ExitFailure.
func reportError(f *OutputFormatter, err error) error {
	code := harness.ErrorCode(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitCommandError {
		if code == harness.CodeBackend {
			code = CodeUsage
		}
		_ = f.Error(code, err.Error(), nil)
		if exitErr.Kind == "" {
			exitErr.Kind = code
		}
		return err
	}
	_ = f.Error(code, err.Error(), nil)
	return &ExitError{Code: ExitFailure, Kind: code, Err: err}
}

// withBackend opens the backend, runs fn and closes it.
func (o *RootOptions) withBackend(ctx context.Context, fn func(context.Context, Conn) error) error {
	conn, err := o.openBackend()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			o.Logger.Error("error closing backend", "error", cerr)
		}
	}()
	return fn(ctx, conn)
}
