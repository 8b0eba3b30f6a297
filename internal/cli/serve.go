package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/esquery/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP query API",
		Long: `Serve compile, search, count and group endpoints over HTTP, plus
/health and /metrics. Stops gracefully on SIGINT or SIGTERM.

Example:
  esquery serve --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default http.addr)")
	_ = rootOpts.Viper.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := opts.withBackend(ctx, func(ctx context.Context, conn Conn) error {
		srv := api.New(conn,
			api.WithLogger(opts.Logger),
			api.WithPlannerOptions(opts.plannerOptions()...),
		)
		return srv.Run(ctx, opts.Config.HTTP.Addr)
	})
	if err != nil {
		return reportError(f, err)
	}
	opts.Logger.Info("server stopped")
	return nil
}
