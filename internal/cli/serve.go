package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/httpapi"
	"github.com/roach88/deeplink/internal/launch"
	"github.com/roach88/deeplink/internal/metrics"
	"github.com/roach88/deeplink/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string // overrides serve.addr
	Corpus bool   // gate /readyz on the corpus database

	// listen is replaced in tests.
	listen func(network, addr string) (net.Listener, error)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts, listen: net.Listen}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution API over HTTP",
		Long: `Serve resolve, create, routes and launch-decode endpoints with health
checks and Prometheus metrics. Stops gracefully on SIGINT or SIGTERM.

Examples:
  deeplink serve
  deeplink serve --addr 127.0.0.1:9000 --corpus`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default serve.addr from config)")
	cmd.Flags().BoolVar(&opts.Corpus, "corpus", false, "report not ready until the corpus database answers")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	logger := opts.logger()
	addr := opts.Addr
	if addr == "" {
		addr = opts.config().Serve.Addr
	}

	recorder := metrics.NewRecorder()
	p, err := opts.newParser(deeplink.WithObserver(recorder))
	if err != nil {
		return WrapExitError(ExitCommandError, "create parser", err)
	}

	serverOpts := []httpapi.Option{
		httpapi.WithRecorder(recorder),
		httpapi.WithLaunchCodec(launch.DefaultCodec()),
		httpapi.WithLogger(logger),
	}
	if opts.Corpus {
		st, err := store.Open(opts.config().Corpus.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "open corpus", err)
		}
		defer st.Close()
		serverOpts = append(serverOpts, httpapi.WithReadyCheck(func(ctx context.Context) error {
			if _, err := st.Count(ctx); err != nil {
				return fmt.Errorf("corpus: %w", err)
			}
			return nil
		}))
	}

	l, err := opts.listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "listen", err)
	}

	logger.Info("serving", "addr", l.Addr().String(), "routes", p.Table().Len())
	if err := httpapi.New(p, serverOpts...).Serve(ctx, l); err != nil {
		return WrapExitError(ExitFailure, "serve", err)
	}
	logger.Info("server stopped")
	return nil
}
