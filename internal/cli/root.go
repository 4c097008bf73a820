package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/config"
	"github.com/roach88/deeplink/internal/deeplink"
)

// RootOptions holds global flags and the state PersistentPreRunE derives
// from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Set before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the deeplink CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "deeplink",
		Short: "Resolve and build deep links",
		Long: `deeplink resolves protocol, website and attribution URLs to named routes
and builds URLs for every surface from a route name and parameters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ./deeplink.yaml or $HOME/deeplink.yaml)")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewRoutesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCorpusCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewLaunchCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and installs the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	o.Config = cfg

	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// verbosef writes a diagnostic line to stderr when --verbose is set.
func (o *RootOptions) verbosef(cmd *cobra.Command, format string, args ...any) {
	o.formatter(cmd).VerboseLog(format, args...)
}

// logger returns the configured logger, or a discarding one when setup has
// not run (commands constructed directly in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// config returns the loaded configuration, or defaults when setup has not run.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return config.Default()
}

// newParser builds a Parser from the loaded configuration. extra options are
// applied last.
func (o *RootOptions) newParser(extra ...deeplink.Option) (*deeplink.Parser, error) {
	cfg := o.config()
	opts := []deeplink.Option{
		deeplink.WithProtocolScheme(cfg.ProtocolScheme),
		deeplink.WithWebsiteHost(cfg.WebsiteHost),
		deeplink.WithAttributionHost(cfg.AttributionHost),
		deeplink.WithAPIDomain(cfg.APIDomain),
		deeplink.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		deeplink.WithDisallowedParams(cfg.Disallowed()),
		deeplink.WithLogger(o.logger()),
	}
	return deeplink.New(append(opts, extra...)...)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
