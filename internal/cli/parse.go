package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/route"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Surface string // "auto" | "protocol" | "website" | "attribution"
}

var validSurfaces = []string{"auto", "protocol", "website", "attribution"}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <url>",
		Short: "Resolve a URL to a route",
		Long: `Resolve a protocol, website or attribution URL to a route and its
parameters, then render the link on every surface the route supports.

Exit codes:
  0 - URL resolved
  1 - No route matched
  2 - Command error

Examples:
  deeplink parse roblox://navigation/home
  deeplink parse https://www.roblox.com/events/4821
  deeplink parse --surface website https://www.roblox.com/catalog/42 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Surface, "surface", "auto", "surface to parse as (auto|protocol|website|attribution)")

	return cmd
}

func runParse(cmd *cobra.Command, opts *ParseOptions, raw string) error {
	f := opts.formatter(cmd)

	parse, err := opts.parseFunc(opts.Surface)
	if err != nil {
		return f.Fail(ExitCommandError, CodeBadArgs, err)
	}

	link, err := parse(cmd.Context(), raw)
	if err != nil {
		return f.Fail(exitCodeFor(err), CodeInternal, err)
	}

	res := link.Resolution()
	return f.Success(res, func(w io.Writer) { writeResolution(w, res) })
}

type parseFn func(ctx context.Context, raw string) (*deeplink.Link, error)

// parseFunc picks the Parser method for surface.
func (o *ParseOptions) parseFunc(surface string) (parseFn, error) {
	p, err := o.newParser()
	if err != nil {
		return nil, err
	}

	switch surface {
	case "auto", "":
		return p.Parse, nil
	case "protocol":
		return p.ParseProtocol, nil
	case "website":
		return p.ParseWebsite, nil
	case "attribution":
		return p.ParseAttribution, nil
	}
	return nil, fmt.Errorf("invalid surface %q: must be one of %v", surface, validSurfaces)
}

// exitCodeFor maps route errors (no match, bad parameters) to ExitFailure and
// everything else to ExitCommandError.
func exitCodeFor(err error) int {
	if route.CodeOf(err) != "" {
		return ExitFailure
	}
	return ExitCommandError
}

// writeResolution prints a resolution as aligned key/value lines.
func writeResolution(w io.Writer, res deeplink.Resolution) {
	fmt.Fprintf(w, "route:       %s\n", res.Route)
	for _, key := range res.Params.SortedKeys() {
		fmt.Fprintf(w, "  %s = %s\n", key, res.Params[key])
	}
	for _, line := range [][2]string{
		{"protocol:", res.ProtocolURL},
		{"website:", res.WebsiteURL},
		{"attribution:", res.AttributionURL},
	} {
		if line[1] != "" {
			fmt.Fprintf(w, "%-12s %s\n", line[0], line[1])
		}
	}
}
