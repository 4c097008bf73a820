package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/route"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <route> [key=value...]",
		Short: "Build a link from a route and parameters",
		Long: `Build a link from a route name and key=value parameters and print it on
every surface the route supports. Parameters listed under disallowed_params
in the config are dropped.

Exit codes:
  0 - Link built
  1 - Unknown route, missing or invalid parameter
  2 - Command error

Examples:
  deeplink create home
  deeplink create experienceEventDetails eventId=4821
  deeplink create joinPlace placeId=1818 linkCode=2 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, rootOpts, route.Name(args[0]), args[1:])
		},
	}

	return cmd
}

func runCreate(cmd *cobra.Command, opts *RootOptions, name route.Name, pairs []string) error {
	f := opts.formatter(cmd)

	values, err := parseAssignments(pairs)
	if err != nil {
		return f.Fail(ExitCommandError, CodeBadArgs, err)
	}

	p, err := opts.newParser()
	if err != nil {
		return f.Fail(ExitCommandError, CodeInternal, err)
	}

	link, err := p.Create(name, values)
	if err != nil {
		return f.Fail(exitCodeFor(err), CodeInternal, err)
	}

	res := link.Resolution()
	return f.Success(res, func(w io.Writer) { writeResolution(w, res) })
}

// parseAssignments turns key=value arguments into Create input. An empty
// value is kept and later treated as absent.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", pair)
		}
		if _, dup := values[key]; dup {
			return nil, fmt.Errorf("parameter %q given more than once", key)
		}
		values[key] = value
	}
	return values, nil
}
