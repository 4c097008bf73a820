package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/launch"
)

// NewLaunchCommand creates the launch command group.
func NewLaunchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Encode and decode client launch URLs",
	}

	cmd.AddCommand(newLaunchEncodeCommand(rootOpts))
	cmd.AddCommand(newLaunchDecodeCommand(rootOpts))
	cmd.AddCommand(newLaunchPlaceLauncherCommand(rootOpts))

	return cmd
}

// LaunchEncodeOptions holds flags for launch encode.
type LaunchEncodeOptions struct {
	*RootOptions
	Request launch.Request
	Params  []string // key=value, or a bare key for a flag token
}

func newLaunchEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LaunchEncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a launch URL",
		Long: `Build a launch URL from its fields. Extra tokens are given with --param in
the order they should appear; a bare --param name emits a flag token.

Examples:
  deeplink launch encode --mode play --game-info TICKET --param robloxLocale=en_us
  deeplink launch encode --scheme roblox-studio-auth --state s1 --code c2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunchEncode(cmd, opts)
		},
	}

	r := &opts.Request
	cmd.Flags().StringVar(&r.Scheme, "scheme", launch.DefaultPlayerScheme, "launch scheme")
	cmd.Flags().StringVar(&r.LaunchMode, "mode", "", "launch mode")
	cmd.Flags().StringVar(&r.GameInfo, "game-info", "", "authentication ticket")
	cmd.Flags().StringVar(&r.LaunchTime, "launch-time", "", "launch time in epoch milliseconds")
	cmd.Flags().StringVar(&r.BaseURL, "base-url", "", "base URL")
	cmd.Flags().StringVar(&r.State, "state", "", "studio sign-in state")
	cmd.Flags().StringVar(&r.Code, "code", "", "studio sign-in code")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "extra token key=value or flag name (repeatable)")

	return cmd
}

func runLaunchEncode(cmd *cobra.Command, opts *LaunchEncodeOptions) error {
	f := opts.formatter(cmd)

	req := opts.Request
	for _, raw := range opts.Params {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			value = key
		}
		req.Params = append(req.Params, launch.Param{Key: key, Value: value})
	}

	encoded, err := launch.DefaultCodec().Encode(req)
	if err != nil {
		return f.Fail(ExitCommandError, CodeLaunch, err)
	}
	return f.Success(map[string]string{"url": encoded}, func(w io.Writer) {
		fmt.Fprintln(w, encoded)
	})
}

// DecodedLaunch is the output of launch decode. Exactly one field is set.
type DecodedLaunch struct {
	Launch        *launch.Request       `json:"launch,omitempty"`
	PlaceLauncher *launch.PlaceLauncher `json:"place_launcher,omitempty"`
}

func newLaunchDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <url>",
		Short: "Decode a launch or place-launcher URL",
		Long: `Decode a launch URL (player, studio or studio sign-in) or, failing that, a
place-launcher request URL.

Exit codes:
  0 - Decoded
  1 - Not a launch URL
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunchDecode(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runLaunchDecode(cmd *cobra.Command, opts *RootOptions, raw string) error {
	f := opts.formatter(cmd)

	req, err := launch.DefaultCodec().Decode(raw)
	if err == nil {
		return f.Success(DecodedLaunch{Launch: &req}, func(w io.Writer) { writeLaunchRequest(w, req) })
	}
	if !errors.Is(err, launch.ErrNotLaunchURL) {
		return f.Fail(ExitCommandError, CodeLaunch, err)
	}

	pl, err := launch.ParsePlaceLauncherURL(raw)
	if err != nil {
		if errors.Is(err, launch.ErrNotLaunchURL) {
			return f.Fail(ExitFailure, CodeLaunch, err)
		}
		return f.Fail(ExitCommandError, CodeLaunch, err)
	}
	return f.Success(DecodedLaunch{PlaceLauncher: &pl}, func(w io.Writer) {
		fmt.Fprintf(w, "request: %s\n", pl.Request)
		if pl.PlaceID != 0 {
			fmt.Fprintf(w, "placeId: %d\n", pl.PlaceID)
		}
		for _, key := range slices.Sorted(maps.Keys(pl.Extra)) {
			fmt.Fprintf(w, "  %s = %s\n", key, pl.Extra[key])
		}
	})
}

func writeLaunchRequest(w io.Writer, r launch.Request) {
	fmt.Fprintf(w, "scheme: %s\n", r.Scheme)
	for _, kv := range [][2]string{
		{"launchmode", r.LaunchMode},
		{"gameinfo", r.GameInfo},
		{"launchtime", r.LaunchTime},
		{"baseUrl", r.BaseURL},
		{"state", r.State},
		{"code", r.Code},
	} {
		if kv[1] != "" {
			fmt.Fprintf(w, "%s: %s\n", kv[0], kv[1])
		}
	}
	for _, p := range r.Params {
		fmt.Fprintf(w, "  %s = %s\n", p.Key, p.Value)
	}
}

func newLaunchPlaceLauncherCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "placelauncher <key=value...>",
		Short: "Build a place-launcher request URL",
		Long: `Build a place-launcher request URL from key=value fields. request is
required. Query keys are sorted.

Example:
  deeplink launch placelauncher request=RequestGame placeId=1818 isPlayTogetherGame=true`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			built, err := buildPlaceLauncherURL(launch.DefaultCodec(), args)
			if err != nil {
				return f.Fail(ExitCommandError, CodeLaunch, err)
			}
			return f.Success(map[string]string{"url": built}, func(w io.Writer) {
				fmt.Fprintln(w, built)
			})
		},
	}
	return cmd
}

// buildPlaceLauncherURL decodes the fields through the place-launcher parser
// so that typed fields are validated the same way as incoming URLs.
func buildPlaceLauncherURL(codec launch.Codec, pairs []string) (string, error) {
	values, err := parseAssignments(pairs)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	for key, value := range values {
		q.Set(key, cast.ToString(value))
	}
	pl, err := launch.ParsePlaceLauncherURL(codec.PlaceLauncherURL + "?" + q.Encode())
	if err != nil {
		if errors.Is(err, launch.ErrNotLaunchURL) {
			return "", fmt.Errorf("request is required")
		}
		return "", err
	}
	return codec.PlaceLauncherURL(pl)
}
