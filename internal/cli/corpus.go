package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/canonical"
	"github.com/roach88/deeplink/internal/deeplink"
	"github.com/roach88/deeplink/internal/route"
	"github.com/roach88/deeplink/internal/store"
)

// CorpusOptions holds flags shared by the corpus subcommands.
type CorpusOptions struct {
	*RootOptions
	DB string // overrides corpus.path from the config
}

// NewCorpusCommand creates the corpus command group.
func NewCorpusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CorpusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Record URLs and verify they still resolve the same way",
		Long: `The corpus is a SQLite file of URLs with the route and parameters each
resolved to when it was recorded. verify re-resolves every URL against the
current route table and reports any that changed.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "corpus database path (default corpus.path from config)")

	cmd.AddCommand(newCorpusRecordCommand(opts))
	cmd.AddCommand(newCorpusVerifyCommand(opts))
	cmd.AddCommand(newCorpusListCommand(opts))
	cmd.AddCommand(newCorpusForgetCommand(opts))

	return cmd
}

// dbPath returns --db, falling back to the configured corpus path.
func (o *CorpusOptions) dbPath() string {
	if o.DB != "" {
		return o.DB
	}
	return o.config().Corpus.Path
}

// openStore opens the corpus or reports a command error.
func (o *CorpusOptions) openStore(f *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(o.dbPath())
	if err != nil {
		return nil, f.Fail(ExitCommandError, CodeCorpus, err)
	}
	return st, nil
}

// resolver adapts a Parser to store.Resolver.
func resolver(p *deeplink.Parser) store.Resolver {
	return func(ctx context.Context, url string) (route.Name, route.Params, error) {
		link, err := p.Parse(ctx, url)
		if err != nil {
			return "", nil, err
		}
		return link.Route(), link.Params(), nil
	}
}

// RecordedEntry is one line of record output.
type RecordedEntry struct {
	store.Entry
	Inserted bool `json:"inserted"`
}

func newCorpusRecordCommand(opts *CorpusOptions) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "record [url...]",
		Short: "Resolve URLs and record the results",
		Long: `Resolve each URL and record it with its route and parameters. A URL no
route accepts is recorded with an empty route so that verify flags it if it
ever starts matching. URLs already in the corpus are left unchanged.

Examples:
  deeplink corpus record roblox://navigation/home https://www.roblox.com/events/4821
  deeplink corpus record --from seed.yaml --db links.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpusRecord(cmd, opts, from, args)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "YAML seed file with a urls list")

	return cmd
}

func runCorpusRecord(cmd *cobra.Command, opts *CorpusOptions, from string, args []string) error {
	f := opts.formatter(cmd)

	urls := append([]string(nil), args...)
	if from != "" {
		seeded, err := readSeedFile(from)
		if err != nil {
			return f.Fail(ExitCommandError, CodeBadArgs, err)
		}
		urls = append(urls, seeded...)
	}
	if len(urls) == 0 {
		return f.Fail(ExitCommandError, CodeBadArgs, fmt.Errorf("no urls given: pass urls or --from"))
	}

	p, err := opts.newParser()
	if err != nil {
		return f.Fail(ExitCommandError, CodeInternal, err)
	}
	st, err := opts.openStore(f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	resolve := resolver(p)
	recorded := make([]RecordedEntry, 0, len(urls))
	for _, url := range urls {
		name, params, err := resolve(ctx, url)
		if err != nil && !route.IsNoMatch(err) {
			return f.Fail(ExitCommandError, CodeCorpus, fmt.Errorf("resolve %s: %w", url, err))
		}
		entry, inserted, err := st.Record(ctx, url, name, params)
		if err != nil {
			return f.Fail(ExitCommandError, CodeCorpus, err)
		}
		opts.verbosef(cmd, "recorded %s -> %q (inserted=%t)", url, name, inserted)
		recorded = append(recorded, RecordedEntry{Entry: entry, Inserted: inserted})
	}

	return f.Success(recorded, func(w io.Writer) {
		added := 0
		for _, r := range recorded {
			if r.Inserted {
				added++
			}
		}
		fmt.Fprintf(w, "Recorded %d new, %d already present\n", added, len(recorded)-added)
	})
}

func readSeedFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	urls, err := store.ReadSeed(file)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return urls, nil
}

// VerifyEntry is the serialized form of one verification result.
type VerifyEntry struct {
	URL       string        `json:"url"`
	Outcome   store.Outcome `json:"outcome"`
	Route     route.Name    `json:"route"`
	GotRoute  route.Name    `json:"got_route,omitempty"`
	Params    route.Params  `json:"params,omitempty"`
	GotParams route.Params  `json:"got_params,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// VerifySummary is the JSON payload of corpus verify.
type VerifySummary struct {
	Entries []VerifyEntry `json:"entries"`
	OK      int           `json:"ok"`
	Changed int           `json:"changed"`
	Errors  int           `json:"errors"`
}

func newCorpusVerifyCommand(opts *CorpusOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-resolve every recorded URL and report drift",
		Long: `Re-resolve every recorded URL with the current configuration and compare
the route and parameters with what was recorded.

Exit codes:
  0 - Every URL resolves as recorded
  1 - One or more URLs changed or failed
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpusVerify(cmd, opts)
		},
	}
	return cmd
}

func runCorpusVerify(cmd *cobra.Command, opts *CorpusOptions) error {
	f := opts.formatter(cmd)

	p, err := opts.newParser()
	if err != nil {
		return f.Fail(ExitCommandError, CodeInternal, err)
	}
	st, err := opts.openStore(f)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.Verify(cmd.Context(), resolver(p))
	if err != nil {
		return f.Fail(ExitCommandError, CodeCorpus, err)
	}

	summary := VerifySummary{
		Entries: make([]VerifyEntry, 0, len(report.Results)),
		OK:      report.OK,
		Changed: report.Changed,
		Errors:  report.Errors,
	}
	for _, res := range report.Results {
		ve := VerifyEntry{
			URL:     res.Entry.URL,
			Outcome: res.Outcome,
			Route:   res.Entry.Route,
			Params:  res.Entry.Params,
		}
		if res.Outcome != store.OutcomeOK {
			ve.GotRoute = res.GotRoute
			ve.GotParams = res.GotParams
		}
		if res.Err != nil {
			ve.Error = res.Err.Error()
		}
		summary.Entries = append(summary.Entries, ve)
	}

	if report.Passed() {
		return f.Success(summary, func(w io.Writer) { writeVerifyText(w, summary) })
	}

	message := fmt.Sprintf("%d changed, %d failed of %d", report.Changed, report.Errors, len(report.Results))
	if opts.Format == "json" {
		if err := encodeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "error",
			Data:   summary,
			Error:  &CLIError{Code: CodeDrift, Message: message},
		}); err != nil {
			return err
		}
	} else {
		writeVerifyText(cmd.OutOrStdout(), summary)
	}
	return NewExitError(ExitFailure, message)
}

func writeVerifyText(w io.Writer, s VerifySummary) {
	for _, e := range s.Entries {
		switch e.Outcome {
		case store.OutcomeOK:
			color.New(color.FgGreen).Fprintf(w, "OK      %s\n", e.URL)
		case store.OutcomeChanged:
			color.New(color.FgYellow).Fprintf(w, "CHANGED %s\n", e.URL)
			fmt.Fprintf(w, "  recorded: %s %s\n", displayRoute(e.Route), paramsText(e.Params))
			fmt.Fprintf(w, "  now:      %s %s\n", displayRoute(e.GotRoute), paramsText(e.GotParams))
		default:
			color.New(color.FgRed).Fprintf(w, "ERROR   %s\n", e.URL)
			fmt.Fprintf(w, "  %s\n", e.Error)
		}
	}
	fmt.Fprintf(w, "\n%d ok, %d changed, %d errors\n", s.OK, s.Changed, s.Errors)
}

func displayRoute(name route.Name) string {
	if name == "" {
		return "(no match)"
	}
	return string(name)
}

// paramsText renders params as canonical JSON for stable diffs.
func paramsText(p route.Params) string {
	if p == nil {
		p = route.Params{}
	}
	data, err := canonical.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", map[string]string(p))
	}
	return string(data)
}

func newCorpusListCommand(opts *CorpusOptions) *cobra.Command {
	var routeName string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recorded URLs in recording order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			st, err := opts.openStore(f)
			if err != nil {
				return err
			}
			defer st.Close()

			var entries []store.Entry
			if routeName != "" {
				entries, err = st.ListByRoute(cmd.Context(), route.Name(routeName))
			} else {
				entries, err = st.List(cmd.Context())
			}
			if err != nil {
				return f.Fail(ExitCommandError, CodeCorpus, err)
			}
			if entries == nil {
				entries = []store.Entry{}
			}
			return f.Success(entries, func(w io.Writer) { writeEntriesTable(w, entries) })
		},
	}

	cmd.Flags().StringVar(&routeName, "route", "", "only list URLs recorded for this route")

	return cmd
}

func writeEntriesTable(w io.Writer, entries []store.Entry) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Seq", "Route", "URL", "Params"})
	for _, e := range entries {
		tbl.AppendRow(table.Row{e.Seq, displayRoute(e.Route), e.URL, paramsText(e.Params)})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d", len(entries))})
	tbl.Render()
}

func newCorpusForgetCommand(opts *CorpusOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "forget <url>",
		Short:         "Remove a URL from the corpus",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			st, err := opts.openStore(f)
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := st.Forget(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(ExitCommandError, CodeCorpus, err)
			}
			if !removed {
				return f.Fail(ExitFailure, CodeCorpus, fmt.Errorf("%s: %w", args[0], store.ErrNotFound))
			}
			return f.Success(map[string]string{"forgotten": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Forgot %s\n", args[0])
			})
		},
	}
	return cmd
}
