package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/deeplink/internal/route"
)

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List every route in match order with its pattern counts, the surfaces it
renders to and its required and optional parameters.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(cmd, rootOpts)
		},
	}

	return cmd
}

func runRoutes(cmd *cobra.Command, opts *RootOptions) error {
	f := opts.formatter(cmd)

	p, err := opts.newParser()
	if err != nil {
		return f.Fail(ExitCommandError, CodeInternal, err)
	}

	summaries := make([]route.Summary, 0, p.Table().Len())
	for def := range p.Table().Definitions() {
		summaries = append(summaries, route.Describe(def))
	}

	return f.Success(summaries, func(w io.Writer) { writeRoutesTable(w, summaries) })
}

// writeRoutesTable renders summaries with go-pretty.
func writeRoutesTable(w io.Writer, summaries []route.Summary) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"#", "Route", "Protocol", "Website", "Required", "Optional"})
	for i, s := range summaries {
		tbl.AppendRow(table.Row{
			i + 1,
			s.Name,
			surfaceCell(s.ProtocolPatterns, s.ProtocolURL),
			surfaceCell(s.WebsitePatterns, s.WebsiteURL),
			strings.Join(s.Required, ", "),
			strings.Join(s.Optional, ", "),
		})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d routes", len(summaries))})
	tbl.Render()
}

// surfaceCell shows the pattern count and whether the route renders there.
func surfaceCell(patterns int, renders bool) string {
	if renders {
		return fmt.Sprintf("%d / url", patterns)
	}
	return fmt.Sprintf("%d", patterns)
}
