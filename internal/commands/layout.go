package commands

import (
	"encoding/json"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wallcal/internal/printer"
	"wallcal/internal/view"
)

type printOptions struct {
	view  string
	json  bool
	width int
}

func (po *printOptions) printer(out io.Writer, highlight []string) *printer.Printer {
	p := printer.New(out, highlight)
	if po.width > 0 {
		p.Width = po.width
	}
	return p
}

func addLayout(topLevel *cobra.Command, ro *rootOptions) {
	po := &printOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the computed weekly or sliding grid.",
		Example: `
wallcal layout
wallcal layout --view weekly --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := view.Parse(po.view)
			if err != nil {
				return err
			}
			e, err := ro.load(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := e.store.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			g, err := e.engine.Grid(snap, name)
			if err != nil {
				return err
			}
			if po.json {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			return po.printer(color.Output, e.cfg.HighlightRed).Grid(g)
		},
	}
	cmd.Flags().StringVar(&po.view, "view", "", "Grid to print: weekly or sliding")
	cmd.Flags().BoolVar(&po.json, "json", false, "Print the layout as JSON")
	cmd.Flags().IntVar(&po.width, "width", 0, "Terminal width used for wrapping")

	topLevel.AddCommand(cmd)
}

func addUpcoming(topLevel *cobra.Command, ro *rootOptions) {
	po := &printOptions{}

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Print upcoming events grouped by day distance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := e.store.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			u, err := e.engine.UpcomingList(snap)
			if err != nil {
				return err
			}
			if po.json {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			return po.printer(color.Output, e.cfg.HighlightRed).Upcoming(u)
		},
	}
	cmd.Flags().BoolVar(&po.json, "json", false, "Print the list as JSON")
	cmd.Flags().IntVar(&po.width, "width", 0, "Terminal width used for wrapping")

	topLevel.AddCommand(cmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
