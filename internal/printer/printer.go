// Package printer writes computed views to a terminal.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/wordwrap"

	"wallcal/internal/layout"
	"wallcal/internal/render"
	"wallcal/internal/view"
)

const defaultWidth = 80

// Printer prints grids and upcoming lists. Titles that match Highlight are
// printed in red.
type Printer struct {
	Out       io.Writer
	Width     int
	Highlight []string
}

// New returns a Printer writing to out, or to color.Output when out is nil.
func New(out io.Writer, highlight []string) *Printer {
	if out == nil {
		out = color.Output
	}
	return &Printer{Out: out, Width: defaultWidth, Highlight: highlight}
}

func (p *Printer) width() int {
	if p.Width <= 0 {
		return defaultWidth
	}
	return p.Width
}

func (p *Printer) title(s string) string {
	if render.Highlighted(s, p.Highlight) {
		return color.New(color.FgRed).Sprint(s)
	}
	return s
}

// Grid prints the bars and rows of a weekly or sliding view.
func (p *Printer) Grid(g view.Grid) error {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	months := g.StartMonth
	if g.EndMonth != "" {
		months += " - " + g.EndMonth
	}
	_, _ = bold.Fprintf(p.Out, "%s  %s\n", strings.ToUpper(string(g.View)), months)
	_, _ = faint.Fprintf(p.Out, "%s to %s, today %s\n\n", g.Layout.Window.First, g.Layout.Window.Last(), g.Today)

	if len(g.Layout.Bars) > 0 {
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = uint(p.width() / 2)
		tbl.Wrap = true
		tbl.AddRow(bold.Sprint("Row"), bold.Sprint("Days"), bold.Sprint("Level"), bold.Sprint("Y"), bold.Sprint("H"), bold.Sprint("Bar"))
		for _, b := range g.Layout.Bars {
			days := continuation(b.ContinuesBefore, "<") + shortDay(b.StartDate) + "-" + shortDay(b.EndDate) +
				continuation(b.ContinuesAfter, ">")
			level := fmt.Sprint(b.Level)
			if b.Overlap {
				level += "!"
			}
			tbl.AddRow(b.Row, days, level, b.YOffset, b.Height, p.title(b.Title))
		}
		tbl.RightAlign(0)
		_, _ = fmt.Fprintln(p.Out, tbl)
		_, _ = fmt.Fprintln(p.Out)
	}

	if len(g.Layout.Rows) > 0 {
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = uint(p.width() / 2)
		tbl.Wrap = true
		tbl.AddRow(bold.Sprint("Date"), bold.Sprint("Time"), bold.Sprint("Y"), bold.Sprint("H"), bold.Sprint("Event"))
		for _, r := range g.Layout.Rows {
			tbl.AddRow(shortDay(r.Date), r.TimeLabel, r.YOffset, r.Height, p.title(r.Title))
		}
		_, _ = fmt.Fprintln(p.Out, tbl)
		_, _ = fmt.Fprintln(p.Out)
	}

	_, _ = faint.Fprintf(p.Out, "%d bars, %d rows, %d truncated, %d overlaps\n",
		len(g.Layout.Bars), len(g.Layout.Rows), g.Layout.Truncated, g.Layout.Overlaps)
	return nil
}

// Upcoming prints the upcoming list grouped by category.
func (p *Printer) Upcoming(u layout.UpcomingLayout) error {
	header := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	// Rows and headers are both in list order, so rows are grouped by
	// walking them once per header.
	next := 0
	for i, h := range u.Headers {
		if i > 0 {
			_, _ = fmt.Fprintln(p.Out)
		}
		_, _ = header.Fprintln(p.Out, h.Category.String())

		for next < len(u.Rows) && u.Rows[next].Category == h.Category {
			p.upcomingRow(u.Rows[next], faint)
			next++
		}
	}

	if len(u.Headers) == 0 {
		_, _ = faint.Fprintln(p.Out, "no upcoming events")
	}
	if u.Dropped > 0 {
		_, _ = faint.Fprintf(p.Out, "\n+%d more\n", u.Dropped)
	}
	return nil
}

func (p *Printer) upcomingRow(r layout.UpcomingRow, faint *color.Color) {
	when := r.DateLabel
	if r.TimeLabel != "" {
		when += "  " + r.TimeLabel
	}
	_, _ = faint.Fprintf(p.Out, "  %s\n", when)

	red := render.Highlighted(r.Title, p.Highlight)
	wrapped := wordwrap.String(r.Title, p.width()-4)
	for _, line := range strings.Split(wrapped, "\n") {
		if red {
			line = color.New(color.FgRed).Sprint(line)
		}
		_, _ = fmt.Fprintf(p.Out, "    %s\n", line)
	}
}

func shortDay(d layout.Date) string {
	return d.Time().Format("Mon 02")
}

func continuation(ok bool, mark string) string {
	if ok {
		return mark
	}
	return ""
}
