// Package render draws grid and upcoming layouts onto an RGBA canvas in
// the three inks a tri-color panel can show.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wallcal/internal/layout"
	"wallcal/internal/surface"
)

var (
	White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = color.NRGBA{A: 0xff}
	Red   = color.NRGBA{R: 0xd0, A: 0xff}
)

const (
	monthFontSize   = 40
	weekdayFontSize = 24
	dayFontSize     = 28
	margin          = 10
)

// Options carries the faces and styling shared by both views.
type Options struct {
	Face surface.Typeface
	// Bold is used for headings; Face is used when nil.
	Bold           surface.Typeface
	LineSpacingPct int
	// Highlight lists case-insensitive keywords whose events are drawn red.
	Highlight []string
	// HeaderHeight is reserved above the grid.
	HeaderHeight int
}

func (o Options) bold() surface.Typeface {
	if o.Bold != nil {
		return o.Bold
	}
	return o.Face
}

// Fitter measures with Face, so drawn text matches the layout.
func (o Options) Fitter() layout.Fitter {
	return layout.Fitter{M: o.Face, LineSpacingPct: o.LineSpacingPct}
}

func (o Options) ink(title string) color.Color {
	if Highlighted(title, o.Highlight) {
		return Red
	}
	return Black
}

// Highlighted reports whether title contains any keyword, ignoring case.
func Highlighted(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func newCanvas(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)
	return img
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// Grid draws a weekly or sliding layout. today is marked in red when it is
// inside the window.
func Grid(l layout.Layout, cfg layout.ViewConfig, today layout.Date, opts Options) (*image.NRGBA, error) {
	if opts.Face == nil {
		return nil, fmt.Errorf("render: no typeface")
	}
	width := cfg.CellWidth * layout.Columns
	top := opts.HeaderHeight
	img := newCanvas(width, top+cfg.CellHeight*l.Window.Rows)

	drawHeader(img, l.Window, cfg, opts)

	for row := 0; row < l.Window.Rows; row++ {
		for col := 0; col < layout.Columns; col++ {
			cell := layout.CellBox(cfg, top, row, col)
			date := l.Window.DateAt(row, col)
			c := color.Color(Black)
			if date == today {
				c = Red
			}
			opts.bold().DrawText(img, cell.Min.X+margin, cell.Min.Y+margin, strconv.Itoa(date.Day), dayFontSize, c)
		}
	}
	drawGridLines(img, cfg, top, l.Window.Rows)

	fitter := opts.Fitter()
	for _, r := range l.Rects(cfg, top) {
		if r.Bar {
			drawBar(img, l.Bars[r.Index], r.Box, cfg, fitter, opts)
			continue
		}
		drawRow(img, l.Rows[r.Index], r.Box, fitter, opts)
	}
	return img, nil
}

func drawHeader(img *image.NRGBA, w layout.Window, cfg layout.ViewConfig, opts Options) {
	if opts.HeaderHeight <= 0 {
		return
	}
	start, end := w.MonthLabels()
	label := fmt.Sprintf("%s %d", start, w.First.Year)
	if end != "" {
		label = fmt.Sprintf("%s / %s %d", start, end, w.Last().Year)
	}
	opts.bold().DrawText(img, margin, margin, label, monthFontSize, Black)

	y := opts.HeaderHeight - opts.Face.LineHeight(weekdayFontSize) - margin/2
	for col, name := range layout.DayHeaders() {
		opts.Face.DrawText(img, col*cfg.CellWidth+margin, y, name, weekdayFontSize, Black)
	}
}

func drawGridLines(img *image.NRGBA, cfg layout.ViewConfig, top, rows int) {
	bottom := top + rows*cfg.CellHeight
	right := layout.Columns * cfg.CellWidth
	for col := 0; col <= layout.Columns; col++ {
		x := min(col*cfg.CellWidth, right-1)
		fill(img, image.Rect(x, top, x+1, bottom), Black)
	}
	for row := 0; row <= rows; row++ {
		y := min(top+row*cfg.CellHeight, bottom-1)
		fill(img, image.Rect(0, y, right, y+1), Black)
	}
}

// drawBar fills the bar in its ink and writes the title in white.
func drawBar(img *image.NRGBA, b layout.PlacedBar, box image.Rectangle, cfg layout.ViewConfig, fitter layout.Fitter, opts Options) {
	fill(img, box, opts.ink(b.Title))
	x := box.Min.X + max(cfg.BarInset-cfg.CellPadding, 0)
	y := box.Min.Y + cfg.BarPadding/2
	for _, line := range b.Lines {
		opts.Face.DrawText(img, x, y, line, b.FontSize, White)
		y += fitter.LineAdvance(b.FontSize)
	}
	// Open ends mark a bar that continues beyond this row.
	notch := image.Rect(0, 0, 4, box.Dy()/2).Add(image.Pt(0, box.Min.Y+box.Dy()/4))
	if b.ContinuesBefore {
		fill(img, notch.Add(image.Pt(box.Min.X, 0)), White)
	}
	if b.ContinuesAfter {
		fill(img, notch.Add(image.Pt(box.Max.X-4, 0)), White)
	}
}

func drawRow(img *image.NRGBA, r layout.PlacedRow, box image.Rectangle, fitter layout.Fitter, opts Options) {
	c := opts.ink(r.Title)
	opts.bold().DrawText(img, box.Min.X, box.Min.Y, r.TimeLabel, r.TimeFontSize, c)
	x := box.Min.X + r.TitleOffsetX
	y := box.Min.Y + r.TitleOffsetY
	for _, line := range r.Lines {
		opts.Face.DrawText(img, x, y, line, r.FontSize, c)
		y += fitter.LineAdvance(r.FontSize)
	}
}

// Upcoming draws the upcoming list on a width x height canvas.
func Upcoming(u layout.UpcomingLayout, cfg layout.UpcomingConfig, width, height int, opts Options) (*image.NRGBA, error) {
	if opts.Face == nil {
		return nil, fmt.Errorf("render: no typeface")
	}
	img := newCanvas(width, height)

	const left = 40
	opts.bold().DrawText(img, left, left, "Upcoming", 2*monthFontSize, Black)
	opts.Face.DrawText(img, left, left+2*monthFontSize+margin, u.Today.Time().Format("Monday, January 2"), weekdayFontSize, Black)

	for _, h := range u.Headers {
		opts.bold().DrawText(img, left, h.Y, h.Category.String(), cfg.TimeFontSize, Red)
		fill(img, image.Rect(left, h.Y+cfg.HeaderAdvance-margin, width-left, h.Y+cfg.HeaderAdvance-margin+2), Black)
	}

	fitter := opts.Fitter()
	titleX := width - left - cfg.TitleWidth
	for _, r := range u.Rows {
		c := opts.ink(r.Title)
		opts.Face.DrawText(img, left, r.Y, r.DateLabel, cfg.TimeFontSize, c)
		opts.bold().DrawText(img, left+opts.Face.MeasureText("Mon, Jan 02", cfg.TimeFontSize)+2*margin, r.Y, r.TimeLabel, cfg.TimeFontSize, c)
		y := r.Y
		for _, line := range r.Lines {
			opts.Face.DrawText(img, titleX, y, line, r.FontSize, c)
			y += fitter.LineAdvance(r.FontSize)
		}
	}
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// SavePNG writes img to path atomically via a temp file and rename.
func SavePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".wallcal-*.png")
	if err != nil {
		return fmt.Errorf("render: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WritePNG(tmp, img); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("render: rename: %w", err)
	}
	return nil
}
