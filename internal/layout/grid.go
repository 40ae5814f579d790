package layout

import (
	"image"
	"time"
)

const (
	allDayLabel = "All Day"
	timeFormat  = "3:04 PM"
	// labelGap separates an inline time label from the title.
	labelGap = 5
	// stackGap separates a stacked time label from the title below it.
	stackGap = 5
)

// PlacedBar is one row's slice of a multi-day event.
type PlacedBar struct {
	Title       string `json:"title"`
	Row         int    `json:"row"`
	StartColumn int    `json:"start_column"`
	EndColumn   int    `json:"end_column"`
	StartDate   Date   `json:"start_date"`
	EndDate     Date   `json:"end_date"`
	Level       int    `json:"level"`
	// YOffset is measured from the top of the bar band, which begins
	// HeaderOffset pixels below the top of the row.
	YOffset  int      `json:"y_offset"`
	Height   int      `json:"height"`
	FontSize int      `json:"font_size"`
	Lines    []string `json:"lines"`
	// ContinuesBefore/After mark bars split at a row boundary or clipped by
	// the window.
	ContinuesBefore bool `json:"continues_before"`
	ContinuesAfter  bool `json:"continues_after"`
	// Overlap is set when every level was taken and the bar was put on
	// level 0 on top of another bar.
	Overlap bool `json:"overlap"`
}

// Bottom is the y-coordinate of the bar's lower edge relative to the band.
func (b PlacedBar) Bottom() int { return b.YOffset + b.Height }

// Covers reports whether the bar spans col.
func (b PlacedBar) Covers(col int) bool {
	return col >= b.StartColumn && col <= b.EndColumn
}

// PlacedRow is a single-day event listed in one cell.
type PlacedRow struct {
	Title  string `json:"title"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Date   Date   `json:"date"`
	// YOffset is measured from the top of the cell.
	YOffset      int      `json:"y_offset"`
	Height       int      `json:"height"`
	FontSize     int      `json:"font_size"`
	Lines        []string `json:"lines"`
	TimeLabel    string   `json:"time_label"`
	TimeFontSize int      `json:"time_font_size"`
	// TitleOffsetX/Y position the title relative to the row origin, after
	// an inline or stacked time label.
	TitleOffsetX int `json:"title_offset_x"`
	TitleOffsetY int `json:"title_offset_y"`
}

// Layout is the result of one grid layout pass. Bars come before rows and
// should be drawn first so event text is never hidden behind a bar.
type Layout struct {
	Window Window      `json:"window"`
	Bars   []PlacedBar `json:"bars"`
	Rows   []PlacedRow `json:"rows"`
	// Overlaps counts bars placed by the level-exhaustion fallback.
	Overlaps int `json:"overlaps"`
	// Truncated counts single-day placements dropped by the per-day limit
	// or for lack of vertical space.
	Truncated int `json:"truncated"`
}

// CellTop returns the y-coordinate where single-day rows start in a cell:
// below the lowest bar covering it, or right under the header when no bar
// does.
func (l Layout) CellTop(cfg ViewConfig, row, col int) int {
	bottom, found := 0, false
	for _, b := range l.Bars {
		if b.Row != row || !b.Covers(col) {
			continue
		}
		found = true
		if b.Bottom() > bottom {
			bottom = b.Bottom()
		}
	}
	if !found {
		return cfg.HeaderOffset
	}
	return cfg.HeaderOffset + bottom + cfg.Gap
}

// Compute lays events out on the window's grid. events must already be
// classified into the display timezone. Multi-day events are placed in
// input order; the call is deterministic and keeps no state between calls.
func Compute(events []Event, w Window, cfg ViewConfig, fitter Fitter) (Layout, error) {
	if err := cfg.Validate(); err != nil {
		return Layout{}, err
	}
	if _, err := NewWindow(w.First, w.Rows); err != nil {
		return Layout{}, err
	}
	if fitter.M == nil {
		return Layout{}, configErr("measurer", "must be set")
	}
	tracker, err := NewTracker(cfg.MaxLevels, cfg.Gap)
	if err != nil {
		return Layout{}, err
	}

	out := Layout{Window: w, Bars: []PlacedBar{}, Rows: []PlacedRow{}}

	var multi, single []Event
	for _, ev := range events {
		if _, _, ok := w.Clip(ev.StartDate, ev.LastDate()); !ok {
			continue
		}
		if ev.IsMultiDay() {
			multi = append(multi, ev)
		} else {
			single = append(single, ev)
		}
	}

	for _, ev := range multi {
		for _, b := range placeBars(ev, w, cfg, fitter, tracker) {
			if b.Overlap {
				out.Overlaps++
			}
			out.Bars = append(out.Bars, b)
		}
	}

	for row := 0; row < w.Rows; row++ {
		for col := 0; col < Columns; col++ {
			rows, dropped := placeRows(single, w, row, col, out.CellTop(cfg, row, col), cfg, fitter)
			out.Rows = append(out.Rows, rows...)
			out.Truncated += dropped
		}
	}

	return out, nil
}

// placeBars emits one bar per grid row the event touches.
func placeBars(ev Event, w Window, cfg ViewConfig, fitter Fitter, tracker *Tracker) []PlacedBar {
	first, last, _ := w.Clip(ev.StartDate, ev.LastDate())

	var bars []PlacedBar
	for row := w.RowOf(first); row <= w.RowOf(last); row++ {
		rowStart := w.RowStart(row)
		startCol := max(0, first.Sub(rowStart))
		endCol := min(Columns-1, last.Sub(rowStart))

		width := (endCol-startCol+1)*cfg.CellWidth - 2*cfg.BarInset
		fit := fitter.Fit(FitRequest{
			Text:     ev.Title,
			MaxWidth: width,
			MaxLines: cfg.BarMaxLines,
			Sizes:    cfg.FontSizes,
		})
		lines := fit.Lines
		if cfg.BarMaxLines > 0 && len(lines) > cfg.BarMaxLines {
			lines = lines[:cfg.BarMaxLines]
		}
		height := max(fitter.TextHeight(len(lines), fit.Size)+cfg.BarPadding, cfg.BarMinHeight)

		level, y, overlap := tracker.Place(row, startCol, endCol, height)
		if lh := tracker.LevelHeight(row, level); !overlap && height > lh {
			// The level is shorter than this bar; shrink the text into it.
			fit, lines = fitBar(ev.Title, width, lh-cfg.BarPadding, cfg, fitter)
			height = lh
		}
		bars = append(bars, PlacedBar{
			Title:           ev.Title,
			Row:             row,
			StartColumn:     startCol,
			EndColumn:       endCol,
			StartDate:       rowStart.AddDays(startCol),
			EndDate:         rowStart.AddDays(endCol),
			Level:           level,
			YOffset:         y,
			Height:          height,
			FontSize:        fit.Size,
			Lines:           lines,
			ContinuesBefore: rowStart.AddDays(startCol).After(ev.StartDate),
			ContinuesAfter:  rowStart.AddDays(endCol).Before(ev.LastDate()),
			Overlap:         overlap,
		})
	}
	return bars
}

// fitBar fits a bar title into maxHeight, dropping lines that still do not
// fit at the smallest size. At least one line is kept.
func fitBar(title string, width, maxHeight int, cfg ViewConfig, fitter Fitter) (Fit, []string) {
	fit := fitter.Fit(FitRequest{
		Text:      title,
		MaxWidth:  width,
		MaxHeight: max(maxHeight, 1),
		MaxLines:  cfg.BarMaxLines,
		Sizes:     cfg.FontSizes,
	})
	lines := fit.Lines
	for len(lines) > 1 && fitter.TextHeight(len(lines), fit.Size) > maxHeight {
		lines = lines[:len(lines)-1]
	}
	return fit, lines
}

// placeRows lists the single-day events of one cell from top downward,
// returning the rows placed and how many qualifying events were dropped.
func placeRows(single []Event, w Window, row, col, top int, cfg ViewConfig, fitter Fitter) ([]PlacedRow, int) {
	date := w.DateAt(row, col)

	var day []Event
	for _, ev := range single {
		if !ev.OccursOn(date) {
			continue
		}
		if ev.AllDay && !cfg.ShowAllDay || !ev.AllDay && !cfg.ShowTime {
			continue
		}
		day = append(day, ev)
	}
	SortForDisplay(day)

	dropped := 0
	if len(day) > cfg.MaxEventsPerDay {
		dropped = len(day) - cfg.MaxEventsPerDay
		day = day[:cfg.MaxEventsPerDay]
	}

	bottom := cfg.CellHeight - cfg.CellPadding
	textWidth := cfg.CellWidth - 2*cfg.CellPadding
	timeHeight := fitter.M.LineHeight(cfg.TimeFontSize)

	var rows []PlacedRow
	y := top
	for i, ev := range day {
		label := TimeLabel(ev)

		titleWidth, titleX, titleY := textWidth, 0, 0
		maxHeight := bottom - y
		if cfg.InlineTime {
			titleX = fitter.M.MeasureText(label, cfg.TimeFontSize) + labelGap
			titleWidth = textWidth - titleX
		} else {
			titleY = timeHeight + stackGap
			maxHeight -= titleY
		}
		if maxHeight <= 0 {
			return rows, dropped + len(day) - i
		}

		fit := fitter.Fit(FitRequest{
			Text:      ev.Title,
			MaxWidth:  titleWidth,
			MaxHeight: maxHeight,
			MaxLines:  cfg.RowMaxLines,
			Sizes:     cfg.FontSizes,
		})

		height := max(timeHeight, fit.Height)
		if !cfg.InlineTime {
			height = titleY + fit.Height
		}
		if y+height > bottom {
			return rows, dropped + len(day) - i
		}

		rows = append(rows, PlacedRow{
			Title:        ev.Title,
			Row:          row,
			Column:       col,
			Date:         date,
			YOffset:      y,
			Height:       height,
			FontSize:     fit.Size,
			Lines:        fit.Lines,
			TimeLabel:    label,
			TimeFontSize: cfg.TimeFontSize,
			TitleOffsetX: titleX,
			TitleOffsetY: titleY,
		})
		y += height + cfg.EventGap
	}
	return rows, dropped
}

// Rect is a placement translated to canvas pixels. Index points into
// Layout.Bars when Bar is set and into Layout.Rows otherwise.
type Rect struct {
	Bar   bool            `json:"bar"`
	Index int             `json:"index"`
	Box   image.Rectangle `json:"box"`
}

// CellBox is the canvas rectangle of one grid cell when the grid starts at
// y = top.
func CellBox(cfg ViewConfig, top, row, col int) image.Rectangle {
	x := col * cfg.CellWidth
	y := top + row*cfg.CellHeight
	return image.Rect(x, y, x+cfg.CellWidth, y+cfg.CellHeight)
}

// Rects maps every bar and row to canvas coordinates, bars first.
func (l Layout) Rects(cfg ViewConfig, top int) []Rect {
	rects := make([]Rect, 0, len(l.Bars)+len(l.Rows))
	for i, b := range l.Bars {
		cell := CellBox(cfg, top, b.Row, b.StartColumn)
		x0 := cell.Min.X + cfg.CellPadding
		x1 := b.EndColumn*cfg.CellWidth + cfg.CellWidth - cfg.CellPadding
		y0 := cell.Min.Y + cfg.HeaderOffset + b.YOffset
		rects = append(rects, Rect{Bar: true, Index: i, Box: image.Rect(x0, y0, x1, y0+b.Height)})
	}
	for i, r := range l.Rows {
		cell := CellBox(cfg, top, r.Row, r.Column)
		y0 := cell.Min.Y + r.YOffset
		rects = append(rects, Rect{Index: i, Box: image.Rect(
			cell.Min.X+cfg.CellPadding, y0, cell.Max.X-cfg.CellPadding, y0+r.Height)})
	}
	return rects
}

// TimeLabel is "3:04 PM" for timed events and "All Day" otherwise.
func TimeLabel(ev Event) string {
	if ev.AllDay {
		return allDayLabel
	}
	return ev.StartTime.Format(timeFormat)
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}
