package layout

// ViewConfig holds the per-view placement limits and geometry. All lengths
// are pixels.
type ViewConfig struct {
	MaxEventsPerDay int  `json:"max_events_per_day"`
	ShowTime        bool `json:"show_time"`
	ShowAllDay      bool `json:"show_all_day"`

	// MaxLevels bounds how many bars can stack in one row before bars
	// start to overlap.
	MaxLevels int   `json:"max_levels"`
	FontSizes []int `json:"font_sizes"`

	// Gap separates bar levels, and the lowest bar from the first event row.
	Gap int `json:"gap"`
	// EventGap separates consecutive single-day rows in a cell.
	EventGap int `json:"event_gap"`

	CellWidth  int `json:"cell_width"`
	CellHeight int `json:"cell_height"`

	// HeaderOffset is reserved at the top of each cell for the day number.
	HeaderOffset int `json:"header_offset"`
	// CellPadding is the horizontal inset of text and the bottom margin of
	// each cell.
	CellPadding int `json:"cell_padding"`

	// BarInset is subtracted from each side of a bar's text width.
	BarInset     int `json:"bar_inset"`
	BarPadding   int `json:"bar_padding"`
	BarMinHeight int `json:"bar_min_height"`
	BarMaxLines  int `json:"bar_max_lines"`

	RowMaxLines  int `json:"row_max_lines"`
	TimeFontSize int `json:"time_font_size"`
	// InlineTime puts the time label left of the title instead of on its
	// own line above it.
	InlineTime bool `json:"inline_time"`
}

// Validate rejects configurations that indicate a programming error.
func (c ViewConfig) Validate() error {
	switch {
	case c.MaxLevels <= 0:
		return configErr("max_levels", "must be positive")
	case len(c.FontSizes) == 0:
		return configErr("font_sizes", "must not be empty")
	case c.CellWidth <= 0 || c.CellHeight <= 0:
		return configErr("cell_size", "must be positive")
	case c.MaxEventsPerDay < 0:
		return configErr("max_events_per_day", "must not be negative")
	case c.Gap < 0 || c.EventGap < 0:
		return configErr("gap", "must not be negative")
	case c.TimeFontSize <= 0:
		return configErr("time_font_size", "must be positive")
	}
	for _, s := range c.FontSizes {
		if s <= 0 {
			return configErr("font_sizes", "sizes must be positive")
		}
	}
	return nil
}

// FontRange returns the sizes from max down to min in steps of step.
func FontRange(max, min, step int) []int {
	if step <= 0 {
		step = 1
	}
	var sizes []int
	for s := max; s >= min; s -= step {
		sizes = append(sizes, s)
	}
	return sizes
}

// base carries the geometry shared by both grid views.
func base(cellWidth, cellHeight int) ViewConfig {
	return ViewConfig{
		ShowTime:     true,
		ShowAllDay:   true,
		MaxLevels:    5,
		FontSizes:    FontRange(32, 16, 2),
		Gap:          5,
		CellWidth:    cellWidth,
		CellHeight:   cellHeight,
		HeaderOffset: 50,
		CellPadding:  10,
		BarInset:     20,
		BarPadding:   20,
		BarMinHeight: 30,
		BarMaxLines:  3,
		TimeFontSize: 34,
	}
}

// WeeklyConfig is the single-row view: more events per day, time label on
// its own line above a two-line title.
func WeeklyConfig(cellWidth, cellHeight int) ViewConfig {
	c := base(cellWidth, cellHeight)
	c.MaxEventsPerDay = 8
	c.EventGap = 8
	c.RowMaxLines = 2
	return c
}

// SlidingConfig is the three-row view: fewer events per day with the time
// label inline to save height.
func SlidingConfig(cellWidth, cellHeight int) ViewConfig {
	c := base(cellWidth, cellHeight)
	c.MaxEventsPerDay = 3
	c.EventGap = 3
	c.RowMaxLines = 3
	c.InlineTime = true
	return c
}
