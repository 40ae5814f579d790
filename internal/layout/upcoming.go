package layout

import (
	"slices"
	"strings"
	"time"
)

// Category buckets upcoming events by distance from today.
type Category int

const (
	CategoryToday Category = iota
	CategoryTomorrow
	CategoryThisWeek
	CategoryNextWeek
	CategoryLater
)

var categoryNames = [...]string{"Today", "Tomorrow", "This Week", "Next Week", "Later"}

func (c Category) String() string {
	if c < CategoryToday || c > CategoryLater {
		return "Unknown"
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categorize returns the bucket for an event starting days after today.
// ok is false for events that started before today.
func Categorize(days int) (Category, bool) {
	switch {
	case days < 0:
		return 0, false
	case days == 0:
		return CategoryToday, true
	case days == 1:
		return CategoryTomorrow, true
	case days <= 7:
		return CategoryThisWeek, true
	case days <= 14:
		return CategoryNextWeek, true
	default:
		return CategoryLater, true
	}
}

// UpcomingConfig controls the upcoming-events list. Heights are estimates
// used to decide what fits before any text is measured.
type UpcomingConfig struct {
	MaxEventsPerCategory int  `json:"max_events_per_category"`
	ShowTime             bool `json:"show_time"`
	ShowAllDay           bool `json:"show_all_day"`

	CanvasHeight int `json:"canvas_height"`
	// Top is where the first category header goes.
	Top          int `json:"top"`
	BottomMargin int `json:"bottom_margin"`

	// HeaderEstimate and CategoryEventEstimate decide whether a whole
	// category fits; EventEstimate decides whether one more event does.
	HeaderEstimate        int `json:"header_estimate"`
	CategoryEventEstimate int `json:"category_event_estimate"`
	EventEstimate         int `json:"event_estimate"`
	// HeaderAdvance is the space a drawn category header takes.
	HeaderAdvance int `json:"header_advance"`
	CategoryGap   int `json:"category_gap"`
	EventGap      int `json:"event_gap"`
	EventPadding  int `json:"event_padding"`

	TitleWidth     int   `json:"title_width"`
	TitleMaxHeight int   `json:"title_max_height"`
	TitleMaxLines  int   `json:"title_max_lines"`
	FontSizes      []int `json:"font_sizes"`
	TimeFontSize   int   `json:"time_font_size"`
}

// DefaultUpcomingConfig sizes the list for a canvas of the given size.
func DefaultUpcomingConfig(width, height int) UpcomingConfig {
	return UpcomingConfig{
		MaxEventsPerCategory:  5,
		ShowTime:              true,
		ShowAllDay:            true,
		CanvasHeight:          height,
		Top:                   150,
		BottomMargin:          100,
		HeaderEstimate:        40,
		CategoryEventEstimate: 60,
		EventEstimate:         80,
		HeaderAdvance:         60,
		CategoryGap:           20,
		EventGap:              5,
		EventPadding:          10,
		TitleWidth:            width - 430 - 150,
		TitleMaxHeight:        100,
		TitleMaxLines:         2,
		FontSizes:             FontRange(32, 16, 2),
		TimeFontSize:          34,
	}
}

func (c UpcomingConfig) Validate() error {
	switch {
	case c.CanvasHeight <= 0:
		return configErr("canvas_height", "must be positive")
	case c.TitleWidth <= 0:
		return configErr("title_width", "must be positive")
	case len(c.FontSizes) == 0:
		return configErr("font_sizes", "must not be empty")
	case c.MaxEventsPerCategory < 0:
		return configErr("max_events_per_category", "must not be negative")
	case c.TimeFontSize <= 0:
		return configErr("time_font_size", "must be positive")
	}
	return nil
}

// UpcomingHeader is a category heading in the list.
type UpcomingHeader struct {
	Category Category `json:"category"`
	Y        int      `json:"y"`
}

// UpcomingRow is one event line in the list.
type UpcomingRow struct {
	Category  Category `json:"category"`
	Title     string   `json:"title"`
	Date      Date     `json:"date"`
	DateLabel string   `json:"date_label"`
	TimeLabel string   `json:"time_label"`
	Y         int      `json:"y"`
	Height    int      `json:"height"`
	FontSize  int      `json:"font_size"`
	Lines     []string `json:"lines"`
}

// UpcomingLayout is a single vertical stream of headers and rows.
type UpcomingLayout struct {
	Today   Date             `json:"today"`
	Headers []UpcomingHeader `json:"headers"`
	Rows    []UpcomingRow    `json:"rows"`
	// Dropped counts events that qualified but did not fit.
	Dropped int `json:"dropped"`
}

// Upcoming buckets events relative to today and stacks them top to bottom,
// dropping whole categories or events once the estimated height would run
// past the canvas.
func Upcoming(events []Event, today Date, loc *time.Location, cfg UpcomingConfig, fitter Fitter) (UpcomingLayout, error) {
	if err := cfg.Validate(); err != nil {
		return UpcomingLayout{}, err
	}
	if fitter.M == nil {
		return UpcomingLayout{}, configErr("measurer", "must be set")
	}
	if loc == nil {
		loc = time.Local
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		if c := a.StartInstant(loc).Compare(b.StartInstant(loc)); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})

	var buckets [len(categoryNames)][]Event
	for _, ev := range sorted {
		if ev.AllDay && !cfg.ShowAllDay || !ev.AllDay && !cfg.ShowTime {
			continue
		}
		cat, ok := Categorize(ev.StartDate.Sub(today))
		if !ok {
			continue
		}
		buckets[cat] = append(buckets[cat], ev)
	}

	out := UpcomingLayout{Today: today, Headers: []UpcomingHeader{}, Rows: []UpcomingRow{}}
	limit := cfg.CanvasHeight - cfg.BottomMargin
	timeHeight := fitter.M.LineHeight(cfg.TimeFontSize)
	y := cfg.Top

	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		cat := Category(i)
		if len(bucket) > cfg.MaxEventsPerCategory {
			out.Dropped += len(bucket) - cfg.MaxEventsPerCategory
			bucket = bucket[:cfg.MaxEventsPerCategory]
		}

		if y+cfg.HeaderEstimate+len(bucket)*cfg.CategoryEventEstimate > limit {
			out.Dropped += len(bucket)
			for _, rest := range buckets[i+1:] {
				out.Dropped += len(rest)
			}
			break
		}

		out.Headers = append(out.Headers, UpcomingHeader{Category: cat, Y: y})
		y += cfg.HeaderAdvance

		for j, ev := range bucket {
			if y+cfg.EventEstimate > limit {
				out.Dropped += len(bucket) - j
				break
			}
			fit := fitter.Fit(FitRequest{
				Text:      ev.Title,
				MaxWidth:  cfg.TitleWidth,
				MaxHeight: cfg.TitleMaxHeight,
				MaxLines:  cfg.TitleMaxLines,
				Sizes:     cfg.FontSizes,
			})
			height := max(timeHeight, fit.Height) + cfg.EventPadding
			out.Rows = append(out.Rows, UpcomingRow{
				Category:  cat,
				Title:     ev.Title,
				Date:      ev.StartDate,
				DateLabel: ev.StartDate.Time().Format("Mon, Jan 02"),
				TimeLabel: TimeLabel(ev),
				Y:         y,
				Height:    height,
				FontSize:  fit.Size,
				Lines:     fit.Lines,
			})
			y += height + cfg.EventGap
		}
		y += cfg.CategoryGap
	}

	return out, nil
}
