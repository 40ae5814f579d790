package layout

import "time"

// Columns is the number of day columns in every grid row. Rows are always
// Monday-anchored weeks.
const Columns = 7

// Window is the contiguous date range a grid view renders:
// [First, First + Rows*7).
type Window struct {
	First Date `json:"first"`
	Rows  int  `json:"rows"`
}

// NewWindow validates and returns a window of rows weeks starting at first,
// which must be a Monday.
func NewWindow(first Date, rows int) (Window, error) {
	if rows <= 0 {
		return Window{}, configErr("rows", "must be positive")
	}
	if first.IsZero() {
		return Window{}, configErr("first", "must be set")
	}
	if first.Weekday() != time.Monday {
		return Window{}, configErr("first", "must be a Monday, got "+first.Weekday().String())
	}
	return Window{First: first, Rows: rows}, nil
}

// WeeklyWindow is the single-row window for the week containing today.
func WeeklyWindow(today Date) Window {
	return Window{First: MondayOf(today), Rows: 1}
}

// SlidingWindow is the 21-day, three-row window starting at the Monday of
// the current week.
func SlidingWindow(today Date) Window {
	return Window{First: MondayOf(today), Rows: 3}
}

func (w Window) Days() int { return w.Rows * Columns }

// Last is the final visible date (inclusive).
func (w Window) Last() Date { return w.First.AddDays(w.Days() - 1) }

func (w Window) Contains(d Date) bool {
	return !d.Before(w.First) && !d.After(w.Last())
}

// RowOf returns the grid row holding d. The result is only meaningful when
// Contains(d).
func (w Window) RowOf(d Date) int { return d.Sub(w.First) / Columns }

func (w Window) RowStart(row int) Date { return w.First.AddDays(row * Columns) }

// DateAt returns the date in the given cell.
func (w Window) DateAt(row, col int) Date { return w.First.AddDays(row*Columns + col) }

// Clip intersects [first, last] with the window. ok is false when the
// intersection is empty.
func (w Window) Clip(first, last Date) (Date, Date, bool) {
	start := maxDate(first, w.First)
	end := minDate(last, w.Last())
	if start.After(end) {
		return Date{}, Date{}, false
	}
	return start, end, true
}

// MonthLabels returns the month name of the first visible day and, if the
// window crosses into another month, the month of the last visible day.
func (w Window) MonthLabels() (string, string) {
	start := w.First.Month.String()
	end := w.Last().Month.String()
	if end == start {
		return start, ""
	}
	return start, end
}

// DayHeaders returns the short weekday names for the seven columns.
func DayHeaders() [Columns]string {
	return [Columns]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
}
