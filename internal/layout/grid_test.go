package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

const monday = "2024-06-03"

func weekly(t *testing.T) Window {
	return WeeklyWindow(mustDate(t, "2024-06-05"))
}

func sliding(t *testing.T) Window {
	return SlidingWindow(mustDate(t, "2024-06-05"))
}

func compute(t *testing.T, events []Event, w Window, cfg ViewConfig) Layout {
	t.Helper()
	l, err := Compute(events, w, cfg, testFitter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return l
}

func TestWeeklyBarClippedToWindow(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	cases := []struct {
		name           string
		end            string
		continuesAfter bool
	}{
		{"ends sunday", "2024-06-10", false},
		{"runs into next week", "2024-06-12", true},
	}
	for _, tc := range cases {
		l := compute(t, []Event{allDay(t, "Family Reunion", "2024-06-07", tc.end)}, weekly(t), cfg)
		if len(l.Bars) != 1 {
			t.Fatalf("%s: expected 1 bar, got %d", tc.name, len(l.Bars))
		}
		b := l.Bars[0]
		if b.Row != 0 || b.StartColumn != 4 || b.EndColumn != 6 {
			t.Fatalf("%s: expected row 0 columns [4,6], got row %d [%d,%d]", tc.name, b.Row, b.StartColumn, b.EndColumn)
		}
		if b.ContinuesAfter != tc.continuesAfter || b.ContinuesBefore {
			t.Fatalf("%s: unexpected continuation flags %+v", tc.name, b)
		}
	}
}

func TestEventOutsideWindowIsDropped(t *testing.T) {
	l := compute(t, []Event{
		allDay(t, "Next week", "2024-06-17", "2024-06-19"),
		timed(t, "Last week", "2024-05-30T09:00:00Z", "2024-05-30T10:00:00Z"),
	}, weekly(t), WeeklyConfig(200, 400))
	if len(l.Bars) != 0 || len(l.Rows) != 0 {
		t.Fatalf("expected nothing placed, got %+v", l)
	}
}

func TestSlidingBarSplitsAcrossWeeks(t *testing.T) {
	l := compute(t, []Event{allDay(t, "Camping", "2024-06-08", "2024-06-12")}, sliding(t), SlidingConfig(200, 300))
	if len(l.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(l.Bars))
	}
	first, second := l.Bars[0], l.Bars[1]
	if first.Row != 0 || first.StartColumn != 5 || first.EndColumn != 6 || !first.ContinuesAfter {
		t.Fatalf("expected row 0 [Sat,Sun], got %+v", first)
	}
	if second.Row != 1 || second.StartColumn != 0 || second.EndColumn != 1 || !second.ContinuesBefore {
		t.Fatalf("expected row 1 [Mon,Tue], got %+v", second)
	}
}

func TestSplitCoversEventExactly(t *testing.T) {
	ev := allDay(t, "Renovation", "2024-06-05", "2024-06-20")
	l := compute(t, []Event{ev}, sliding(t), SlidingConfig(200, 300))
	if len(l.Bars) != 3 {
		t.Fatalf("expected 3 bars for 3 weeks, got %d", len(l.Bars))
	}

	want := [][2]int{{2, 6}, {0, 6}, {0, 2}}
	next := ev.StartDate
	for i, b := range l.Bars {
		if b.Row != i || b.StartColumn != want[i][0] || b.EndColumn != want[i][1] {
			t.Fatalf("bar %d: expected row %d %v, got row %d [%d,%d]", i, i, want[i], b.Row, b.StartColumn, b.EndColumn)
		}
		if b.StartDate != next {
			t.Fatalf("bar %d: expected to start %s, got %s", i, next, b.StartDate)
		}
		next = b.EndDate.AddDays(1)
	}
	if next != ev.EndDate {
		t.Fatalf("expected bars to end at %s, got %s", ev.EndDate, next)
	}
}

func TestSecondBarStacksBelowFirst(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	l := compute(t, []Event{
		allDay(t, "Conference", monday, "2024-06-06"),
		allDay(t, "Workshop", monday, "2024-06-06"),
	}, weekly(t), cfg)

	bar1, bar2 := l.Bars[0], l.Bars[1]
	if bar1.Level != 0 || bar2.Level != 1 {
		t.Fatalf("expected levels 0 and 1, got %d and %d", bar1.Level, bar2.Level)
	}
	if bar1.Height != 58 {
		t.Fatalf("expected one-line bar of 58px, got %d", bar1.Height)
	}
	if bar2.YOffset != bar1.Height+cfg.Gap {
		t.Fatalf("expected y-offset %d, got %d", bar1.Height+cfg.Gap, bar2.YOffset)
	}
}

func TestFirstBarSetsLevelHeight(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	l := compute(t, []Event{
		allDay(t, "Conference", monday, "2024-06-05"),
		allDay(t, "International Day of Remembrance", "2024-06-06", "2024-06-08"),
		allDay(t, "Workshop", monday, "2024-06-05"),
	}, weekly(t), cfg)

	first, taller, upper := l.Bars[0], l.Bars[1], l.Bars[2]
	if first.Level != 0 || taller.Level != 0 || upper.Level != 1 {
		t.Fatalf("expected levels 0, 0, 1, got %d, %d, %d", first.Level, taller.Level, upper.Level)
	}
	// Two lines at 32px would need 102px; the level is 58px, so the title
	// shrinks to one line at 18px.
	if taller.Height != first.Height || taller.FontSize != 18 || len(taller.Lines) != 1 {
		t.Fatalf("expected bar fitted to the 58px level, got %+v", taller)
	}
	if upper.YOffset != first.Height+cfg.Gap {
		t.Fatalf("expected y-offset %d, got %d", first.Height+cfg.Gap, upper.YOffset)
	}
}

func TestRowsStartBelowBars(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	l := compute(t, []Event{
		allDay(t, "Conference", monday, "2024-06-06"),
		allDay(t, "Workshop", monday, "2024-06-06"),
		timed(t, "Dentist", "2024-06-04T10:00:00Z", "2024-06-04T11:00:00Z"),
		timed(t, "Gym", "2024-06-06T18:00:00Z", "2024-06-06T19:00:00Z"),
	}, weekly(t), cfg)

	if len(l.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(l.Rows))
	}
	tue, thu := l.Rows[0], l.Rows[1]
	if tue.Column != 1 || tue.YOffset != cfg.HeaderOffset+l.Bars[1].Bottom()+cfg.Gap {
		t.Fatalf("expected Tuesday row under the bars, got %+v", tue)
	}
	if thu.Column != 3 || thu.YOffset != cfg.HeaderOffset {
		t.Fatalf("expected Thursday row right under the header, got %+v", thu)
	}
	if tue.TimeLabel != "10:00 AM" || tue.TitleOffsetY != 45 || tue.Height != 83 {
		t.Fatalf("expected stacked time label, got %+v", tue)
	}
}

func TestInlineTimeLabel(t *testing.T) {
	l := compute(t, []Event{
		timed(t, "Dentist", "2024-06-04T09:00:00Z", "2024-06-04T10:00:00Z"),
	}, sliding(t), SlidingConfig(200, 300))

	r := l.Rows[0]
	if r.TitleOffsetX != 147 || r.TitleOffsetY != 0 {
		t.Fatalf("expected title after the label, got x=%d y=%d", r.TitleOffsetX, r.TitleOffsetY)
	}
	if r.Height != 40 {
		t.Fatalf("expected row as tall as the time label, got %d", r.Height)
	}
}

func TestMaxEventsPerDayKeepsEarliest(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	cfg.MaxEventsPerDay = 2

	var events []Event
	for _, hm := range []string{"09:00", "08:00", "10:00", "07:30", "11:00"} {
		events = append(events, timed(t, "At "+hm, "2024-06-05T"+hm+":00Z", "2024-06-05T12:00:00Z"))
	}
	l := compute(t, events, weekly(t), cfg)

	if len(l.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(l.Rows))
	}
	if l.Rows[0].Title != "At 07:30" || l.Rows[1].Title != "At 08:00" {
		t.Fatalf("expected the two earliest events, got %s and %s", l.Rows[0].Title, l.Rows[1].Title)
	}
	if l.Truncated != 3 {
		t.Fatalf("expected 3 truncated, got %d", l.Truncated)
	}
}

func TestRowsStopAtCellBottom(t *testing.T) {
	var events []Event
	for i := 0; i < 5; i++ {
		events = append(events, timed(t, fmt.Sprintf("Event %d", i), "2024-06-05T09:00:00Z", "2024-06-05T10:00:00Z"))
	}
	l := compute(t, events, weekly(t), WeeklyConfig(200, 200))

	if len(l.Rows) != 1 || l.Truncated != 4 {
		t.Fatalf("expected 1 row and 4 truncated, got %d rows %d truncated", len(l.Rows), l.Truncated)
	}
	for _, r := range l.Rows {
		if r.YOffset+r.Height > 190 {
			t.Fatalf("row overflows the cell: %+v", r)
		}
	}
}

func TestShowFlagsFilterSingleDayEvents(t *testing.T) {
	events := []Event{
		timed(t, "Dentist", "2024-06-05T09:00:00Z", "2024-06-05T10:00:00Z"),
		allDay(t, "Holiday", "2024-06-05", "2024-06-05"),
	}

	cfg := WeeklyConfig(200, 400)
	cfg.ShowTime = false
	l := compute(t, events, weekly(t), cfg)
	if len(l.Rows) != 1 || l.Rows[0].Title != "Holiday" || l.Rows[0].TimeLabel != "All Day" {
		t.Fatalf("expected only the all-day row, got %+v", l.Rows)
	}

	cfg = WeeklyConfig(200, 400)
	cfg.ShowAllDay = false
	l = compute(t, events, weekly(t), cfg)
	if len(l.Rows) != 1 || l.Rows[0].Title != "Dentist" {
		t.Fatalf("expected only the timed row, got %+v", l.Rows)
	}
}

func TestLevelExhaustionIsFlagged(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	cfg.MaxLevels = 2
	l := compute(t, []Event{
		allDay(t, "One", monday, "2024-06-06"),
		allDay(t, "Two", monday, "2024-06-06"),
		allDay(t, "Three", monday, "2024-06-06"),
	}, weekly(t), cfg)

	if l.Overlaps != 1 {
		t.Fatalf("expected 1 overlap, got %d", l.Overlaps)
	}
	third := l.Bars[2]
	if !third.Overlap || third.Level != 0 || third.YOffset != 0 {
		t.Fatalf("expected third bar on level 0 flagged as overlap, got %+v", third)
	}
}

func TestBarInvariants(t *testing.T) {
	var events []Event
	seed := 7
	for i := 0; i < 14; i++ {
		seed = (seed*31 + 11) % 97
		start := mustDate(t, monday).AddDays(seed % 21)
		end := start.AddDays(2 + seed%6)
		events = append(events, allDay(t, fmt.Sprintf("Trip %d", i), start.String(), end.String()))
	}
	l := compute(t, events, sliding(t), SlidingConfig(200, 600))

	for i, a := range l.Bars {
		for _, b := range l.Bars[i+1:] {
			if a.Row != b.Row || a.Overlap || b.Overlap {
				continue
			}
			if a.Level == b.Level && a.StartColumn <= b.EndColumn && b.StartColumn <= a.EndColumn {
				t.Fatalf("bars overlap on level %d: %+v and %+v", a.Level, a, b)
			}
			lower, upper := a, b
			if lower.Level > upper.Level {
				lower, upper = upper, lower
			}
			if upper.Level == lower.Level+1 && upper.YOffset < lower.YOffset+lower.Height {
				t.Fatalf("level %d starts inside level %d: %+v vs %+v", upper.Level, lower.Level, upper, lower)
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	events := []Event{
		allDay(t, "Camping", "2024-06-08", "2024-06-12"),
		allDay(t, "Conference", monday, "2024-06-06"),
		timed(t, "Dentist", "2024-06-04T09:00:00Z", "2024-06-04T10:00:00Z"),
		timed(t, "Gym", "2024-06-04T09:00:00Z", "2024-06-04T10:00:00Z"),
	}
	a, _ := json.Marshal(compute(t, events, sliding(t), SlidingConfig(200, 300)))
	b, _ := json.Marshal(compute(t, events, sliding(t), SlidingConfig(200, 300)))
	if string(a) != string(b) {
		t.Fatalf("expected identical output\n%s\n%s", a, b)
	}
}

func TestNoStateLeaksBetweenCalls(t *testing.T) {
	busy := []Event{
		allDay(t, "One", monday, "2024-06-06"),
		allDay(t, "Two", monday, "2024-06-06"),
		allDay(t, "Three", monday, "2024-06-06"),
	}
	compute(t, busy, sliding(t), SlidingConfig(200, 300))

	l := compute(t, []Event{allDay(t, "Solo", monday, "2024-06-06")}, weekly(t), WeeklyConfig(200, 400))
	if l.Bars[0].Level != 0 || l.Bars[0].YOffset != 0 {
		t.Fatalf("expected a fresh tracker, got %+v", l.Bars[0])
	}
}

func TestComputeRejectsBadConfiguration(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	cfg.MaxLevels = 0
	if _, err := Compute(nil, weekly(t), cfg, testFitter()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	tuesday := Window{First: mustDate(t, "2024-06-04"), Rows: 1}
	if _, err := Compute(nil, tuesday, WeeklyConfig(200, 400), testFitter()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error for non-Monday window, got %v", err)
	}

	if _, err := Compute(nil, weekly(t), WeeklyConfig(200, 400), Fitter{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error without a measurer, got %v", err)
	}
}

func TestRectsTranslateToCanvas(t *testing.T) {
	cfg := WeeklyConfig(200, 400)
	l := compute(t, []Event{
		allDay(t, "Conference", monday, "2024-06-06"),
		timed(t, "Gym", "2024-06-06T18:00:00Z", "2024-06-06T19:00:00Z"),
	}, weekly(t), cfg)

	rects := l.Rects(cfg, 80)
	if len(rects) != 2 || !rects[0].Bar || rects[1].Bar {
		t.Fatalf("expected bar then row, got %+v", rects)
	}
	bar := rects[0].Box
	if bar.Min.X != 10 || bar.Max.X != 590 || bar.Min.Y != 130 || bar.Dy() != 58 {
		t.Fatalf("unexpected bar box %v", bar)
	}
	row := rects[1].Box
	if row.Min.X != 610 || row.Max.X != 790 || row.Min.Y != 130 {
		t.Fatalf("unexpected row box %v", row)
	}
}
