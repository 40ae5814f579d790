package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"wallcal/internal/layout"
	"wallcal/internal/view"
)

func init() {
	color.NoColor = true
}

func date(t *testing.T, s string) layout.Date {
	t.Helper()
	d, err := layout.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestGrid(t *testing.T) {
	first := date(t, "2024-06-03")
	g := view.Grid{
		View:       view.Weekly,
		Today:      date(t, "2024-06-05"),
		StartMonth: "June 2024",
		Layout: layout.Layout{
			Window: layout.WeeklyWindow(first),
			Bars: []layout.PlacedBar{{
				Title: "Family Reunion", Row: 0, StartColumn: 4, EndColumn: 6,
				StartDate: date(t, "2024-06-07"), EndDate: date(t, "2024-06-09"),
				Height: 58, ContinuesAfter: true,
			}},
			Rows: []layout.PlacedRow{{
				Title: "Dentist", Column: 2, Date: date(t, "2024-06-05"),
				TimeLabel: "6:00 PM", YOffset: 50, Height: 40,
			}},
			Truncated: 1,
		},
	}

	var buf bytes.Buffer
	if err := New(&buf, nil).Grid(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"WEEKLY  June 2024",
		"2024-06-03 to 2024-06-09, today 2024-06-05",
		"Fri 07-Sun 09>",
		"Family Reunion",
		"Wed 05",
		"6:00 PM",
		"Dentist",
		"1 bars, 1 rows, 1 truncated, 0 overlaps",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestGridEmpty(t *testing.T) {
	g := view.Grid{
		View:       view.Sliding,
		StartMonth: "June 2024",
		EndMonth:   "July 2024",
		Layout:     layout.Layout{Window: layout.SlidingWindow(date(t, "2024-06-05"))},
	}

	var buf bytes.Buffer
	if err := New(&buf, nil).Grid(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "June 2024 - July 2024") {
		t.Fatalf("expected month range, got:\n%s", out)
	}
	if strings.Contains(out, "Level") || strings.Contains(out, "Event") {
		t.Fatalf("expected no tables for an empty layout, got:\n%s", out)
	}
}

func TestUpcomingGroupsAndWraps(t *testing.T) {
	u := layout.UpcomingLayout{
		Today: date(t, "2024-06-05"),
		Headers: []layout.UpcomingHeader{
			{Category: layout.CategoryToday},
			{Category: layout.CategoryNextWeek},
		},
		Rows: []layout.UpcomingRow{
			{Category: layout.CategoryToday, Title: "Lunch", DateLabel: "Wed, Jun 5", TimeLabel: "12:00 PM"},
			{Category: layout.CategoryNextWeek, Title: "Quarterly planning review with the whole team", DateLabel: "Thu, Jun 13"},
		},
		Dropped: 2,
	}

	var buf bytes.Buffer
	p := New(&buf, nil)
	p.Width = 24
	if err := p.Upcoming(u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	today := strings.Index(out, "Today")
	lunch := strings.Index(out, "Lunch")
	next := strings.Index(out, "Next Week")
	review := strings.Index(out, "Quarterly")
	if today < 0 || lunch < today || next < lunch || review < next {
		t.Fatalf("expected rows under their headers, got:\n%s", out)
	}
	if !strings.Contains(out, "Wed, Jun 5  12:00 PM") {
		t.Fatalf("expected date and time label, got:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 24 {
			t.Fatalf("expected lines wrapped to 24 columns, got %q", line)
		}
	}
	if !strings.Contains(out, "+2 more") {
		t.Fatalf("expected dropped count, got:\n%s", out)
	}
}

func TestUpcomingEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, nil).Upcoming(layout.UpcomingLayout{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "no upcoming events") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}
}

func TestHighlighted(t *testing.T) {
	p := New(&bytes.Buffer{}, []string{"dentist"})
	color.NoColor = false
	defer func() { color.NoColor = true }()

	if got := p.title("Dentist"); got == "Dentist" {
		t.Fatalf("expected highlighted title to be colored")
	}
	if got := p.title("Lunch"); got != "Lunch" {
		t.Fatalf("expected plain title, got %q", got)
	}
}
