package layout

import (
	"errors"
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2024-06-03": "2024-06-03",
		"2024-06-05": "2024-06-03",
		"2024-06-09": "2024-06-03",
		"2024-06-10": "2024-06-10",
		"2024-01-01": "2024-01-01",
		"2023-12-31": "2023-12-25",
	}
	for in, want := range cases {
		if got := MondayOf(mustDate(t, in)); got != mustDate(t, want) {
			t.Fatalf("MondayOf(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestSlidingWindowGeometry(t *testing.T) {
	w := SlidingWindow(mustDate(t, "2024-06-05"))
	if w.Days() != 21 || w.Last() != mustDate(t, "2024-06-23") {
		t.Fatalf("expected 21 days ending 2024-06-23, got %d ending %s", w.Days(), w.Last())
	}
	if w.RowOf(mustDate(t, "2024-06-10")) != 1 || w.DateAt(2, 6) != w.Last() {
		t.Fatalf("unexpected row geometry")
	}
	if _, _, ok := w.Clip(mustDate(t, "2024-06-24"), mustDate(t, "2024-06-30")); ok {
		t.Fatalf("expected empty clip after the window")
	}
}

func TestNewWindowValidates(t *testing.T) {
	if _, err := NewWindow(mustDate(t, "2024-06-04"), 1); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected error for Tuesday start, got %v", err)
	}
	if _, err := NewWindow(mustDate(t, "2024-06-03"), 0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected error for zero rows, got %v", err)
	}
}

func TestMonthLabels(t *testing.T) {
	start, end := SlidingWindow(mustDate(t, "2024-06-20")).MonthLabels()
	if start != "June" || end != "July" {
		t.Fatalf("expected June/July, got %s/%s", start, end)
	}
	start, end = WeeklyWindow(mustDate(t, "2024-06-05")).MonthLabels()
	if start != "June" || end != "" {
		t.Fatalf("expected June only, got %s/%s", start, end)
	}
}

func TestDateSubAcrossDST(t *testing.T) {
	a := mustDate(t, "2024-03-09")
	b := mustDate(t, "2024-03-11")
	if b.Sub(a) != 2 {
		t.Fatalf("expected 2 days, got %d", b.Sub(a))
	}
	if Today(time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC), time.FixedZone("east", 3600)) != b {
		t.Fatalf("expected zone-shifted today")
	}
}
