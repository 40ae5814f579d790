package layout

import (
	"testing"
	"time"

	"wallcal/internal/model"
	"wallcal/internal/surface"
)

// testMeasurer makes every rune 0.6em wide and every line 1.2em tall, so
// expected geometry can be worked out by hand.
var testMeasurer = surface.Fixed{AdvancePct: 60, LinePct: 120}

func testFitter() Fitter { return NewFitter(testMeasurer) }

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func allDay(t *testing.T, title, start, endExclusive string) Event {
	t.Helper()
	ev, err := Classify(model.RawEvent{
		Title: title,
		Start: model.EventTime{Date: start},
		End:   model.EventTime{Date: endExclusive},
	}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ev
}

func timed(t *testing.T, title, start, end string) Event {
	t.Helper()
	ev, err := Classify(model.RawEvent{
		Title: title,
		Start: model.EventTime{DateTime: start},
		End:   model.EventTime{DateTime: end},
	}, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ev
}
