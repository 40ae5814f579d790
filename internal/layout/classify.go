package layout

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

// errMalformed is wrapped by every Classify failure.
var errMalformed = errors.New("malformed event")

// localLayout is a DateTime without zone information.
const localLayout = "2006-01-02T15:04:05"

// Event is a provider event normalized into the display timezone.
//
// EndDate is exclusive for all-day events (provider convention) and the
// inclusive calendar date of the end instant for timed events.
type Event struct {
	SourceID string `json:"source_id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`

	AllDay    bool `json:"all_day"`
	StartDate Date `json:"start_date"`
	EndDate   Date `json:"end_date"`

	// StartTime/EndTime are zero for all-day events.
	StartTime time.Time `json:"start_time,omitzero"`
	EndTime   time.Time `json:"end_time,omitzero"`
}

// IsMultiDay reports whether the event starts and ends on different dates.
func (e Event) IsMultiDay() bool {
	return e.StartDate != e.EndDate
}

// LastDate returns the final calendar date the event covers.
func (e Event) LastDate() Date {
	if e.AllDay && e.EndDate.After(e.StartDate) {
		return e.EndDate.AddDays(-1)
	}
	return e.EndDate
}

// OccursOn reports whether the event is listed in the cell for d. All-day
// events cover [StartDate, EndDate); timed events appear on their start
// date only.
func (e Event) OccursOn(d Date) bool {
	if e.AllDay {
		return !d.Before(e.StartDate) && !d.After(e.LastDate())
	}
	return d == e.StartDate
}

// StartInstant is the start time for timed events and midnight of the
// start date for all-day events.
func (e Event) StartInstant(loc *time.Location) time.Time {
	if e.AllDay {
		return e.StartDate.In(loc)
	}
	return e.StartTime
}

// CompareForDisplay orders timed events by start time, puts all-day events
// after every timed event and breaks ties by title (byte order).
func CompareForDisplay(a, b Event) int {
	switch {
	case !a.AllDay && !b.AllDay:
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
	case a.AllDay != b.AllDay:
		if a.AllDay {
			return 1
		}
		return -1
	}
	return strings.Compare(a.Title, b.Title)
}

// SortForDisplay sorts events in place with CompareForDisplay. The sort is
// stable so equal events keep their input order.
func SortForDisplay(events []Event) {
	slices.SortStableFunc(events, CompareForDisplay)
}

// Classify normalizes raw into loc. It fails when an endpoint carries
// neither a date nor a date-time, when a value does not parse, or when the
// event ends before it starts.
func Classify(raw model.RawEvent, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	ev := Event{
		SourceID: raw.SourceID,
		UID:      raw.UID,
		Title:    raw.Title,
		Location: raw.Location,
		AllDay:   raw.Start.Date != "",
	}

	if raw.Start.IsZero() {
		return Event{}, fmt.Errorf("%w: start has neither date nor dateTime", errMalformed)
	}
	if raw.End.IsZero() {
		return Event{}, fmt.Errorf("%w: end has neither date nor dateTime", errMalformed)
	}

	var err error
	ev.StartDate, ev.StartTime, err = resolveEndpoint(raw.Start, loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: start: %v", errMalformed, err)
	}
	ev.EndDate, ev.EndTime, err = resolveEndpoint(raw.End, loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: end: %v", errMalformed, err)
	}

	if ev.EndDate.Before(ev.StartDate) {
		return Event{}, fmt.Errorf("%w: ends %s before it starts %s", errMalformed, ev.EndDate, ev.StartDate)
	}
	if ev.AllDay {
		ev.StartTime, ev.EndTime = time.Time{}, time.Time{}
	}
	return ev, nil
}

// ClassifyAll classifies every event, dropping malformed ones. Each drop is
// logged and reported as a Diagnostic; input order is preserved.
func ClassifyAll(raws []model.RawEvent, loc *time.Location) ([]Event, []Diagnostic) {
	events := make([]Event, 0, len(raws))
	var diags []Diagnostic
	for _, raw := range raws {
		ev, err := Classify(raw, loc)
		if err != nil {
			appLog.Warn("skipping malformed event", "title", raw.Title, "uid", raw.UID, "source", raw.SourceID, "reason", err.Error())
			diags = append(diags, Diagnostic{
				SourceID: raw.SourceID,
				UID:      raw.UID,
				Title:    raw.Title,
				Reason:   err.Error(),
			})
			continue
		}
		events = append(events, ev)
	}
	return events, diags
}

// resolveEndpoint returns the calendar date of an endpoint in loc, plus the
// instant for date-time endpoints.
func resolveEndpoint(et model.EventTime, loc *time.Location) (Date, time.Time, error) {
	if et.Date != "" {
		d, err := ParseDate(et.Date)
		return d, time.Time{}, err
	}

	if t, err := time.Parse(time.RFC3339, et.DateTime); err == nil {
		t = t.In(loc)
		return DateOf(t), t, nil
	}

	// No offset in the value: interpret in the endpoint's own zone when it
	// names one, otherwise treat it as already local.
	zone := loc
	if et.TimeZone != "" {
		z, err := time.LoadLocation(et.TimeZone)
		if err != nil {
			return Date{}, time.Time{}, fmt.Errorf("unknown timezone %q", et.TimeZone)
		}
		zone = z
	}
	t, err := time.ParseInLocation(localLayout, et.DateTime, zone)
	if err != nil {
		return Date{}, time.Time{}, fmt.Errorf("invalid dateTime %q", et.DateTime)
	}
	t = t.In(loc)
	return DateOf(t), t, nil
}
