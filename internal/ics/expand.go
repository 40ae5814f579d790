package ics

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

const defaultMaxOccurrences = 5000

// ExpandResult holds the concrete occurrences inside the requested range.
type ExpandResult struct {
	Events []model.RawEvent
	// Truncated lists UIDs whose series hit the occurrence cap.
	Truncated []string
}

type occurrence struct {
	ev VEvent
	// start/end are the instance bounds; for all-day events they are UTC
	// midnights and end is exclusive.
	start, end time.Time
}

// Expand turns VEVENTs into provider-shaped events for r. It handles single
// events, RRULE series, EXDATE removal and RECURRENCE-ID overrides. Timed
// occurrences are written in r.Location; all-day occurrences keep their
// calendar dates. Output is ordered by start, then UID.
func Expand(events []VEvent, r model.Range, maxPerSeries int) (ExpandResult, error) {
	var result ExpandResult
	if r.To.Before(r.From) {
		return result, errors.New("ics: expand: range end before start")
	}
	if r.Location == nil {
		r.Location = time.Local
	}
	if maxPerSeries <= 0 {
		maxPerSeries = defaultMaxOccurrences
	}

	overrides := make(map[string][]VEvent)
	var bases []VEvent
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	var occs []occurrence
	for _, ev := range bases {
		if ev.RRule == "" {
			if overlaps(ev, ev.Start, ev.End, r) {
				occs = append(occs, occurrence{ev: ev, start: ev.Start, end: ev.End})
			}
			continue
		}
		series, capped := expandSeries(ev, overrides[ev.UID], r, maxPerSeries)
		if capped {
			result.Truncated = append(result.Truncated, ev.UID)
			appLog.Warn("ics series truncated", "uid", ev.UID, "cap", maxPerSeries)
		}
		occs = append(occs, series...)
	}

	slices.SortStableFunc(occs, func(a, b occurrence) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return strings.Compare(a.ev.UID, b.ev.UID)
	})

	result.Events = make([]model.RawEvent, 0, len(occs))
	for _, o := range occs {
		result.Events = append(result.Events, toRaw(o, r.Location))
	}
	return result, nil
}

func expandSeries(ev VEvent, overrides []VEvent, r model.Range, maxPerSeries int) ([]occurrence, bool) {
	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Warn("ics rrule skipped", "uid", ev.UID, "rrule", ev.RRule, "reason", err)
		return nil, false
	}
	rule.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by one duration so instances that started
	// earlier but are still running are included.
	dur := ev.End.Sub(ev.Start)
	from, to := bounds(ev, r)
	starts := set.Between(from.Add(-dur), to, true)

	capped := false
	if len(starts) > maxPerSeries {
		starts = starts[:maxPerSeries]
		capped = true
	}

	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		o := occurrence{ev: ev, start: s, end: s.Add(dur)}
		if ov, ok := findOverride(overrides, s); ok {
			o = occurrence{ev: ov, start: ov.Start, end: ov.End}
		}
		if overlaps(o.ev, o.start, o.end, r) {
			out = append(out, o)
		}
	}
	return out, capped
}

// bounds expresses r in the event's own terms: instants for timed events,
// floating UTC dates for all-day events.
func bounds(ev VEvent, r model.Range) (time.Time, time.Time) {
	if !ev.AllDay {
		return r.From.In(ev.Start.Location()), r.To.In(ev.Start.Location())
	}
	return floatingDate(r.From, r.Location), floatingDate(r.To, r.Location).AddDate(0, 0, 1)
}

func floatingDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func overlaps(ev VEvent, start, end time.Time, r model.Range) bool {
	from, to := bounds(ev, r)
	if end.Equal(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func findOverride(overrides []VEvent, start time.Time) (VEvent, bool) {
	for _, ov := range overrides {
		if ov.RecurrenceID.Equal(start) {
			return ov, true
		}
		// All-day overrides carry a floating date.
		if ov.AllDay && ov.RecurrenceID.Format(time.DateOnly) == start.Format(time.DateOnly) {
			return ov, true
		}
	}
	return VEvent{}, false
}

func toRaw(o occurrence, loc *time.Location) model.RawEvent {
	raw := model.RawEvent{
		SourceID: o.ev.Feed.ID,
		UID:      o.ev.UID,
		Title:    o.ev.Summary,
		Location: o.ev.Location,
	}
	if o.ev.AllDay {
		raw.Start = model.EventTime{Date: o.start.Format(time.DateOnly)}
		raw.End = model.EventTime{Date: o.end.Format(time.DateOnly)}
		return raw
	}
	raw.Start = model.EventTime{DateTime: o.start.In(loc).Format(time.RFC3339), TimeZone: loc.String()}
	raw.End = model.EventTime{DateTime: o.end.In(loc).Format(time.RFC3339), TimeZone: loc.String()}
	return raw
}
