package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "wallcal/internal/log"
)

// VEvent is one parsed VEVENT before recurrence expansion.
type VEvent struct {
	Feed Feed

	UID string
	Seq int

	Summary  string
	Location string

	// Start/End carry the event's own zone. For all-day events only the
	// calendar date matters and End is exclusive.
	Start  time.Time
	End    time.Time
	AllDay bool
	// TZID of DTSTART, empty for UTC, floating or all-day values.
	TZID string

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on an override of one recurring instance.
	RecurrenceID *time.Time
}

// IsOverride reports whether the VEVENT replaces one instance of a series.
func (v VEvent) IsOverride() bool { return v.RecurrenceID != nil }

// Parse decodes one feed body. A VEVENT that cannot be decoded is logged and
// skipped; only an unreadable calendar is an error.
func Parse(feed Feed, body []byte) ([]VEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("ics: feed %s: empty body", feed.ID)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: feed %s: parse: %w", feed.ID, err)
	}

	events := make([]VEvent, 0)
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(feed, comp)
		if err != nil {
			appLog.Warn("ics vevent skipped", "id", feed.ID, "reason", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent) (VEvent, error) {
	out := VEvent{Feed: feed}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Seq = n
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart.ICalParameters, dtStart.Value)
	out.TZID = param(dtStart.ICalParameters, "TZID")

	if out.AllDay {
		start, err := parseICSTime(dtStart.Value, nil)
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
		if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
			if end, err := parseICSTime(p.Value, nil); err == nil && end.After(start) {
				out.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
		out.End = start
		if end, err := ve.GetEndAt(); err == nil && !end.Before(start) {
			out.End = end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := zoneFor(p.ICalParameters, out.Start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value, zoneFor(p.ICalParameters, out.Start.Location())); err == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

func param(params map[string][]string, key string) string {
	if vs, ok := params[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// isDateValue detects VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(params map[string][]string, value string) bool {
	return strings.EqualFold(param(params, "VALUE"), "DATE") || !strings.Contains(value, "T")
}

// zoneFor resolves a TZID parameter, falling back to def.
func zoneFor(params map[string][]string, def *time.Location) *time.Location {
	if tzid := param(params, "TZID"); tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.UTC
	}
	return def
}

// parseICSTime parses the DATE and DATE-TIME forms. Floating and date values
// are read in loc (UTC when nil).
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if loc == nil {
		loc = time.UTC
	}
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
