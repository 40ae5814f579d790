package model

import "time"

// EventTime is one endpoint of a provider event. Exactly one of Date
// (all-day, "2006-01-02") or DateTime (RFC3339, or a zone-less local
// "2006-01-02T15:04:05") is expected to be set.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	// TimeZone is an IANA zone used to interpret a DateTime that carries
	// no offset of its own.
	TimeZone string `json:"timeZone,omitempty"`
}

// IsZero reports whether neither date form is present.
func (t EventTime) IsZero() bool {
	return t.Date == "" && t.DateTime == ""
}

// RawEvent is an event as delivered by a calendar source, before any
// timezone normalization. The shape mirrors the Google Calendar API so
// JSON exports can be fed in unchanged.
type RawEvent struct {
	// SourceID is the configured calendar source (ICS ID, Google calendar ID).
	SourceID string `json:"sourceId,omitempty"`
	UID      string `json:"id,omitempty"`

	Title    string `json:"summary"`
	Location string `json:"location,omitempty"`

	Start EventTime `json:"start"`
	End   EventTime `json:"end"`
}

// Range is the span a source is asked to produce events for. Recurring
// events are expanded only inside [From, To).
type Range struct {
	From time.Time
	To   time.Time
	// Location is the display zone; timed events may be delivered in it.
	Location *time.Location
}
