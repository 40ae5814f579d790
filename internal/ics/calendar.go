package ics

import (
	"context"
	"errors"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

// Calendar serves the events of a set of ICS feeds.
type Calendar struct {
	Fetcher *Fetcher
	Feeds   []Feed
	// MaxOccurrences caps each recurring series; zero means the default.
	MaxOccurrences int
}

func (c *Calendar) Name() string { return "ics" }

// Events fetches, parses and expands every feed. A feed that fails is
// logged and skipped; the call only fails when no feed produced a body.
func (c *Calendar) Events(ctx context.Context, r model.Range) ([]model.RawEvent, error) {
	if len(c.Feeds) == 0 {
		return nil, nil
	}
	payloads, errs := c.Fetcher.FetchAll(ctx, c.Feeds)
	if len(payloads) == 0 {
		return nil, errors.Join(errs...)
	}

	var parsed []VEvent
	for _, p := range payloads {
		evs, err := Parse(p.Feed, p.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", p.Feed.ID)
			continue
		}
		parsed = append(parsed, evs...)
	}

	res, err := Expand(parsed, r, c.MaxOccurrences)
	if err != nil {
		return nil, err
	}
	appLog.Info("ics events ready", "feeds", len(payloads), "events", len(res.Events))
	return res.Events, nil
}
