package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

// Source delivers provider-shaped events for a date range.
type Source interface {
	Name() string
	Events(ctx context.Context, r model.Range) ([]model.RawEvent, error)
}

// File reads events from a JSON document: either a bare array of events or
// a Google Calendar export of the form {"items": [...]}.
type File struct {
	Path string
	// ID is stamped on events that carry no source of their own.
	ID string
}

func (f *File) Name() string { return "file:" + f.Path }

// Events returns every event in the file; windowing happens in layout.
func (f *File) Events(_ context.Context, _ model.Range) ([]model.RawEvent, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", f.Path, err)
	}
	events, err := DecodeEvents(data)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", f.Path, err)
	}
	for i := range events {
		if events[i].SourceID == "" {
			events[i].SourceID = f.ID
		}
	}
	return events, nil
}

// DecodeEvents accepts a JSON array of events or an object with an "items"
// array.
func DecodeEvents(data []byte) ([]model.RawEvent, error) {
	var list []model.RawEvent
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Items []model.RawEvent `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return doc.Items, nil
}

// Multi concatenates several sources in order. A failing source is logged
// and skipped; the call fails only when every source fails.
type Multi []Source

func (m Multi) Name() string { return "multi" }

func (m Multi) Events(ctx context.Context, r model.Range) ([]model.RawEvent, error) {
	var (
		out  []model.RawEvent
		errs []error
	)
	for _, s := range m {
		events, err := s.Events(ctx, r)
		if err != nil {
			appLog.Error("source failed", err, "source", s.Name())
			errs = append(errs, err)
			continue
		}
		appLog.Debug("source loaded", "source", s.Name(), "events", len(events))
		out = append(out, events...)
	}
	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
