package source

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"wallcal/internal/model"
)

// Google lists events from Google Calendar with recurring events expanded
// server-side.
type Google struct {
	svc         *calendar.Service
	calendarIDs []string
}

// NewGoogle builds the calendar client. opts usually carry
// option.WithCredentialsFile; tests pass an endpoint and HTTP client.
func NewGoogle(ctx context.Context, calendarIDs []string, opts ...option.ClientOption) (*Google, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("source: google client: %w", err)
	}
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}
	return &Google{svc: svc, calendarIDs: calendarIDs}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Events(ctx context.Context, r model.Range) ([]model.RawEvent, error) {
	var out []model.RawEvent
	for _, id := range g.calendarIDs {
		call := g.svc.Events.List(id).
			Context(ctx).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(r.From.Format(timeLayout)).
			TimeMax(r.To.Format(timeLayout))
		if r.Location != nil {
			call = call.TimeZone(r.Location.String())
		}

		err := call.Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				if item.Status == "cancelled" || item.Start == nil || item.End == nil {
					continue
				}
				out = append(out, fromGoogle(id, item))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("source: google calendar %s: %w", id, err)
		}
	}
	return out, nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func fromGoogle(calendarID string, item *calendar.Event) model.RawEvent {
	return model.RawEvent{
		SourceID: calendarID,
		UID:      item.Id,
		Title:    item.Summary,
		Location: item.Location,
		Start:    model.EventTime{Date: item.Start.Date, DateTime: item.Start.DateTime, TimeZone: item.Start.TimeZone},
		End:      model.EventTime{Date: item.End.Date, DateTime: item.End.DateTime, TimeZone: item.End.TimeZone},
	}
}
