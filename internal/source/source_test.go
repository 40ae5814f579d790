package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/option"

	"wallcal/internal/config"
	"wallcal/internal/model"
)

type stub struct {
	name   string
	events []model.RawEvent
	err    error
	calls  int
}

func (s *stub) Name() string { return s.name }

func (s *stub) Events(context.Context, model.Range) ([]model.RawEvent, error) {
	s.calls++
	return s.events, s.err
}

func raw(title, start, end string) model.RawEvent {
	return model.RawEvent{Title: title, Start: model.EventTime{Date: start}, End: model.EventTime{Date: end}}
}

func TestFileSourceReadsGoogleExport(t *testing.T) {
	f := &File{Path: "testdata/events.json", ID: "export"}
	events, err := f.Events(context.Background(), model.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 || events[0].Title != "Family Reunion" || events[0].SourceID != "export" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestDecodeEventsArray(t *testing.T) {
	events, err := DecodeEvents([]byte(`[{"summary":"Solo","start":{"date":"2024-06-03"},"end":{"date":"2024-06-04"}}]`))
	if err != nil || len(events) != 1 || events[0].Start.Date != "2024-06-03" {
		t.Fatalf("unexpected result %+v, %v", events, err)
	}
	if _, err := DecodeEvents([]byte(`"nope"`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMultiKeepsOrderAndSkipsFailures(t *testing.T) {
	a := &stub{name: "a", events: []model.RawEvent{raw("A", "2024-06-03", "2024-06-04")}}
	bad := &stub{name: "bad", err: errors.New("offline")}
	b := &stub{name: "b", events: []model.RawEvent{raw("B", "2024-06-03", "2024-06-04")}}

	events, err := Multi{a, bad, b}.Events(context.Background(), model.Range{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Title != "A" || events[1].Title != "B" {
		t.Fatalf("unexpected events %+v", events)
	}

	if _, err := (Multi{bad}).Events(context.Background(), model.Range{}); err == nil {
		t.Fatalf("expected error when every source fails")
	}
}

func TestStoreClassifiesAndCaches(t *testing.T) {
	src := &File{Path: "testdata/events.json"}
	counting := &stub{name: "count"}
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

	store := NewStore(Multi{src, counting}, time.UTC, 60)
	store.Now = func() time.Time { return now }

	snap, err := store.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Events) != 2 || len(snap.Diagnostics) != 1 || snap.Diagnostics[0].Title != "Broken" {
		t.Fatalf("expected 2 events and 1 diagnostic, got %d and %+v", len(snap.Events), snap.Diagnostics)
	}
	if snap.Today.String() != "2024-06-05" || !snap.Range.From.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected snapshot range %v today %s", snap.Range.From, snap.Today)
	}

	now = now.Add(10 * time.Second)
	if _, err := store.Get(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("expected cached snapshot, got %d loads", counting.calls)
	}

	now = now.Add(time.Minute)
	store.Get(context.Background())
	if counting.calls != 2 {
		t.Fatalf("expected refresh after TTL, got %d loads", counting.calls)
	}
}

func TestGoogleSource(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"id":"1","summary":"Standup","status":"confirmed","start":{"dateTime":"2024-06-04T09:00:00Z"},"end":{"dateTime":"2024-06-04T09:15:00Z"}},
			{"id":"2","summary":"Gone","status":"cancelled","start":{"date":"2024-06-05"},"end":{"date":"2024-06-06"}},
			{"id":"3","summary":"Holiday","start":{"date":"2024-06-07"},"end":{"date":"2024-06-08"}}
		]}`))
	}))
	defer srv.Close()

	g, err := NewGoogle(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := model.Range{
		From:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 6, 24, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}
	events, err := g.Events(context.Background(), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Title != "Standup" || events[1].Start.Date != "2024-06-07" {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[0].SourceID != "primary" {
		t.Fatalf("expected primary calendar, got %s", events[0].SourceID)
	}
	if query == "" {
		t.Fatalf("expected list query parameters")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EventsFile = "testdata/events.json"
	cfg.ICS = []config.ICSConfig{{Name: "Work", URL: "https://example.com/work.ics"}, {ID: "empty"}}
	cfg.CacheDir = t.TempDir()

	src, err := FromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := src.(Multi)
	if !ok || len(m) != 2 || m[1].Name() != "ics" {
		t.Fatalf("expected file and ics sources, got %#v", src)
	}
}
