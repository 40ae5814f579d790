package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/api/option"

	"wallcal/internal/config"
	"wallcal/internal/ics"
	"wallcal/internal/layout"
	appLog "wallcal/internal/log"
	"wallcal/internal/model"
)

// Snapshot is one classified load of all sources.
type Snapshot struct {
	Range       model.Range         `json:"-"`
	Today       layout.Date         `json:"today"`
	Raw         []model.RawEvent    `json:"raw"`
	Events      []layout.Event      `json:"events"`
	Diagnostics []layout.Diagnostic `json:"diagnostics"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Store keeps the latest snapshot so HTTP handlers and the renderer do not
// refetch on every request.
type Store struct {
	src     Source
	loc     *time.Location
	horizon int
	// TTL bounds how stale Get may serve a snapshot; zero always refreshes.
	TTL time.Duration
	// Now is the clock; tests pin it.
	Now func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore(src Source, loc *time.Location, horizonDays int) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{src: src, loc: loc, horizon: horizonDays, TTL: 30 * time.Second, Now: time.Now}
}

func (s *Store) Location() *time.Location { return s.loc }

// RangeFor covers the Monday of today's week through the horizon.
func (s *Store) RangeFor(now time.Time) model.Range {
	monday := layout.MondayOf(layout.Today(now, s.loc)).In(s.loc)
	return model.Range{From: monday, To: monday.AddDate(0, 0, s.horizon), Location: s.loc}
}

// Refresh loads every source and replaces the snapshot.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	now := s.Now()
	r := s.RangeFor(now)
	raw, err := s.src.Events(ctx, r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("source: refresh: %w", err)
	}
	events, diags := layout.ClassifyAll(raw, s.loc)

	snap := Snapshot{
		Range:       r,
		Today:       layout.Today(now, s.loc),
		Raw:         raw,
		Events:      events,
		Diagnostics: diags,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()

	appLog.Info("events refreshed", "source", s.src.Name(), "events", len(events), "dropped", len(diags))
	return snap, nil
}

// Get returns the cached snapshot while it is fresh and of the same day,
// refreshing otherwise.
func (s *Store) Get(ctx context.Context) (Snapshot, error) {
	now := s.Now()
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil && now.Sub(snap.UpdatedAt) < s.TTL && snap.Today == layout.Today(now, s.loc) {
		return *snap, nil
	}
	return s.Refresh(ctx)
}

// FromConfig assembles the configured sources in a fixed order: JSON file,
// ICS feeds, Google.
func FromConfig(ctx context.Context, cfg *config.Config) (Source, error) {
	var m Multi
	if cfg.EventsFile != "" {
		m = append(m, &File{Path: cfg.EventsFile, ID: "file"})
	}

	var feeds []ics.Feed
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = c.Name
		}
		if id == "" {
			id = c.URL
		}
		feeds = append(feeds, ics.Feed{ID: id, Name: c.Name, URL: c.URL})
	}
	if len(feeds) > 0 {
		m = append(m, &ics.Calendar{Fetcher: ics.NewFetcher(cfg.CacheDir), Feeds: feeds})
	}

	if g := cfg.Google; g != nil && g.CredentialsFile != "" {
		gs, err := NewGoogle(ctx, g.CalendarIDs, option.WithCredentialsFile(g.CredentialsFile))
		if err != nil {
			return nil, err
		}
		m = append(m, gs)
	}
	return m, nil
}
