// Package view computes the configured views from a snapshot of events,
// both as placements and as images.
package view

import (
	"errors"
	"fmt"
	"image"

	"wallcal/internal/config"
	"wallcal/internal/layout"
	"wallcal/internal/render"
	"wallcal/internal/source"
	"wallcal/internal/surface"
)

type Name string

const (
	Weekly   Name = "weekly"
	Sliding  Name = "sliding"
	Upcoming Name = "upcoming"
)

var (
	ErrUnknown  = errors.New("view: unknown view")
	ErrDisabled = errors.New("view: disabled")
)

// Parse maps a query or flag value to a view; empty selects sliding.
func Parse(s string) (Name, error) {
	switch Name(s) {
	case "":
		return Sliding, nil
	case Weekly, Sliding, Upcoming:
		return Name(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Grid is a computed weekly or sliding view with the labels a client needs
// to draw it.
type Grid struct {
	View       Name                   `json:"view"`
	Today      layout.Date            `json:"today"`
	Config     layout.ViewConfig      `json:"config"`
	Layout     layout.Layout          `json:"layout"`
	Rects      []layout.Rect          `json:"rects"`
	StartMonth string                 `json:"start_month"`
	EndMonth   string                 `json:"end_month,omitempty"`
	DayHeaders [layout.Columns]string `json:"day_headers"`
	Top        int                    `json:"top"`
}

// Engine lays out and draws views for one configuration.
type Engine struct {
	cfg     *config.Config
	measure layout.Fitter
	draw    render.Options
}

// NewEngine loads the configured font. Images are always drawn with the
// OpenType (or bitmap fallback) face and laid out with it; Grid and
// Upcoming use the configured measurer.
func NewEngine(cfg *config.Config) *Engine {
	opts := render.Options{
		Face:           surface.Default(cfg.Font.Path),
		LineSpacingPct: cfg.Font.LineSpacingPct,
		Highlight:      cfg.HighlightRed,
		HeaderHeight:   cfg.Canvas.HeaderHeight,
	}
	if cfg.Font.Path == "" {
		if bold, err := surface.GoBold(); err == nil {
			opts.Bold = bold
		}
	}

	measure := opts.Fitter()
	if cfg.Font.Kind == "tinyfont" {
		measure = layout.Fitter{M: surface.FreeMono(), LineSpacingPct: cfg.Font.LineSpacingPct}
	}
	return &Engine{cfg: cfg, measure: measure, draw: opts}
}

func (e *Engine) Config() *config.Config { return e.cfg }

// Fitter is the configured measurer used by Grid and UpcomingList.
func (e *Engine) Fitter() layout.Fitter { return e.measure }

func (e *Engine) grid(name Name, snap source.Snapshot) (layout.ViewConfig, layout.Window, error) {
	switch name {
	case Weekly:
		if !e.cfg.Views.Weekly.Enabled {
			return layout.ViewConfig{}, layout.Window{}, fmt.Errorf("%w: %s", ErrDisabled, name)
		}
		return e.cfg.WeeklyView(), layout.WeeklyWindow(snap.Today), nil
	case Sliding:
		if !e.cfg.Views.Sliding.Enabled {
			return layout.ViewConfig{}, layout.Window{}, fmt.Errorf("%w: %s", ErrDisabled, name)
		}
		return e.cfg.SlidingView(), layout.SlidingWindow(snap.Today), nil
	}
	return layout.ViewConfig{}, layout.Window{}, fmt.Errorf("%w: %q is not a grid", ErrUnknown, name)
}

// Grid computes a weekly or sliding view with the configured measurer.
func (e *Engine) Grid(snap source.Snapshot, name Name) (Grid, error) {
	return e.gridWith(snap, name, e.measure)
}

func (e *Engine) gridWith(snap source.Snapshot, name Name, fitter layout.Fitter) (Grid, error) {
	cfg, w, err := e.grid(name, snap)
	if err != nil {
		return Grid{}, err
	}
	l, err := layout.Compute(snap.Events, w, cfg, fitter)
	if err != nil {
		return Grid{}, fmt.Errorf("view: %s: %w", name, err)
	}
	start, end := w.MonthLabels()
	top := e.cfg.Canvas.HeaderHeight
	return Grid{
		View:       name,
		Today:      snap.Today,
		Config:     cfg,
		Layout:     l,
		Rects:      l.Rects(cfg, top),
		StartMonth: start,
		EndMonth:   end,
		DayHeaders: layout.DayHeaders(),
		Top:        top,
	}, nil
}

// UpcomingList computes the upcoming list with the configured measurer.
func (e *Engine) UpcomingList(snap source.Snapshot) (layout.UpcomingLayout, error) {
	return e.upcomingWith(snap, e.measure)
}

func (e *Engine) upcomingWith(snap source.Snapshot, fitter layout.Fitter) (layout.UpcomingLayout, error) {
	if !e.cfg.Views.Upcoming.Enabled {
		return layout.UpcomingLayout{}, fmt.Errorf("%w: %s", ErrDisabled, Upcoming)
	}
	u, err := layout.Upcoming(snap.Events, snap.Today, snap.Range.Location, e.cfg.UpcomingView(), fitter)
	if err != nil {
		return layout.UpcomingLayout{}, fmt.Errorf("view: upcoming: %w", err)
	}
	return u, nil
}

// Image lays out and draws a view on the canvas.
func (e *Engine) Image(snap source.Snapshot, name Name) (*image.NRGBA, error) {
	fitter := e.draw.Fitter()
	if name == Upcoming {
		u, err := e.upcomingWith(snap, fitter)
		if err != nil {
			return nil, err
		}
		return render.Upcoming(u, e.cfg.UpcomingView(), e.cfg.Canvas.Width, e.cfg.Canvas.Height, e.draw)
	}
	g, err := e.gridWith(snap, name, fitter)
	if err != nil {
		return nil, err
	}
	return render.Grid(g.Layout, g.Config, snap.Today, e.draw)
}
