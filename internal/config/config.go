package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	// Embedded zone database for devices without /usr/share/zoneinfo.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"wallcal/internal/layout"
	appLog "wallcal/internal/log"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// GoogleConfig enables the Google Calendar source when CredentialsFile is
// set.
type GoogleConfig struct {
	CredentialsFile string   `yaml:"credentials_file" json:"credentials_file"`
	CalendarIDs     []string `yaml:"calendar_ids" json:"calendar_ids"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CanvasConfig is the output image size. HeaderHeight is reserved above the
// grid for the month label and weekday names.
type CanvasConfig struct {
	Width        int `yaml:"width" json:"width"`
	Height       int `yaml:"height" json:"height"`
	HeaderHeight int `yaml:"header_height" json:"header_height"`
}

// FontConfig selects the text measurer. Kind is "opentype" (Path may point
// to a .ttf/.otf, Go Regular otherwise) or "tinyfont".
type FontConfig struct {
	Kind           string `yaml:"kind" json:"kind"`
	Path           string `yaml:"path,omitempty" json:"path,omitempty"`
	LineSpacingPct int    `yaml:"line_spacing_pct" json:"line_spacing_pct"`
}

// ViewSettings is the YAML form of a grid view's limits and geometry.
// Cell sizes are not configured here; they follow from the canvas.
type ViewSettings struct {
	Enabled         bool  `yaml:"enabled" json:"enabled"`
	MaxEventsPerDay int   `yaml:"max_events_per_day" json:"max_events_per_day"`
	ShowTime        bool  `yaml:"show_time" json:"show_time"`
	ShowAllDay      bool  `yaml:"show_all_day" json:"show_all_day"`
	MaxLevels       int   `yaml:"max_levels" json:"max_levels"`
	FontSizes       []int `yaml:"font_sizes" json:"font_sizes"`
	Gap             int   `yaml:"gap_px" json:"gap_px"`
	EventGap        int   `yaml:"event_gap_px" json:"event_gap_px"`
	HeaderOffset    int   `yaml:"header_offset_px" json:"header_offset_px"`
	CellPadding     int   `yaml:"cell_padding_px" json:"cell_padding_px"`
	BarInset        int   `yaml:"bar_inset_px" json:"bar_inset_px"`
	BarPadding      int   `yaml:"bar_padding_px" json:"bar_padding_px"`
	BarMinHeight    int   `yaml:"bar_min_height_px" json:"bar_min_height_px"`
	BarMaxLines     int   `yaml:"bar_max_lines" json:"bar_max_lines"`
	RowMaxLines     int   `yaml:"row_max_lines" json:"row_max_lines"`
	TimeFontSize    int   `yaml:"time_font_size" json:"time_font_size"`
	InlineTime      bool  `yaml:"inline_time" json:"inline_time"`
}

// UpcomingSettings is the YAML form of the upcoming list configuration.
type UpcomingSettings struct {
	Enabled              bool  `yaml:"enabled" json:"enabled"`
	MaxEventsPerCategory int   `yaml:"max_events_per_category" json:"max_events_per_category"`
	ShowTime             bool  `yaml:"show_time" json:"show_time"`
	ShowAllDay           bool  `yaml:"show_all_day" json:"show_all_day"`
	FontSizes            []int `yaml:"font_sizes" json:"font_sizes"`
	HeaderHeight         int   `yaml:"header_height_px" json:"header_height_px"`
	EventEstimate        int   `yaml:"event_estimate_px" json:"event_estimate_px"`
	BottomMargin         int   `yaml:"bottom_margin_px" json:"bottom_margin_px"`
}

type ViewsConfig struct {
	Weekly   ViewSettings     `yaml:"weekly" json:"weekly"`
	Sliding  ViewSettings     `yaml:"sliding" json:"sliding"`
	Upcoming UpcomingSettings `yaml:"upcoming" json:"upcoming"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic refresh in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far ahead recurring events are expanded. It must
	// cover the sliding window and the upcoming list.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheDir holds ICS responses between fetches; OutputDir receives
	// rendered previews.
	CacheDir  string `yaml:"cache_dir" json:"cache_dir"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// HighlightRed is a list of keywords that cause events to be rendered in red.
	HighlightRed []string `yaml:"highlight_red" json:"highlight_red"`

	Canvas CanvasConfig `yaml:"canvas" json:"canvas"`
	Font   FontConfig   `yaml:"font" json:"font"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`
	// EventsFile is an optional JSON file of provider-shaped events.
	EventsFile string        `yaml:"events_file,omitempty" json:"events_file,omitempty"`
	Google     *GoogleConfig `yaml:"google,omitempty" json:"google,omitempty"`

	Views ViewsConfig `yaml:"views" json:"views"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "UTC"
	defaultRefresh  = "*/15 * * * *"
	defaultHorizon  = 60
)

func defaultWeekly() ViewSettings {
	return settingsFrom(layout.WeeklyConfig(0, 0))
}

func defaultSliding() ViewSettings {
	return settingsFrom(layout.SlidingConfig(0, 0))
}

func settingsFrom(c layout.ViewConfig) ViewSettings {
	return ViewSettings{
		Enabled:         true,
		MaxEventsPerDay: c.MaxEventsPerDay,
		ShowTime:        c.ShowTime,
		ShowAllDay:      c.ShowAllDay,
		MaxLevels:       c.MaxLevels,
		FontSizes:       c.FontSizes,
		Gap:             c.Gap,
		EventGap:        c.EventGap,
		HeaderOffset:    c.HeaderOffset,
		CellPadding:     c.CellPadding,
		BarInset:        c.BarInset,
		BarPadding:      c.BarPadding,
		BarMinHeight:    c.BarMinHeight,
		BarMaxLines:     c.BarMaxLines,
		RowMaxLines:     c.RowMaxLines,
		TimeFontSize:    c.TimeFontSize,
		InlineTime:      c.InlineTime,
	}
}

func defaultUpcoming() UpcomingSettings {
	u := layout.DefaultUpcomingConfig(0, 0)
	return UpcomingSettings{
		Enabled:              true,
		MaxEventsPerCategory: u.MaxEventsPerCategory,
		ShowTime:             u.ShowTime,
		ShowAllDay:           u.ShowAllDay,
		FontSizes:            u.FontSizes,
		HeaderHeight:         u.HeaderAdvance,
		EventEstimate:        u.EventEstimate,
		BottomMargin:         u.BottomMargin,
	}
}

// DefaultConfig returns an in-memory default configuration sized for a
// 1304x984 panel.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     defaultTimezone,
		LogLevel:     "info",
		RefreshCron:  defaultRefresh,
		HorizonDays:  defaultHorizon,
		CacheDir:     "cache",
		OutputDir:    "out",
		HighlightRed: []string{"Holiday", "Vacation", "Important"},
		Canvas:       CanvasConfig{Width: 1304, Height: 984, HeaderHeight: 80},
		Font:         FontConfig{Kind: "opentype", LineSpacingPct: 20},
		ICS:          []ICSConfig{},
		Views: ViewsConfig{
			Weekly:   defaultWeekly(),
			Sliding:  defaultSliding(),
			Upcoming: defaultUpcoming(),
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.HorizonDays < 21 {
		c.HorizonDays = defaultHorizon
	}
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.HighlightRed == nil {
		c.HighlightRed = []string{}
	}
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = 1304
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = 984
	}
	if c.Canvas.HeaderHeight < 0 || c.Canvas.HeaderHeight >= c.Canvas.Height {
		c.Canvas.HeaderHeight = 80
	}
	switch c.Font.Kind {
	case "opentype", "tinyfont":
	default:
		// Unknown value; fall back to opentype so rendering still works.
		c.Font.Kind = "opentype"
	}
	if c.Font.LineSpacingPct < 0 {
		c.Font.LineSpacingPct = 20
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	c.Views.Weekly.normalize("weekly", defaultWeekly())
	c.Views.Sliding.normalize("sliding", defaultSliding())
	c.Views.Upcoming.normalize(defaultUpcoming())
}

// normalize repairs out-of-range values with a warning. max_levels and
// font_sizes are left alone so Validate reports them.
func (v *ViewSettings) normalize(name string, def ViewSettings) {
	fill := func(key string, p *int, d int) {
		if *p <= 0 {
			appLog.Warn("config value repaired", "view", name, "key", key, "value", *p, "default", d)
			*p = d
		}
	}
	fill("max_events_per_day", &v.MaxEventsPerDay, def.MaxEventsPerDay)
	fill("bar_max_lines", &v.BarMaxLines, def.BarMaxLines)
	fill("row_max_lines", &v.RowMaxLines, def.RowMaxLines)
	fill("time_font_size", &v.TimeFontSize, def.TimeFontSize)
	fill("bar_min_height_px", &v.BarMinHeight, def.BarMinHeight)
	// Spacing may legitimately be zero; only reject negatives.
	for _, p := range []*int{&v.Gap, &v.EventGap, &v.HeaderOffset, &v.CellPadding, &v.BarInset, &v.BarPadding} {
		if *p < 0 {
			appLog.Warn("config spacing repaired", "view", name, "value", *p)
			*p = 0
		}
	}
}

func (u *UpcomingSettings) normalize(def UpcomingSettings) {
	fill := func(key string, p *int, d int) {
		if *p <= 0 {
			appLog.Warn("config value repaired", "view", "upcoming", "key", key, "value", *p, "default", d)
			*p = d
		}
	}
	fill("max_events_per_category", &u.MaxEventsPerCategory, def.MaxEventsPerCategory)
	fill("header_height_px", &u.HeaderHeight, def.HeaderHeight)
	fill("event_estimate_px", &u.EventEstimate, def.EventEstimate)
	if u.BottomMargin < 0 {
		appLog.Warn("config value repaired", "view", "upcoming", "key", "bottom_margin_px", "value", u.BottomMargin, "default", def.BottomMargin)
		u.BottomMargin = def.BottomMargin
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// gridHeight is the canvas height available to grid rows.
func (c *Config) gridHeight() int {
	return c.Canvas.Height - c.Canvas.HeaderHeight
}

func (v ViewSettings) viewConfig(cellWidth, cellHeight int) layout.ViewConfig {
	return layout.ViewConfig{
		MaxEventsPerDay: v.MaxEventsPerDay,
		ShowTime:        v.ShowTime,
		ShowAllDay:      v.ShowAllDay,
		MaxLevels:       v.MaxLevels,
		FontSizes:       v.FontSizes,
		Gap:             v.Gap,
		EventGap:        v.EventGap,
		CellWidth:       cellWidth,
		CellHeight:      cellHeight,
		HeaderOffset:    v.HeaderOffset,
		CellPadding:     v.CellPadding,
		BarInset:        v.BarInset,
		BarPadding:      v.BarPadding,
		BarMinHeight:    v.BarMinHeight,
		BarMaxLines:     v.BarMaxLines,
		RowMaxLines:     v.RowMaxLines,
		TimeFontSize:    v.TimeFontSize,
		InlineTime:      v.InlineTime,
	}
}

// WeeklyView derives the single-row view configuration from the canvas.
func (c *Config) WeeklyView() layout.ViewConfig {
	return c.Views.Weekly.viewConfig(c.Canvas.Width/layout.Columns, c.gridHeight())
}

// SlidingView derives the three-row view configuration from the canvas.
func (c *Config) SlidingView() layout.ViewConfig {
	return c.Views.Sliding.viewConfig(c.Canvas.Width/layout.Columns, c.gridHeight()/3)
}

// UpcomingView derives the upcoming list configuration from the canvas.
func (c *Config) UpcomingView() layout.UpcomingConfig {
	u := layout.DefaultUpcomingConfig(c.Canvas.Width, c.Canvas.Height)
	s := c.Views.Upcoming
	u.MaxEventsPerCategory = s.MaxEventsPerCategory
	u.ShowTime = s.ShowTime
	u.ShowAllDay = s.ShowAllDay
	u.FontSizes = s.FontSizes
	u.HeaderAdvance = s.HeaderHeight
	u.EventEstimate = s.EventEstimate
	u.BottomMargin = s.BottomMargin
	return u
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML over the defaults
//   - normalize
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Unmarshal over the defaults so omitted booleans keep their default.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the layout configuration of every enabled view.
func (c *Config) Validate() error {
	if c.Views.Weekly.Enabled {
		if err := c.WeeklyView().Validate(); err != nil {
			return fmt.Errorf("views.weekly: %w", err)
		}
	}
	if c.Views.Sliding.Enabled {
		if err := c.SlidingView().Validate(); err != nil {
			return fmt.Errorf("views.sliding: %w", err)
		}
	}
	if c.Views.Upcoming.Enabled {
		if err := c.UpcomingView().Validate(); err != nil {
			return fmt.Errorf("views.upcoming: %w", err)
		}
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: nil config")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wallcal-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("config: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("config: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("config: rename: %w", err)
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
