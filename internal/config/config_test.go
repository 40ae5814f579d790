package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wallcal/internal/layout"
	appLog "wallcal/internal/log"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Listen != defaultListen || !cfg.Views.Weekly.Enabled {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.Views.Sliding.MaxEventsPerDay = 4
	cfg.ICS = append(cfg.ICS, ICSConfig{ID: "work", Name: "Work", URL: "https://example.com/work.ics"})
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Timezone != "Europe/Berlin" || got.Views.Sliding.MaxEventsPerDay != 4 {
		t.Fatalf("expected saved values, got %+v", got)
	}
	if len(got.ICS) != 1 || got.ICS[0].ID != "work" {
		t.Fatalf("expected one ICS source, got %+v", got.ICS)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "admin" {
		t.Fatalf("expected basic auth, got %+v", got.BasicAuth)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
timezone: America/New_York
font:
  kind: bogus
views:
  weekly:
    max_events_per_day: 6
    show_time: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := cfg.Views.Weekly
	if w.MaxEventsPerDay != 6 || w.ShowTime || !w.ShowAllDay || !w.Enabled {
		t.Fatalf("expected overrides on top of defaults, got %+v", w)
	}
	if w.RowMaxLines != 2 || w.MaxLevels != 5 {
		t.Fatalf("expected default limits, got %+v", w)
	}
	if cfg.Font.Kind != "opentype" {
		t.Fatalf("expected unknown font kind to normalize, got %s", cfg.Font.Kind)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("views: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestViewsFollowCanvas(t *testing.T) {
	cfg := DefaultConfig()

	weekly := cfg.WeeklyView()
	if weekly.CellWidth != 186 || weekly.CellHeight != 904 || weekly.InlineTime {
		t.Fatalf("unexpected weekly geometry %+v", weekly)
	}
	sliding := cfg.SlidingView()
	if sliding.CellHeight != 301 || !sliding.InlineTime || sliding.MaxEventsPerDay != 3 {
		t.Fatalf("unexpected sliding geometry %+v", sliding)
	}
	if err := weekly.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	up := cfg.UpcomingView()
	if up.CanvasHeight != 984 || up.TitleWidth != 724 || up.MaxEventsPerCategory != 5 {
		t.Fatalf("unexpected upcoming config %+v", up)
	}
}

func TestBadTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	if _, err := cfg.Location(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoadRejectsZeroMaxLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
views:
  sliding:
    max_levels: 0
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, layout.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "views.sliding") {
		t.Fatalf("expected the view to be named, got %v", err)
	}
}

func TestLoadSkipsDisabledViews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
views:
  weekly:
    enabled: false
    font_sizes: []
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeWarnsOnRepair(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	defer appLog.SetOutput(os.Stderr)

	cfg := DefaultConfig()
	cfg.Views.Weekly.RowMaxLines = -1
	cfg.Normalize()

	if cfg.Views.Weekly.RowMaxLines != 2 {
		t.Fatalf("expected default row_max_lines, got %d", cfg.Views.Weekly.RowMaxLines)
	}
	out := buf.String()
	if !strings.Contains(out, "config value repaired") || !strings.Contains(out, "key=row_max_lines") {
		t.Fatalf("expected a repair warning, got %q", out)
	}
}
