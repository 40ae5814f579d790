package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Info("hidden", "k", 1)
	Warn("shown", "title", "Trip")
	Error("failed", errors.New("boom"), "id", "a")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected INFO line to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] shown title=Trip") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] failed err=boom id=a") {
		t.Fatalf("expected error line, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestOddKVIgnored(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Info("odd", "a", 1, "dangling")
	if strings.Contains(buf.String(), "dangling") {
		t.Fatalf("expected trailing key to be dropped, got %q", buf.String())
	}
}
