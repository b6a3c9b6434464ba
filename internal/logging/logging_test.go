package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextOutputFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(Info, NewTextOutput(&buf), "engine")
	l.Info("site 4 recovered")

	got := buf.String()
	if !strings.Contains(got, "INFO") || !strings.Contains(got, "engine") || !strings.Contains(got, "site 4 recovered") {
		t.Fatalf("TextOutput line = %q, missing expected fields", got)
	}
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := New(Warn, NewTextOutput(&buf), "engine")
	l.Info("should not appear")
	l.Warn("should appear")

	got := buf.String()
	if strings.Contains(got, "should not appear") {
		t.Fatalf("Info message leaked through Warn-level logger: %q", got)
	}
	if !strings.Contains(got, "should appear") {
		t.Fatalf("Warn message missing: %q", got)
	}
}

func TestJSONOutputWritesValidLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(Debug, NewJSONOutput(&buf), "site.1")
	l.Debug("probe granted")

	got := buf.String()
	if !strings.Contains(got, `"component":"site.1"`) || !strings.Contains(got, `"message":"probe granted"`) {
		t.Fatalf("JSONOutput line = %q, missing expected fields", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": Debug, "warn": Warn, "error": Error, "info": Info, "": Info, "bogus": Info}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
