package main

// Notes:
// - printer: we test the plain-text format with color disabled and quiet
//   suppression. Escape sequences are fatih/color's concern.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestParseHex - Hex color decoding
// ---------------------------------------------------------------------------

func TestParseHex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		r, g, b int
		ok      bool
	}{
		{"#FF0000", 255, 0, 0, true},
		{"#00ced1", 0, 206, 209, true},
		{"#abc", 0xaa, 0xbb, 0xcc, true},
		{"FF0000", 0, 0, 0, false},
		{"#FF00", 0, 0, 0, false},
		{"#GG0000", 0, 0, 0, false},
		{"red", 0, 0, 0, false},
		{"", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			r, g, b, ok := parseHex(tt.in)
			if ok != tt.ok || r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("parseHex(%q) = %d,%d,%d,%v, want %d,%d,%d,%v", tt.in, r, g, b, ok, tt.r, tt.g, tt.b, tt.ok)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrinter - Status lines
// ---------------------------------------------------------------------------

func TestPrinter_Plain(t *testing.T) {
	t.Parallel()

	env, stdout, stderr := newTestEnv()
	p := newPrinter(env, false)

	p.success("Created", "/tmp/a.html")
	p.info("Watching %d file(s)", 2)
	p.failure("/tmp/b.log", errors.New("boom"))

	if got, want := stdout.String(), "Created /tmp/a.html\nWatching 2 file(s)\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if got, want := stderr.String(), "FAILED /tmp/b.log: boom\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
}

func TestPrinter_Quiet(t *testing.T) {
	t.Parallel()

	env, stdout, stderr := newTestEnv()
	p := newPrinter(env, true)

	p.success("Created", "a.html")
	p.info("hello")
	p.failure("b.log", errors.New("boom"))

	if stdout.Len() != 0 {
		t.Errorf("quiet printer wrote to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "FAILED b.log") {
		t.Errorf("failures must print even when quiet, got %q", stderr.String())
	}
}

func TestPrinter_Swatch(t *testing.T) {
	t.Parallel()

	env, _, _ := newTestEnv()
	if got := newPrinter(env, false).swatch("#FF0000", "ERROR"); got != "ERROR" {
		t.Errorf("swatch without color = %q, want plain text", got)
	}

	env.Color = true
	p := newPrinter(env, false)
	if got := p.swatch("#FF0000", "ERROR"); got == "ERROR" || !strings.Contains(got, "ERROR") {
		t.Errorf("swatch with color = %q, want styled text", got)
	}
	if got := p.swatch("red", "ERROR"); got != "ERROR" {
		t.Errorf("swatch(named color) = %q, want plain text", got)
	}
}
