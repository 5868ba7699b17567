package main

// Notes:
// - parseRuleFlag: we test the KEYWORD=COLOR[:scope] grammar and its errors.
// - parse*Flags: we test tri-state flags, validation and error wrapping.
//   pflag's own parsing is not retested.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"io"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	log2html "github.com/alnah/go-log2html"
)

// ---------------------------------------------------------------------------
// TestParseRuleFlag - Rule grammar
// ---------------------------------------------------------------------------

func TestParseRuleFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    log2html.KeywordRule
		wantErr bool
	}{
		{"hex color", "ERROR=#FF0000", log2html.KeywordRule{Keyword: "ERROR", Color: "#FF0000"}, false},
		{"named color", "WARN=orange", log2html.KeywordRule{Keyword: "WARN", Color: "orange"}, false},
		{"line scope", "FATAL=#F0F:line", log2html.KeywordRule{Keyword: "FATAL", Color: "#F0F", Scope: log2html.ScopeLine}, false},
		{"explicit word scope", "x=red:WORD", log2html.KeywordRule{Keyword: "x", Color: "red"}, false},
		{"keyword with equals", "a=b=red", log2html.KeywordRule{Keyword: "a=b", Color: "red"}, false},
		{"keyword with spaces", "out of memory=red:line", log2html.KeywordRule{Keyword: "out of memory", Color: "red", Scope: log2html.ScopeLine}, false},
		{"keyword with colon", "code:500=red", log2html.KeywordRule{Keyword: "code:500", Color: "red"}, false},
		{"color trimmed", "x= red ", log2html.KeywordRule{Keyword: "x", Color: "red"}, false},
		{"no equals", "ERROR", log2html.KeywordRule{}, true},
		{"empty keyword", "=red", log2html.KeywordRule{}, true},
		{"blank keyword", "  =red", log2html.KeywordRule{}, true},
		{"empty color", "ERROR=", log2html.KeywordRule{}, true},
		{"empty color with scope", "ERROR=:line", log2html.KeywordRule{}, true},
		{"bad scope", "ERROR=red:paragraph", log2html.KeywordRule{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseRuleFlag(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRuleFlag) {
					t.Fatalf("parseRuleFlag(%q) error = %v, want ErrInvalidRuleFlag", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRuleFlag(%q) unexpected error: %v", tt.input, err)
			}
			if got.Keyword != tt.want.Keyword || got.Color != tt.want.Color || got.Scope != tt.want.Scope || got.CaseSensitive != nil {
				t.Errorf("parseRuleFlag(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRuleFlags_PreservesOrder(t *testing.T) {
	t.Parallel()

	rules, err := parseRuleFlags([]string{"b=red", "a=blue", "c=green:line"})
	if err != nil {
		t.Fatalf("parseRuleFlags() error = %v", err)
	}
	want := []string{"b", "a", "c"}
	for i, kw := range want {
		if rules[i].Keyword != kw {
			t.Errorf("rules[%d].Keyword = %q, want %q", i, rules[i].Keyword, kw)
		}
	}

	none, err := parseRuleFlags(nil)
	if err != nil || none != nil {
		t.Errorf("parseRuleFlags(nil) = %v, %v; want nil, nil", none, err)
	}
}

// ---------------------------------------------------------------------------
// TestParseConvertFlags - Flag parsing and tri-state options
// ---------------------------------------------------------------------------

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseConvertFlags([]string{
		"-k", "ERROR=red", "--rule", "FATAL=#F0F:line",
		"-w", "-e", "shift_jis", "-o", "out", "--no-history",
		"--db", "x.db", "-q", "a.log", "b.log",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseConvertFlags() error = %v", err)
	}

	if len(args) != 2 || args[0] != "a.log" || args[1] != "b.log" {
		t.Errorf("args = %v, want [a.log b.log]", args)
	}
	if len(f.match.rules) != 2 || f.match.rules[1] != "FATAL=#F0F:line" {
		t.Errorf("rules = %v", f.match.rules)
	}
	if !f.match.wholeWord || !f.match.wholeWordSet {
		t.Error("--whole-word not recorded")
	}
	if f.match.ignoreCaseSet {
		t.Error("ignoreCaseSet = true without a case flag")
	}
	if f.match.encoding != "shift_jis" || f.output != "out" || !f.noHistory {
		t.Errorf("flags = %+v", f)
	}
	if f.common.db != "x.db" || !f.common.quiet {
		t.Errorf("common = %+v", f.common)
	}
}

func TestParseConvertFlags_CaseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantSet    bool
		wantIgnore bool
		wantErr    error
	}{
		{"neither", nil, false, false, nil},
		{"ignore case", []string{"-i"}, true, true, nil},
		{"case sensitive", []string{"--case-sensitive"}, true, false, nil},
		{"explicit ignore false", []string{"--ignore-case=false"}, true, false, nil},
		{"both", []string{"-i", "--case-sensitive"}, false, false, ErrUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, _, err := parseConvertFlags(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.match.ignoreCaseSet != tt.wantSet || f.match.ignoreCase != tt.wantIgnore {
				t.Errorf("ignoreCase = (%v, set %v), want (%v, set %v)", f.match.ignoreCase, f.match.ignoreCaseSet, tt.wantIgnore, tt.wantSet)
			}
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown flag is a usage error", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseConvertFlags([]string{"--bogus"}, io.Discard)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
	})

	t.Run("help is passed through", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseHistoryFlags([]string{"--help"}, io.Discard)
		if !errors.Is(err, flag.ErrHelp) {
			t.Errorf("error = %v, want flag.ErrHelp", err)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseHistoryFlags([]string{"-n", "-1"}, io.Discard)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
	})

	t.Run("negative debounce", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseWatchFlags([]string{"--debounce", "-1s"}, io.Discard)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
	})

	t.Run("settings commands have no config flag", func(t *testing.T) {
		t.Parallel()

		_, _, err := parseSettingsFlags("settings show", []string{"--config", "x"}, io.Discard, printSettingsUsage)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("error = %v, want ErrUsage", err)
		}
	})
}

func TestParseWatchFlags_DefaultDebounce(t *testing.T) {
	t.Parallel()

	f, _, err := parseWatchFlags([]string{"app.log"}, io.Discard)
	if err != nil {
		t.Fatalf("parseWatchFlags() error = %v", err)
	}
	if f.debounce != 300*time.Millisecond {
		t.Errorf("debounce = %v, want 300ms", f.debounce)
	}
}

// ---------------------------------------------------------------------------
// TestApplyMatchFlags - Flags overlay options
// ---------------------------------------------------------------------------

func TestApplyMatchFlags(t *testing.T) {
	t.Parallel()

	base := log2html.DefaultOptions()

	t.Run("unset flags change nothing", func(t *testing.T) {
		t.Parallel()

		got := applyMatchFlags(&matchFlags{}, base)
		if got != base {
			t.Errorf("applyMatchFlags() = %+v, want %+v", got, base)
		}
	})

	t.Run("explicit values override", func(t *testing.T) {
		t.Parallel()

		got := applyMatchFlags(&matchFlags{
			wholeWord: true, wholeWordSet: true,
			ignoreCase: false, ignoreCaseSet: true,
			encoding:   "utf-16le",
			background: "#000", foreground: "white",
		}, base)

		if !got.WholeWordOnly || got.IgnoreCase {
			t.Errorf("matching = (%v, %v), want (true, false)", got.WholeWordOnly, got.IgnoreCase)
		}
		if got.Encoding != "utf-16le" || got.Theme.Background != "#000" || got.Theme.Foreground != "white" {
			t.Errorf("applyMatchFlags() = %+v", got)
		}
	})
}
