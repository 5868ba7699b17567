package log2html

import (
	"context"
	"fmt"
	"strings"
)

// Scope selects what a matching rule colors.
type Scope int

// Highlight scopes. The numeric values are persisted by the settings store.
const (
	ScopeWord Scope = iota // only the matched text
	ScopeLine              // the whole line containing a match
)

// Scope names as used in configuration files and flags.
const (
	scopeWordName = "word"
	scopeLineName = "line"
)

// String returns the configuration name of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeWord:
		return scopeWordName
	case ScopeLine:
		return scopeLineName
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// ParseScope converts "word" or "line" (case-insensitive) to a Scope.
// An empty string yields ScopeWord.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", scopeWordName:
		return ScopeWord, nil
	case scopeLineName:
		return ScopeLine, nil
	}
	return ScopeWord, fmt.Errorf("%w: %q (must be word or line)", ErrInvalidScope, s)
}

// Default theme colors.
const (
	DefaultBackground = "#111111"
	DefaultForeground = "#DDDDDD"
)

// KeywordRule maps a literal keyword to a display color.
type KeywordRule struct {
	Keyword string
	Color   string // #RGB, #RRGGBB, #AARRGGBB or a named CSS color
	Scope   Scope

	// CaseSensitive overrides Options.IgnoreCase for this rule when non-nil.
	CaseSensitive *bool
}

// ignoreCase reports whether the rule matches case-insensitively.
func (r KeywordRule) ignoreCase(global bool) bool {
	if r.CaseSensitive != nil {
		return !*r.CaseSensitive
	}
	return global
}

// Theme holds the page colors of the generated document.
type Theme struct {
	Background string
	Foreground string
}

// DefaultTheme returns the dark theme used when nothing is configured.
func DefaultTheme() Theme {
	return Theme{Background: DefaultBackground, Foreground: DefaultForeground}
}

// normalized returns the theme with both colors normalized, falling back
// to defaults for empty values.
func (t Theme) normalized() Theme {
	out := DefaultTheme()
	if strings.TrimSpace(t.Background) != "" {
		out.Background = NormalizeColor(t.Background)
	}
	if strings.TrimSpace(t.Foreground) != "" {
		out.Foreground = NormalizeColor(t.Foreground)
	}
	return out
}

// Options holds the global matching and rendering options.
type Options struct {
	WholeWordOnly bool
	IgnoreCase    bool
	Theme         Theme
	Encoding      string // "" or "auto" = UTF-8 with BOM detection
}

// DefaultOptions returns the options used for a fresh installation.
func DefaultOptions() Options {
	return Options{
		WholeWordOnly: false,
		IgnoreCase:    true,
		Theme:         DefaultTheme(),
	}
}

// DefaultRules returns the rule list seeded into a fresh installation.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{Keyword: "ERROR", Color: "#FF0000", Scope: ScopeWord},
		{Keyword: "WARN", Color: "#FFA500", Scope: ScopeWord},
		{Keyword: "INFO", Color: "#008000", Scope: ScopeWord},
	}
}

// DefaultPalette returns the colors offered to users picking a rule color.
func DefaultPalette() []string {
	return []string{
		"#FF0000", "#FFA500", "#FFFF00", "#008000",
		"#00CED1", "#1E90FF", "#800080", "#FF1493",
		"#FFFFFF", "#C0C0C0", "#808080", "#000000",
		"#8B4513", "#00FF00", "#ADD8E6", "#FFD700",
	}
}

// SettingsProvider loads and persists rules, options and history.
// The conversion core only consumes loaded values; it never touches
// the storage medium itself.
type SettingsProvider interface {
	LoadRules(ctx context.Context) ([]KeywordRule, error)
	LoadOptions(ctx context.Context) (Options, error)
	LoadHistory(ctx context.Context) (History, error)
	Save(ctx context.Context, rules []KeywordRule, opts Options, history History) error
}
