package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	log2html "github.com/alnah/go-log2html"
)

// ErrInvalidRuleFlag indicates a malformed --rule value.
var ErrInvalidRuleFlag = errors.New("invalid rule flag (want KEYWORD=COLOR[:line|word])")

// defaultDebounce groups bursts of write events in watch mode.
const defaultDebounce = 300 * time.Millisecond

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	db      string
	noStore bool
	quiet   bool
	verbose bool
}

// matchFlags holds rule and rendering overrides.
type matchFlags struct {
	rules         []string
	wholeWord     bool
	ignoreCase    bool
	caseSensitive bool
	encoding      string
	background    string
	foreground    string

	// Set after parsing; tells explicit false apart from "not given".
	wholeWordSet  bool
	ignoreCaseSet bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	match     matchFlags
	output    string
	noHistory bool
}

// watchFlags holds all flags for the watch command.
type watchFlags struct {
	common    commonFlags
	match     matchFlags
	output    string
	debounce  time.Duration
	noHistory bool
}

// historyFlags holds flags for the history command.
type historyFlags struct {
	common     commonFlags
	limit      int
	dateFormat string
}

// reconvertFlags holds flags for the reconvert command.
type reconvertFlags struct {
	common commonFlags
	match  matchFlags
	all    bool
}

// settingsFlags holds flags for the settings and forget commands.
type settingsFlags struct {
	common commonFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.db, "db", "", "settings database path")
	fs.BoolVar(&f.noStore, "no-store", false, "use built-in defaults, do not open the settings database")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")
}

// addStoreFlags adds the flags of commands that always need the database.
func addStoreFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.db, "db", "", "settings database path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")
}

// addDBFlags adds the flags of commands working on stored settings only.
func addDBFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.db, "db", "", "settings database path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details to stderr")
}

// addMatchFlags adds rule and rendering flags to a FlagSet.
func addMatchFlags(fs *flag.FlagSet, f *matchFlags) {
	fs.StringArrayVarP(&f.rules, "rule", "k", nil, "keyword rule KEYWORD=COLOR[:line|word] (repeatable, replaces stored rules)")
	fs.BoolVarP(&f.wholeWord, "whole-word", "w", false, "match whole words only")
	fs.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "ignore case when matching")
	fs.BoolVar(&f.caseSensitive, "case-sensitive", false, "match case exactly")
	fs.StringVarP(&f.encoding, "encoding", "e", "", "input encoding (auto, utf-8, windows-1252, ...)")
	fs.StringVar(&f.background, "background", "", "page background color")
	fs.StringVar(&f.foreground, "foreground", "", "default text color")
}

// finishMatchFlags records which tri-state flags were given.
func finishMatchFlags(fs *flag.FlagSet, f *matchFlags) error {
	f.wholeWordSet = fs.Changed("whole-word")
	if fs.Changed("ignore-case") && fs.Changed("case-sensitive") {
		return fmt.Errorf("%w: --ignore-case and --case-sensitive are mutually exclusive", ErrUsage)
	}
	if fs.Changed("case-sensitive") {
		f.ignoreCase = !f.caseSensitive
		f.ignoreCaseSet = true
	}
	if fs.Changed("ignore-case") {
		f.ignoreCaseSet = true
	}
	return nil
}

// parseFlagSet runs fs.Parse and wraps failures as usage errors.
func parseFlagSet(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// newFlagSet creates a FlagSet reporting to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", w, printConvertUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not record conversions")
	addCommonFlags(fs, &f.common)
	addMatchFlags(fs, &f.match)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	if err := finishMatchFlags(fs, &f.match); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string, w io.Writer) (*watchFlags, []string, error) {
	f := &watchFlags{}
	fs := newFlagSet("watch", w, printWatchUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.DurationVar(&f.debounce, "debounce", defaultDebounce, "quiet period before re-converting")
	fs.BoolVar(&f.noHistory, "no-history", false, "do not record conversions")
	addCommonFlags(fs, &f.common)
	addMatchFlags(fs, &f.match)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	if err := finishMatchFlags(fs, &f.match); err != nil {
		return nil, nil, err
	}
	if f.debounce < 0 {
		return nil, nil, fmt.Errorf("%w: --debounce must not be negative", ErrUsage)
	}
	return f, fs.Args(), nil
}

// parseHistoryFlags parses history command flags.
func parseHistoryFlags(args []string, w io.Writer) (*historyFlags, []string, error) {
	f := &historyFlags{}
	fs := newFlagSet("history", w, printHistoryUsage)

	fs.IntVarP(&f.limit, "limit", "n", 0, "show at most n records (0 = all)")
	fs.StringVar(&f.dateFormat, "date-format", "", "timestamp format or preset (iso, date, european, us, long)")
	addStoreFlags(fs, &f.common)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	if f.limit < 0 {
		return nil, nil, fmt.Errorf("%w: --limit must not be negative", ErrUsage)
	}
	return f, fs.Args(), nil
}

// parseReconvertFlags parses reconvert command flags.
func parseReconvertFlags(args []string, w io.Writer) (*reconvertFlags, []string, error) {
	f := &reconvertFlags{}
	fs := newFlagSet("reconvert", w, printReconvertUsage)

	fs.BoolVarP(&f.all, "all", "a", false, "re-convert every record")
	addStoreFlags(fs, &f.common)
	addMatchFlags(fs, &f.match)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	if err := finishMatchFlags(fs, &f.match); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseSettingsFlags parses flags for settings subcommands and forget.
func parseSettingsFlags(name string, args []string, w io.Writer, usage func(io.Writer)) (*settingsFlags, []string, error) {
	f := &settingsFlags{}
	fs := newFlagSet(name, w, usage)
	addDBFlags(fs, &f.common)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseRuleFlag parses KEYWORD=COLOR[:line|word]. The keyword may itself
// contain '=': the value is split at the last one.
func parseRuleFlag(value string) (log2html.KeywordRule, error) {
	i := strings.LastIndex(value, "=")
	if i <= 0 {
		return log2html.KeywordRule{}, fmt.Errorf("%w: %q", ErrInvalidRuleFlag, value)
	}
	keyword, colorPart := value[:i], value[i+1:]
	if strings.TrimSpace(keyword) == "" {
		return log2html.KeywordRule{}, fmt.Errorf("%w: %q: empty keyword", ErrInvalidRuleFlag, value)
	}

	scope := log2html.ScopeWord
	if j := strings.LastIndex(colorPart, ":"); j >= 0 {
		s, err := log2html.ParseScope(colorPart[j+1:])
		if err != nil {
			return log2html.KeywordRule{}, fmt.Errorf("%w: %q: %w", ErrInvalidRuleFlag, value, err)
		}
		scope = s
		colorPart = colorPart[:j]
	}
	if strings.TrimSpace(colorPart) == "" {
		return log2html.KeywordRule{}, fmt.Errorf("%w: %q: empty color", ErrInvalidRuleFlag, value)
	}

	return log2html.KeywordRule{Keyword: keyword, Color: strings.TrimSpace(colorPart), Scope: scope}, nil
}

// parseRuleFlags parses every --rule value in order.
func parseRuleFlags(values []string) ([]log2html.KeywordRule, error) {
	if len(values) == 0 {
		return nil, nil
	}
	rules := make([]log2html.KeywordRule, 0, len(values))
	for _, v := range values {
		r, err := parseRuleFlag(v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// applyMatchFlags overlays explicitly given flags onto opts.
func applyMatchFlags(f *matchFlags, opts log2html.Options) log2html.Options {
	if f.wholeWordSet {
		opts.WholeWordOnly = f.wholeWord
	}
	if f.ignoreCaseSet {
		opts.IgnoreCase = f.ignoreCase
	}
	if f.encoding != "" {
		opts.Encoding = f.encoding
	}
	if f.background != "" {
		opts.Theme.Background = f.background
	}
	if f.foreground != "" {
		opts.Theme.Foreground = f.foreground
	}
	return opts
}
