package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/config"
	"github.com/alnah/go-log2html/internal/fileutil"
	"github.com/alnah/go-log2html/internal/hints"
)

// filePermissions applies to exported config files.
const filePermissions = 0o644

// runSettings dispatches the settings subcommands.
func runSettings(ctx context.Context, args []string, env *Environment) error {
	if len(args) == 0 {
		printSettingsUsage(env.Stderr)
		return fmt.Errorf("%w: settings needs a subcommand", ErrUsage)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "show":
		return runSettingsShow(ctx, rest, env)
	case "export":
		return runSettingsExport(ctx, rest, env)
	case "import":
		return runSettingsImport(ctx, rest, env)
	case "reset":
		return runSettingsReset(ctx, rest, env)
	default:
		printSettingsUsage(env.Stderr)
		return fmt.Errorf("%w: unknown settings subcommand: %s", ErrUsage, sub)
	}
}

// runSettingsShow prints the stored rules, options and palette.
// The config file is not applied: this shows what is saved.
func runSettingsShow(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSettingsFlags("settings show", args, env.Stderr, printSettingsUsage)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: settings show takes no arguments", ErrUsage)
	}

	s, err := openSession(ctx, env, config.DefaultConfig(), &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	palette, err := s.store.LoadPalette(ctx)
	if err != nil {
		return err
	}

	p := newPrinter(env, false)
	out := env.Stdout

	fmt.Fprintf(out, "Database: %s\n\n", s.store.Path())

	fmt.Fprintln(out, "Rules:")
	if len(s.rules) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for i, r := range s.rules {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", i+1, p.swatch(log2html.NormalizeColor(r.Color), r.Keyword), r.Color, r.Scope, caseLabel(r.CaseSensitive))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	o := s.options
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	fmt.Fprintf(out, "  whole word only: %t\n", o.WholeWordOnly)
	fmt.Fprintf(out, "  ignore case:     %t\n", o.IgnoreCase)
	fmt.Fprintf(out, "  encoding:        %s\n", encodingLabel(o.Encoding))
	fmt.Fprintf(out, "  background:      %s\n", o.Theme.Background)
	fmt.Fprintf(out, "  foreground:      %s\n", o.Theme.Foreground)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Palette:")
	swatches := make([]string, 0, len(palette))
	for _, c := range palette {
		swatches = append(swatches, p.swatch(c, c))
	}
	fmt.Fprintf(out, "  %s\n", strings.Join(swatches, " "))

	fmt.Fprintln(out)
	fmt.Fprintf(out, "History: %d record(s)\n", len(s.history))
	return nil
}

// caseLabel describes a rule's case sensitivity.
func caseLabel(caseSensitive *bool) string {
	switch {
	case caseSensitive == nil:
		return "case: global"
	case *caseSensitive:
		return "case: exact"
	default:
		return "case: ignore"
	}
}

// encodingLabel names the effective input encoding.
func encodingLabel(name string) string {
	if name == "" {
		return log2html.EncodingAuto
	}
	return name
}

// runSettingsExport writes the stored rules and options as a YAML config,
// to the given file or stdout.
func runSettingsExport(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSettingsFlags("settings export", args, env.Stderr, printSettingsUsage)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: settings export takes at most one file", ErrUsage)
	}

	s, err := openSession(ctx, env, config.DefaultConfig(), &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := config.FromSettings(s.rules, s.options).Marshal()
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if len(positional) == 0 {
		_, err := env.Stdout.Write(data)
		return err
	}

	path := positional[0]
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %w%s", ErrOutputDir, err, hints.ForOutputDirectory())
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil { // #nosec G306 -- config files are not secret
		return fmt.Errorf("%w: %v", log2html.ErrOutputWrite, err)
	}
	newPrinter(env, flags.common.quiet).success("Exported", path)
	return nil
}

// runSettingsImport loads a YAML config and saves its rules and options
// over the stored ones. Sections absent from the file keep their values.
func runSettingsImport(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSettingsFlags("settings import", args, env.Stderr, printSettingsUsage)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: settings import needs one config file", ErrUsage)
	}

	cfg, err := loadConfig(importPath(positional[0]), &envConfig{})
	if err != nil {
		return err
	}

	s, err := openSession(ctx, env, cfg, &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	// Reject what would fail at conversion time.
	if _, err := s.compile(); err != nil {
		return err
	}

	if err := s.store.SaveRules(ctx, s.rules, s.options); err != nil {
		return withStoreHint(err)
	}
	newPrinter(env, flags.common.quiet).success("Imported", fmt.Sprintf("%s (%d rules)", positional[0], len(s.rules)))
	return nil
}

// runSettingsReset restores the default rules, options and palette.
// History is kept.
func runSettingsReset(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSettingsFlags("settings reset", args, env.Stderr, printSettingsUsage)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: settings reset takes no arguments", ErrUsage)
	}

	s, err := openSession(ctx, env, config.DefaultConfig(), &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.SaveRules(ctx, log2html.DefaultRules(), log2html.DefaultOptions()); err != nil {
		return withStoreHint(err)
	}
	if err := s.store.SavePalette(ctx, log2html.DefaultPalette()); err != nil {
		return withStoreHint(err)
	}
	newPrinter(env, flags.common.quiet).success("Reset", s.store.Path())
	return nil
}

// importPath makes a bare existing file name load as a path rather than be
// searched as a config name.
func importPath(arg string) string {
	if fileutil.IsFilePath(arg) || !fileutil.FileExists(arg) {
		return arg
	}
	return "." + string(filepath.Separator) + arg
}
