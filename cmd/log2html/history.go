package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/config"
	"github.com/alnah/go-log2html/internal/dateutil"
	"github.com/alnah/go-log2html/internal/fileutil"
	"github.com/alnah/go-log2html/internal/hints"
)

// runHistory lists conversion records, newest first.
func runHistory(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseHistoryFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: history takes no arguments", ErrUsage)
	}

	s, err := openSession(ctx, env, nil, &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	format := flags.dateFormat
	if format == "" {
		format = s.cfg.History.DateFormat
	}
	// Fail on a bad format even when the history is empty.
	if _, err := dateutil.Layout(format); err != nil {
		return err
	}

	records := s.history.Newest()
	if flags.limit > 0 && len(records) > flags.limit {
		records = records[:flags.limit]
	}

	if len(records) == 0 {
		if !flags.common.quiet {
			fmt.Fprintln(env.Stdout, "No conversions recorded.")
		}
		return nil
	}

	p := newPrinter(env, false)
	tw := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCONVERTED\tINPUT\tOUTPUT")
	for _, rec := range records {
		when, err := dateutil.Format(format, rec.ConvertedAt.Local())
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.dim.Sprint(shortID(rec.ID)), when, rec.OriginalPath, rec.OutputPath)
	}
	return tw.Flush()
}

// shortID abbreviates a record ID for listings. Any unique prefix is
// accepted back by forget and reconvert.
func shortID(id string) string {
	const n = 8
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// resolveRecord finds a record by ID or unique prefix, with hints.
func resolveRecord(h log2html.History, query string) (log2html.ConversionRecord, error) {
	rec, err := h.Resolve(query)
	switch {
	case errors.Is(err, log2html.ErrAmbiguousRecord):
		return rec, fmt.Errorf("%w%s", err, hints.ForAmbiguousRecord())
	case err != nil:
		return rec, fmt.Errorf("%w%s", err, hints.ForRecordNotFound())
	}
	return rec, nil
}

// runForget deletes records from the history. Output files stay on disk.
func runForget(ctx context.Context, args []string, env *Environment) error {
	flags, ids, err := parseSettingsFlags("forget", args, env.Stderr, printForgetUsage)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: forget needs at least one record ID", ErrUsage)
	}

	s, err := openSession(ctx, env, config.DefaultConfig(), &flags.common, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	// Resolve everything first so a typo deletes nothing.
	records := make([]log2html.ConversionRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := resolveRecord(s.history, id)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	p := newPrinter(env, flags.common.quiet)
	for _, rec := range records {
		if err := s.store.DeleteRecord(ctx, rec.ID); err != nil {
			return withStoreHint(err)
		}
		s.history.Remove(rec.ID)
		p.success("Forgot", rec.OriginalPath)
	}
	return nil
}

// runReconvert re-renders recorded conversions with the current settings
// and refreshes their records in place.
func runReconvert(ctx context.Context, args []string, env *Environment) error {
	flags, ids, err := parseReconvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if flags.all == (len(ids) > 0) {
		return fmt.Errorf("%w: give either record IDs or --all", ErrUsage)
	}

	s, err := openSession(ctx, env, nil, &flags.common, &flags.match)
	if err != nil {
		return err
	}
	defer s.Close()

	var records []log2html.ConversionRecord
	if flags.all {
		records = append(records, s.history...)
	} else {
		for _, id := range ids {
			rec, err := resolveRecord(s.history, id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		if !flags.common.quiet {
			fmt.Fprintln(env.Stdout, "No conversions recorded.")
		}
		return nil
	}

	rules, err := s.compile()
	if err != nil {
		return err
	}

	conv := s.converter()
	p := newPrinter(env, flags.common.quiet)

	var errs []error
	for i := range records {
		rec := &records[i]
		err := restoreOutputDir(rec.OutputPath)
		if err == nil {
			err = conv.Reconvert(ctx, rec, rules, s.options.Theme, s.options.Encoding)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if len(records) == 1 {
				return err
			}
			p.failure(rec.OriginalPath, err)
			errs = append(errs, err)
			continue
		}
		if err := s.record(ctx, *rec); err != nil {
			return err
		}
		p.success("Updated", rec.OutputPath)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w", len(errs), len(records), errors.Join(errs...))
	}
	return nil
}

// restoreOutputDir recreates the directory of a recorded output when it was
// removed after the conversion.
func restoreOutputDir(outputPath string) error {
	if outputPath == "" {
		return nil
	}
	dir := filepath.Dir(outputPath)
	if fileutil.DirExists(dir) {
		return nil
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: %w%s", ErrOutputDir, err, hints.ForOutputDirectory())
	}
	return nil
}
