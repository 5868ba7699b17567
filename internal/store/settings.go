package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log2html "github.com/alnah/go-log2html"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Load reads all settings in one transaction.
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	var out Settings
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if out.Rules, err = loadRules(ctx, tx); err != nil {
			return err
		}
		if out.Options, err = loadOptions(ctx, tx); err != nil {
			return err
		}
		if out.Palette, err = loadPalette(ctx, tx); err != nil {
			return err
		}
		out.History, err = loadHistory(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadRules returns the keyword rules in display order.
func (s *Store) LoadRules(ctx context.Context) ([]log2html.KeywordRule, error) {
	return loadRules(ctx, s.db)
}

// LoadOptions returns the global options.
func (s *Store) LoadOptions(ctx context.Context) (log2html.Options, error) {
	return loadOptions(ctx, s.db)
}

// LoadHistory returns conversion records in the order they were first added.
func (s *Store) LoadHistory(ctx context.Context) (log2html.History, error) {
	return loadHistory(ctx, s.db)
}

// LoadPalette returns the palette colors in order.
func (s *Store) LoadPalette(ctx context.Context) ([]string, error) {
	return loadPalette(ctx, s.db)
}

// Save replaces rules, options and history atomically.
func (s *Store) Save(ctx context.Context, rules []log2html.KeywordRule, opts log2html.Options, history log2html.History) error {
	return s.withLock(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if err := saveOptions(ctx, tx, opts); err != nil {
				return err
			}
			if err := replaceRules(ctx, tx, rules); err != nil {
				return err
			}
			return replaceHistory(ctx, tx, history)
		})
	})
}

// SaveRules replaces the rules and options, leaving history untouched.
func (s *Store) SaveRules(ctx context.Context, rules []log2html.KeywordRule, opts log2html.Options) error {
	return s.withLock(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if err := saveOptions(ctx, tx, opts); err != nil {
				return err
			}
			return replaceRules(ctx, tx, rules)
		})
	})
}

// SavePalette replaces the palette.
func (s *Store) SavePalette(ctx context.Context, colors []string) error {
	return s.withLock(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return replacePalette(ctx, tx, colors)
		})
	})
}

// PutRecord inserts rec at the end of the history, or refreshes its output
// path and timestamp when a record with the same ID exists.
func (s *Store) PutRecord(ctx context.Context, rec log2html.ConversionRecord) error {
	return s.withLock(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO ConversionRecord (Id, OriginalPath, OutputPath, ConvertedAt, Position)
VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(Position), -1) + 1 FROM ConversionRecord))
ON CONFLICT(Id) DO UPDATE SET
    OutputPath = excluded.OutputPath,
    ConvertedAt = excluded.ConvertedAt`,
			rec.ID, rec.OriginalPath, rec.OutputPath, formatTime(rec.ConvertedAt))
		if err != nil {
			return fmt.Errorf("%w: saving record %s: %v", ErrQuery, rec.ID, err)
		}
		return nil
	})
}

// DeleteRecord removes the record with id. It returns
// log2html.ErrRecordNotFound when no record matches.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.withLock(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM ConversionRecord WHERE Id = ?`, id)
		if err != nil {
			return fmt.Errorf("%w: deleting record %s: %v", ErrQuery, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: deleting record %s: %v", ErrQuery, id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", log2html.ErrRecordNotFound, id)
		}
		return nil
	})
}

func loadRules(ctx context.Context, q queryer) ([]log2html.KeywordRule, error) {
	rows, err := q.QueryContext(ctx, `SELECT Keyword, ColorHex, Scope, CaseSensitive FROM KeywordRule ORDER BY DisplayOrder, Id`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading rules: %v", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	rules := []log2html.KeywordRule{}
	for rows.Next() {
		var (
			r         log2html.KeywordRule
			scope     int
			sensitive sql.NullBool
		)
		if err := rows.Scan(&r.Keyword, &r.Color, &scope, &sensitive); err != nil {
			return nil, fmt.Errorf("%w: scanning rule: %v", ErrQuery, err)
		}
		r.Scope = log2html.Scope(scope)
		if r.Scope != log2html.ScopeLine {
			r.Scope = log2html.ScopeWord
		}
		if sensitive.Valid {
			v := sensitive.Bool
			r.CaseSensitive = &v
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loading rules: %v", ErrQuery, err)
	}
	return rules, nil
}

func replaceRules(ctx context.Context, tx execer, rules []log2html.KeywordRule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM KeywordRule`); err != nil {
		return fmt.Errorf("%w: clearing rules: %v", ErrQuery, err)
	}
	for i, r := range rules {
		var sensitive any
		if r.CaseSensitive != nil {
			sensitive = *r.CaseSensitive
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO KeywordRule (Keyword, ColorHex, Scope, CaseSensitive, DisplayOrder) VALUES (?, ?, ?, ?, ?)`,
			r.Keyword, r.Color, int(r.Scope), sensitive, i)
		if err != nil {
			return fmt.Errorf("%w: saving rule %d: %v", ErrQuery, i, err)
		}
	}
	return nil
}

func loadOptions(ctx context.Context, q queryer) (log2html.Options, error) {
	var opts log2html.Options
	err := q.QueryRowContext(ctx, `SELECT WholeWordOnly, IgnoreCase, BackgroundColor, DefaultTextColor, Encoding FROM Settings WHERE Id = 1`).
		Scan(&opts.WholeWordOnly, &opts.IgnoreCase, &opts.Theme.Background, &opts.Theme.Foreground, &opts.Encoding)
	if errors.Is(err, sql.ErrNoRows) {
		return log2html.DefaultOptions(), nil
	}
	if err != nil {
		return log2html.Options{}, fmt.Errorf("%w: loading options: %v", ErrQuery, err)
	}
	return opts, nil
}

func saveOptions(ctx context.Context, tx execer, opts log2html.Options) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO Settings (Id, WholeWordOnly, IgnoreCase, BackgroundColor, DefaultTextColor, Encoding)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(Id) DO UPDATE SET
    WholeWordOnly = excluded.WholeWordOnly,
    IgnoreCase = excluded.IgnoreCase,
    BackgroundColor = excluded.BackgroundColor,
    DefaultTextColor = excluded.DefaultTextColor,
    Encoding = excluded.Encoding`,
		opts.WholeWordOnly, opts.IgnoreCase, opts.Theme.Background, opts.Theme.Foreground, opts.Encoding)
	if err != nil {
		return fmt.Errorf("%w: saving options: %v", ErrQuery, err)
	}
	return nil
}

func loadPalette(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT ColorHex FROM PaletteColor ORDER BY Position, Id`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading palette: %v", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	colors := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: scanning palette: %v", ErrQuery, err)
		}
		colors = append(colors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loading palette: %v", ErrQuery, err)
	}
	return colors, nil
}

func replacePalette(ctx context.Context, tx execer, colors []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM PaletteColor`); err != nil {
		return fmt.Errorf("%w: clearing palette: %v", ErrQuery, err)
	}
	for i, c := range colors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO PaletteColor (ColorHex, Position) VALUES (?, ?)`, c, i); err != nil {
			return fmt.Errorf("%w: saving palette color %d: %v", ErrQuery, i, err)
		}
	}
	return nil
}

func loadHistory(ctx context.Context, q queryer) (log2html.History, error) {
	rows, err := q.QueryContext(ctx, `SELECT Id, OriginalPath, OutputPath, ConvertedAt FROM ConversionRecord ORDER BY Position, ConvertedAt`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	history := log2html.History{}
	for rows.Next() {
		var (
			rec log2html.ConversionRecord
			at  string
		)
		if err := rows.Scan(&rec.ID, &rec.OriginalPath, &rec.OutputPath, &at); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %v", ErrQuery, err)
		}
		rec.ConvertedAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("%w: record %s has invalid timestamp %q", ErrQuery, rec.ID, at)
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loading history: %v", ErrQuery, err)
	}
	return history, nil
}

func replaceHistory(ctx context.Context, tx execer, history log2html.History) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM ConversionRecord`); err != nil {
		return fmt.Errorf("%w: clearing history: %v", ErrQuery, err)
	}
	for i, rec := range history {
		_, err := tx.ExecContext(ctx, `INSERT INTO ConversionRecord (Id, OriginalPath, OutputPath, ConvertedAt, Position) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.OriginalPath, rec.OutputPath, formatTime(rec.ConvertedAt), i)
		if err != nil {
			return fmt.Errorf("%w: saving record %s: %v", ErrQuery, rec.ID, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}
