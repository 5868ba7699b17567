package store

import (
	"context"
	"database/sql"
	"fmt"

	log2html "github.com/alnah/go-log2html"
)

// schema is applied statement by statement on every open.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS Settings (
    Id INTEGER PRIMARY KEY CHECK (Id = 1),
    WholeWordOnly INTEGER NOT NULL DEFAULT 0,
    IgnoreCase INTEGER NOT NULL DEFAULT 1,
    BackgroundColor TEXT NOT NULL,
    DefaultTextColor TEXT NOT NULL,
    Encoding TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS KeywordRule (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    Keyword TEXT NOT NULL,
    ColorHex TEXT NOT NULL,
    Scope INTEGER NOT NULL,
    CaseSensitive INTEGER NULL,
    DisplayOrder INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS IX_KeywordRule_Keyword ON KeywordRule(Keyword)`,
	`CREATE TABLE IF NOT EXISTS PaletteColor (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    ColorHex TEXT NOT NULL,
    Position INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS ConversionRecord (
    Id TEXT PRIMARY KEY,
    OriginalPath TEXT NOT NULL,
    OutputPath TEXT NOT NULL,
    ConvertedAt TEXT NOT NULL,
    Position INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS IX_ConversionRecord_ConvertedAt ON ConversionRecord(ConvertedAt)`,
}

// ensureCreated applies the schema and, when the Settings row does not exist
// yet, seeds default options, rules and palette in the same transaction.
func (s *Store) ensureCreated(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range schema {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%w: creating schema: %v", ErrOpen, err)
				}
			}

			opts := log2html.DefaultOptions()
			res, err := tx.ExecContext(ctx, `INSERT INTO Settings (Id, WholeWordOnly, IgnoreCase, BackgroundColor, DefaultTextColor, Encoding)
SELECT 1, ?, ?, ?, ?, ''
WHERE NOT EXISTS (SELECT 1 FROM Settings WHERE Id = 1)`,
				opts.WholeWordOnly, opts.IgnoreCase, opts.Theme.Background, opts.Theme.Foreground)
			if err != nil {
				return fmt.Errorf("%w: seeding settings: %v", ErrOpen, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("%w: seeding settings: %v", ErrOpen, err)
			}
			if n == 0 {
				return nil
			}

			s.logger.WithField("path", s.path).Info("seeding default settings")
			if err := replaceRules(ctx, tx, log2html.DefaultRules()); err != nil {
				return err
			}
			return replacePalette(ctx, tx, log2html.DefaultPalette())
		})
	})
}
