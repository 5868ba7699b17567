// Package store persists keyword rules, options, the color palette and
// conversion history in a SQLite database.
//
// Writers serialize on a lock file next to the database so that a watch
// process and one-shot conversions can share the same settings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/fileutil"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// DefaultFileName is the database file name inside the user config directory.
const DefaultFileName = "settings.db"

// DefaultLockTimeout bounds how long a writer waits for the lock file.
const DefaultLockTimeout = 5 * time.Second

const (
	lockRetryDelay = 50 * time.Millisecond
	busyTimeoutMS  = 5000
	timeLayout     = time.RFC3339Nano
)

// Sentinel errors for store operations.
var (
	ErrOpen   = errors.New("failed to open settings store")
	ErrLocked = errors.New("settings store is locked by another process")
	ErrQuery  = errors.New("settings store query failed")
)

var _ log2html.SettingsProvider = (*Store)(nil)

// Settings is everything the store holds.
type Settings struct {
	Rules   []log2html.KeywordRule
	Options log2html.Options
	Palette []string
	History log2html.History
}

// Store is a SQLite-backed settings provider.
type Store struct {
	db          *sql.DB
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	logger      logrus.FieldLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for lock and seed diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLockTimeout sets how long writers wait for the lock file.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// DefaultPath returns <user config dir>/go-log2html/settings.db.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: locating user config directory: %v", ErrOpen, err)
	}
	return filepath.Join(dir, "go-log2html", DefaultFileName), nil
}

// Open opens (creating if needed) the database at path, creates the schema
// and seeds defaults on first use.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrOpen)
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: DefaultLockTimeout,
		logger:      discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", filepath.ToSlash(path), busyTimeoutMS)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	// One connection keeps the CLI's access pattern strictly sequential.
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.ensureCreated(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withLock runs fn while holding the exclusive lock file.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrLocked, s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.WithError(err).Warn("failed to release settings lock")
		}
	}()

	return fn()
}

// inTx runs fn in a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrQuery, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrQuery, err)
	}
	return nil
}
