package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	log2html "github.com/alnah/go-log2html"
)

// watchAddTimeout bounds watcher.Add, which can hang on some network mounts.
const watchAddTimeout = 5 * time.Second

// runWatch converts the inputs, then re-converts each one whenever it
// changes until interrupted. Each file keeps a single history record.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseWatchFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	files, cfg, err := discoverFromFlags(positional, flags.output, flags.common.config)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, env, cfg, &flags.common, &flags.match)
	if err != nil {
		return err
	}
	defer s.Close()

	rules, err := s.compile()
	if err != nil {
		return err
	}

	w := &fileWatcher{
		session:  s,
		rules:    rules,
		conv:     s.converter(),
		printer:  newPrinter(env, flags.common.quiet),
		debounce: flags.debounce,
		record:   !flags.noHistory,
	}
	return w.run(ctx, files)
}

// fileWatcher re-converts tracked files from a single event loop.
type fileWatcher struct {
	session  *session
	rules    *log2html.RuleSet
	conv     *log2html.Converter
	printer  *printer
	debounce time.Duration
	record   bool

	// onReady, when set, is called once the watcher is listening.
	onReady func()

	tracked map[string]FileToConvert
	records map[string]*log2html.ConversionRecord
}

// run converts every file once, then serves change events until ctx ends.
func (w *fileWatcher) run(ctx context.Context, files []FileToConvert) error {
	log := w.session.env.logger()

	w.tracked = make(map[string]FileToConvert, len(files))
	w.records = make(map[string]*log2html.ConversionRecord, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		key := filepath.Clean(f.InputPath)
		w.tracked[key] = f
		dirs[filepath.Dir(key)] = true
	}

	for _, f := range files {
		w.convert(ctx, filepath.Clean(f.InputPath))
	}
	if err := ctx.Err(); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("failed to close file watcher")
		}
	}()

	// Directories are watched rather than files so that editors and log
	// rotation replacing the file are still seen.
	for dir := range dirs {
		if err := addWithTimeout(watcher, dir); err != nil {
			return err
		}
	}

	w.printer.info("Watching %d file(s), press Ctrl+C to stop", len(files))
	if w.onReady != nil {
		w.onReady()
	}

	due := make(chan string)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case due <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Debug("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if _, tracked := w.tracked[path]; !tracked {
				continue
			}
			log.WithFields(logrus.Fields{"file": path, "op": event.Op.String()}).Debug("watch event")
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				schedule(path)
			}

		case path := <-due:
			w.convert(ctx, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("file watcher error")
		}
	}
}

// convert (re)converts one tracked file and records it. Failures are
// reported and the watch goes on.
func (w *fileWatcher) convert(ctx context.Context, path string) {
	s := w.session
	f := w.tracked[path]

	verb := "Updated"
	rec, exists := w.records[path]
	if exists {
		err := restoreOutputDir(rec.OutputPath)
		if err == nil {
			err = w.conv.Reconvert(ctx, rec, w.rules, s.options.Theme, s.options.Encoding)
		}
		if err != nil {
			w.fail(ctx, path, err)
			return
		}
	} else {
		fresh, err := w.conv.Convert(ctx, log2html.Job{
			InputPath: f.InputPath,
			OutputDir: f.OutputDir,
			Rules:     w.rules,
			Theme:     s.options.Theme,
			Encoding:  s.options.Encoding,
		})
		if err != nil {
			w.fail(ctx, path, err)
			return
		}
		rec = fresh
		w.records[path] = rec
		verb = "Created"
	}

	if w.record {
		if err := s.record(ctx, *rec); err != nil {
			s.env.logger().WithError(err).Warn("failed to record conversion")
		}
	}
	w.printer.success(verb, rec.OutputPath)
}

// fail reports a conversion error unless the watch is shutting down.
func (w *fileWatcher) fail(ctx context.Context, path string, err error) {
	if ctx.Err() != nil {
		return
	}
	w.printer.failure(path, err)
}

// addWithTimeout adds dir to the watcher, giving up after watchAddTimeout.
func addWithTimeout(watcher *fsnotify.Watcher, dir string) error {
	done := make(chan error, 1)
	go func() {
		done <- watcher.Add(dir)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	case <-time.After(watchAddTimeout):
		return fmt.Errorf("timeout watching %s", dir)
	}
}
