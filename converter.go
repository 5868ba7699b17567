package log2html

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// outputBufferSize sizes the buffered writer between the renderer and disk.
const outputBufferSize = 64 << 10

// OutputExtension is appended to the input base name.
const OutputExtension = ".html"

// Converter runs conversion jobs. It holds no per-job state, so one
// Converter may run jobs for independent files concurrently as long as
// each job writes to a distinct output path.
type Converter struct {
	now    func() time.Time
	newID  func() string
	logger logrus.FieldLogger
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock sets the clock used for ConversionRecord.ConvertedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for job diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator sets the function producing record IDs.
func WithIDGenerator(newID func() string) Option {
	return func(c *Converter) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewConverter creates a Converter. By default it uses the wall clock,
// random UUIDs and a logger that discards everything.
func NewConverter(opts ...Option) *Converter {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Converter{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Job describes one conversion.
type Job struct {
	InputPath string
	OutputDir string   // empty = next to the input file
	Rules     *RuleSet // nil = no highlighting
	Theme     Theme
	Encoding  string // see ValidateEncoding
}

// OutputPath returns where a job writes its document: the input base name
// with its extension replaced by ".html", inside outputDir (or the input's
// directory when outputDir is empty). An existing file is overwritten.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + OutputExtension
	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}
	return filepath.Join(outputDir, name)
}

// Convert streams job.InputPath line by line into an HTML document and
// returns a record describing it.
//
// A missing input fails with ErrNotFound before any output is created. An
// output path naming the input itself fails with ErrInvalidInput and
// ErrOutputIsInput, leaving the input untouched. Write failures return ErrOutputWrite; bytes already flushed stay on disk.
// The context is checked between lines.
func (c *Converter) Convert(ctx context.Context, job Job) (rec *ConversionRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("%w: internal error: %v", ErrOutputWrite, r)
		}
	}()

	info, err := os.Stat(job.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, job.InputPath, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("%w: %v", ErrInputRead, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, job.InputPath)
	}

	decoder, err := newDecoder(job.Encoding)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(job.InputPath) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputRead, err)
	}
	defer func() { _ = in.Close() }()

	outPath := OutputPath(job.InputPath, job.OutputDir)
	if sameFile(job.InputPath, info, outPath) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, outPath, ErrOutputIsInput)
	}
	log := c.logger.WithFields(logrus.Fields{"input": job.InputPath, "output": outPath})
	log.WithFields(logrus.Fields{
		"lineRules": job.Rules.LineRuleCount(),
		"wordRules": job.Rules.WordRuleCount(),
	}).Debug("conversion started")

	start := time.Now()
	lines, err := writeDocument(ctx, transform.NewReader(in, decoder), outPath, job)
	if err != nil {
		log.WithError(err).WithField("lines", lines).Warn("conversion failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"lines":    lines,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("conversion finished")

	return &ConversionRecord{
		ID:           c.newID(),
		OriginalPath: job.InputPath,
		OutputPath:   outPath,
		ConvertedAt:  c.now(),
	}, nil
}

// sameFile reports whether outPath names the input file. An existing output
// is compared by identity so links and case-insensitive names are caught.
func sameFile(inputPath string, input fs.FileInfo, outPath string) bool {
	if out, err := os.Stat(outPath); err == nil {
		return os.SameFile(input, out)
	}
	in, err := filepath.Abs(inputPath)
	if err != nil {
		return false
	}
	out, err := filepath.Abs(outPath)
	if err != nil {
		return false
	}
	return in == out
}

// Reconvert reruns the conversion of rec.OriginalPath into the directory of
// rec.OutputPath and refreshes rec in place. rec.ID is preserved.
func (c *Converter) Reconvert(ctx context.Context, rec *ConversionRecord, rules *RuleSet, theme Theme, encoding string) error {
	if rec == nil {
		return ErrNilRecord
	}

	outDir := ""
	if rec.OutputPath != "" {
		outDir = filepath.Dir(rec.OutputPath)
	}

	fresh, err := c.Convert(ctx, Job{
		InputPath: rec.OriginalPath,
		OutputDir: outDir,
		Rules:     rules,
		Theme:     theme,
		Encoding:  encoding,
	})
	if err != nil {
		return err
	}

	rec.OutputPath = fresh.OutputPath
	rec.ConvertedAt = fresh.ConvertedAt
	return nil
}

// writeDocument renders src into outPath and returns the number of lines
// written. The output file is flushed and closed on every path.
func writeDocument(ctx context.Context, src io.Reader, outPath string, job Job) (n int, err error) {
	f, err := os.Create(outPath) // #nosec G304 -- derived from user-provided paths
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}

	enc := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	w := bufio.NewWriterSize(enc, outputBufferSize)
	defer func() {
		closeErr := errors.Join(w.Flush(), enc.Close(), f.Close())
		if closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %s: %v", ErrOutputWrite, outPath, closeErr)
		}
	}()

	if err := writeHeader(w, job.InputPath, job.Theme.normalized()); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}

	lines := newLineReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		line, ok, err := lines.next()
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrInputRead, err)
		}
		if !ok {
			break
		}

		if _, err := w.WriteString(job.Rules.RenderLine(line)); err != nil {
			return n, fmt.Errorf("%w: %v", ErrOutputWrite, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return n, fmt.Errorf("%w: %v", ErrOutputWrite, err)
		}
		n++
	}

	if err := writeFooter(w); err != nil {
		return n, fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return n, nil
}
