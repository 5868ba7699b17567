package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/config"
	"github.com/alnah/go-log2html/internal/fileutil"
	"github.com/alnah/go-log2html/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput    = errors.New("no input specified")
	ErrNoLogFiles = errors.New("no log files found")
	ErrOutputDir  = errors.New("cannot create output directory")
	ErrUsage      = errors.New("invalid usage")
)

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
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

	p := newPrinter(env, flags.common.quiet)
	return convertFiles(ctx, s, files, rules, p, !flags.noHistory)
}

// discoverFromFlags loads the config to resolve inputs and output dir, then
// discovers files. It runs before the store is opened so that bad input
// fails without touching the settings database.
func discoverFromFlags(positional []string, output, configName string) ([]FileToConvert, *config.Config, error) {
	cfg, err := loadConfig(configName, loadEnvConfig())
	if err != nil {
		return nil, nil, err
	}

	inputs, err := resolveInputs(positional, cfg.Input.DefaultDir)
	if err != nil {
		return nil, nil, err
	}

	files, err := discoverFiles(inputs, resolveOutputDir(output, cfg.Output.DefaultDir), cfg.Extensions())
	if err != nil {
		return nil, nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w in %s (extensions: %s)", ErrNoLogFiles, strings.Join(inputs, ", "), strings.Join(cfg.Extensions(), ", "))
	}
	if err := ensureOutputDirs(files); err != nil {
		return nil, nil, err
	}
	return files, cfg, nil
}

// convertFiles converts files one after another. A single file's error is
// returned as is; with several files, failures are reported per file and
// joined. Cancellation stops the run immediately.
func convertFiles(ctx context.Context, s *session, files []FileToConvert, rules *log2html.RuleSet, p *printer, record bool) error {
	conv := s.converter()
	log := s.env.logger()

	var errs []error
	for _, f := range files {
		rec, err := conv.Convert(ctx, log2html.Job{
			InputPath: f.InputPath,
			OutputDir: f.OutputDir,
			Rules:     rules,
			Theme:     s.options.Theme,
			Encoding:  s.options.Encoding,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, log2html.ErrOutputIsInput) {
				err = fmt.Errorf("%w%s", err, hints.ForOutputIsInput())
			}
			if len(files) == 1 {
				return err
			}
			p.failure(f.InputPath, err)
			errs = append(errs, err)
			continue
		}

		if record {
			if err := s.record(ctx, *rec); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{"id": rec.ID, "output": rec.OutputPath}).Info("converted")
		p.success("Created", rec.OutputPath)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w", len(errs), len(files), errors.Join(errs...))
	}
	return nil
}

// looksLikeLog reports whether arg should be treated as an implicit
// "convert" argument: an existing file or a name with a log extension.
func looksLikeLog(arg string) bool {
	return fileutil.HasExtension(arg, config.DefaultExtensions) || fileutil.FileExists(arg)
}
