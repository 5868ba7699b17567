package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log2html "github.com/alnah/go-log2html"
	"github.com/alnah/go-log2html/internal/hints"
	"github.com/alnah/go-log2html/internal/fileutil"
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath string
	OutputDir string // empty = next to the input
}

// discoverFiles expands inputs into the files to convert.
//
// A file argument is used as given, whatever its extension. A directory is
// walked recursively and only files with one of exts are kept; with an
// output directory, the input tree layout is mirrored below it.
func discoverFiles(inputs []string, outputDir string, exts []string) ([]FileToConvert, error) {
	var files []FileToConvert
	seen := make(map[string]bool)

	add := func(f FileToConvert) {
		if seen[f.InputPath] {
			return
		}
		seen[f.InputPath] = true
		files = append(files, f)
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s: %w%s", log2html.ErrNotFound, input, fs.ErrNotExist, hints.ForInputNotFound(input))
			}
			return nil, fmt.Errorf("%w: %v", log2html.ErrInputRead, err)
		}

		if !info.IsDir() {
			add(FileToConvert{InputPath: input, OutputDir: outputDir})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || !fileutil.HasExtension(path, exts) {
				return nil
			}
			add(FileToConvert{InputPath: path, OutputDir: mirrorOutputDir(path, input, outputDir)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// mirrorOutputDir returns the output directory for path found under root.
func mirrorOutputDir(path, root, outputDir string) string {
	if outputDir == "" {
		return ""
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return outputDir
	}
	return filepath.Join(outputDir, rel)
}

// resolveInputs determines the inputs from arguments or config.
func resolveInputs(args []string, defaultDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if defaultDir != "" {
		return []string{defaultDir}, nil
	}
	return nil, ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput, defaultDir string) string {
	if flagOutput != "" {
		return flagOutput
	}
	return defaultDir
}

// ensureOutputDirs creates every distinct output directory.
func ensureOutputDirs(files []FileToConvert) error {
	done := make(map[string]bool)
	for _, f := range files {
		if f.OutputDir == "" || done[f.OutputDir] {
			continue
		}
		if err := fileutil.EnsureDir(f.OutputDir); err != nil {
			return fmt.Errorf("%w: %w%s", ErrOutputDir, err, hints.ForOutputDirectory())
		}
		done[f.OutputDir] = true
	}
	return nil
}
