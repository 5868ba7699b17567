// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// DirPerm is the permission used for directories created on behalf of the user.
const DirPerm = 0o750

// NormalizeExtension validates ext and returns it lowercased with a leading
// dot: "LOG" and ".log" both become ".log".
func NormalizeExtension(ext string) (string, error) {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return "", ErrExtensionEmpty
	}
	if strings.ContainsAny(ext, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrExtensionPathTraversal, ext)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext), nil
}

// HasExtension reports whether path ends with one of exts (normalized,
// with leading dot). The comparison ignores case.
func HasExtension(path string, exts []string) bool {
	got := strings.ToLower(filepath.Ext(path))
	if got == "" {
		return false
	}
	for _, ext := range exts {
		if got == ext {
			return true
		}
	}
	return false
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates dir and its parents with DirPerm. An empty dir is a no-op.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "work" -> false (config name)
//   - "./work.yaml" -> true (relative path)
//   - "/etc/log2html/work.yaml" -> true (absolute)
//   - "C:\cfg\work.yaml" -> true (Windows)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}
